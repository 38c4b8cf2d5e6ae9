package messages

// Doctor messages for health checks.
const (
	DoctorCheckNameHardware = "Hardware"
	DoctorCheckNameInit     = "Init"
	DoctorCheckNameDevices  = "Devices"
	DoctorCheckNameInstall  = "Install"
	DoctorCheckNameService  = "Service"

	DoctorProductNameReadFailedFmt     = "Could not read %s: %v"
	DoctorUnsupportedHardwareFmt       = "%s is not a supported handheld"
	DoctorUnsupportedHardwareRecommend = "handycon supports AYANEO (2021, NEXT, AIR) and ONE XPLAYER devices. It will refuse to start on other hardware."
	DoctorSupportedHardwareFmt         = "%s detected (%s)"

	DoctorSystemdNotRunning          = "systemd is not the running init system"
	DoctorSystemdNotRunningRecommend = "The handycon service is a systemd unit. Use --dest-root to stage files on systems without systemd."
	DoctorSystemdRunning             = "systemd is running"

	DoctorDeviceEnumerateFailedFmt      = "Could not enumerate input devices: %v"
	DoctorDeviceEnumerateRecommend      = "Check that udev is running and /sys is mounted."
	DoctorDeviceUnexpectedPhysFmt       = "%s %q found at unexpected path %s"
	DoctorDeviceUnexpectedPhysRecommend = "handycon matches devices by physical path; this model may need a newer handycon."
	DoctorDeviceFoundFmt                = "%s %q found at %s"
	DoctorDeviceHiddenFmt               = "%s not visible; handycon is running and has grabbed it"
	DoctorDeviceMissingFmt              = "%s not found"
	DoctorDeviceMissingRecommend        = "Check that the controller is enabled in firmware and the xpad and atkbd drivers are loaded."

	DoctorEntryPresentFmt             = "%s is installed"
	DoctorEntryDiffersFmt             = "%s differs from the payload"
	DoctorEntryMissingFmt             = "%s is missing"
	DoctorReinstallRecommend          = "Run: sudo handycon-setup install"
	DoctorServiceRunningFmt           = "%s is enabled and running"
	DoctorServiceInactiveFmt          = "%s is enabled but not running"
	DoctorServiceInactiveRecommendFmt = "Inspect the daemon log with: journalctl -u %s"
	DoctorServiceDisabledFmt          = "%s is not enabled"
	DoctorInspectFailedFmt            = "Could not inspect the installation: %v"
	DoctorInspectFailedRecommend      = "Re-run with --verbose for details, or as root."

	DoctorFailureSummary = "Some checks failed. Please address the items above."
	DoctorSuccessSummary = "All checks passed."

	DoctorStatusOKLabel        = "[OK]  "
	DoctorStatusWarnLabel      = "[WARN]"
	DoctorStatusFailLabel      = "[FAIL]"
	DoctorResultLineFmt        = "%s %-10s %s\n"
	DoctorRecommendationPrefix = "       -> "
	DoctorRecommendationIndent = "          "
)
