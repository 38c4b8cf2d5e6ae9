package doctor

import (
	"fmt"
	"slices"

	"github.com/shadowblip/handycon-setup/internal/install"
	"github.com/shadowblip/handycon-setup/internal/messages"
	"github.com/shadowblip/handycon-setup/internal/udev"
)

// builtinDevice describes an input device the daemon grabs.
type builtinDevice struct {
	label string
	names []string
	phys  []string
}

var builtinDevices = []builtinDevice{
	{
		label: "gamepad",
		names: []string{"Microsoft X-Box 360 pad", "Generic X-Box pad"},
		phys:  []string{"usb-0000:03:00.3-4/input0", "usb-0000:00:14.0-9/input0"},
	},
	{
		label: "keyboard",
		names: []string{"AT Translated Set 2 keyboard"},
		phys:  []string{"isa0060/serio0/input0"},
	},
}

// CheckInitSystem fails unless systemd is the running init system.
func CheckInitSystem(systemdRunning bool) Result {
	if !systemdRunning {
		return Result{
			Status:         StatusFail,
			CheckName:      messages.DoctorCheckNameInit,
			Message:        messages.DoctorSystemdNotRunning,
			Recommendation: messages.DoctorSystemdNotRunningRecommend,
		}
	}
	return Result{Status: StatusOK, CheckName: messages.DoctorCheckNameInit, Message: messages.DoctorSystemdRunning}
}

// CheckControllerDevices looks for the built-in gamepad and keyboard among the
// enumerated input devices. While the service runs, a missing device is expected.
func CheckControllerDevices(devices []udev.InputDevice, enumerateErr error, serviceActive bool) []Result {
	if enumerateErr != nil {
		return []Result{{
			Status:         StatusWarn,
			CheckName:      messages.DoctorCheckNameDevices,
			Message:        fmt.Sprintf(messages.DoctorDeviceEnumerateFailedFmt, enumerateErr),
			Recommendation: messages.DoctorDeviceEnumerateRecommend,
		}}
	}
	results := make([]Result, 0, len(builtinDevices))
	for _, want := range builtinDevices {
		results = append(results, checkDevice(want, devices, serviceActive))
	}
	return results
}

func checkDevice(want builtinDevice, devices []udev.InputDevice, serviceActive bool) Result {
	for _, d := range devices {
		if !slices.Contains(want.names, d.Name) {
			continue
		}
		if d.Phys != "" && !slices.Contains(want.phys, d.Phys) {
			return Result{
				Status:         StatusWarn,
				CheckName:      messages.DoctorCheckNameDevices,
				Message:        fmt.Sprintf(messages.DoctorDeviceUnexpectedPhysFmt, want.label, d.Name, d.Phys),
				Recommendation: messages.DoctorDeviceUnexpectedPhysRecommend,
			}
		}
		return Result{
			Status:    StatusOK,
			CheckName: messages.DoctorCheckNameDevices,
			Message:   fmt.Sprintf(messages.DoctorDeviceFoundFmt, want.label, d.Name, d.Syspath),
		}
	}
	if serviceActive {
		return Result{
			Status:    StatusOK,
			CheckName: messages.DoctorCheckNameDevices,
			Message:   fmt.Sprintf(messages.DoctorDeviceHiddenFmt, want.label),
		}
	}
	return Result{
		Status:         StatusWarn,
		CheckName:      messages.DoctorCheckNameDevices,
		Message:        fmt.Sprintf(messages.DoctorDeviceMissingFmt, want.label),
		Recommendation: messages.DoctorDeviceMissingRecommend,
	}
}

// CheckInstall reports one result per managed path plus the service state, which is
// skipped for staging roots.
func CheckInstall(status install.Status) []Result {
	results := make([]Result, 0, len(status.Entries)+1)
	for _, entry := range status.Entries {
		switch entry.State {
		case install.EntryPresent:
			results = append(results, Result{
				Status:    StatusOK,
				CheckName: messages.DoctorCheckNameInstall,
				Message:   fmt.Sprintf(messages.DoctorEntryPresentFmt, entry.Dest),
			})
		case install.EntryDiffers:
			results = append(results, Result{
				Status:         StatusWarn,
				CheckName:      messages.DoctorCheckNameInstall,
				Message:        fmt.Sprintf(messages.DoctorEntryDiffersFmt, entry.Dest),
				Recommendation: messages.DoctorReinstallRecommend,
			})
		default:
			results = append(results, Result{
				Status:         StatusFail,
				CheckName:      messages.DoctorCheckNameInstall,
				Message:        fmt.Sprintf(messages.DoctorEntryMissingFmt, entry.Dest),
				Recommendation: messages.DoctorReinstallRecommend,
			})
		}
	}

	if status.FilesOnly {
		return results
	}
	service := Result{CheckName: messages.DoctorCheckNameService}
	switch {
	case status.ServiceEnabled && status.ServiceActive:
		service.Status = StatusOK
		service.Message = fmt.Sprintf(messages.DoctorServiceRunningFmt, status.Service)
	case status.ServiceEnabled:
		service.Status = StatusFail
		service.Message = fmt.Sprintf(messages.DoctorServiceInactiveFmt, status.Service)
		service.Recommendation = fmt.Sprintf(messages.DoctorServiceInactiveRecommendFmt, status.Service)
	default:
		service.Status = StatusFail
		service.Message = fmt.Sprintf(messages.DoctorServiceDisabledFmt, status.Service)
		service.Recommendation = messages.DoctorReinstallRecommend
	}
	return append(results, service)
}
