package messages

// Install, remove, and rollback messages.
const (
	InstallStoreRequired         = "install: system store is required"
	InstallAssetsRequired        = "install: asset source is required"
	InstallInvalidServiceFmt     = "invalid service name %q"
	InstallReadAssetFmt          = "read asset %s: %w"
	InstallFileOpFailedFmt       = "%s %s: %w"
	InstallStepDependencies      = "Installing dependencies"
	InstallStepPlaceFmt          = "Installing %s %s"
	InstallStepEnableFmt         = "Enabling and starting %s"
	InstallDone                  = "Installation complete."
	InstallJournalHintFmt        = "Journal record %s; undo with 'handycon-setup rollback %[1]s'.\n"
	InstallRolledBackFmt         = "Step %q failed; completed steps were rolled back."
	InstallRollbackFailedFmt     = "Step %q failed and rollback also failed: %v"
	InstallStepRollbackFailedFmt = "%w; rollback failed: %v"

	StepLineFmt     = "%s %s\n"
	StepReloadUnits = "Reloading systemd units"
	StepReloadRules = "Reloading udev rules"

	RemoveStepDisableFmt   = "Stopping and disabling %s"
	RemoveStepDeleteFmt    = "Removing %s %s"
	RemoveAlreadyAbsentFmt = "  %s is already absent; skipping"
	RemoveDone             = "Removal complete."

	RollbackJournalRequired = "rollback requires the journal"
	RollbackNotEligibleFmt  = "journal record %s has status %s; only applied installs can be rolled back"
	RollbackRootMismatchFmt = "journal record %s was captured under %s, not %s; pass --dest-root %s"
	RollbackStartFmt        = "Rolling back %s (recorded %s)\n"
	RollbackRestoreFmt      = "  restored %s\n"
	RollbackRemoveFmt       = "  removed %s\n"
	RollbackFailedFmt       = "rollback %s: %w"
	RollbackDone            = "Rollback complete."

	ErrPermissionFmt         = "permission denied: %s %s: %v"
	ErrMissingSourceFmt      = "missing payload file %s: %v"
	ErrMissingDestinationFmt = "%s does not exist"
	ErrServiceControlFmt     = "failed to %s %s: %v"

	PlanDiffTruncatedFmt = "... (truncated to %d lines; rerun with %s <n> to see more)"

	DepsNoPackageManagerFmt   = "no supported package manager found (looked for %s)"
	DepsUnsupportedManagerFmt = "unsupported package manager %q"
	DepsNothingToInstall      = "no dependencies to install"
	DepsCommandFailedFmt      = "%s: %w"

	ManifestEmpty                = "manifest has no entries"
	ManifestDuplicateDestFmt     = "duplicate destination %s"
	ManifestDestNotAbsoluteFmt   = "destination %q must be an absolute clean path"
	ManifestInvalidAssetFmt      = "invalid asset name %q"
	ManifestHookNotExecutableFmt = "hook %s must be executable (mode %#o)"
	ManifestUnknownKindFmt       = "unknown kind %q for %s"
)
