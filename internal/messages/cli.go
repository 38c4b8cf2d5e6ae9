package messages

// CLI messages for user-facing commands and prompts.
const (
	// RootUse is the CLI command name.
	RootUse = "handycon-setup"
	// RootShort is the short description for the root command.
	RootShort = "Install and manage the handycon handheld controller daemon"
	RootLong  = `handycon-setup places the handycon daemon, its systemd unit, udev rule, and
power hooks onto the system and toggles the handycon service.

With no flags, install and remove behave like the original install and
uninstall scripts. Run as root; use --dest-root to stage files into a directory.`

	// VersionCommitFmt formats the commit hash for version display.
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"
	VersionTemplate  = "{{.Version}}\n"
	VersionUse       = "version"
	VersionShort     = "Print version and exit"

	FlagConfigUsage            = "Path to the configuration file (default /etc/handycon-setup/config.toml, or $HANDYCON_SETUP_CONFIG)"
	FlagVerboseUsage           = "Enable debug logging on stderr"
	FlagNoColorUsage           = "Disable colored output"
	FlagDestRootUsage          = "Install into this root directory; anything other than / skips service and udev control"
	FlagAssetsUsage            = "Directory containing the payload files"
	FlagRollbackOnFailureUsage = "Undo completed steps when a step fails"
	FlagWithDepsUsage          = "Install the Python runtime dependencies before the payload"
	FlagStrictUsage            = "Fail when a managed file is already absent"
	FlagYesUsage               = "Skip the confirmation prompt"
	FlagFormatUsage            = "Output format: text, json, or yaml"
	FlagDiffLinesUsage         = "Maximum diff lines shown per file"
	FlagDestRootInvalidFmt     = "--dest-root must be an absolute path, got %q"

	InstallUse   = "install"
	InstallShort = "Install the handycon payload and enable the service"
	InstallLong  = `Copy every payload file to its destination, reload systemd units and udev
rules, then enable and start the handycon service.

Each run is recorded in the journal so it can be rolled back later.`

	RemoveUse   = "remove"
	RemoveShort = "Stop the service and remove the handycon payload"
	RemoveLong  = `Stop and disable the handycon service, delete every payload file, then
reload systemd units and udev rules. Files that are already gone are
reported and skipped unless --strict is set.`
	RemoveConfirmFmt = "Stop %s and remove all of its files?"

	StatusUse              = "status"
	StatusShort            = "Show whether the payload is installed"
	StatusLong             = "Report the state of every managed file and the service. Pass --assets to compare file contents against the payload."
	StatusFormatInvalidFmt = "unsupported format %q (supported: text, json, yaml)"
	StatusStateFmt         = "State: %s\n"
	StatusServiceFmt       = "Service: %s (%s, %s)\n"
	StatusEntryFmt         = "  %-8s %s  %s  %s\n"
	StatusEntryAbsentFmt   = "  %-8s %s\n"
	StatusEnabled          = "enabled"
	StatusDisabled         = "disabled"
	StatusActive           = "active"
	StatusInactive         = "inactive"

	PlanUse           = "plan"
	PlanShort         = "Preview what install would change"
	PlanLong          = "Compare the payload against the installed files and print a diff for each file install would overwrite. Nothing is changed."
	PlanItemFmt       = "%-9s %s %s\n"
	PlanModeChangeFmt = "          mode %#o -> %#o\n"
	PlanBinaryDiffers = "          binary content differs"
	PlanNoChanges     = "No changes; the installed files match the payload."
	PlanSummaryFmt    = "%d of %d files would change.\n"

	DoctorUse   = "doctor"
	DoctorShort = "Check hardware support and installation health"
	DoctorLong  = "Identify the handheld, confirm systemd is running, verify the installed files and service, and look for the built-in controller devices."

	RollbackUse             = "rollback <journal-id>"
	RollbackShort           = "Restore the state captured before an install"
	RollbackLong            = "Restore every file and the service state recorded before the given install. Only installs that completed can be rolled back; find ids with 'journal list'."
	RollbackConfirmFmt      = "Roll back install %s?"
	RollbackJournalDisabled = "the journal is disabled in the configuration"

	JournalUse       = "journal"
	JournalShort     = "Inspect install journal records"
	JournalListUse   = "list"
	JournalListShort = "List journal records, newest first"
	JournalEmpty     = "No journal records."
	JournalLineFmt   = "%s  %-8s %-22s %-16s %s\n"

	ConfirmDeclined = "Nothing changed."

	// PromptYesDefaultFmt formats yes/no prompts with yes as default.
	PromptYesDefaultFmt      = "%s [Y/n]: "
	PromptNoDefaultFmt       = "%s [y/N]: "
	PromptRetryYesNo         = "Please answer y or n."
	PromptInvalidResponseFmt = "invalid response %q"
	PromptAffirmative        = "Yes"
	PromptNegative           = "No"
	PromptCancelled          = "cancelled"
	PromptRequiresTerminal   = "confirmation requires an interactive terminal; re-run with --yes"
)
