package messages

// Config messages for loading and validation.
const (
	ConfigReadFmt        = "read config %s: %w"
	ConfigUnknownKeysFmt = "%s: unknown keys:\n%s"
	ConfigInvalidFmt     = "invalid config %s: %w"

	// ConfigServiceNameRequiredFmt and the rest take the config path first.
	ConfigServiceNameRequiredFmt   = "%s: service.name is required"
	ConfigServiceNameInvalidFmt    = "%s: service.name %q must not contain a path separator"
	ConfigAssetsDirRequiredFmt     = "%s: assets.dir is required"
	ConfigDestRootInvalidFmt       = "%s: install.dest_root %q must be an absolute path"
	ConfigJournalDirRequiredFmt    = "%s: journal.dir is required when the journal is enabled"
	ConfigJournalMaxRetainedFmt    = "%s: journal.max_retained must be at least 1, got %d"
	ConfigLockPathRequiredFmt      = "%s: lock.path is required"
	ConfigPackageManagerInvalidFmt = "%s: dependencies.package_manager %q is not supported (pacman, apt-get, dnf)"
	ConfigDiffMaxLinesFmt          = "%s: plan.diff_max_lines must be at least 1, got %d"
)
