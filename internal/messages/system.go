package messages

// System messages for internal operations.
const (
	// SystemdConnectFmt wraps a failure to reach the systemd manager over D-Bus.
	SystemdConnectFmt   = "connect to systemd: %w"
	SystemdReloadFmt    = "reload systemd units: %w"
	SystemdEnableFmt    = "enable %s: %w"
	SystemdDisableFmt   = "disable %s: %w"
	SystemdStartFmt     = "start %s: %w"
	SystemdStopFmt      = "stop %s: %w"
	SystemdStatusFmt    = "query %s: %w"
	SystemdJobFailedFmt = "%s %s: job finished with result %q"

	UdevReloadFmt       = "%s reload: %w"
	UdevReloadDetailFmt = "%s reload: %w: %s"
	UdevEnumerateFmt    = "enumerate input devices: %w"

	AtomicRenameFmt = "rename into %s: %w"

	StoreNotRegularFileFmt = "%s is not a regular file"
	StoreNoServiceManager  = "no service manager configured"
	StoreNoRuleReloader    = "no udev reloader configured"

	JournalIDRequired           = "journal id is required"
	JournalIDInvalidFmt         = "invalid journal id %q"
	JournalCreateDirFmt         = "create journal dir %s: %w"
	JournalEncodeFmt            = "encode journal record %s: %w"
	JournalWriteFmt             = "write journal record %s: %w"
	JournalNotFoundFmt          = "journal record %s not found in %s"
	JournalReadFmt              = "read journal record %s: %w"
	JournalDecodeFmt            = "decode journal record %s: %w"
	JournalDecodeEntryFmt       = "decode journal content for %s: %w"
	JournalListFmt              = "list journal dir %s: %w"
	JournalPruneFmt             = "prune journal after %s: %w"
	JournalUnsupportedSchemaFmt = "journal record %s has unsupported schema version %d"
	JournalInvalidEntryPathFmt  = "journal record %s has invalid path %q"
	JournalDuplicateEntryFmt    = "journal record %s lists %s twice"
	JournalInvalidEntryKindFmt  = "journal record %s has invalid kind %q for %s"

	// LockOpenFmt wraps a failure to open the lock file.
	LockOpenFmt    = "open lock %s: %w"
	LockAcquireFmt = "acquire lock %s: %w"
	LockTimeoutFmt = "timed out after %s waiting for another handycon-setup to finish"
)
