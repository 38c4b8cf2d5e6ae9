// Package journal persists transaction records describing the system state before an install,
// so a failed or unwanted install can be rolled back.
package journal

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shadowblip/handycon-setup/internal/fsutil"
	"github.com/shadowblip/handycon-setup/internal/messages"
)

const (
	schemaVersion = 1
	fileExt       = ".json"

	// DefaultDir is where records are kept on a live system.
	DefaultDir = "/var/lib/handycon-setup/journal"
	// DefaultMaxRetained bounds how many records are kept after pruning.
	DefaultMaxRetained = 20
)

// Status is the lifecycle state of a record.
type Status string

const (
	StatusCreated            Status = "created"
	StatusApplied            Status = "applied"
	StatusFailed             Status = "failed"
	StatusAutoRolledBack     Status = "auto_rolled_back"
	StatusManuallyRolledBack Status = "manually_rolled_back"
	StatusRollbackFailed     Status = "rollback_failed"
)

// EntryKind says whether a path existed before the transaction.
type EntryKind string

const (
	EntryKindFile   EntryKind = "file"
	EntryKindAbsent EntryKind = "absent"
)

// Entry is the captured prior state of one managed path.
type Entry struct {
	Path          string    `json:"path"`
	Kind          EntryKind `json:"kind"`
	Mode          *uint32   `json:"mode,omitempty"`
	ContentBase64 string    `json:"content_base64,omitempty"`
}

// NewFileEntry captures an existing file.
func NewFileEntry(path string, data []byte, mode fs.FileMode) Entry {
	perm := uint32(mode.Perm())
	return Entry{
		Path:          path,
		Kind:          EntryKindFile,
		Mode:          &perm,
		ContentBase64: base64.StdEncoding.EncodeToString(data),
	}
}

// NewAbsentEntry captures a path that did not exist.
func NewAbsentEntry(path string) Entry {
	return Entry{Path: path, Kind: EntryKindAbsent}
}

// Content decodes the captured file content.
func (e Entry) Content() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(e.ContentBase64)
	if err != nil {
		return nil, fmt.Errorf(messages.JournalDecodeEntryFmt, e.Path, err)
	}
	return data, nil
}

// FileMode returns the captured permission bits, defaulting to 0644.
func (e Entry) FileMode() fs.FileMode {
	if e.Mode == nil {
		return 0o644
	}
	return fs.FileMode(*e.Mode).Perm()
}

// ServiceSnapshot is the captured prior state of the managed service.
type ServiceSnapshot struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Active  bool   `json:"active"`
}

// Record is one persisted transaction. Root is the filesystem root its entries were captured under.
type Record struct {
	SchemaVersion int              `json:"schema_version"`
	ID            string           `json:"id"`
	CreatedAtUTC  string           `json:"created_at_utc"`
	Operation     string           `json:"operation"`
	Root          string           `json:"root,omitempty"`
	Status        Status           `json:"status"`
	FailureStep   string           `json:"failure_step,omitempty"`
	FailureError  string           `json:"failure_error,omitempty"`
	Entries       []Entry          `json:"entries"`
	Service       *ServiceSnapshot `json:"service,omitempty"`
}

// TargetRoot returns Root, treating records written without one as captured on "/".
func (r Record) TargetRoot() string {
	if strings.TrimSpace(r.Root) == "" {
		return "/"
	}
	return filepath.Clean(r.Root)
}

// Metadata is the listing view of a record.
type Metadata struct {
	ID           string
	CreatedAtUTC string
	Operation    string
	Root         string
	Status       Status
}

// System abstracts the filesystem operations used by the journal.
type System interface {
	MkdirAll(path string, perm os.FileMode) error
	ReadFile(name string) ([]byte, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	Remove(name string) error
	WriteFileAtomic(filename string, data []byte, perm os.FileMode) error
}

// RealSystem implements System using the OS filesystem.
type RealSystem struct{}

// MkdirAll creates a directory named path, along with any necessary parents.
func (RealSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// ReadFile reads the named file and returns the contents.
func (RealSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// ReadDir reads the named directory.
func (RealSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

// Remove removes the named file.
func (RealSystem) Remove(name string) error {
	return os.Remove(name)
}

// WriteFileAtomic writes data to a file atomically by writing to a temp file and renaming.
func (RealSystem) WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	return fsutil.WriteFileAtomic(filename, data, perm)
}

// Journal stores records as <id>.json files in Dir.
type Journal struct {
	Dir         string
	MaxRetained int
	Sys         System
	Now         func() time.Time
}

// New returns a journal on the OS filesystem.
func New(dir string, maxRetained int) *Journal {
	return &Journal{Dir: dir, MaxRetained: maxRetained, Sys: RealSystem{}, Now: time.Now}
}

func (j *Journal) sys() System {
	if j.Sys == nil {
		return RealSystem{}
	}
	return j.Sys
}

func (j *Journal) now() time.Time {
	if j.Now == nil {
		return time.Now()
	}
	return j.Now()
}

// NewRecord starts a record for operation with a fresh id and status created.
func (j *Journal) NewRecord(operation string) Record {
	return Record{
		SchemaVersion: schemaVersion,
		ID:            uuid.NewString(),
		CreatedAtUTC:  j.now().UTC().Format(time.RFC3339Nano),
		Operation:     operation,
		Status:        StatusCreated,
		Entries:       []Entry{},
	}
}

// ValidateID rejects anything that is not a record id, including path components.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New(messages.JournalIDRequired)
	}
	if _, err := uuid.Parse(id); err != nil || filepath.Base(id) != id {
		return fmt.Errorf(messages.JournalIDInvalidFmt, id)
	}
	return nil
}

func (j *Journal) path(id string) string {
	return filepath.Join(j.Dir, id+fileExt)
}

// Write persists rec and prunes old records beyond MaxRetained.
func (j *Journal) Write(rec Record) error {
	if err := ValidateID(rec.ID); err != nil {
		return err
	}
	if err := validateRecord(rec); err != nil {
		return err
	}
	sys := j.sys()
	if err := sys.MkdirAll(j.Dir, 0o700); err != nil {
		return fmt.Errorf(messages.JournalCreateDirFmt, j.Dir, err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf(messages.JournalEncodeFmt, rec.ID, err)
	}
	data = append(data, '\n')
	if err := sys.WriteFileAtomic(j.path(rec.ID), data, 0o600); err != nil {
		return fmt.Errorf(messages.JournalWriteFmt, rec.ID, err)
	}
	return j.prune(rec.ID)
}

// Read loads the record with the given id.
func (j *Journal) Read(id string) (Record, error) {
	if err := ValidateID(id); err != nil {
		return Record{}, err
	}
	data, err := j.sys().ReadFile(j.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, fmt.Errorf(messages.JournalNotFoundFmt, id, j.Dir)
		}
		return Record{}, fmt.Errorf(messages.JournalReadFmt, id, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf(messages.JournalDecodeFmt, id, err)
	}
	if err := validateRecord(rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// List returns metadata for every readable record, newest first. Malformed records are skipped.
func (j *Journal) List() ([]Metadata, error) {
	records, err := j.readAll()
	if err != nil {
		return nil, err
	}
	out := make([]Metadata, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		out = append(out, Metadata{
			ID:           rec.ID,
			CreatedAtUTC: rec.CreatedAtUTC,
			Operation:    rec.Operation,
			Root:         rec.TargetRoot(),
			Status:       rec.Status,
		})
	}
	return out, nil
}

// readAll returns readable records sorted oldest first.
func (j *Journal) readAll() ([]Record, error) {
	entries, err := j.sys().ReadDir(j.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf(messages.JournalListFmt, j.Dir, err)
	}
	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		rec, err := j.Read(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(a, b int) bool {
		ta, tb := parseCreated(records[a].CreatedAtUTC), parseCreated(records[b].CreatedAtUTC)
		if !ta.Equal(tb) {
			return ta.Before(tb)
		}
		return records[a].ID < records[b].ID
	})
	return records, nil
}

func (j *Journal) prune(keep string) error {
	limit := j.MaxRetained
	if limit <= 0 {
		limit = DefaultMaxRetained
	}
	records, err := j.readAll()
	if err != nil {
		return err
	}
	excess := len(records) - limit
	for _, rec := range records {
		if excess <= 0 {
			break
		}
		if rec.ID == keep {
			continue
		}
		if err := j.sys().Remove(j.path(rec.ID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf(messages.JournalPruneFmt, rec.ID, err)
		}
		excess--
	}
	return nil
}

func parseCreated(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func validateRecord(rec Record) error {
	if rec.SchemaVersion != schemaVersion {
		return fmt.Errorf(messages.JournalUnsupportedSchemaFmt, rec.ID, rec.SchemaVersion)
	}
	seen := make(map[string]struct{}, len(rec.Entries))
	for _, entry := range rec.Entries {
		if !filepath.IsAbs(entry.Path) || filepath.Clean(entry.Path) != entry.Path {
			return fmt.Errorf(messages.JournalInvalidEntryPathFmt, rec.ID, entry.Path)
		}
		if _, ok := seen[entry.Path]; ok {
			return fmt.Errorf(messages.JournalDuplicateEntryFmt, rec.ID, entry.Path)
		}
		seen[entry.Path] = struct{}{}
		switch entry.Kind {
		case EntryKindFile, EntryKindAbsent:
		default:
			return fmt.Errorf(messages.JournalInvalidEntryKindFmt, rec.ID, entry.Kind, entry.Path)
		}
	}
	return nil
}
