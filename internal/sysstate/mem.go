package sysstate

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
)

// Operation names recorded by MemStore and used as fault keys.
const (
	OpRead        = "read"
	OpStat        = "stat"
	OpPlace       = "place"
	OpRemove      = "remove"
	OpEnable      = "enable"
	OpDisable     = "disable"
	OpStatus      = "status"
	OpReloadUnits = "reload-units"
	OpReloadRules = "reload-rules"
)

type memFile struct {
	data []byte
	mode fs.FileMode
}

// MemStore is an in-memory Store. Faults registered with Fail are returned
// instead of performing the operation; every attempted mutation is logged.
type MemStore struct {
	mu       sync.Mutex
	root     string
	files    map[string]memFile
	services map[string]ServiceStatus
	faults   map[string]error
	ops      []string
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		files:    map[string]memFile{},
		services: map[string]ServiceStatus{},
		faults:   map[string]error{},
	}
}

// Fail makes the next and every later op on target return err. target is a path
// or service name; reload operations use an empty target.
func (m *MemStore) Fail(op string, target string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[faultKey(op, target)] = err
}

// SetTarget sets the root reported by Target. The default is "/".
func (m *MemStore) SetTarget(root string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.root = filepath.Clean(root)
}

// Target returns the root set with SetTarget.
func (m *MemStore) Target() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.root == "" {
		return "/"
	}
	return m.root
}

// SetFile seeds a file without recording an operation.
func (m *MemStore) SetFile(path string, data []byte, mode fs.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = memFile{data: append([]byte(nil), data...), mode: mode}
}

// SetService seeds a service state without recording an operation.
func (m *MemStore) SetService(name string, status ServiceStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[name] = status
}

// File returns a copy of the stored file.
func (m *MemStore) File(path string) ([]byte, fs.FileMode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, 0, false
	}
	return append([]byte(nil), f.data...), f.mode, true
}

// Paths returns every stored path, sorted.
func (m *MemStore) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for path := range m.files {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Ops returns the log of attempted operations as "op target" strings.
func (m *MemStore) Ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ops...)
}

// ResetOps clears the operation log.
func (m *MemStore) ResetOps() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = nil
}

func faultKey(op string, target string) string {
	if target == "" {
		return op
	}
	return op + " " + target
}

// begin records an operation and returns its injected fault, if any. Caller holds mu.
func (m *MemStore) begin(ctx context.Context, op string, target string, record bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := faultKey(op, target)
	if record {
		m.ops = append(m.ops, key)
	}
	return m.faults[key]
}

// ReadFile returns the stored content of path.
func (m *MemStore) ReadFile(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if err := m.begin(ctx, OpRead, path, false); err != nil {
		return nil, err
	}
	f, ok := m.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), f.data...), nil
}

// StatFile returns size and mode of path.
func (m *MemStore) StatFile(ctx context.Context, path string) (FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if err := m.begin(ctx, OpStat, path, false); err != nil {
		return FileInfo{}, err
	}
	f, ok := m.files[path]
	if !ok {
		return FileInfo{}, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
	}
	return FileInfo{Path: path, Size: int64(len(f.data)), Mode: f.mode}, nil
}

// PlaceFile stores data at path, replacing any previous content.
func (m *MemStore) PlaceFile(ctx context.Context, path string, data []byte, mode fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if err := m.begin(ctx, OpPlace, path, true); err != nil {
		return err
	}
	m.files[path] = memFile{data: append([]byte(nil), data...), mode: mode}
	return nil
}

// RemoveFile deletes path.
func (m *MemStore) RemoveFile(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if err := m.begin(ctx, OpRemove, path, true); err != nil {
		return err
	}
	if _, ok := m.files[path]; !ok {
		return &fs.PathError{Op: "remove", Path: path, Err: fs.ErrNotExist}
	}
	delete(m.files, path)
	return nil
}

// SetServiceEnabled marks the service enabled and active, or disabled and inactive.
func (m *MemStore) SetServiceEnabled(ctx context.Context, service string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	op := OpDisable
	if enabled {
		op = OpEnable
	}
	if err := m.begin(ctx, op, service, true); err != nil {
		return err
	}
	m.services[service] = ServiceStatus{Enabled: enabled, Active: enabled}
	return nil
}

// ServiceStatus returns the recorded service state; unknown services are disabled and inactive.
func (m *MemStore) ServiceStatus(ctx context.Context, service string) (ServiceStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpStatus, service, false); err != nil {
		return ServiceStatus{}, err
	}
	return m.services[service], nil
}

// ReloadServiceUnits records a unit reload.
func (m *MemStore) ReloadServiceUnits(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.begin(ctx, OpReloadUnits, "", true)
}

// ReloadDeviceRules records a rule reload.
func (m *MemStore) ReloadDeviceRules(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.begin(ctx, OpReloadRules, "", true)
}
