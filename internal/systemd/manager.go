// Package systemd controls systemd units over D-Bus.
package systemd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/coreos/go-systemd/v22/util"
	godbus "github.com/godbus/dbus/v5"

	"github.com/shadowblip/handycon-setup/internal/messages"
)

const (
	jobModeReplace = "replace"
	jobResultDone  = "done"

	errNameNoSuchUnit        = "org.freedesktop.systemd1.NoSuchUnit"
	errNameAccessDenied      = "org.freedesktop.DBus.Error.AccessDenied"
	errNameInteractiveAuth   = "org.freedesktop.DBus.Error.InteractiveAuthorizationRequired"
	errNameFileNotFoundUnits = "org.freedesktop.DBus.Error.FileNotFound"
)

// DBusAPI is the subset of *dbus.Conn used by Manager.
type DBusAPI interface {
	Close()
	ReloadContext(ctx context.Context) error
	StartUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	StopUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	EnableUnitFilesContext(ctx context.Context, files []string, runtime bool, force bool) (bool, []dbus.EnableUnitFileChange, error)
	DisableUnitFilesContext(ctx context.Context, files []string, runtime bool) ([]dbus.DisableUnitFileChange, error)
	ListUnitsByNamesContext(ctx context.Context, units []string) ([]dbus.UnitStatus, error)
	ListUnitFilesByPatternsContext(ctx context.Context, states []string, patterns []string) ([]dbus.UnitFile, error)
}

// DBusFactory opens a connection to the system manager.
type DBusFactory func(ctx context.Context) (DBusAPI, error)

// NewSystemConn connects to the system instance of systemd.
func NewSystemConn(ctx context.Context) (DBusAPI, error) {
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// IsRunning reports whether systemd is the init system of this host.
func IsRunning() bool {
	return util.IsRunningSystemd()
}

// UnitStatus is the enablement and activity of a single unit.
type UnitStatus struct {
	Enabled bool
	Active  bool
}

// Manager enables, starts, stops and inspects systemd units.
type Manager struct {
	Connect DBusFactory
	Logger  *slog.Logger
}

// NewManager returns a Manager connected to the system bus on demand.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{Connect: NewSystemConn, Logger: logger}
}

func (m *Manager) log() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

func (m *Manager) conn(ctx context.Context) (DBusAPI, error) {
	connect := m.Connect
	if connect == nil {
		connect = NewSystemConn
	}
	conn, err := connect(ctx)
	if err != nil {
		return nil, fmt.Errorf(messages.SystemdConnectFmt, classify(err))
	}
	return conn, nil
}

// Reload asks systemd to re-read unit files (daemon-reload).
func (m *Manager) Reload(ctx context.Context) error {
	conn, err := m.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	m.log().Debug("systemd daemon-reload")
	if err := conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf(messages.SystemdReloadFmt, classify(err))
	}
	return nil
}

// Enable links the unit into its install targets and reloads the manager.
func (m *Manager) Enable(ctx context.Context, unit string) error {
	conn, err := m.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	m.log().Debug("systemd enable", "unit", unit)
	if _, _, err := conn.EnableUnitFilesContext(ctx, []string{unit}, false, true); err != nil {
		return fmt.Errorf(messages.SystemdEnableFmt, unit, classify(err))
	}
	if err := conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf(messages.SystemdReloadFmt, classify(err))
	}
	return nil
}

// Disable removes the unit's install links. A unit file that does not exist counts as disabled.
func (m *Manager) Disable(ctx context.Context, unit string) error {
	conn, err := m.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	m.log().Debug("systemd disable", "unit", unit)
	if _, err := conn.DisableUnitFilesContext(ctx, []string{unit}, false); err != nil {
		if isNoSuchUnit(err) {
			m.log().Debug("unit file not present; nothing to disable", "unit", unit)
		} else {
			return fmt.Errorf(messages.SystemdDisableFmt, unit, classify(err))
		}
	}
	if err := conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf(messages.SystemdReloadFmt, classify(err))
	}
	return nil
}

// Start starts the unit and waits for the job to finish.
func (m *Manager) Start(ctx context.Context, unit string) error {
	conn, err := m.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	m.log().Debug("systemd start", "unit", unit)
	done := make(chan string, 1)
	if _, err := conn.StartUnitContext(ctx, unit, jobModeReplace, done); err != nil {
		return fmt.Errorf(messages.SystemdStartFmt, unit, classify(err))
	}
	return waitJob(ctx, "start", unit, done)
}

// Stop stops the unit and waits for the job to finish. A unit that is not loaded counts as stopped.
func (m *Manager) Stop(ctx context.Context, unit string) error {
	conn, err := m.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	m.log().Debug("systemd stop", "unit", unit)
	done := make(chan string, 1)
	if _, err := conn.StopUnitContext(ctx, unit, jobModeReplace, done); err != nil {
		if isNoSuchUnit(err) {
			m.log().Debug("unit not loaded; nothing to stop", "unit", unit)
			return nil
		}
		return fmt.Errorf(messages.SystemdStopFmt, unit, classify(err))
	}
	return waitJob(ctx, "stop", unit, done)
}

// Status reports whether the unit is enabled and active.
func (m *Manager) Status(ctx context.Context, unit string) (UnitStatus, error) {
	conn, err := m.conn(ctx)
	if err != nil {
		return UnitStatus{}, err
	}
	defer conn.Close()

	var status UnitStatus
	files, err := conn.ListUnitFilesByPatternsContext(ctx, nil, []string{unit})
	if err != nil {
		return UnitStatus{}, fmt.Errorf(messages.SystemdStatusFmt, unit, classify(err))
	}
	for _, file := range files {
		switch file.Type {
		case "enabled", "enabled-runtime", "linked", "linked-runtime", "alias":
			status.Enabled = true
		}
	}

	units, err := conn.ListUnitsByNamesContext(ctx, []string{unit})
	if err != nil {
		return UnitStatus{}, fmt.Errorf(messages.SystemdStatusFmt, unit, classify(err))
	}
	for _, u := range units {
		if u.Name != unit {
			continue
		}
		status.Active = u.LoadState == "loaded" && u.ActiveState == "active"
	}
	return status, nil
}

func waitJob(ctx context.Context, op string, unit string, done <-chan string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case result := <-done:
		if result != jobResultDone {
			return fmt.Errorf(messages.SystemdJobFailedFmt, op, unit, result)
		}
		return nil
	}
}

func dbusErrorName(err error) string {
	var derr godbus.Error
	if errors.As(err, &derr) {
		return derr.Name
	}
	var pderr *godbus.Error
	if errors.As(err, &pderr) && pderr != nil {
		return pderr.Name
	}
	return ""
}

func isNoSuchUnit(err error) bool {
	switch dbusErrorName(err) {
	case errNameNoSuchUnit, errNameFileNotFoundUnits:
		return true
	}
	return false
}

// permissionError marks D-Bus authorization failures so callers can match fs.ErrPermission.
type permissionError struct {
	err error
}

func (e *permissionError) Error() string {
	return e.err.Error()
}

func (e *permissionError) Unwrap() []error {
	return []error{e.err, fs.ErrPermission}
}

func classify(err error) error {
	switch dbusErrorName(err) {
	case errNameAccessDenied, errNameInteractiveAuth:
		return &permissionError{err: err}
	}
	return err
}
