package systemd

import (
	"context"

	"github.com/coreos/go-systemd/v22/dbus"
)

// stubDBus records calls and returns canned results. Job channels receive jobResult.
type stubDBus struct {
	calls     []string
	units     []dbus.UnitStatus
	unitFiles []dbus.UnitFile
	jobResult string
	errs      map[string]error
	closed    int
}

func newStubDBus() *stubDBus {
	return &stubDBus{jobResult: jobResultDone, errs: map[string]error{}}
}

func (s *stubDBus) factory() DBusFactory {
	return func(context.Context) (DBusAPI, error) {
		return s, nil
	}
}

func (s *stubDBus) record(call string) error {
	s.calls = append(s.calls, call)
	return s.errs[call]
}

func (s *stubDBus) Close() {
	s.closed++
}

func (s *stubDBus) ReloadContext(context.Context) error {
	return s.record("Reload")
}

func (s *stubDBus) StartUnitContext(_ context.Context, name string, _ string, ch chan<- string) (int, error) {
	if err := s.record("StartUnit " + name); err != nil {
		return 0, err
	}
	ch <- s.jobResult
	return 1, nil
}

func (s *stubDBus) StopUnitContext(_ context.Context, name string, _ string, ch chan<- string) (int, error) {
	if err := s.record("StopUnit " + name); err != nil {
		return 0, err
	}
	ch <- s.jobResult
	return 1, nil
}

func (s *stubDBus) EnableUnitFilesContext(_ context.Context, files []string, _ bool, _ bool) (bool, []dbus.EnableUnitFileChange, error) {
	return false, nil, s.record("EnableUnitFiles " + files[0])
}

func (s *stubDBus) DisableUnitFilesContext(_ context.Context, files []string, _ bool) ([]dbus.DisableUnitFileChange, error) {
	return nil, s.record("DisableUnitFiles " + files[0])
}

func (s *stubDBus) ListUnitsByNamesContext(_ context.Context, _ []string) ([]dbus.UnitStatus, error) {
	return s.units, s.record("ListUnitsByNames")
}

func (s *stubDBus) ListUnitFilesByPatternsContext(_ context.Context, _ []string, _ []string) ([]dbus.UnitFile, error) {
	return s.unitFiles, s.record("ListUnitFilesByPatterns")
}
