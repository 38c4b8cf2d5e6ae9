package sysstate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shadowblip/handycon-setup/internal/fsutil"
	"github.com/shadowblip/handycon-setup/internal/messages"
	"github.com/shadowblip/handycon-setup/internal/systemd"
)

// ServiceManager controls system services by unit name.
type ServiceManager interface {
	Enable(ctx context.Context, unit string) error
	Disable(ctx context.Context, unit string) error
	Start(ctx context.Context, unit string) error
	Stop(ctx context.Context, unit string) error
	Status(ctx context.Context, unit string) (systemd.UnitStatus, error)
	Reload(ctx context.Context) error
}

// RuleReloader reloads device rules.
type RuleReloader interface {
	Reload(ctx context.Context) error
}

// RealStore implements Store on the host filesystem, systemd, and udev.
// Paths are resolved under Root. When Root is not "/", service and rule
// operations are skipped so the payload can be staged into a directory.
type RealStore struct {
	Root     string
	Services ServiceManager
	Rules    RuleReloader
	Logger   *slog.Logger
}

func (s *RealStore) log() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Staging reports whether the store writes into a directory other than the live root.
func (s *RealStore) Staging() bool {
	root := strings.TrimSpace(s.Root)
	return root != "" && filepath.Clean(root) != "/"
}

// Target returns the cleaned staging root, or "/" on the live system.
func (s *RealStore) Target() string {
	if !s.Staging() {
		return "/"
	}
	return filepath.Clean(s.Root)
}

func (s *RealStore) resolve(path string) string {
	if !s.Staging() {
		return filepath.Clean(path)
	}
	return filepath.Join(s.Root, filepath.Clean("/"+path))
}

// ReadFile reads the file at path.
func (s *RealStore) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(s.resolve(path))
}

// StatFile returns information about the regular file at path.
func (s *RealStore) StatFile(ctx context.Context, path string) (FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return FileInfo{}, err
	}
	info, err := os.Stat(s.resolve(path))
	if err != nil {
		return FileInfo{}, err
	}
	if info.IsDir() {
		return FileInfo{}, fmt.Errorf(messages.StoreNotRegularFileFmt, path)
	}
	return FileInfo{Path: path, Size: info.Size(), Mode: info.Mode().Perm()}, nil
}

// PlaceFile writes data atomically, creating parent directories as needed.
func (s *RealStore) PlaceFile(ctx context.Context, path string, data []byte, mode fs.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.resolve(path)
	s.log().Debug("placing file", "path", target, "mode", mode, "bytes", len(data))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(target, data, mode)
}

// RemoveFile deletes the file at path.
func (s *RealStore) RemoveFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.resolve(path)
	s.log().Debug("removing file", "path", target)
	return os.Remove(target)
}

// SetServiceEnabled enables and starts, or stops and disables, the service.
func (s *RealStore) SetServiceEnabled(ctx context.Context, service string, enabled bool) error {
	if s.Staging() {
		s.log().Info("staging mode; skipping service control", "service", service, "enabled", enabled)
		return nil
	}
	if s.Services == nil {
		return errors.New(messages.StoreNoServiceManager)
	}
	if enabled {
		if err := s.Services.Enable(ctx, service); err != nil {
			return err
		}
		return s.Services.Start(ctx, service)
	}
	if err := s.Services.Stop(ctx, service); err != nil {
		return err
	}
	return s.Services.Disable(ctx, service)
}

// ServiceStatus reports whether the service is enabled and active.
func (s *RealStore) ServiceStatus(ctx context.Context, service string) (ServiceStatus, error) {
	if s.Staging() {
		return ServiceStatus{}, nil
	}
	if s.Services == nil {
		return ServiceStatus{}, errors.New(messages.StoreNoServiceManager)
	}
	status, err := s.Services.Status(ctx, service)
	if err != nil {
		return ServiceStatus{}, err
	}
	return ServiceStatus{Enabled: status.Enabled, Active: status.Active}, nil
}

// ReloadServiceUnits makes the service manager re-read unit files.
func (s *RealStore) ReloadServiceUnits(ctx context.Context) error {
	if s.Staging() {
		s.log().Info("staging mode; skipping unit reload")
		return nil
	}
	if s.Services == nil {
		return errors.New(messages.StoreNoServiceManager)
	}
	return s.Services.Reload(ctx)
}

// ReloadDeviceRules makes udev re-read its rules.
func (s *RealStore) ReloadDeviceRules(ctx context.Context) error {
	if s.Staging() {
		s.log().Info("staging mode; skipping udev rule reload")
		return nil
	}
	if s.Rules == nil {
		return errors.New(messages.StoreNoRuleReloader)
	}
	return s.Rules.Reload(ctx)
}
