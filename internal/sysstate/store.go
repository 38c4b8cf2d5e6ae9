// Package sysstate abstracts the live system (files, services, device rules) that the installer mutates.
package sysstate

import (
	"context"
	"io/fs"
)

// FileInfo describes a file on the managed system.
type FileInfo struct {
	Path string
	Size int64
	Mode fs.FileMode
}

// ServiceStatus is the observed state of a service.
type ServiceStatus struct {
	Enabled bool
	Active  bool
}

// Store is the capability-scoped view of the system used by install and remove.
// Missing files surface as errors matching fs.ErrNotExist; refused access as fs.ErrPermission.
type Store interface {
	// Target is the absolute root that paths resolve under, "/" for the live system.
	Target() string
	ReadFile(ctx context.Context, path string) ([]byte, error)
	StatFile(ctx context.Context, path string) (FileInfo, error)
	// PlaceFile writes data to path with mode, creating parent directories and replacing any existing file.
	PlaceFile(ctx context.Context, path string, data []byte, mode fs.FileMode) error
	RemoveFile(ctx context.Context, path string) error
	// SetServiceEnabled enables and starts the service when enabled is true, or stops and disables it.
	SetServiceEnabled(ctx context.Context, service string, enabled bool) error
	ServiceStatus(ctx context.Context, service string) (ServiceStatus, error)
	ReloadServiceUnits(ctx context.Context) error
	ReloadDeviceRules(ctx context.Context) error
}
