package install

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/shadowblip/handycon-setup/internal/messages"
)

// PermissionError reports that the caller lacks privilege to write a system path or control a service.
type PermissionError struct {
	Op     string
	Target string
	Err    error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf(messages.ErrPermissionFmt, e.Op, e.Target, e.Err)
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

// MissingSourceError reports an asset that is not present in the asset directory.
type MissingSourceError struct {
	Asset string
	Err   error
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf(messages.ErrMissingSourceFmt, e.Asset, e.Err)
}

func (e *MissingSourceError) Unwrap() error {
	return e.Err
}

// MissingDestinationError reports a managed path that strict removal expected to exist.
type MissingDestinationError struct {
	Path string
}

func (e *MissingDestinationError) Error() string {
	return fmt.Sprintf(messages.ErrMissingDestinationFmt, e.Path)
}

func (e *MissingDestinationError) Unwrap() error {
	return fs.ErrNotExist
}

// ServiceControlError reports a failed enable, disable, start, stop, or reload.
type ServiceControlError struct {
	Service string
	Action  string
	Err     error
}

func (e *ServiceControlError) Error() string {
	return fmt.Sprintf(messages.ErrServiceControlFmt, e.Action, e.Service, e.Err)
}

func (e *ServiceControlError) Unwrap() error {
	return e.Err
}

// fileError classifies a store error for a file operation on path.
func fileError(op string, path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return &PermissionError{Op: op, Target: path, Err: err}
	}
	return fmt.Errorf(messages.InstallFileOpFailedFmt, op, path, err)
}

// serviceError classifies a store error for a service or reload operation.
func serviceError(action string, service string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return &PermissionError{Op: action, Target: service, Err: err}
	}
	return &ServiceControlError{Service: service, Action: action, Err: err}
}
