// Package udev reloads udev rules and lists input devices known to udev.
package udev

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"

	"github.com/jochenvg/go-udev"

	"github.com/shadowblip/handycon-setup/internal/messages"
)

// defaultUdevadm is looked up on PATH when Reloader.Udevadm is empty.
const defaultUdevadm = "udevadm"

// Reloader asks the udev daemon to reload its rules.
type Reloader struct {
	Udevadm string
	Logger  *slog.Logger
}

// Reload runs `udevadm control -R`. A non-zero exit is returned wrapped around *exec.ExitError.
func (r Reloader) Reload(ctx context.Context) error {
	bin := strings.TrimSpace(r.Udevadm)
	if bin == "" {
		bin = defaultUdevadm
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("reloading udev rules", "udevadm", bin)
	cmd := exec.CommandContext(ctx, bin, "control", "-R")
	out, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if detail == "" {
			return fmt.Errorf(messages.UdevReloadFmt, bin, err)
		}
		return fmt.Errorf(messages.UdevReloadDetailFmt, bin, err, detail)
	}
	return nil
}

// InputDevice describes one device of the input subsystem.
type InputDevice struct {
	Syspath string
	Name    string
	Phys    string
}

// device is the part of *udev.Device that InputDevices reads.
type device interface {
	Syspath() string
	SysattrValue(string) string
}

// InputDevices enumerates initialized input devices that expose a name attribute.
func InputDevices() ([]InputDevice, error) {
	u := udev.Udev{}
	e := u.NewEnumerate()
	if err := e.AddMatchSubsystem("input"); err != nil {
		return nil, fmt.Errorf(messages.UdevEnumerateFmt, err)
	}
	if err := e.AddMatchIsInitialized(); err != nil {
		return nil, fmt.Errorf(messages.UdevEnumerateFmt, err)
	}
	found, err := e.Devices()
	if err != nil {
		return nil, fmt.Errorf(messages.UdevEnumerateFmt, err)
	}
	devices := make([]device, 0, len(found))
	for _, d := range found {
		devices = append(devices, d)
	}
	return collectInputDevices(devices), nil
}

func collectInputDevices(devices []device) []InputDevice {
	out := make([]InputDevice, 0, len(devices))
	for _, d := range devices {
		name := strings.TrimSpace(d.SysattrValue("name"))
		if name == "" {
			continue
		}
		out = append(out, InputDevice{
			Syspath: d.Syspath(),
			Name:    name,
			Phys:    strings.TrimSpace(d.SysattrValue("phys")),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Syspath < out[j].Syspath })
	return out
}
