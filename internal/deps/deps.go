// Package deps installs the OS and Python packages the controller daemon imports.
package deps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/shadowblip/handycon-setup/internal/messages"
)

// Supported package managers, in detection order.
const (
	Pacman = "pacman"
	AptGet = "apt-get"
	Dnf    = "dnf"
)

// DefaultPython is the interpreter used for pip installs.
const DefaultPython = "python3"

var detectOrder = []string{Pacman, AptGet, Dnf}

// DefaultPackages are the distribution packages providing the daemon's Python bindings.
func DefaultPackages() []string {
	return []string{"python-evdev", "python-dbus"}
}

// DefaultPythonPackages are installed with pip because distributions rarely package them.
func DefaultPythonPackages() []string {
	return []string{"BMI160-i2c"}
}

// System runs external commands.
type System interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args ...string) error
}

// RealSystem runs commands on the host, streaming their output.
type RealSystem struct {
	Stdout io.Writer
	Stderr io.Writer
}

// LookPath searches for file on PATH.
func (RealSystem) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes name with args and waits for it. A non-zero exit returns *exec.ExitError.
func (s RealSystem) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = s.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = s.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

// Options selects what to install.
type Options struct {
	// Manager is one of Pacman, AptGet, Dnf; empty means detect.
	Manager        string
	Packages       []string
	PythonPackages []string
	Python         string
	Sys            System
	Logger         *slog.Logger
}

// Detect returns the first supported package manager found on PATH.
func Detect(sys System) (string, error) {
	for _, name := range detectOrder {
		if _, err := sys.LookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf(messages.DepsNoPackageManagerFmt, strings.Join(detectOrder, ", "))
}

// Supported reports whether name is a package manager this package can drive.
func Supported(name string) bool {
	for _, candidate := range detectOrder {
		if candidate == name {
			return true
		}
	}
	return false
}

// Commands returns the command lines that install packages and pythonPackages.
func Commands(manager string, python string, packages []string, pythonPackages []string) ([][]string, error) {
	var cmds [][]string
	if len(packages) > 0 {
		var base []string
		switch manager {
		case Pacman:
			base = []string{Pacman, "-S", "--needed", "--noconfirm"}
		case AptGet:
			base = []string{AptGet, "install", "-y"}
		case Dnf:
			base = []string{Dnf, "install", "-y"}
		default:
			return nil, fmt.Errorf(messages.DepsUnsupportedManagerFmt, manager)
		}
		cmds = append(cmds, append(base, packages...))
	}
	if len(pythonPackages) > 0 {
		if strings.TrimSpace(python) == "" {
			python = DefaultPython
		}
		cmds = append(cmds, append([]string{python, "-m", "pip", "install"}, pythonPackages...))
	}
	return cmds, nil
}

// Install runs the package manager and then pip. The first failing command stops the run.
func Install(ctx context.Context, opts Options) error {
	sys := opts.Sys
	if sys == nil {
		sys = RealSystem{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	manager := strings.TrimSpace(opts.Manager)
	if manager == "" && len(opts.Packages) > 0 {
		detected, err := Detect(sys)
		if err != nil {
			return err
		}
		manager = detected
	}
	cmds, err := Commands(manager, opts.Python, opts.Packages, opts.PythonPackages)
	if err != nil {
		return err
	}
	if len(cmds) == 0 {
		return errors.New(messages.DepsNothingToInstall)
	}
	for _, cmd := range cmds {
		logger.Debug("running dependency command", "command", strings.Join(cmd, " "))
		if err := sys.Run(ctx, cmd[0], cmd[1:]...); err != nil {
			return fmt.Errorf(messages.DepsCommandFailedFmt, strings.Join(cmd, " "), err)
		}
	}
	return nil
}
