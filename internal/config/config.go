// Package config loads the installer's TOML configuration.
package config

import (
	"github.com/shadowblip/handycon-setup/internal/deps"
	"github.com/shadowblip/handycon-setup/internal/install"
	"github.com/shadowblip/handycon-setup/internal/journal"
	"github.com/shadowblip/handycon-setup/internal/manifest"
)

const (
	// DefaultPath is read when no path is given on the command line or in the environment.
	DefaultPath = "/etc/handycon-setup/config.toml"
	// EnvPath overrides DefaultPath.
	EnvPath = "HANDYCON_SETUP_CONFIG"
	// DefaultLockPath serializes mutating invocations.
	DefaultLockPath = "/run/handycon-setup.lock"
	// DefaultUdevadm is the udevadm binary looked up on PATH.
	DefaultUdevadm = "udevadm"
)

// Config is the full configuration file.
type Config struct {
	Assets       AssetsConfig       `toml:"assets"`
	Service      ServiceConfig      `toml:"service"`
	Install      InstallConfig      `toml:"install"`
	Remove       RemoveConfig       `toml:"remove"`
	Journal      JournalConfig      `toml:"journal"`
	Lock         LockConfig         `toml:"lock"`
	Udev         UdevConfig         `toml:"udev"`
	Dependencies DependenciesConfig `toml:"dependencies"`
	Plan         PlanConfig         `toml:"plan"`
}

// AssetsConfig locates the payload files.
type AssetsConfig struct {
	Dir string `toml:"dir"`
}

// ServiceConfig names the managed systemd service.
type ServiceConfig struct {
	Name string `toml:"name"`
}

// InstallConfig controls install.
type InstallConfig struct {
	DestRoot          string `toml:"dest_root"`
	RollbackOnFailure bool   `toml:"rollback_on_failure"`
}

// RemoveConfig controls remove.
type RemoveConfig struct {
	Strict bool `toml:"strict"`
}

// JournalConfig controls the transaction journal.
type JournalConfig struct {
	Enabled     bool   `toml:"enabled"`
	Dir         string `toml:"dir"`
	MaxRetained int    `toml:"max_retained"`
}

// LockConfig locates the invocation lock.
type LockConfig struct {
	Path string `toml:"path"`
}

// UdevConfig locates udevadm.
type UdevConfig struct {
	Udevadm string `toml:"udevadm"`
}

// DependenciesConfig controls optional package installation.
type DependenciesConfig struct {
	Install        bool     `toml:"install"`
	PackageManager string   `toml:"package_manager"`
	Packages       []string `toml:"packages"`
	PythonPackages []string `toml:"python_packages"`
}

// PlanConfig controls plan output.
type PlanConfig struct {
	DiffMaxLines int `toml:"diff_max_lines"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Assets:  AssetsConfig{Dir: "."},
		Service: ServiceConfig{Name: manifest.DefaultServiceName},
		Install: InstallConfig{DestRoot: "/"},
		Journal: JournalConfig{
			Enabled:     true,
			Dir:         journal.DefaultDir,
			MaxRetained: journal.DefaultMaxRetained,
		},
		Lock: LockConfig{Path: DefaultLockPath},
		Udev: UdevConfig{Udevadm: DefaultUdevadm},
		Dependencies: DependenciesConfig{
			Packages:       deps.DefaultPackages(),
			PythonPackages: deps.DefaultPythonPackages(),
		},
		Plan: PlanConfig{DiffMaxLines: install.DefaultDiffMaxLines},
	}
}
