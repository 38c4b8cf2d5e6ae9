package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shadowblip/handycon-setup/internal/deps"
	"github.com/shadowblip/handycon-setup/internal/messages"
)

// Validate ensures the config is complete and consistent.
func (c *Config) Validate(path string) error {
	name := strings.TrimSpace(c.Service.Name)
	if name == "" {
		return fmt.Errorf(messages.ConfigServiceNameRequiredFmt, path)
	}
	if strings.Contains(name, "/") {
		return fmt.Errorf(messages.ConfigServiceNameInvalidFmt, path, c.Service.Name)
	}
	if strings.TrimSpace(c.Assets.Dir) == "" {
		return fmt.Errorf(messages.ConfigAssetsDirRequiredFmt, path)
	}
	if !filepath.IsAbs(c.Install.DestRoot) {
		return fmt.Errorf(messages.ConfigDestRootInvalidFmt, path, c.Install.DestRoot)
	}
	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Dir) == "" {
		return fmt.Errorf(messages.ConfigJournalDirRequiredFmt, path)
	}
	if c.Journal.MaxRetained < 1 {
		return fmt.Errorf(messages.ConfigJournalMaxRetainedFmt, path, c.Journal.MaxRetained)
	}
	if strings.TrimSpace(c.Lock.Path) == "" {
		return fmt.Errorf(messages.ConfigLockPathRequiredFmt, path)
	}
	if manager := c.Dependencies.PackageManager; manager != "" && !deps.Supported(manager) {
		return fmt.Errorf(messages.ConfigPackageManagerInvalidFmt, path, manager)
	}
	if c.Plan.DiffMaxLines < 1 {
		return fmt.Errorf(messages.ConfigDiffMaxLinesFmt, path, c.Plan.DiffMaxLines)
	}
	return nil
}
