// Package manifest defines the fixed set of files and the service managed by handycon-setup.
package manifest

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/shadowblip/handycon-setup/internal/messages"
)

// Kind classifies a managed file by what the system does with it.
type Kind string

const (
	KindRegularFile  Kind = "regular-file"
	KindServiceUnit  Kind = "service-unit"
	KindUdevRule     Kind = "udev-rule"
	KindShutdownHook Kind = "shutdown-hook"
	KindSleepHook    Kind = "sleep-hook"
)

// DefaultServiceName is the systemd service started after install.
const DefaultServiceName = "handycon"

// Entry maps one source asset to its destination on the system.
type Entry struct {
	Asset string
	Dest  string
	Kind  Kind
	Mode  fs.FileMode
}

// ServiceRef names the managed systemd service.
type ServiceRef struct {
	Name string
}

// Unit returns the systemd unit name for the service.
func (s ServiceRef) Unit() string {
	if strings.HasSuffix(s.Name, ".service") {
		return s.Name
	}
	return s.Name + ".service"
}

// Manifest is the ordered list of entries installed and removed together.
type Manifest struct {
	Entries []Entry
}

var defaultEntries = []Entry{
	{Asset: "handycon.py", Dest: "/usr/local/bin/handycon.py", Kind: KindRegularFile, Mode: 0o755},
	{Asset: "handycon.service", Dest: "/etc/systemd/system/handycon.service", Kind: KindServiceUnit, Mode: 0o644},
	{Asset: "60-handycon.rules", Dest: "/etc/udev/rules.d/60-handycon.rules", Kind: KindUdevRule, Mode: 0o644},
	{Asset: "mt7921e.shutdown", Dest: "/usr/lib/systemd/system-shutdown/mt7921e.shutdown", Kind: KindShutdownHook, Mode: 0o755},
	{Asset: "systemd-suspend-mods.conf", Dest: "/etc/systemd-suspend-mods.conf", Kind: KindRegularFile, Mode: 0o644},
	{Asset: "systemd-suspend-mods.sh", Dest: "/usr/lib/systemd/system-sleep/systemd-suspend-mods.sh", Kind: KindSleepHook, Mode: 0o755},
}

// Default returns a copy of the built-in manifest in install order.
func Default() Manifest {
	entries := make([]Entry, len(defaultEntries))
	copy(entries, defaultEntries)
	return Manifest{Entries: entries}
}

// Contains reports whether any entry has the given kind.
func (m Manifest) Contains(kind Kind) bool {
	for _, entry := range m.Entries {
		if entry.Kind == kind {
			return true
		}
	}
	return false
}

// Validate checks the manifest invariants: absolute unique destinations, relative assets,
// known kinds, and executable hooks.
func (m Manifest) Validate() error {
	if len(m.Entries) == 0 {
		return fmt.Errorf(messages.ManifestEmpty)
	}
	seen := make(map[string]struct{}, len(m.Entries))
	for _, entry := range m.Entries {
		if err := entry.validate(); err != nil {
			return err
		}
		if _, ok := seen[entry.Dest]; ok {
			return fmt.Errorf(messages.ManifestDuplicateDestFmt, entry.Dest)
		}
		seen[entry.Dest] = struct{}{}
	}
	return nil
}

func (e Entry) validate() error {
	if !filepath.IsAbs(e.Dest) || filepath.Clean(e.Dest) != e.Dest {
		return fmt.Errorf(messages.ManifestDestNotAbsoluteFmt, e.Dest)
	}
	if e.Asset == "" || path.IsAbs(e.Asset) || !fs.ValidPath(e.Asset) {
		return fmt.Errorf(messages.ManifestInvalidAssetFmt, e.Asset)
	}
	switch e.Kind {
	case KindRegularFile, KindServiceUnit, KindUdevRule:
	case KindShutdownHook, KindSleepHook:
		if e.Mode&0o111 == 0 {
			return fmt.Errorf(messages.ManifestHookNotExecutableFmt, e.Dest, e.Mode)
		}
	default:
		return fmt.Errorf(messages.ManifestUnknownKindFmt, e.Kind, e.Dest)
	}
	return nil
}

// Describe returns the user-facing label for the entry kind.
func (k Kind) Describe() string {
	switch k {
	case KindServiceUnit:
		return "service unit"
	case KindUdevRule:
		return "udev rule"
	case KindShutdownHook:
		return "shutdown hook"
	case KindSleepHook:
		return "sleep hook"
	default:
		return "file"
	}
}
