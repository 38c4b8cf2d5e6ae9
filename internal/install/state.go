package install

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/shadowblip/handycon-setup/internal/manifest"
)

// EntryState is the observed state of one managed destination.
type EntryState string

const (
	EntryPresent EntryState = "present"
	EntryAbsent  EntryState = "absent"
	// EntryDiffers means the destination exists but its content or mode is not the asset's.
	EntryDiffers EntryState = "differs"
)

// State is the aggregate install state.
type State string

const (
	StateNotInstalled State = "not-installed"
	StateInstalled    State = "installed"
	StatePartial      State = "partial"
)

// EntryStatus is the observed state of one manifest entry.
type EntryStatus struct {
	Dest  string        `json:"dest" yaml:"dest"`
	Kind  manifest.Kind `json:"kind" yaml:"kind"`
	State EntryState    `json:"state" yaml:"state"`
	Size  int64         `json:"size,omitempty" yaml:"size,omitempty"`
	Mode  string        `json:"mode,omitempty" yaml:"mode,omitempty"`
}

// Status is the derived install state. It is computed on demand and never stored.
type Status struct {
	State          State  `json:"state" yaml:"state"`
	Service        string `json:"service" yaml:"service"`
	ServiceEnabled bool   `json:"service_enabled" yaml:"service_enabled"`
	ServiceActive  bool   `json:"service_active" yaml:"service_active"`
	// FilesOnly is set for staging roots where the service is not consulted.
	FilesOnly bool          `json:"files_only,omitempty" yaml:"files_only,omitempty"`
	Entries   []EntryStatus `json:"entries" yaml:"entries"`
}

// Inspect derives the install state from the store. With no asset FS, any existing
// destination counts as present.
func Inspect(ctx context.Context, opts Options) (Status, error) {
	inst, err := newInstaller(opts, false)
	if err != nil {
		return Status{}, err
	}
	var assets map[string][]byte
	if opts.Assets != nil {
		if assets, err = inst.readAssets(); err != nil {
			return Status{}, err
		}
	}

	status := Status{
		Service:   inst.unit,
		FilesOnly: opts.FilesOnly,
		Entries:   make([]EntryStatus, 0, len(opts.Manifest.Entries)),
	}
	present, absent := 0, 0
	for _, entry := range opts.Manifest.Entries {
		es, err := inst.inspectEntry(ctx, entry, assets)
		if err != nil {
			return Status{}, err
		}
		switch es.State {
		case EntryPresent:
			present++
		case EntryAbsent:
			absent++
		}
		status.Entries = append(status.Entries, es)
	}

	if !opts.FilesOnly {
		svc, err := inst.store.ServiceStatus(ctx, inst.unit)
		if err != nil {
			return Status{}, serviceError("status", inst.unit, err)
		}
		status.ServiceEnabled = svc.Enabled
		status.ServiceActive = svc.Active
	}

	total := len(opts.Manifest.Entries)
	switch {
	case absent == total && !status.ServiceEnabled:
		status.State = StateNotInstalled
	case present == total && (opts.FilesOnly || (status.ServiceEnabled && status.ServiceActive)):
		status.State = StateInstalled
	default:
		status.State = StatePartial
	}
	return status, nil
}

func (inst *installer) inspectEntry(ctx context.Context, entry manifest.Entry, assets map[string][]byte) (EntryStatus, error) {
	es := EntryStatus{Dest: entry.Dest, Kind: entry.Kind}
	info, err := inst.store.StatFile(ctx, entry.Dest)
	if errors.Is(err, fs.ErrNotExist) {
		es.State = EntryAbsent
		return es, nil
	}
	if err != nil {
		return EntryStatus{}, fileError("stat", entry.Dest, err)
	}
	es.Size = info.Size
	es.Mode = fmt.Sprintf("%#o", info.Mode.Perm())
	es.State = EntryPresent
	want, ok := assets[entry.Asset]
	if !ok {
		return es, nil
	}
	if info.Mode.Perm() != entry.Mode.Perm() || info.Size != int64(len(want)) {
		es.State = EntryDiffers
		return es, nil
	}
	current, err := inst.store.ReadFile(ctx, entry.Dest)
	if err != nil {
		return EntryStatus{}, fileError("read", entry.Dest, err)
	}
	if !bytes.Equal(current, want) {
		es.State = EntryDiffers
	}
	return es, nil
}
