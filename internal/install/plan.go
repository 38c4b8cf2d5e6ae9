package install

import (
	"bytes"
	"context"
	"errors"
	"io/fs"

	"github.com/shadowblip/handycon-setup/internal/manifest"
)

// PlanAction is what install would do to one destination.
type PlanAction string

const (
	PlanCreate    PlanAction = "create"
	PlanOverwrite PlanAction = "overwrite"
	PlanUnchanged PlanAction = "unchanged"
)

// PlanItem describes the pending change for one manifest entry.
type PlanItem struct {
	Entry       manifest.Entry
	Action      PlanAction
	CurrentMode fs.FileMode
	ModeChanged bool
	// Diff is a unified diff from the current file to the asset, empty unless content differs.
	Diff      string
	Truncated bool
	Binary    bool
}

// Plan reports, without changing anything, what Install would do to each destination.
func Plan(ctx context.Context, opts Options) ([]PlanItem, error) {
	inst, err := newInstaller(opts, true)
	if err != nil {
		return nil, err
	}
	assets, err := inst.readAssets()
	if err != nil {
		return nil, err
	}
	items := make([]PlanItem, 0, len(opts.Manifest.Entries))
	for _, entry := range opts.Manifest.Entries {
		item, err := inst.planEntry(ctx, entry, assets[entry.Asset])
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (inst *installer) planEntry(ctx context.Context, entry manifest.Entry, want []byte) (PlanItem, error) {
	item := PlanItem{Entry: entry}
	current, err := inst.store.ReadFile(ctx, entry.Dest)
	if errors.Is(err, fs.ErrNotExist) {
		item.Action = PlanCreate
		return item, nil
	}
	if err != nil {
		return PlanItem{}, fileError("read", entry.Dest, err)
	}
	info, err := inst.store.StatFile(ctx, entry.Dest)
	if err != nil {
		return PlanItem{}, fileError("stat", entry.Dest, err)
	}
	item.CurrentMode = info.Mode
	item.ModeChanged = info.Mode.Perm() != entry.Mode.Perm()
	sameContent := bytes.Equal(current, want)
	if sameContent && !item.ModeChanged {
		item.Action = PlanUnchanged
		return item, nil
	}
	item.Action = PlanOverwrite
	if sameContent {
		return item, nil
	}
	if !isText(current) || !isText(want) {
		item.Binary = true
		return item, nil
	}
	item.Diff, item.Truncated = renderTruncatedUnifiedDiff(
		entry.Dest+" (installed)",
		entry.Dest+" (asset "+entry.Asset+")",
		string(current),
		string(want),
		inst.opts.DiffMaxLines,
	)
	return item, nil
}
