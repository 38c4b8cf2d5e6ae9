package install

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/fatih/color"

	"github.com/shadowblip/handycon-setup/internal/journal"
	"github.com/shadowblip/handycon-setup/internal/messages"
)

// restoreScope limits a restore to what an interrupted run actually touched.
type restoreScope struct {
	all     bool
	paths   map[string]bool
	service bool
}

func (s restoreScope) includes(path string) bool {
	return s.all || s.paths[path]
}

func fullScope() restoreScope {
	return restoreScope{all: true, service: true}
}

// rollbackScope covers the completed steps plus the one that failed.
func rollbackScope(steps []step) restoreScope {
	scope := restoreScope{paths: map[string]bool{}}
	for _, s := range steps {
		if s.path != "" {
			scope.paths[s.path] = true
		}
		if s.service {
			scope.service = true
		}
	}
	return scope
}

// Rollback restores the pre-install state captured in journal record id.
// Only records of an applied install are eligible.
func Rollback(ctx context.Context, id string, opts Options) error {
	if opts.Journal == nil {
		return errors.New(messages.RollbackJournalRequired)
	}
	inst, err := newInstaller(opts, false)
	if err != nil {
		return err
	}
	rec, err := opts.Journal.Read(id)
	if err != nil {
		return err
	}
	if rec.Status != journal.StatusApplied {
		return fmt.Errorf(messages.RollbackNotEligibleFmt, id, rec.Status)
	}
	if root, target := rec.TargetRoot(), inst.store.Target(); root != target {
		return fmt.Errorf(messages.RollbackRootMismatchFmt, id, root, target, root)
	}

	_, _ = fmt.Fprintf(inst.out, messages.RollbackStartFmt, id, rec.CreatedAtUTC)
	if err := inst.restore(ctx, rec, fullScope()); err != nil {
		rec.Status = journal.StatusRollbackFailed
		inst.persistBestEffort(rec)
		return fmt.Errorf(messages.RollbackFailedFmt, id, err)
	}
	rec.Status = journal.StatusManuallyRolledBack
	if err := inst.persist(rec); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(inst.out, color.GreenString(messages.RollbackDone))
	return nil
}

// capture snapshots every managed destination and the service state.
func (inst *installer) capture(ctx context.Context) (journal.Record, error) {
	j := inst.opts.Journal
	if j == nil {
		j = &journal.Journal{}
	}
	rec := j.NewRecord(operationInstall)
	rec.Root = inst.store.Target()
	for _, entry := range inst.opts.Manifest.Entries {
		data, err := inst.store.ReadFile(ctx, entry.Dest)
		if errors.Is(err, fs.ErrNotExist) {
			rec.Entries = append(rec.Entries, journal.NewAbsentEntry(entry.Dest))
			continue
		}
		if err != nil {
			return journal.Record{}, fileError("read", entry.Dest, err)
		}
		info, err := inst.store.StatFile(ctx, entry.Dest)
		if err != nil {
			return journal.Record{}, fileError("stat", entry.Dest, err)
		}
		rec.Entries = append(rec.Entries, journal.NewFileEntry(entry.Dest, data, info.Mode))
	}
	status, err := inst.store.ServiceStatus(ctx, inst.unit)
	if err != nil {
		return journal.Record{}, serviceError("status", inst.unit, err)
	}
	rec.Service = &journal.ServiceSnapshot{Name: inst.unit, Enabled: status.Enabled, Active: status.Active}
	return rec, nil
}

// restore puts captured entries back, newest first. It keeps going after a failure
// and returns every error it met.
func (inst *installer) restore(ctx context.Context, rec journal.Record, scope restoreScope) error {
	var errs []error
	snap := rec.Service
	unit := inst.unit
	if snap != nil && snap.Name != "" {
		unit = snap.Name
	}

	if scope.service && snap != nil && !snap.Enabled {
		if err := inst.store.SetServiceEnabled(ctx, unit, false); err != nil {
			errs = append(errs, serviceError("disable", unit, err))
		}
	}

	touched := 0
	for i := len(rec.Entries) - 1; i >= 0; i-- {
		entry := rec.Entries[i]
		if !scope.includes(entry.Path) {
			continue
		}
		touched++
		if err := inst.restoreEntry(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}

	if touched > 0 {
		for _, s := range inst.reloadSteps() {
			if err := s.run(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if scope.service && snap != nil && snap.Enabled {
		if err := inst.store.SetServiceEnabled(ctx, unit, true); err != nil {
			errs = append(errs, serviceError("enable", unit, err))
		}
	}
	return errors.Join(errs...)
}

func (inst *installer) restoreEntry(ctx context.Context, entry journal.Entry) error {
	switch entry.Kind {
	case journal.EntryKindFile:
		data, err := entry.Content()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(inst.out, messages.RollbackRestoreFmt, entry.Path)
		if err := inst.store.PlaceFile(ctx, entry.Path, data, entry.FileMode()); err != nil {
			return fileError("restore", entry.Path, err)
		}
	case journal.EntryKindAbsent:
		_, _ = fmt.Fprintf(inst.out, messages.RollbackRemoveFmt, entry.Path)
		if err := inst.store.RemoveFile(ctx, entry.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fileError("remove", entry.Path, err)
		}
	}
	return nil
}

func (inst *installer) persist(rec journal.Record) error {
	if inst.opts.Journal == nil {
		return nil
	}
	return inst.opts.Journal.Write(rec)
}

func (inst *installer) persistBestEffort(rec journal.Record) {
	if err := inst.persist(rec); err != nil {
		inst.log.Warn("journal update failed", "id", rec.ID, "status", rec.Status, "error", err)
	}
}
