// Package install applies and reverts the managed manifest against a system state store.
package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/shadowblip/handycon-setup/internal/journal"
	"github.com/shadowblip/handycon-setup/internal/manifest"
	"github.com/shadowblip/handycon-setup/internal/messages"
	"github.com/shadowblip/handycon-setup/internal/sysstate"
)

const operationInstall = "install"

// Options controls installer behavior.
type Options struct {
	Store    sysstate.Store
	Assets   fs.FS
	Manifest manifest.Manifest
	Service  manifest.ServiceRef
	// Journal persists pre-install state; nil disables persistence.
	Journal *journal.Journal
	// RollbackOnFailure undoes completed install steps, newest first, when a step fails.
	RollbackOnFailure bool
	// Strict makes Remove fail on destinations that are already absent.
	Strict bool
	// FilesOnly leaves the service out of the derived state, for staged installs.
	FilesOnly bool
	// PreInstall runs after assets are checked and before any file is placed.
	PreInstall   func(ctx context.Context) error
	Out          io.Writer
	Logger       *slog.Logger
	DiffMaxLines int
}

// Result summarizes a run.
type Result struct {
	JournalID  string
	Steps      int
	Completed  int
	Skipped    []string
	RolledBack bool
}

type step struct {
	label string
	run   func(ctx context.Context) error
	// path is the managed destination the step writes, if any.
	path string
	// service marks the step that changes the service state.
	service bool
}

type installer struct {
	opts  Options
	store sysstate.Store
	out   io.Writer
	log   *slog.Logger
	unit  string
}

func newInstaller(opts Options, needAssets bool) (*installer, error) {
	if opts.Store == nil {
		return nil, errors.New(messages.InstallStoreRequired)
	}
	if needAssets && opts.Assets == nil {
		return nil, errors.New(messages.InstallAssetsRequired)
	}
	if err := opts.Manifest.Validate(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(opts.Service.Name)
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf(messages.InstallInvalidServiceFmt, opts.Service.Name)
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &installer{
		opts:  opts,
		store: opts.Store,
		out:   out,
		log:   logger,
		unit:  manifest.ServiceRef{Name: name}.Unit(),
	}, nil
}

// Install copies every asset to its destination in manifest order, reloads units and rules,
// then enables and starts the service. The first failing step stops the run.
func Install(ctx context.Context, opts Options) (Result, error) {
	inst, err := newInstaller(opts, true)
	if err != nil {
		return Result{}, err
	}
	assets, err := inst.readAssets()
	if err != nil {
		return Result{}, err
	}

	var rec *journal.Record
	if opts.Journal != nil || opts.RollbackOnFailure {
		captured, err := inst.capture(ctx)
		if err != nil {
			return Result{}, err
		}
		rec = &captured
		if err := inst.persist(*rec); err != nil {
			return Result{}, err
		}
	}

	steps := inst.installSteps(assets)
	result := Result{Steps: len(steps)}
	if rec != nil && opts.Journal != nil {
		result.JournalID = rec.ID
	}
	completed, runErr := inst.runSteps(ctx, steps)
	result.Completed = completed
	if runErr == nil {
		if rec != nil {
			rec.Status = journal.StatusApplied
			if err := inst.persist(*rec); err != nil {
				return result, err
			}
		}
		_, _ = fmt.Fprintln(inst.out, color.GreenString(messages.InstallDone))
		if result.JournalID != "" {
			_, _ = fmt.Fprintf(inst.out, messages.InstallJournalHintFmt, result.JournalID)
		}
		return result, nil
	}

	failed := steps[completed]
	if rec == nil {
		return result, runErr
	}
	rec.Status = journal.StatusFailed
	rec.FailureStep = failed.label
	rec.FailureError = runErr.Error()
	if !opts.RollbackOnFailure {
		inst.persistBestEffort(*rec)
		return result, runErr
	}

	scope := rollbackScope(steps[:completed+1])
	if rbErr := inst.restore(context.WithoutCancel(ctx), *rec, scope); rbErr != nil {
		rec.Status = journal.StatusRollbackFailed
		inst.persistBestEffort(*rec)
		_, _ = fmt.Fprintln(inst.out, color.RedString(messages.InstallRollbackFailedFmt, failed.label, rbErr))
		return result, fmt.Errorf(messages.InstallStepRollbackFailedFmt, runErr, rbErr)
	}
	rec.Status = journal.StatusAutoRolledBack
	inst.persistBestEffort(*rec)
	result.RolledBack = true
	_, _ = fmt.Fprintln(inst.out, color.YellowString(messages.InstallRolledBackFmt, failed.label))
	return result, runErr
}

// Remove stops and disables the service, then deletes every destination in manifest order.
// Already-absent destinations are skipped unless Strict is set.
func Remove(ctx context.Context, opts Options) (Result, error) {
	inst, err := newInstaller(opts, false)
	if err != nil {
		return Result{}, err
	}
	result := Result{}
	steps := inst.removeSteps(&result)
	result.Steps = len(steps)
	completed, err := inst.runSteps(ctx, steps)
	result.Completed = completed
	if err != nil {
		return result, err
	}
	_, _ = fmt.Fprintln(inst.out, color.GreenString(messages.RemoveDone))
	return result, nil
}

func (inst *installer) installSteps(assets map[string][]byte) []step {
	store := inst.store
	steps := []step{}
	if inst.opts.PreInstall != nil {
		steps = append(steps, step{label: messages.InstallStepDependencies, run: inst.opts.PreInstall})
	}
	for _, entry := range inst.opts.Manifest.Entries {
		data := assets[entry.Asset]
		steps = append(steps, step{
			label: fmt.Sprintf(messages.InstallStepPlaceFmt, entry.Kind.Describe(), entry.Dest),
			path:  entry.Dest,
			run: func(ctx context.Context) error {
				if err := store.PlaceFile(ctx, entry.Dest, data, entry.Mode); err != nil {
					return fileError("write", entry.Dest, err)
				}
				return nil
			},
		})
	}
	steps = append(steps, inst.reloadSteps()...)
	steps = append(steps, step{
		label:   fmt.Sprintf(messages.InstallStepEnableFmt, inst.unit),
		service: true,
		run: func(ctx context.Context) error {
			if err := store.SetServiceEnabled(ctx, inst.unit, true); err != nil {
				return serviceError("enable", inst.unit, err)
			}
			return nil
		},
	})
	return steps
}

func (inst *installer) removeSteps(result *Result) []step {
	store := inst.store
	steps := []step{{
		label:   fmt.Sprintf(messages.RemoveStepDisableFmt, inst.unit),
		service: true,
		run: func(ctx context.Context) error {
			if err := store.SetServiceEnabled(ctx, inst.unit, false); err != nil {
				return serviceError("disable", inst.unit, err)
			}
			return nil
		},
	}}
	for _, entry := range inst.opts.Manifest.Entries {
		steps = append(steps, step{
			label: fmt.Sprintf(messages.RemoveStepDeleteFmt, entry.Kind.Describe(), entry.Dest),
			path:  entry.Dest,
			run: func(ctx context.Context) error {
				err := store.RemoveFile(ctx, entry.Dest)
				switch {
				case err == nil:
					return nil
				case errors.Is(err, fs.ErrNotExist):
					if inst.opts.Strict {
						return &MissingDestinationError{Path: entry.Dest}
					}
					result.Skipped = append(result.Skipped, entry.Dest)
					_, _ = fmt.Fprintln(inst.out, color.YellowString(messages.RemoveAlreadyAbsentFmt, entry.Dest))
					return nil
				default:
					return fileError("remove", entry.Dest, err)
				}
			},
		})
	}
	return append(steps, inst.reloadSteps()...)
}

func (inst *installer) reloadSteps() []step {
	var steps []step
	if inst.opts.Manifest.Contains(manifest.KindServiceUnit) {
		steps = append(steps, step{label: messages.StepReloadUnits, run: inst.reloadUnits})
	}
	if inst.opts.Manifest.Contains(manifest.KindUdevRule) {
		steps = append(steps, step{label: messages.StepReloadRules, run: inst.reloadRules})
	}
	return steps
}

func (inst *installer) reloadUnits(ctx context.Context) error {
	if err := inst.store.ReloadServiceUnits(ctx); err != nil {
		return serviceError("reload", "systemd", err)
	}
	return nil
}

func (inst *installer) reloadRules(ctx context.Context) error {
	if err := inst.store.ReloadDeviceRules(ctx); err != nil {
		return serviceError("reload", "udev", err)
	}
	return nil
}

// runSteps runs steps in order, printing each label first. It returns the number of
// steps that finished and the first error; later steps are not attempted.
func (inst *installer) runSteps(ctx context.Context, steps []step) (int, error) {
	for i, s := range steps {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		inst.announce(i+1, len(steps), s.label)
		if err := s.run(ctx); err != nil {
			inst.log.Debug("step failed", "step", s.label, "error", err)
			return i, err
		}
	}
	return len(steps), nil
}

func (inst *installer) announce(i int, n int, label string) {
	_, _ = fmt.Fprintf(inst.out, messages.StepLineFmt, color.CyanString("[%d/%d]", i, n), label)
}

// readAssets loads every asset up front so a missing one aborts before anything is written.
func (inst *installer) readAssets() (map[string][]byte, error) {
	assets := make(map[string][]byte, len(inst.opts.Manifest.Entries))
	for _, entry := range inst.opts.Manifest.Entries {
		if _, ok := assets[entry.Asset]; ok {
			continue
		}
		data, err := fs.ReadFile(inst.opts.Assets, entry.Asset)
		if err != nil {
			switch {
			case errors.Is(err, fs.ErrNotExist):
				return nil, &MissingSourceError{Asset: entry.Asset, Err: err}
			case errors.Is(err, fs.ErrPermission):
				return nil, &PermissionError{Op: "read", Target: entry.Asset, Err: err}
			default:
				return nil, fmt.Errorf(messages.InstallReadAssetFmt, entry.Asset, err)
			}
		}
		assets[entry.Asset] = data
	}
	return assets, nil
}
