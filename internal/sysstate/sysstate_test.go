package sysstate

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowblip/handycon-setup/internal/systemd"
)

// Both implementations must satisfy Store.
var (
	_ Store = (*RealStore)(nil)
	_ Store = (*MemStore)(nil)
)

type fakeServices struct {
	calls  []string
	status systemd.UnitStatus
	err    map[string]error
}

func (f *fakeServices) do(call string) error {
	f.calls = append(f.calls, call)
	return f.err[call]
}

func (f *fakeServices) Enable(_ context.Context, unit string) error  { return f.do("enable " + unit) }
func (f *fakeServices) Disable(_ context.Context, unit string) error { return f.do("disable " + unit) }
func (f *fakeServices) Start(_ context.Context, unit string) error   { return f.do("start " + unit) }
func (f *fakeServices) Stop(_ context.Context, unit string) error    { return f.do("stop " + unit) }
func (f *fakeServices) Reload(context.Context) error                 { return f.do("reload") }
func (f *fakeServices) Status(_ context.Context, unit string) (systemd.UnitStatus, error) {
	return f.status, f.do("status " + unit)
}

type fakeRules struct{ reloads int }

func (f *fakeRules) Reload(context.Context) error {
	f.reloads++
	return nil
}

func TestRealStoreStagingFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := &RealStore{Root: root}
	require.True(t, store.Staging())

	const dest = "/etc/udev/rules.d/60-handycon.rules"
	require.NoError(t, store.PlaceFile(ctx, dest, []byte("rule"), 0o644))

	onDisk, err := os.ReadFile(filepath.Join(root, "etc/udev/rules.d/60-handycon.rules"))
	require.NoError(t, err)
	assert.Equal(t, "rule", string(onDisk))

	info, err := store.StatFile(ctx, dest)
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size)
	assert.Equal(t, fs.FileMode(0o644), info.Mode)

	data, err := store.ReadFile(ctx, dest)
	require.NoError(t, err)
	assert.Equal(t, "rule", string(data))

	require.NoError(t, store.RemoveFile(ctx, dest))
	_, err = store.StatFile(ctx, dest)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorIs(t, store.RemoveFile(ctx, dest), fs.ErrNotExist)
}

func TestStoreTarget(t *testing.T) {
	assert.Equal(t, "/", (&RealStore{}).Target())
	assert.Equal(t, "/", (&RealStore{Root: "/"}).Target())
	assert.Equal(t, "/srv/stage", (&RealStore{Root: "/srv/stage/"}).Target())

	mem := NewMemStore()
	assert.Equal(t, "/", mem.Target())
	mem.SetTarget("/srv/stage/")
	assert.Equal(t, "/srv/stage", mem.Target())
}

func TestRealStoreStagingSkipsServiceControl(t *testing.T) {
	services := &fakeServices{}
	rules := &fakeRules{}
	store := &RealStore{Root: t.TempDir(), Services: services, Rules: rules}
	ctx := context.Background()

	require.NoError(t, store.SetServiceEnabled(ctx, "handycon.service", true))
	require.NoError(t, store.ReloadServiceUnits(ctx))
	require.NoError(t, store.ReloadDeviceRules(ctx))
	assert.Empty(t, services.calls)
	assert.Zero(t, rules.reloads)
}

func TestRealStoreServiceOrdering(t *testing.T) {
	services := &fakeServices{status: systemd.UnitStatus{Enabled: true, Active: true}}
	rules := &fakeRules{}
	store := &RealStore{Root: "/", Services: services, Rules: rules}
	ctx := context.Background()

	require.NoError(t, store.SetServiceEnabled(ctx, "handycon.service", true))
	require.NoError(t, store.SetServiceEnabled(ctx, "handycon.service", false))
	status, err := store.ServiceStatus(ctx, "handycon.service")
	require.NoError(t, err)
	require.NoError(t, store.ReloadDeviceRules(ctx))

	assert.Equal(t, []string{
		"enable handycon.service",
		"start handycon.service",
		"stop handycon.service",
		"disable handycon.service",
		"status handycon.service",
	}, services.calls)
	assert.Equal(t, ServiceStatus{Enabled: true, Active: true}, status)
	assert.Equal(t, 1, rules.reloads)
}

func TestRealStoreEnableFailureSkipsStart(t *testing.T) {
	services := &fakeServices{err: map[string]error{"enable handycon.service": errors.New("denied")}}
	store := &RealStore{Root: "/", Services: services}

	err := store.SetServiceEnabled(context.Background(), "handycon.service", true)
	require.Error(t, err)
	assert.Equal(t, []string{"enable handycon.service"}, services.calls)
}

func TestRealStoreWithoutBackends(t *testing.T) {
	store := &RealStore{Root: "/"}
	ctx := context.Background()
	assert.Error(t, store.SetServiceEnabled(ctx, "handycon.service", true))
	assert.Error(t, store.ReloadDeviceRules(ctx))
	assert.Error(t, store.ReloadServiceUnits(ctx))
}

func TestRealStoreHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := &RealStore{Root: t.TempDir()}
	assert.ErrorIs(t, store.PlaceFile(ctx, "/etc/x", []byte("x"), 0o644), context.Canceled)
}

func TestMemStoreFilesAndFaults(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	require.NoError(t, store.PlaceFile(ctx, "/etc/a", []byte("a"), 0o644))

	data, mode, ok := store.File("/etc/a")
	require.True(t, ok)
	assert.Equal(t, "a", string(data))
	assert.Equal(t, fs.FileMode(0o644), mode)

	store.Fail(OpPlace, "/etc/b", fs.ErrPermission)
	err := store.PlaceFile(ctx, "/etc/b", []byte("b"), 0o644)
	assert.ErrorIs(t, err, fs.ErrPermission)
	_, _, ok = store.File("/etc/b")
	assert.False(t, ok)

	require.NoError(t, store.RemoveFile(ctx, "/etc/a"))
	assert.ErrorIs(t, store.RemoveFile(ctx, "/etc/a"), fs.ErrNotExist)
	_, err = store.ReadFile(ctx, "/etc/a")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	assert.Equal(t, []string{"place /etc/a", "place /etc/b", "remove /etc/a", "remove /etc/a"}, store.Ops())
}

func TestMemStoreServices(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	status, err := store.ServiceStatus(ctx, "handycon.service")
	require.NoError(t, err)
	assert.Equal(t, ServiceStatus{}, status)

	require.NoError(t, store.SetServiceEnabled(ctx, "handycon.service", true))
	status, err = store.ServiceStatus(ctx, "handycon.service")
	require.NoError(t, err)
	assert.Equal(t, ServiceStatus{Enabled: true, Active: true}, status)

	store.Fail(OpReloadRules, "", errors.New("udev down"))
	assert.Error(t, store.ReloadDeviceRules(ctx))
	assert.Equal(t, []string{"enable handycon.service", "reload-rules"}, store.Ops())
}
