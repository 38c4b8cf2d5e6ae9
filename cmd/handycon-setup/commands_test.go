package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/shadowblip/handycon-setup/internal/deps"
	"github.com/shadowblip/handycon-setup/internal/install"
	"github.com/shadowblip/handycon-setup/internal/journal"
	"github.com/shadowblip/handycon-setup/internal/manifest"
	"github.com/shadowblip/handycon-setup/internal/messages"
	"github.com/shadowblip/handycon-setup/internal/prompt"
	"github.com/shadowblip/handycon-setup/internal/udev"
)

// stage is a staging install target with its own assets, journal, and lock.
type stage struct {
	assets     string
	root       string
	journalDir string
	config     string
}

func writeConfig(t *testing.T, dir string, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newStage(t *testing.T) stage {
	t.Helper()
	base := t.TempDir()
	s := stage{
		assets:     filepath.Join(base, "assets"),
		root:       filepath.Join(base, "root"),
		journalDir: filepath.Join(base, "journal"),
	}
	require.NoError(t, os.MkdirAll(s.assets, 0o755))
	require.NoError(t, os.MkdirAll(s.root, 0o755))
	for _, entry := range manifest.Default().Entries {
		content := fmt.Sprintf("# %s\n", entry.Asset)
		require.NoError(t, os.WriteFile(filepath.Join(s.assets, entry.Asset), []byte(content), 0o644))
	}
	s.config = writeConfig(t, base, fmt.Sprintf(`[assets]
dir = %q

[install]
dest_root = %q

[journal]
dir = %q

[lock]
path = %q
`, s.assets, s.root, s.journalDir, filepath.Join(base, "handycon-setup.lock")))

	origInteractive := isInteractiveFunc
	isInteractiveFunc = func() bool { return false }
	t.Cleanup(func() { isInteractiveFunc = origInteractive })
	return s
}

func (s stage) run(args ...string) (string, error) {
	var out bytes.Buffer
	full := append([]string{"handycon-setup", "--config", s.config, "--no-color"}, args...)
	err := execute(full, strings.NewReader(""), &out, &out)
	return out.String(), err
}

func (s stage) dest(path string) string {
	return filepath.Join(s.root, path)
}

func (s stage) records(t *testing.T) []journal.Metadata {
	t.Helper()
	records, err := journal.New(s.journalDir, 0).List()
	require.NoError(t, err)
	return records
}

func TestInstallCommandStagesPayload(t *testing.T) {
	s := newStage(t)
	out, err := s.run("install")
	require.NoError(t, err, out)

	for _, entry := range manifest.Default().Entries {
		info, err := os.Stat(s.dest(entry.Dest))
		require.NoError(t, err, entry.Dest)
		assert.Equal(t, entry.Mode.Perm(), info.Mode().Perm(), entry.Dest)
	}
	assert.Contains(t, out, "Installing udev rule /etc/udev/rules.d/60-handycon.rules")
	assert.Contains(t, out, "Enabling and starting handycon.service")

	records := s.records(t)
	require.Len(t, records, 1)
	assert.Equal(t, journal.StatusApplied, records[0].Status)
	assert.Contains(t, out, records[0].ID)
}

func TestOutputIsUncoloredWhenNotATerminal(t *testing.T) {
	s := newStage(t)
	orig := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = orig })

	var out bytes.Buffer
	err := execute([]string{"handycon-setup", "--config", s.config, "install"}, strings.NewReader(""), &out, &out)
	require.NoError(t, err, out.String())
	assert.True(t, color.NoColor)
	assert.NotContains(t, out.String(), "\x1b[")
}

func TestInstallCommandMissingAsset(t *testing.T) {
	s := newStage(t)
	require.NoError(t, os.Remove(filepath.Join(s.assets, "handycon.service")))

	_, err := s.run("install")
	require.Error(t, err)
	var missing *install.MissingSourceError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "handycon.service", missing.Asset)
	_, statErr := os.Stat(s.dest("/usr/local/bin/handycon.py"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "no file should be placed")
}

func TestInstallCommandWithDeps(t *testing.T) {
	s := newStage(t)
	var got deps.Options
	orig := installDepsFunc
	installDepsFunc = func(_ context.Context, opts deps.Options) error {
		got = opts
		return nil
	}
	t.Cleanup(func() { installDepsFunc = orig })

	out, err := s.run("install", "--with-deps")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Installing dependencies")
	assert.Equal(t, deps.DefaultPackages(), got.Packages)
}

func TestInstallCommandDepsFailureStopsInstall(t *testing.T) {
	s := newStage(t)
	orig := installDepsFunc
	installDepsFunc = func(context.Context, deps.Options) error { return errors.New("pacman exploded") }
	t.Cleanup(func() { installDepsFunc = orig })

	_, err := s.run("install", "--with-deps")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pacman exploded")
	_, statErr := os.Stat(s.dest("/usr/local/bin/handycon.py"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestRelativeDestRootRejected(t *testing.T) {
	s := newStage(t)
	_, err := s.run("install", "--dest-root", "relative/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relative/path")
}

func TestRemoveCommand(t *testing.T) {
	s := newStage(t)
	_, err := s.run("install")
	require.NoError(t, err)

	out, err := s.run("remove")
	require.NoError(t, err, out)
	for _, entry := range manifest.Default().Entries {
		_, statErr := os.Stat(s.dest(entry.Dest))
		assert.True(t, errors.Is(statErr, os.ErrNotExist), entry.Dest)
	}
}

func TestRemoveCommandTolerantAndStrict(t *testing.T) {
	s := newStage(t)
	out, err := s.run("remove", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "already absent")

	_, err = s.run("remove", "--yes", "--strict")
	require.Error(t, err)
	var missing *install.MissingDestinationError
	assert.ErrorAs(t, err, &missing)
}

type stubConfirmer struct {
	answer   bool
	err      error
	question string
}

func (c *stubConfirmer) Confirm(title string, _ bool) (bool, error) {
	c.question = title
	return c.answer, c.err
}

func stubPrompt(t *testing.T, c *stubConfirmer) {
	t.Helper()
	origInteractive, origConfirmer := isInteractiveFunc, newConfirmer
	isInteractiveFunc = func() bool { return true }
	newConfirmer = func(io.Reader, io.Writer) prompt.Confirmer { return c }
	t.Cleanup(func() {
		isInteractiveFunc = origInteractive
		newConfirmer = origConfirmer
	})
}

func TestRemoveCommandDeclined(t *testing.T) {
	s := newStage(t)
	_, err := s.run("install")
	require.NoError(t, err)

	c := &stubConfirmer{answer: false}
	stubPrompt(t, c)
	out, err := s.run("remove")
	require.NoError(t, err)
	assert.Contains(t, c.question, "handycon")
	assert.Contains(t, out, "Nothing changed")
	assert.FileExists(t, s.dest("/usr/local/bin/handycon.py"))
}

func TestRemoveCommandYesSkipsPrompt(t *testing.T) {
	s := newStage(t)
	_, err := s.run("install")
	require.NoError(t, err)

	c := &stubConfirmer{err: errors.New("should not prompt")}
	stubPrompt(t, c)
	_, err = s.run("remove", "--yes")
	require.NoError(t, err)
	assert.Empty(t, c.question)
}

func TestRemoveCommandPromptCancelled(t *testing.T) {
	s := newStage(t)
	stubPrompt(t, &stubConfirmer{err: prompt.ErrCancelled})
	_, err := s.run("remove")
	assert.ErrorIs(t, err, prompt.ErrCancelled)
}

func TestStatusCommandFormats(t *testing.T) {
	s := newStage(t)

	out, err := s.run("status", "--format", "json")
	require.NoError(t, err)
	var before install.Status
	require.NoError(t, json.Unmarshal([]byte(out), &before))
	assert.Equal(t, install.StateNotInstalled, before.State)
	assert.True(t, before.FilesOnly)

	_, err = s.run("install")
	require.NoError(t, err)

	out, err = s.run("status", "--format", "yaml")
	require.NoError(t, err)
	var after install.Status
	require.NoError(t, yaml.Unmarshal([]byte(out), &after))
	assert.Equal(t, install.StateInstalled, after.State)
	assert.Len(t, after.Entries, len(manifest.Default().Entries))

	out, err = s.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "installed")
	assert.Contains(t, out, "/usr/local/bin/handycon.py")
	assert.NotContains(t, out, "handycon.service (")
}

func TestStatusCommandComparesAssets(t *testing.T) {
	s := newStage(t)
	_, err := s.run("install")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.dest("/etc/udev/rules.d/60-handycon.rules"), []byte("edited\n"), 0o644))

	out, err := s.run("status", "--format", "json")
	require.NoError(t, err)
	var status install.Status
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, install.StateInstalled, status.State)

	out, err = s.run("status", "--format", "json", "--assets", s.assets)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, install.StatePartial, status.State)
}

func TestStatusCommandInvalidFormat(t *testing.T) {
	s := newStage(t)
	_, err := s.run("status", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestPlanCommand(t *testing.T) {
	s := newStage(t)
	out, err := s.run("plan")
	require.NoError(t, err)
	assert.Equal(t, len(manifest.Default().Entries), strings.Count(out, "create"))

	_, err = s.run("install")
	require.NoError(t, err)
	out, err = s.run("plan")
	require.NoError(t, err)
	assert.Contains(t, out, "No changes")

	require.NoError(t, os.WriteFile(s.dest("/etc/systemd/system/handycon.service"), []byte("old\n"), 0o644))
	out, err = s.run("plan")
	require.NoError(t, err)
	assert.Contains(t, out, "overwrite")
	assert.Contains(t, out, "-old")
	assert.Contains(t, out, "+# handycon.service")
	assert.Len(t, s.records(t), 1, "plan must not journal")
}

func TestRollbackCommand(t *testing.T) {
	s := newStage(t)
	_, err := s.run("install")
	require.NoError(t, err)
	records := s.records(t)
	require.Len(t, records, 1)

	out, err := s.run("rollback", records[0].ID, "--yes")
	require.NoError(t, err, out)
	_, statErr := os.Stat(s.dest("/usr/local/bin/handycon.py"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))

	rec, err := journal.New(s.journalDir, 0).Read(records[0].ID)
	require.NoError(t, err)
	assert.Equal(t, journal.StatusManuallyRolledBack, rec.Status)

	_, err = s.run("rollback", records[0].ID, "--yes")
	require.Error(t, err, "a rolled back record is not eligible again")
}

func TestRollbackCommandRejectsOtherRoot(t *testing.T) {
	s := newStage(t)
	_, err := s.run("install")
	require.NoError(t, err)
	records := s.records(t)
	require.Len(t, records, 1)

	other := t.TempDir()
	script := filepath.Join(other, "usr", "local", "bin", "handycon.py")
	require.NoError(t, os.MkdirAll(filepath.Dir(script), 0o755))
	require.NoError(t, os.WriteFile(script, []byte("keep\n"), 0o755))

	_, err = s.run("rollback", records[0].ID, "--yes", "--dest-root", other)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "captured under "+s.root)
	data, err := os.ReadFile(script)
	require.NoError(t, err)
	assert.Equal(t, "keep\n", string(data))
	assert.FileExists(t, s.dest("/usr/local/bin/handycon.py"))
}

func TestStagingKeepsLockAndJournalUnderRoot(t *testing.T) {
	s := newStage(t)
	emptyConfig := writeConfig(t, t.TempDir(), "")
	root := filepath.Join(t.TempDir(), "image")
	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		full := append([]string{"handycon-setup", "--config", emptyConfig, "--no-color"}, args...)
		err := execute(full, strings.NewReader(""), &out, &out)
		return out.String(), err
	}

	out, err := run("install", "--assets", s.assets, "--dest-root", root)
	require.NoError(t, err, out)
	assert.FileExists(t, filepath.Join(root, "run", "handycon-setup.lock"))
	records, err := journal.New(filepath.Join(root, journal.DefaultDir), 0).List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, root, records[0].Root)

	out, err = run("journal", "list", "--dest-root", root)
	require.NoError(t, err, out)
	assert.Contains(t, out, records[0].ID)

	out, err = run("rollback", records[0].ID, "--yes", "--dest-root", root)
	require.NoError(t, err, out)
	_, statErr := os.Stat(filepath.Join(root, "usr", "local", "bin", "handycon.py"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestRollbackCommandRequiresID(t *testing.T) {
	s := newStage(t)
	_, err := s.run("rollback")
	require.Error(t, err)

	_, err = s.run("rollback", "../etc/passwd", "--yes")
	require.Error(t, err)
}

func TestJournalListCommand(t *testing.T) {
	s := newStage(t)
	out, err := s.run("journal", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No journal records")

	_, err = s.run("install")
	require.NoError(t, err)
	out, err = s.run("journal", "list")
	require.NoError(t, err)
	records := s.records(t)
	require.Len(t, records, 1)
	assert.Contains(t, out, records[0].ID)
	assert.Contains(t, out, "applied")
	assert.Contains(t, out, s.root)
}

func TestPrintJournalRelativeTimes(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	records := []journal.Metadata{
		{ID: "b", CreatedAtUTC: now.Add(-2 * time.Hour).Format(time.RFC3339Nano), Operation: "install", Root: "/srv/stage", Status: journal.StatusFailed},
		{ID: "a", CreatedAtUTC: "not a time", Operation: "install", Status: journal.StatusApplied},
	}
	var out bytes.Buffer
	printJournal(&out, records, now)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "2 hours ago")
	assert.Contains(t, lines[0], "failed")
	assert.Contains(t, lines[0], "/srv/stage")
	assert.Contains(t, lines[1], "not a time")
}

func stubDoctor(t *testing.T, product string, devices []udev.InputDevice) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "product_name")
	require.NoError(t, os.WriteFile(path, []byte(product+"\n"), 0o644))

	origRunning, origList, origProduct, origCPU := systemdRunning, listInputDevices, productNamePath, cpuInfoPath
	systemdRunning = func() bool { return false }
	listInputDevices = func() ([]udev.InputDevice, error) { return devices, nil }
	productNamePath = path
	cpuInfoPath = filepath.Join(dir, "cpuinfo")
	t.Cleanup(func() {
		systemdRunning, listInputDevices = origRunning, origList
		productNamePath, cpuInfoPath = origProduct, origCPU
	})
}

var builtinInputs = []udev.InputDevice{
	{Syspath: "/sys/devices/input/input3", Name: "Microsoft X-Box 360 pad", Phys: "usb-0000:03:00.3-4/input0"},
	{Syspath: "/sys/devices/input/input0", Name: "AT Translated Set 2 keyboard", Phys: "isa0060/serio0/input0"},
}

func TestDoctorCommandHealthy(t *testing.T) {
	s := newStage(t)
	stubDoctor(t, "AYANEO NEXT", builtinInputs)
	_, err := s.run("install")
	require.NoError(t, err)

	out, err := s.run("doctor")
	require.NoError(t, err, out)
	assert.Contains(t, out, "AYA_GEN2")
	assert.Contains(t, out, "Microsoft X-Box 360 pad")
	assert.NotContains(t, out, "[FAIL]")
}

func TestDoctorCommandReportsMissingInstall(t *testing.T) {
	s := newStage(t)
	stubDoctor(t, "Some Laptop", nil)

	out, err := s.run("doctor")
	require.Error(t, err)
	var silent *SilentExitError
	require.ErrorAs(t, err, &silent)
	assert.Equal(t, 1, silent.Code)
	assert.Contains(t, out, "[FAIL]")
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "Some Laptop")

	var stdout, stderr bytes.Buffer
	code := 0
	runMain([]string{"handycon-setup", "--config", s.config, "--no-color", "doctor"},
		strings.NewReader(""), &stdout, &stderr, func(c int) { code = c })
	assert.Equal(t, 1, code)
	assert.Equal(t, 1, strings.Count(stdout.String(), messages.DoctorFailureSummary))
	assert.Empty(t, stderr.String())
}

func TestPrintRecommendationIndentsLines(t *testing.T) {
	var out bytes.Buffer
	printRecommendation(&out, "first\n\nsecond")
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], "first"))
	assert.True(t, strings.HasSuffix(lines[2], "second"))
}
