package deps

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowblip/handycon-setup/internal/testutil"
)

func quietSystem() RealSystem {
	return RealSystem{Stdout: io.Discard, Stderr: io.Discard}
}

func TestCommands(t *testing.T) {
	tests := []struct {
		manager string
		want    []string
	}{
		{Pacman, []string{"pacman", "-S", "--needed", "--noconfirm", "python-evdev", "python-dbus"}},
		{AptGet, []string{"apt-get", "install", "-y", "python-evdev", "python-dbus"}},
		{Dnf, []string{"dnf", "install", "-y", "python-evdev", "python-dbus"}},
	}
	for _, tt := range tests {
		t.Run(tt.manager, func(t *testing.T) {
			cmds, err := Commands(tt.manager, "", DefaultPackages(), DefaultPythonPackages())
			require.NoError(t, err)
			require.Len(t, cmds, 2)
			assert.Equal(t, tt.want, cmds[0])
			assert.Equal(t, []string{"python3", "-m", "pip", "install", "BMI160-i2c"}, cmds[1])
		})
	}
}

func TestCommandsUnsupportedManager(t *testing.T) {
	_, err := Commands("zypper", "", []string{"x"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zypper")

	cmds, err := Commands("", "python3.11", nil, []string{"BMI160-i2c"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"python3.11", "-m", "pip", "install", "BMI160-i2c"}}, cmds)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(Pacman))
	assert.True(t, Supported(Dnf))
	assert.False(t, Supported("yum"))
}

func TestDetectPrefersPacman(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteStub(t, dir, "dnf")
	testutil.WriteStub(t, dir, "pacman")
	testutil.UseStubPath(t, dir)

	manager, err := Detect(quietSystem())
	require.NoError(t, err)
	assert.Equal(t, Pacman, manager)
}

func TestDetectNoneFound(t *testing.T) {
	testutil.UseStubPath(t, t.TempDir())
	_, err := Detect(quietSystem())
	assert.Error(t, err)
}

func TestInstallRunsManagerThenPip(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "calls.log")
	testutil.WriteRecordingStub(t, dir, "apt-get", logPath, 0)
	testutil.WriteRecordingStub(t, dir, "python3", logPath, 0)
	testutil.UseStubPath(t, dir)

	err := Install(context.Background(), Options{
		Packages:       DefaultPackages(),
		PythonPackages: DefaultPythonPackages(),
		Sys:            quietSystem(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"apt-get install -y python-evdev python-dbus",
		"python3 -m pip install BMI160-i2c",
	}, testutil.ReadRecordedCalls(t, logPath))
}

func TestInstallFailFastKeepsExitCode(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "calls.log")
	testutil.WriteRecordingStub(t, dir, "pacman", logPath, 3)
	testutil.WriteRecordingStub(t, dir, "python3", logPath, 0)
	testutil.UseStubPath(t, dir)

	err := Install(context.Background(), Options{
		Manager:        Pacman,
		Packages:       []string{"python-evdev"},
		PythonPackages: DefaultPythonPackages(),
		Sys:            quietSystem(),
	})
	require.Error(t, err)
	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode())
	assert.Equal(t, []string{"pacman -S --needed --noconfirm python-evdev"}, testutil.ReadRecordedCalls(t, logPath))
}

func TestInstallNothingToDo(t *testing.T) {
	err := Install(context.Background(), Options{Sys: quietSystem()})
	assert.Error(t, err)
}
