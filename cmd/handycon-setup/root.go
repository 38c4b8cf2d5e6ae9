package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shadowblip/handycon-setup/internal/config"
	"github.com/shadowblip/handycon-setup/internal/install"
	"github.com/shadowblip/handycon-setup/internal/journal"
	"github.com/shadowblip/handycon-setup/internal/manifest"
	"github.com/shadowblip/handycon-setup/internal/messages"
	"github.com/shadowblip/handycon-setup/internal/sysstate"
	"github.com/shadowblip/handycon-setup/internal/systemd"
	"github.com/shadowblip/handycon-setup/internal/terminal"
	"github.com/shadowblip/handycon-setup/internal/udev"
)

const (
	flagConfig  = "config"
	flagVerbose = "verbose"
	flagNoColor = "no-color"

	flagAssets   = "assets"
	flagDestRoot = "dest-root"
	flagYes      = "yes"
)

var newServiceManager = func(logger *slog.Logger) sysstate.ServiceManager {
	return systemd.NewManager(logger)
}

// app carries the loaded configuration and logger shared by subcommands.
type app struct {
	configPath string
	verbose    bool
	noColor    bool

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		Long:          messages.RootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, flagConfig, "", messages.FlagConfigUsage)
	flags.BoolVarP(&a.verbose, flagVerbose, "v", false, messages.FlagVerboseUsage)
	flags.BoolVar(&a.noColor, flagNoColor, false, messages.FlagNoColorUsage)

	cmd.AddCommand(
		newInstallCmd(a),
		newRemoveCmd(a),
		newStatusCmd(a),
		newPlanCmd(a),
		newDoctorCmd(a),
		newRollbackCmd(a),
		newJournalCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// setup loads configuration and configures color and logging before any subcommand runs.
// Output is colored only when it goes to a terminal.
func (a *app) setup(cmd *cobra.Command) error {
	if a.noColor || !terminal.IsTerminalWriter(cmd.OutOrStdout()) {
		color.NoColor = true
	}
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	path, explicit := config.ResolvePath(a.configPath)
	cfg, err := config.Load(path, explicit)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger.Debug("configuration loaded", "path", path, "explicit", explicit)
	return nil
}

// destRoot returns the flag value when set, else the configured root.
func (a *app) destRoot(cmd *cobra.Command) string {
	if cmd.Flags().Changed(flagDestRoot) {
		value, _ := cmd.Flags().GetString(flagDestRoot)
		return value
	}
	return a.cfg.Install.DestRoot
}

func (a *app) assetsFS(cmd *cobra.Command) fs.FS {
	dir := a.cfg.Assets.Dir
	if cmd.Flags().Changed(flagAssets) {
		dir, _ = cmd.Flags().GetString(flagAssets)
	}
	return os.DirFS(dir)
}

// root returns the absolute destination root for cmd.
func (a *app) root(cmd *cobra.Command) (string, error) {
	root := a.destRoot(cmd)
	if !filepath.IsAbs(root) {
		return "", fmt.Errorf(messages.FlagDestRootInvalidFmt, root)
	}
	return root, nil
}

// stagedPath moves a default runtime path under a staging root. Paths the
// configuration changed from their default are used as given.
func stagedPath(root string, path string, def string) string {
	if !(&sysstate.RealStore{Root: root}).Staging() || path != def {
		return path
	}
	return filepath.Join(root, def)
}

func (a *app) journal(root string) *journal.Journal {
	if !a.cfg.Journal.Enabled {
		return nil
	}
	dir := stagedPath(root, a.cfg.Journal.Dir, journal.DefaultDir)
	return journal.New(dir, a.cfg.Journal.MaxRetained)
}

// lockPath returns the lock serializing mutations of cmd's destination root.
func (a *app) lockPath(cmd *cobra.Command) string {
	return stagedPath(a.destRoot(cmd), a.cfg.Lock.Path, config.DefaultLockPath)
}

func (a *app) store(destRoot string) *sysstate.RealStore {
	return &sysstate.RealStore{
		Root:     destRoot,
		Services: newServiceManager(a.logger),
		Rules:    udev.Reloader{Udevadm: a.cfg.Udev.Udevadm, Logger: a.logger},
		Logger:   a.logger,
	}
}

// installOptions builds installer options for the live system or a staging root.
func (a *app) installOptions(cmd *cobra.Command) (install.Options, error) {
	root, err := a.root(cmd)
	if err != nil {
		return install.Options{}, err
	}
	store := a.store(root)
	return install.Options{
		Store:        store,
		Manifest:     manifest.Default(),
		Service:      manifest.ServiceRef{Name: a.cfg.Service.Name},
		Journal:      a.journal(root),
		FilesOnly:    store.Staging(),
		Out:          cmd.OutOrStdout(),
		Logger:       a.logger,
		DiffMaxLines: a.cfg.Plan.DiffMaxLines,
	}, nil
}

func addDestRootFlag(cmd *cobra.Command) {
	cmd.Flags().String(flagDestRoot, "/", messages.FlagDestRootUsage)
}

func addAssetsFlag(cmd *cobra.Command) {
	cmd.Flags().String(flagAssets, ".", messages.FlagAssetsUsage)
}
