package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/shadowblip/handycon-setup/internal/deps"
	"github.com/shadowblip/handycon-setup/internal/install"
	"github.com/shadowblip/handycon-setup/internal/lock"
	"github.com/shadowblip/handycon-setup/internal/messages"
)

const (
	flagRollbackOnFailure = "rollback-on-failure"
	flagWithDeps          = "with-deps"
)

var installDepsFunc = deps.Install

func newInstallCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   messages.InstallUse,
		Short: messages.InstallShort,
		Long:  messages.InstallLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.installOptions(cmd)
			if err != nil {
				return err
			}
			opts.Assets = a.assetsFS(cmd)
			opts.RollbackOnFailure = a.cfg.Install.RollbackOnFailure
			if cmd.Flags().Changed(flagRollbackOnFailure) {
				opts.RollbackOnFailure, _ = cmd.Flags().GetBool(flagRollbackOnFailure)
			}
			withDeps := a.cfg.Dependencies.Install
			if cmd.Flags().Changed(flagWithDeps) {
				withDeps, _ = cmd.Flags().GetBool(flagWithDeps)
			}
			if withDeps {
				depOpts := deps.Options{
					Manager:        a.cfg.Dependencies.PackageManager,
					Packages:       a.cfg.Dependencies.Packages,
					PythonPackages: a.cfg.Dependencies.PythonPackages,
					Sys:            deps.RealSystem{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()},
					Logger:         a.logger,
				}
				opts.PreInstall = func(ctx context.Context) error {
					return installDepsFunc(ctx, depOpts)
				}
			}

			ctx := cmd.Context()
			return lock.With(ctx, a.lockPath(cmd), func() error {
				_, err := install.Install(ctx, opts)
				return err
			})
		},
	}
	addAssetsFlag(cmd)
	addDestRootFlag(cmd)
	cmd.Flags().Bool(flagRollbackOnFailure, false, messages.FlagRollbackOnFailureUsage)
	cmd.Flags().Bool(flagWithDeps, false, messages.FlagWithDepsUsage)
	return cmd
}
