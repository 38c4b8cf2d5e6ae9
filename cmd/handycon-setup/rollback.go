package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shadowblip/handycon-setup/internal/install"
	"github.com/shadowblip/handycon-setup/internal/lock"
	"github.com/shadowblip/handycon-setup/internal/messages"
)

func newRollbackCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   messages.RollbackUse,
		Short: messages.RollbackShort,
		Long:  messages.RollbackLong,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.installOptions(cmd)
			if err != nil {
				return err
			}
			if opts.Journal == nil {
				return errors.New(messages.RollbackJournalDisabled)
			}
			id := args[0]
			ok, err := confirm(cmd, yes, fmt.Sprintf(messages.RollbackConfirmFmt, id))
			if err != nil || !ok {
				return err
			}
			ctx := cmd.Context()
			return lock.With(ctx, a.lockPath(cmd), func() error {
				return install.Rollback(ctx, id, opts)
			})
		},
	}
	addDestRootFlag(cmd)
	cmd.Flags().BoolVarP(&yes, flagYes, "y", false, messages.FlagYesUsage)
	return cmd
}
