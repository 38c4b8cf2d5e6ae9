package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shadowblip/handycon-setup/internal/install"
	"github.com/shadowblip/handycon-setup/internal/lock"
	"github.com/shadowblip/handycon-setup/internal/messages"
	"github.com/shadowblip/handycon-setup/internal/prompt"
	"github.com/shadowblip/handycon-setup/internal/terminal"
)

const flagStrict = "strict"

var (
	isInteractiveFunc = terminal.IsInteractive
	newConfirmer      = func(in io.Reader, out io.Writer) prompt.Confirmer { return prompt.New(in, out) }
)

func newRemoveCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   messages.RemoveUse,
		Short: messages.RemoveShort,
		Long:  messages.RemoveLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.installOptions(cmd)
			if err != nil {
				return err
			}
			opts.Strict = a.cfg.Remove.Strict
			if cmd.Flags().Changed(flagStrict) {
				opts.Strict, _ = cmd.Flags().GetBool(flagStrict)
			}
			ok, err := confirm(cmd, yes, fmt.Sprintf(messages.RemoveConfirmFmt, a.cfg.Service.Name))
			if err != nil || !ok {
				return err
			}
			ctx := cmd.Context()
			return lock.With(ctx, a.lockPath(cmd), func() error {
				_, err := install.Remove(ctx, opts)
				return err
			})
		},
	}
	addDestRootFlag(cmd)
	cmd.Flags().Bool(flagStrict, false, messages.FlagStrictUsage)
	cmd.Flags().BoolVarP(&yes, flagYes, "y", false, messages.FlagYesUsage)
	return cmd
}

// confirm asks before a destructive command on an interactive terminal. Without a
// terminal, or with --yes, it proceeds as the original scripts did.
func confirm(cmd *cobra.Command, yes bool, question string) (bool, error) {
	if yes || !isInteractiveFunc() {
		return true, nil
	}
	ok, err := newConfirmer(cmd.InOrStdin(), cmd.OutOrStdout()).Confirm(question, false)
	if err != nil {
		return false, err
	}
	if !ok {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), color.YellowString(messages.ConfirmDeclined))
	}
	return ok, nil
}
