package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shadowblip/handycon-setup/internal/install"
	"github.com/shadowblip/handycon-setup/internal/messages"
)

const flagDiffLines = "diff-lines"

func newPlanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   messages.PlanUse,
		Short: messages.PlanShort,
		Long:  messages.PlanLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.installOptions(cmd)
			if err != nil {
				return err
			}
			opts.Assets = a.assetsFS(cmd)
			if cmd.Flags().Changed(flagDiffLines) {
				opts.DiffMaxLines, _ = cmd.Flags().GetInt(flagDiffLines)
			}
			items, err := install.Plan(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), items)
			return nil
		},
	}
	addAssetsFlag(cmd)
	addDestRootFlag(cmd)
	cmd.Flags().Int(flagDiffLines, install.DefaultDiffMaxLines, messages.FlagDiffLinesUsage)
	return cmd
}

func printPlan(out io.Writer, items []install.PlanItem) {
	changes := 0
	for _, item := range items {
		var label string
		switch item.Action {
		case install.PlanCreate:
			label = color.GreenString(string(item.Action))
		case install.PlanOverwrite:
			label = color.YellowString(string(item.Action))
		default:
			label = string(item.Action)
		}
		_, _ = fmt.Fprintf(out, messages.PlanItemFmt, label, item.Entry.Kind.Describe(), item.Entry.Dest)
		if item.Action != install.PlanUnchanged || item.ModeChanged {
			changes++
		}
		if item.ModeChanged {
			_, _ = fmt.Fprintf(out, messages.PlanModeChangeFmt, item.CurrentMode.Perm(), item.Entry.Mode.Perm())
		}
		switch {
		case item.Binary:
			_, _ = fmt.Fprintln(out, messages.PlanBinaryDiffers)
		case item.Diff != "":
			_, _ = fmt.Fprint(out, item.Diff)
		}
	}
	if changes == 0 {
		_, _ = fmt.Fprintln(out, messages.PlanNoChanges)
		return
	}
	_, _ = fmt.Fprintf(out, messages.PlanSummaryFmt, changes, len(items))
}
