package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shadowblip/handycon-setup/internal/journal"
	"github.com/shadowblip/handycon-setup/internal/messages"
)

func newJournalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   messages.JournalUse,
		Short: messages.JournalShort,
		Args:  cobra.NoArgs,
	}
	list := &cobra.Command{
		Use:   messages.JournalListUse,
		Short: messages.JournalListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.root(cmd)
			if err != nil {
				return err
			}
			j := a.journal(root)
			if j == nil {
				return errors.New(messages.RollbackJournalDisabled)
			}
			records, err := j.List()
			if err != nil {
				return err
			}
			printJournal(cmd.OutOrStdout(), records, time.Now())
			return nil
		},
	}
	addDestRootFlag(list)
	cmd.AddCommand(list)
	return cmd
}

func printJournal(out io.Writer, records []journal.Metadata, now time.Time) {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(out, messages.JournalEmpty)
		return
	}
	for _, rec := range records {
		when := rec.CreatedAtUTC
		if created, err := time.Parse(time.RFC3339Nano, rec.CreatedAtUTC); err == nil {
			when = humanize.RelTime(created, now, "ago", "from now")
		}
		_, _ = fmt.Fprintf(out, messages.JournalLineFmt, rec.ID, rec.Operation, statusLabel(rec.Status), when, rec.Root)
	}
}

func statusLabel(status journal.Status) string {
	switch status {
	case journal.StatusApplied, journal.StatusManuallyRolledBack, journal.StatusAutoRolledBack:
		return color.GreenString(string(status))
	case journal.StatusFailed, journal.StatusRollbackFailed:
		return color.RedString(string(status))
	default:
		return string(status)
	}
}
