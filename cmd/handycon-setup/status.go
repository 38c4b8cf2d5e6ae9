package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shadowblip/handycon-setup/internal/install"
	"github.com/shadowblip/handycon-setup/internal/messages"
)

const (
	flagFormat = "format"

	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func newStatusCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   messages.StatusUse,
		Short: messages.StatusShort,
		Long:  messages.StatusLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case formatText, formatJSON, formatYAML:
			default:
				return fmt.Errorf(messages.StatusFormatInvalidFmt, format)
			}
			opts, err := a.installOptions(cmd)
			if err != nil {
				return err
			}
			// Content comparison needs the assets; without them presence alone counts.
			if cmd.Flags().Changed(flagAssets) {
				opts.Assets = a.assetsFS(cmd)
			}
			status, err := install.Inspect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return writeStatus(cmd.OutOrStdout(), format, status)
		},
	}
	cmd.Flags().StringVar(&format, flagFormat, formatText, messages.FlagFormatUsage)
	addAssetsFlag(cmd)
	addDestRootFlag(cmd)
	return cmd
}

func writeStatus(out io.Writer, format string, status install.Status) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	case formatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(status); err != nil {
			return err
		}
		return enc.Close()
	}

	_, _ = fmt.Fprintf(out, messages.StatusStateFmt, stateLabel(status.State))
	if !status.FilesOnly {
		_, _ = fmt.Fprintf(out, messages.StatusServiceFmt, status.Service,
			enabledLabel(status.ServiceEnabled), activeLabel(status.ServiceActive))
	}
	for _, entry := range status.Entries {
		switch entry.State {
		case install.EntryAbsent:
			_, _ = fmt.Fprintf(out, messages.StatusEntryAbsentFmt, color.RedString(string(entry.State)), entry.Dest)
		case install.EntryDiffers:
			_, _ = fmt.Fprintf(out, messages.StatusEntryFmt, color.YellowString(string(entry.State)), entry.Dest,
				entry.Mode, humanize.Bytes(uint64(entry.Size)))
		default:
			_, _ = fmt.Fprintf(out, messages.StatusEntryFmt, color.GreenString(string(entry.State)), entry.Dest,
				entry.Mode, humanize.Bytes(uint64(entry.Size)))
		}
	}
	return nil
}

func stateLabel(state install.State) string {
	switch state {
	case install.StateInstalled:
		return color.GreenString(string(state))
	case install.StatePartial:
		return color.YellowString(string(state))
	default:
		return string(state)
	}
}

func enabledLabel(enabled bool) string {
	if enabled {
		return messages.StatusEnabled
	}
	return messages.StatusDisabled
}

func activeLabel(active bool) string {
	if active {
		return messages.StatusActive
	}
	return messages.StatusInactive
}
