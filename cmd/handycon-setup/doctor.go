package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shadowblip/handycon-setup/internal/doctor"
	"github.com/shadowblip/handycon-setup/internal/install"
	"github.com/shadowblip/handycon-setup/internal/messages"
	"github.com/shadowblip/handycon-setup/internal/systemd"
	"github.com/shadowblip/handycon-setup/internal/udev"
)

var (
	systemdRunning   = systemd.IsRunning
	listInputDevices = udev.InputDevices
	productNamePath  = doctor.DefaultProductNamePath
	cpuInfoPath      = doctor.DefaultCPUInfoPath
)

func newDoctorCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   messages.DoctorUse,
		Short: messages.DoctorShort,
		Long:  messages.DoctorLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			opts, err := a.installOptions(cmd)
			if err != nil {
				return err
			}

			var results []doctor.Result
			results = append(results, doctor.CheckHardware(productNamePath, cpuInfoPath))

			running := systemdRunning()
			if !opts.FilesOnly {
				results = append(results, doctor.CheckInitSystem(running))
			}
			if !running {
				// Without systemd the service cannot be queried; report files only.
				opts.FilesOnly = true
			}

			status, err := install.Inspect(cmd.Context(), opts)
			if err != nil {
				results = append(results, doctor.Result{
					Status:         doctor.StatusFail,
					CheckName:      messages.DoctorCheckNameInstall,
					Message:        fmt.Sprintf(messages.DoctorInspectFailedFmt, err),
					Recommendation: messages.DoctorInspectFailedRecommend,
				})
			} else {
				results = append(results, doctor.CheckInstall(status)...)
			}

			devices, err := listInputDevices()
			results = append(results, doctor.CheckControllerDevices(devices, err, status.ServiceActive)...)

			for _, r := range results {
				printResult(out, r)
			}
			if doctor.HasFailure(results) {
				_, _ = fmt.Fprintln(out, color.RedString(messages.DoctorFailureSummary))
				return &SilentExitError{Code: 1}
			}
			_, _ = fmt.Fprintln(out, color.GreenString(messages.DoctorSuccessSummary))
			return nil
		},
	}
	addDestRootFlag(cmd)
	return cmd
}

// printResult renders one doctor result with a colored status label.
func printResult(out io.Writer, r doctor.Result) {
	var status string
	switch r.Status {
	case doctor.StatusOK:
		status = color.GreenString(messages.DoctorStatusOKLabel)
	case doctor.StatusWarn:
		status = color.YellowString(messages.DoctorStatusWarnLabel)
	case doctor.StatusFail:
		status = color.RedString(messages.DoctorStatusFailLabel)
	}

	_, _ = fmt.Fprintf(out, messages.DoctorResultLineFmt, status, r.CheckName, r.Message)
	if r.Recommendation != "" {
		printRecommendation(out, r.Recommendation)
	}
}

// printRecommendation renders a multi-line recommendation with consistent indentation.
func printRecommendation(out io.Writer, recommendation string) {
	for i, line := range strings.Split(recommendation, "\n") {
		switch {
		case i == 0:
			_, _ = fmt.Fprintf(out, "%s%s\n", messages.DoctorRecommendationPrefix, line)
		case line == "":
			_, _ = fmt.Fprintf(out, "%s\n", messages.DoctorRecommendationIndent)
		default:
			_, _ = fmt.Fprintf(out, "%s%s\n", messages.DoctorRecommendationIndent, line)
		}
	}
}
