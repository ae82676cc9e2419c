package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipwatch/internal/api"
	"clipwatch/internal/daemonctl"
	"clipwatch/internal/vision"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, recorder, dependency and session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), ctx.configValue(), vision.ListMarkerFiles)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, snap)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Recorder", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range daemonLines(snap, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("System", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, check := range snap.Checks {
				fmt.Fprintln(stdout, renderStatusLine(check.Name, statusKindFromCheck(check.Passed), check.Detail, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range dependencyLines(snap.Dependencies, snap.DependencySummary, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Sessions", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if snap.Sessions.Total == 0 {
				fmt.Fprintln(stdout, "No sessions recorded yet")
				return nil
			}
			fmt.Fprint(stdout, renderTable([]string{"Outcome", "Count"}, summaryRows(snap.Sessions), []columnAlignment{alignLeft, alignRight}))
			fmt.Fprintln(stdout)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the status snapshot as JSON")
	return cmd
}

func summaryRows(summary api.SessionSummary) [][]string {
	rows := [][]string{
		{"Complete", fmt.Sprintf("%d", summary.Complete)},
		{"No Highlights", fmt.Sprintf("%d", summary.NoHighlights)},
		{"Failed", fmt.Sprintf("%d", summary.Failed)},
	}
	if summary.Active > 0 {
		rows = append(rows, []string{"Active", fmt.Sprintf("%d", summary.Active)})
	}
	rows = append(rows,
		[]string{"Total", fmt.Sprintf("%d", summary.Total)},
		[]string{"Clips", fmt.Sprintf("%d", summary.Clips)},
	)
	return rows
}
