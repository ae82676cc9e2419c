package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipwatch/internal/daemonctl"
	"clipwatch/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check the external tools clipwatch runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := preflight.CheckSystemDeps(cfg)
			summary := daemonctl.BuildDependencySummary(statuses)

			rows := make([][]string, 0, len(statuses))
			for _, dep := range statuses {
				state := "missing"
				detail := dep.Detail
				if dep.Available {
					state = "ready"
					detail = dep.Resolved
				}
				rows = append(rows, []string{dep.Name, yesNo(!dep.Optional), state, detail})
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderTable([]string{"Tool", "Required", "State", "Detail"}, rows, nil))
			fmt.Fprintln(out)
			fmt.Fprintln(out, summary.Detail)
			if summary.MissingRequired > 0 {
				return fmt.Errorf("%d required dependencies missing", summary.MissingRequired)
			}
			return nil
		},
	}
}
