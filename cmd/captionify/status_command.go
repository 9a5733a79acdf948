package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"captionify/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report environment readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			out := cmd.OutOrStdout()

			depRows := make([][]string, 0)
			for _, status := range preflight.CheckSystemDeps(cfg) {
				depRows = append(depRows, []string{
					status.Name,
					status.Command,
					availabilityLabel(status.Available),
					status.Detail,
				})
			}
			fmt.Fprintln(out, "Dependencies")
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Command", "Available", "Detail"},
				depRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))

			checkRows := make([][]string, 0)
			allPassed := true
			for _, result := range preflight.Checks(cfg) {
				if !result.Passed {
					allPassed = false
				}
				checkRows = append(checkRows, []string{
					result.Name,
					passLabel(result.Passed),
					result.Detail,
				})
			}
			fmt.Fprintln(out, "Checks")
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "Status", "Detail"},
				checkRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			if !allPassed {
				return fmt.Errorf("one or more preflight checks failed")
			}
			return nil
		},
	}
}

func availabilityLabel(available bool) string {
	if available {
		return "yes"
	}
	return "no"
}

func passLabel(passed bool) string {
	if passed {
		return "ok"
	}
	return "failed"
}
