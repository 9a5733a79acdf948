package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"captionify/internal/assets"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recorded uploads and renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			ledger, err := assets.Open(cfg)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer ledger.Close()

			uploads, err := ledger.Uploads(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list uploads: %w", err)
			}
			renders, err := ledger.Renders(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list renders: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Uploads")
			if len(uploads) == 0 {
				fmt.Fprintln(out, "  (none)")
			} else {
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Filename", "Size", "Duration", "Created"},
					uploadRows(uploads),
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft},
				))
			}

			fmt.Fprintln(out, "Renders")
			if len(renders) == 0 {
				fmt.Fprintln(out, "  (none)")
			} else {
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Filename", "Style", "Captions", "Created"},
					renderRows(renders),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rows per table")
	return cmd
}

func uploadRows(uploads []*assets.Upload) [][]string {
	rows := make([][]string, 0, len(uploads))
	for _, upload := range uploads {
		rows = append(rows, []string{
			strconv.FormatInt(upload.ID, 10),
			upload.Filename,
			formatSize(upload.SizeBytes),
			fmt.Sprintf("%.1fs", upload.DurationSeconds),
			formatTimestamp(upload.CreatedAt),
		})
	}
	return rows
}

func renderRows(renders []*assets.Render) [][]string {
	rows := make([][]string, 0, len(renders))
	for _, render := range renders {
		rows = append(rows, []string{
			strconv.FormatInt(render.ID, 10),
			render.Filename,
			render.Style,
			strconv.Itoa(render.CaptionCount),
			formatTimestamp(render.CreatedAt),
		})
	}
	return rows
}

func formatSize(bytes int64) string {
	const mib = 1 << 20
	if bytes >= mib {
		return fmt.Sprintf("%.1f MiB", float64(bytes)/mib)
	}
	return fmt.Sprintf("%d B", bytes)
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}
