package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kimhsiao/salonbook/backend/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var format, period, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export reservations to CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			p, err := export.ParsePeriod(period)
			if err != nil {
				return err
			}
			result, err := a.exporter.Export(&export.ExportConfig{
				OutputDir:  a.cfg.ExportDir,
				OutputPath: output,
				Format:     f,
				Period:     p,
			})
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d reservations to %s (%s)\n",
				result.RowCount, result.FilePath, humanize.Bytes(uint64(result.SizeBytes)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "xlsx", "Output format: csv, xlsx")
	cmd.Flags().StringVarP(&period, "period", "p", "all", "Period: this_month, last_3_months, all")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: <exportDir>/reservations_<timestamp>.<format>)")
	return cmd
}
