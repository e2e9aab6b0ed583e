package main

import (
	"fmt"

	"tourism-dashboard-api/pkg/services"

	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	var (
		table   tableFlags
		year    int
		regions []string
		months  []int
		horizon int
		output  string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build the Excel report for one year",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := table.load(cmd)
			if err != nil {
				return fmt.Errorf("report: %w", err)
			}
			year, filtered, err := selection(result.Records, year, regions, months)
			if err != nil {
				return fmt.Errorf("report: %w", err)
			}

			path := output
			if path == "" {
				path = services.ExportFileName("report", year, "xlsx")
			}
			w, closeFn, err := openOutput(cmd, path)
			if err != nil {
				return fmt.Errorf("report: %w", err)
			}

			err = services.NewExportService().BuildReport(w, services.ReportInput{
				All:      result.Records,
				Filtered: filtered,
				Year:     year,
				Horizon:  horizon,
			})
			if closeErr := closeFn(); err == nil {
				err = closeErr
			}
			if err != nil {
				return fmt.Errorf("report: %w", err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "✅ Report for %d written to %s\n", year, path)
			return nil
		},
	}

	table.register(cmd)
	cmd.Flags().IntVar(&year, "year", 0, "year to report on (defaults to the latest)")
	cmd.Flags().StringSliceVar(&regions, "regions", nil, "region groups to include")
	cmd.Flags().IntSliceVar(&months, "months", nil, "months to include (1-12)")
	cmd.Flags().IntVar(&horizon, "horizon", 3, "years to forecast")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (defaults to india_tourism_report_<year>.xlsx)")
	return cmd
}
