package main

import (
	"fmt"

	"tourism-dashboard-api/pkg/services"

	"github.com/spf13/cobra"
)

func chartCmd() *cobra.Command {
	var (
		table   tableFlags
		kind    string
		year    int
		regions []string
		months  []int
		entity  string
		n       int
		horizon int
		output  string
	)

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render a dashboard chart (map, top, monthly, forecast) as PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			chartKind, err := services.ParseChartKind(kind)
			if err != nil {
				return fmt.Errorf("chart: %w", err)
			}
			result, err := table.load(cmd)
			if err != nil {
				return fmt.Errorf("chart: %w", err)
			}

			path := output
			if path == "" {
				path = services.ExportFileName(string(chartKind), year, "png")
			}
			w, closeFn, err := openOutput(cmd, path)
			if err != nil {
				return fmt.Errorf("chart: %w", err)
			}

			err = services.NewChartService().Render(w, chartKind, result.Records, services.ChartQuery{
				Year:    year,
				Regions: regions,
				Months:  months,
				Entity:  entity,
				N:       n,
				Horizon: horizon,
			})
			if closeErr := closeFn(); err == nil {
				err = closeErr
			}
			if err != nil {
				return fmt.Errorf("chart: %w", err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "✅ %s chart written to %s\n", chartKind, path)
			return nil
		},
	}

	table.register(cmd)
	cmd.Flags().StringVar(&kind, "kind", "top", "chart kind: map, top, monthly or forecast")
	cmd.Flags().IntVar(&year, "year", 0, "year to plot (defaults to the latest)")
	cmd.Flags().StringSliceVar(&regions, "regions", nil, "region groups to include")
	cmd.Flags().IntSliceVar(&months, "months", nil, "months to include (1-12)")
	cmd.Flags().StringVar(&entity, "entity", "", "state for the monthly chart")
	cmd.Flags().IntVar(&n, "n", 10, "number of states in the top chart")
	cmd.Flags().IntVar(&horizon, "horizon", 3, "years to forecast")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (defaults to india_tourism_<kind>_<year>.png)")
	return cmd
}
