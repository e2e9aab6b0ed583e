package main

import (
	"fmt"
	"text/tabwriter"

	"tourism-dashboard-api/pkg/services"

	"github.com/spf13/cobra"
)

func forecastCmd() *cobra.Command {
	var (
		table   tableFlags
		horizon int
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Fit a linear trend to yearly totals and print the forecast",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := table.load(cmd)
			if err != nil {
				return fmt.Errorf("forecast: %w", err)
			}
			forecast, err := services.LinearForecast(services.YearlyTotals(result.Records), horizon)
			if err != nil {
				return fmt.Errorf("forecast: %w", err)
			}

			out := cmd.OutOrStdout()
			trend := forecast.Trend
			fmt.Fprintf(out, "Trend: visits = %.2f * year + %.2f (R² %.4f)\n\n", trend.Slope, trend.Intercept, trend.RSquared)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "YEAR\tVISITS\tTYPE\tCHANGE")
			for _, a := range forecast.Actual {
				fmt.Fprintf(tw, "%d\t%d\tactual\t\n", a.Year, a.Visits)
			}
			for _, f := range forecast.Forecast {
				change := "-"
				if f.ChangePct != nil {
					change = fmt.Sprintf("%+.2f%%", *f.ChangePct)
				}
				fmt.Fprintf(tw, "%d\t%.0f\tforecast\t%s\n", f.Year, f.PredictedVisits, change)
			}
			return tw.Flush()
		},
	}

	table.register(cmd)
	cmd.Flags().IntVar(&horizon, "horizon", 3, "years to forecast")
	return cmd
}
