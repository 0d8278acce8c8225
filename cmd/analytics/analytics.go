// Package analytics handles the spending report command.
package analytics

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cashorganizer/cmd/root"
	reports "cashorganizer/internal/analytics"
	"cashorganizer/internal/cli"
	"cashorganizer/internal/core"
	"cashorganizer/internal/period"
	"cashorganizer/internal/services"
)

// NewCmd returns the "analytics" command.
func NewCmd(rt *root.Runtime) *cobra.Command {
	var p string
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show income and expense totals over time and by category",
		Long: `Show income and expense totals for the current month (per day), the
current year (per month) or all time (per year), and how expenses split
across categories.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dp, err := period.ParseDisplayPeriod(p)
			if err != nil {
				return err
			}
			if err := reports.ValidatePeriod(dp); err != nil {
				return err
			}
			return rt.WithApp(cmd, func(ctx context.Context, app *cli.App) error {
				svc := services.NewAnalyticsService(app.Store, app.Options)
				defer svc.Close()

				svc.SetPeriod(dp)
				if err := svc.Flush(ctx); err != nil {
					return err
				}
				Print(cmd.OutOrStdout(), svc.Current())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&p, "period", "p", string(period.Month), "Period: month, year or all")
	return cmd
}

// Print writes the totals, the time buckets and the category split.
func Print(w io.Writer, r reports.Report) {
	fmt.Fprintf(w, "Period %s: %d transactions, income %s, expense %s, balance %s\n",
		r.Period, r.Count,
		core.FormatAmount(r.Income), core.FormatAmount(r.Expense), core.FormatAmount(r.Balance))

	if len(r.Buckets) > 0 {
		fmt.Fprintln(w)
		tw := root.NewTable(w)
		fmt.Fprintln(tw, "WHEN\tINCOME\tEXPENSE")
		for _, b := range r.Buckets {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Key, core.FormatAmount(b.Income), core.FormatAmount(b.Expense))
		}
		tw.Flush()
	}

	if len(r.Categories) > 0 {
		fmt.Fprintln(w)
		tw := root.NewTable(w)
		fmt.Fprintln(tw, "CATEGORY\tEXPENSE\tSHARE\tCOLOR")
		for _, s := range r.Categories {
			fmt.Fprintf(tw, "%s\t%s\t%s%%\t%s\n", s.Category, core.FormatAmount(s.Total), s.Share.StringFixed(1), s.Color)
		}
		tw.Flush()
	}
}
