// Package summary prints the overview shown when the app opens.
package summary

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cashorganizer/cmd/root"
	"cashorganizer/internal/cli"
	"cashorganizer/internal/core"
	"cashorganizer/internal/period"
	"cashorganizer/internal/services"
)

// NewCmd returns the "summary" command.
func NewCmd(rt *root.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show balance, this month's limits and goal progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.WithApp(cmd, func(ctx context.Context, app *cli.App) error {
				txs := services.NewTransactionService(app.Store, app.Options)
				defer txs.Close()
				limits := services.NewLimitService(app.Store, app.Options)
				defer limits.Close()
				goals := services.NewGoalService(app.Store, app.Options)
				defer goals.Close()

				txs.SetPeriod(period.Month)
				if err := root.Settle(ctx, txs, func() error { return txs.Current().Err }); err != nil {
					return err
				}
				if err := root.Settle(ctx, limits, func() error { return limits.Current().Err }); err != nil {
					return err
				}
				if err := root.Settle(ctx, goals, func() error { return goals.Current().Err }); err != nil {
					return err
				}
				Print(cmd.OutOrStdout(), txs.Current(), limits.Current(), goals.Current())
				return nil
			})
		},
	}
}

// Print writes the overview. Only limited categories and open goals are
// listed.
func Print(w io.Writer, tx services.TransactionState, lim services.LimitState, gs services.GoalState) {
	fmt.Fprintf(w, "Balance: %s (%d transactions)\n", core.FormatAmount(tx.Balance), len(tx.All))
	fmt.Fprintf(w, "This month: %s over %d transactions\n", core.FormatAmount(tx.FilteredBalance), len(tx.Filtered))

	fmt.Fprintf(w, "\nLimits %s\n", lim.Month)
	tw := root.NewTable(w)
	shown := 0
	for _, r := range lim.Rows {
		if !r.HasLimit() {
			continue
		}
		shown++
		flag := ""
		if r.OverLimit {
			flag = "OVER"
		}
		fmt.Fprintf(tw, "  %s\t%s / %s\t%d%%\t%s\n",
			r.Category.Name, core.FormatAmount(r.Spent), core.FormatAmount(r.LimitAmount), r.Percent, flag)
	}
	tw.Flush()
	if shown == 0 {
		fmt.Fprintln(w, "  no limits set")
	}

	fmt.Fprintln(w, "\nGoals")
	tw = root.NewTable(w)
	open := 0
	for _, v := range gs.Goals {
		if v.Reached {
			continue
		}
		open++
		fmt.Fprintf(tw, "  %s\t%s / %s\t%d%%\n",
			v.Goal.Name, core.FormatAmount(v.Goal.CurrentAmount), core.FormatAmount(v.Goal.TargetAmount), v.Progress)
	}
	tw.Flush()
	if open == 0 {
		fmt.Fprintln(w, "  no open goals")
	}
}
