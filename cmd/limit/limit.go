// Package limit handles the spending limit commands.
package limit

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cashorganizer/cmd/root"
	"cashorganizer/internal/budget"
	"cashorganizer/internal/cli"
	"cashorganizer/internal/core"
	"cashorganizer/internal/services"
	"cashorganizer/internal/storage"
)

// NewCmd returns the "limit" command and its subcommands.
func NewCmd(rt *root.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "limit",
		Aliases: []string{"limits"},
		Short:   "Set and review spending limits of expense categories",
	}
	cmd.AddCommand(newSetCmd(rt), newListCmd(rt), newDeleteCmd(rt))
	return cmd
}

func newSetCmd(rt *root.Runtime) *cobra.Command {
	var (
		month   string
		cadence string
	)
	cmd := &cobra.Command{
		Use:   "set <category> <amount>",
		Short: "Set the limit of an expense category",
		Long: `Set the limit of an expense category, given by name or id. An amount of 0
removes the limit. The cadence decides from when spending counts: the start
of today, of this week (Monday) or of this month.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := root.ParseLimitAmount(args[1])
			if err != nil {
				return err
			}
			p, err := core.ParseLimitPeriod(cadence)
			if err != nil {
				return fmt.Errorf("cadence %q: %w", cadence, err)
			}
			if month != "" {
				if err := core.ValidateMonth(month); err != nil {
					return fmt.Errorf("month %q: %w", month, err)
				}
			}
			return rt.WithApp(cmd, func(ctx context.Context, app *cli.App) error {
				cat, err := root.FindCategory(app.Store.Categories.Current(), args[0])
				if err != nil {
					return err
				}
				if err := budget.ValidateLimitTarget(cat); err != nil {
					return fmt.Errorf("%s: %w", cat.Name, err)
				}

				svc := services.NewLimitService(app.Store, app.Options)
				defer svc.Close()

				svc.SetLimit(cat.ID, month, amount, p)
				if err := root.Settle(ctx, svc, func() error { return svc.Current().Err }); err != nil {
					return err
				}
				Print(cmd.OutOrStdout(), svc.Current())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "Month the limit applies to, YYYY-MM (default current month)")
	cmd.Flags().StringVarP(&cadence, "cadence", "c", string(core.Monthly), "Reset cadence: daily, weekly or monthly")
	return cmd
}

func newListCmd(rt *root.Runtime) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show spending against limits for the current month",
		Long: `Show spending against limits for the current month. With --month, list the
limits stored for that month instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if month != "" {
				if err := core.ValidateMonth(month); err != nil {
					return fmt.Errorf("month %q: %w", month, err)
				}
			}
			return rt.WithApp(cmd, func(ctx context.Context, app *cli.App) error {
				if month != "" {
					found, err := app.Store.Limits.Find(ctx, storage.LimitsForMonth(month))
					if err != nil {
						return err
					}
					PrintStored(cmd.OutOrStdout(), month, found, app.Store.Categories.Current())
					return nil
				}
				svc := services.NewLimitService(app.Store, app.Options)
				defer svc.Close()
				Print(cmd.OutOrStdout(), svc.Current())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "List the limits stored for this month, YYYY-MM")
	return cmd
}

func newDeleteCmd(rt *root.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a limit by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := root.ParseID(args[0])
			if err != nil {
				return err
			}
			return rt.WithApp(cmd, func(ctx context.Context, app *cli.App) error {
				svc := services.NewLimitService(app.Store, app.Options)
				defer svc.Close()

				svc.DeleteLimit(id)
				if err := root.Settle(ctx, svc, func() error { return svc.Current().Err }); err != nil {
					return err
				}
				Print(cmd.OutOrStdout(), svc.Current())
				return nil
			})
		},
	}
}

// Print writes one line per expense category.
func Print(w io.Writer, st services.LimitState) {
	fmt.Fprintf(w, "Limits for %s\n", st.Month)
	tw := root.NewTable(w)
	fmt.Fprintln(tw, "LIMIT ID\tCATEGORY\tCADENCE\tSPENT\tLIMIT\tUSED\tSTATUS")
	for _, r := range st.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			limitID(r),
			r.Category.Name,
			cadenceOf(r),
			core.FormatAmount(r.Spent),
			limitAmount(r),
			used(r),
			status(r))
	}
	tw.Flush()
}

func limitID(r budget.Row) string {
	if !r.HasLimit() {
		return "-"
	}
	return fmt.Sprint(r.Limit.ID)
}

func cadenceOf(r budget.Row) string {
	if !r.HasLimit() {
		return "-"
	}
	return string(r.Limit.Period)
}

func limitAmount(r budget.Row) string {
	if !r.HasLimit() {
		return "-"
	}
	return core.FormatAmount(r.LimitAmount)
}

func used(r budget.Row) string {
	if !r.HasLimit() {
		return "-"
	}
	return fmt.Sprintf("%d%%", r.Percent)
}

func status(r budget.Row) string {
	switch {
	case !r.HasLimit():
		return ""
	case r.OverLimit:
		return "over by " + core.FormatAmount(r.Overage())
	default:
		return core.FormatAmount(r.Remaining()) + " left"
	}
}

// PrintStored writes limits as stored, without spending.
func PrintStored(w io.Writer, month string, limits []core.Limit, cats []core.Category) {
	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	fmt.Fprintf(w, "Limits stored for %s\n", month)
	tw := root.NewTable(w)
	fmt.Fprintln(tw, "LIMIT ID\tCATEGORY\tCADENCE\tLIMIT")
	for _, l := range limits {
		name, ok := names[l.CategoryID]
		if !ok {
			name = fmt.Sprintf("#%d", l.CategoryID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", l.ID, name, l.Period, core.FormatAmount(l.LimitAmount))
	}
	tw.Flush()
}
