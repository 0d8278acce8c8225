// Package tx handles the transaction commands.
package tx

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cashorganizer/cmd/root"
	"cashorganizer/internal/cli"
	"cashorganizer/internal/core"
	"cashorganizer/internal/period"
	"cashorganizer/internal/services"
)

// NewCmd returns the "tx" command and its subcommands.
func NewCmd(rt *root.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Record and list transactions",
	}
	cmd.AddCommand(newAddCmd(rt), newListCmd(rt), newDeleteCmd(rt))
	return cmd
}

func newAddCmd(rt *root.Runtime) *cobra.Command {
	var (
		amount   string
		typ      string
		category string
		date     string
		note     string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an income or expense",
		Long:  `Add an income or expense transaction. Amounts accept a dot or comma decimal separator.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := core.ParseAmount(amount)
			if err != nil {
				return fmt.Errorf("amount %q: %w", amount, err)
			}
			tt, err := core.ParseTransactionType(typ)
			if err != nil {
				return fmt.Errorf("type %q: %w", typ, err)
			}
			if strings.TrimSpace(category) == "" {
				return core.ErrEmptyCategory
			}
			return rt.WithApp(cmd, func(ctx context.Context, app *cli.App) error {
				when, err := root.ParseDate(date, app.Options.Location)
				if err != nil {
					return err
				}
				svc := services.NewTransactionService(app.Store, app.Options)
				defer svc.Close()

				svc.Add(amt, tt, category, when, note)
				if err := root.Settle(ctx, svc, func() error { return svc.Current().Err }); err != nil {
					return err
				}
				st := svc.Current()
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s %s\n", tt, core.FormatAmount(amt), category)
				fmt.Fprintf(cmd.OutOrStdout(), "Balance: %s\n", core.FormatAmount(st.Balance))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "Transaction amount")
	cmd.Flags().StringVarP(&typ, "type", "t", string(core.Expense), "Transaction type: income or expense")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category name")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Transaction date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&note, "note", "n", "", "Free text note")
	cmd.MarkFlagRequired("amount")
	cmd.MarkFlagRequired("category")
	return cmd
}

func newListCmd(rt *root.Runtime) *cobra.Command {
	var p string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions of a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dp, err := period.ParseDisplayPeriod(p)
			if err != nil {
				return err
			}
			return rt.WithApp(cmd, func(ctx context.Context, app *cli.App) error {
				svc := services.NewTransactionService(app.Store, app.Options)
				defer svc.Close()

				svc.SetPeriod(dp)
				if err := root.Settle(ctx, svc, func() error { return svc.Current().Err }); err != nil {
					return err
				}
				Print(cmd.OutOrStdout(), svc.Current(), app.Options.Location)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&p, "period", "p", string(period.All), "Period: all, today, week, month or year")
	return cmd
}

func newDeleteCmd(rt *root.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := root.ParseID(args[0])
			if err != nil {
				return err
			}
			return rt.WithApp(cmd, func(ctx context.Context, app *cli.App) error {
				svc := services.NewTransactionService(app.Store, app.Options)
				defer svc.Close()

				svc.Delete(id)
				if err := root.Settle(ctx, svc, func() error { return svc.Current().Err }); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted transaction %d\n", id)
				return nil
			})
		},
	}
}

// Print writes the filtered transactions followed by their balance.
func Print(w io.Writer, st services.TransactionState, loc *time.Location) {
	tw := root.NewTable(w)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tCATEGORY\tAMOUNT\tNOTE")
	for _, t := range st.Filtered {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			t.Date.In(loc).Format(root.DateLayout),
			t.Type,
			t.Category,
			core.FormatAmount(t.Amount),
			t.Note)
	}
	tw.Flush()
	fmt.Fprintf(w, "%d transactions, period %s, balance %s\n",
		len(st.Filtered), st.Period, core.FormatAmount(st.FilteredBalance))
}
