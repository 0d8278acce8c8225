// Package category handles the category commands.
package category

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"cashorganizer/cmd/root"
	"cashorganizer/internal/cli"
	"cashorganizer/internal/core"
	"cashorganizer/internal/services"
)

// NewCmd returns the "category" command and its subcommands.
func NewCmd(rt *root.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories"},
		Short:   "Manage income and expense categories",
	}
	cmd.AddCommand(newAddCmd(rt), newListCmd(rt), newResetCmd(rt))
	return cmd
}

func newAddCmd(rt *root.Runtime) *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return core.ErrEmptyName
			}
			tt, err := core.ParseTransactionType(typ)
			if err != nil {
				return fmt.Errorf("type %q: %w", typ, err)
			}
			return rt.WithApp(cmd, func(ctx context.Context, app *cli.App) error {
				svc := services.NewCategoryService(app.Store, app.Options)
				defer svc.Close()

				svc.Add(name, tt)
				if err := root.Settle(ctx, svc, func() error { return svc.Current().Err }); err != nil {
					return err
				}
				Print(cmd.OutOrStdout(), svc.Current())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", string(core.Expense), "Category type: income or expense")
	return cmd
}

func newListCmd(rt *root.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.WithApp(cmd, func(ctx context.Context, app *cli.App) error {
				svc := services.NewCategoryService(app.Store, app.Options)
				defer svc.Close()
				Print(cmd.OutOrStdout(), svc.Current())
				return nil
			})
		},
	}
}

func newResetCmd(rt *root.Runtime) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every record and restore the default categories",
		Long: `Delete every transaction, category, limit and goal, then restore the
default categories and, when SEED_EXAMPLES is set, the example transactions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reset deletes all data, pass --yes to confirm")
			}
			return rt.WithApp(cmd, func(ctx context.Context, app *cli.App) error {
				svc := services.NewCategoryService(app.Store, app.Options)
				defer svc.Close()

				svc.ResetDefaults()
				if err := root.Settle(ctx, svc, func() error { return svc.Current().Err }); err != nil {
					return err
				}
				Print(cmd.OutOrStdout(), svc.Current())
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deleting all data")
	return cmd
}

// Print writes income categories first, then expense categories.
func Print(w io.Writer, st services.CategoryState) {
	tw := root.NewTable(w)
	fmt.Fprintln(tw, "ID\tTYPE\tNAME")
	for _, group := range [][]core.Category{st.Income, st.Expense} {
		for _, c := range group {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Type, c.Name)
		}
	}
	tw.Flush()
}
