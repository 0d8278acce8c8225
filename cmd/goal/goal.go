// Package goal handles the savings goal commands.
package goal

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
	"cashorganizer/internal/services"
)

// NewCmd returns the "goal" command and its subcommands.
func NewCmd(rt *root.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "goal",
		Aliases: []string{"goals"},
		Short:   "Track savings goals",
	}
	cmd.AddCommand(newAddCmd(rt), newListCmd(rt), newContributeCmd(rt), newDeleteCmd(rt))
	return cmd
}

func newAddCmd(rt *root.Runtime) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "add <name> <target>",
		Short: "Add a savings goal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return core.ErrEmptyName
			}
			target, err := core.ParseAmount(args[1])
			if err != nil {
				return fmt.Errorf("target %q: %w", args[1], err)
			}
			return rt.WithApp(cmd, func(ctx context.Context, app *cli.App) error {
				svc := services.NewGoalService(app.Store, app.Options)
				defer svc.Close()

				var due *time.Time
				if date != "" {
					d, err := root.ParseDate(date, app.Options.Location)
					if err != nil {
						return err
					}
					due = &d
				}
				svc.Add(name, target, due)
				if err := root.Settle(ctx, svc, func() error { return svc.Current().Err }); err != nil {
					return err
				}
				Print(cmd.OutOrStdout(), svc.Current(), app.Options.Location)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "Target date, YYYY-MM-DD")
	return cmd
}

func newListCmd(rt *root.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List goals with their progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.WithApp(cmd, func(ctx context.Context, app *cli.App) error {
				svc := services.NewGoalService(app.Store, app.Options)
				defer svc.Close()
				Print(cmd.OutOrStdout(), svc.Current(), app.Options.Location)
				return nil
			})
		},
	}
}

func newContributeCmd(rt *root.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "contribute <id> <amount>",
		Short: "Add to or, with a negative amount, withdraw from a goal",
		Long: `Add to a goal's savings. A negative amount withdraws; savings never drop
below zero. Put -- before the arguments when withdrawing:

  cashorganizer goal contribute -- 3 -50`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := root.ParseID(args[0])
			if err != nil {
				return err
			}
			amount, err := core.ParseSignedAmount(args[1])
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[1], err)
			}
			return rt.WithApp(cmd, func(ctx context.Context, app *cli.App) error {
				svc := services.NewGoalService(app.Store, app.Options)
				defer svc.Close()

				if _, err := app.Store.Goals.Get(ctx, id); err != nil {
					return fmt.Errorf("goal %d: %w", id, err)
				}
				svc.Contribute(id, amount)
				if err := root.Settle(ctx, svc, func() error { return svc.Current().Err }); err != nil {
					return err
				}
				Print(cmd.OutOrStdout(), svc.Current(), app.Options.Location)
				return nil
			})
		},
	}
}

func newDeleteCmd(rt *root.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := root.ParseID(args[0])
			if err != nil {
				return err
			}
			return rt.WithApp(cmd, func(ctx context.Context, app *cli.App) error {
				svc := services.NewGoalService(app.Store, app.Options)
				defer svc.Close()

				svc.Delete(id)
				if err := root.Settle(ctx, svc, func() error { return svc.Current().Err }); err != nil {
					return err
				}
				Print(cmd.OutOrStdout(), svc.Current(), app.Options.Location)
				return nil
			})
		},
	}
}

// Print writes one line per goal.
func Print(w io.Writer, st services.GoalState, loc *time.Location) {
	tw := root.NewTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tSAVED\tTARGET\tPROGRESS\tDUE")
	for _, v := range st.Goals {
		due := "-"
		if v.Goal.TargetDate != nil {
			due = v.Goal.TargetDate.In(loc).Format(root.DateLayout)
		}
		progress := fmt.Sprintf("%d%%", v.Progress)
		if v.Reached {
			progress += " reached"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			v.Goal.ID,
			v.Goal.Name,
			core.FormatAmount(v.Goal.CurrentAmount),
			core.FormatAmount(v.Goal.TargetAmount),
			progress,
			due)
	}
	tw.Flush()
}
