// Package main provides the entry point for the cashorganizer CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"cashorganizer/cmd/analytics"
	"cashorganizer/cmd/category"
	"cashorganizer/cmd/goal"
	"cashorganizer/cmd/limit"
	"cashorganizer/cmd/root"
	"cashorganizer/cmd/summary"
	"cashorganizer/cmd/tx"
	"cashorganizer/internal/cli"
	"cashorganizer/internal/config"
	"cashorganizer/internal/log"
)

func newRootCmd() *cobra.Command {
	rt := &root.Runtime{}
	cmd := root.NewCmd(rt)
	cmd.AddCommand(
		summary.NewCmd(rt),
		tx.NewCmd(rt),
		category.NewCmd(rt),
		limit.NewCmd(rt),
		goal.NewCmd(rt),
		analytics.NewCmd(rt),
	)
	return cmd
}

func main() {
	cli.LoadEnvFile()
	logger := log.New(log.DefaultConfig())

	// On SIGINT/SIGTERM the command context is cancelled and shutdown waits
	// for the command to unwind and close the store.
	finished := make(chan struct{})
	ctx, done := cli.GracefulShutdown(logger, config.Load().ShutdownTimeout, func() { <-finished })

	err := newRootCmd().ExecuteContext(ctx)
	close(finished)
	if ctx.Err() != nil {
		cli.WaitForShutdown(ctx, done)
	}
	if err != nil {
		os.Exit(1)
	}
}
