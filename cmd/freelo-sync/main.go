package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/freelosync/internal/cli"
	"github.com/example/freelosync/internal/config"
	"github.com/example/freelosync/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "freelo-sync",
		Short:   "Mirror GitHub issues into Freelo tasks",
		Version: version.String(),
		Long: `freelo-sync keeps one Freelo task per GitHub issue: title, description,
labels, state, assignee and comments. The link lives in a tracking comment
on the issue, so nothing is stored between runs.

Options come from flags, from action inputs (INPUT_*) or from a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(rootCmd.PersistentFlags())

	// Add subcommands
	rootCmd.AddCommand(cli.RunCmd())
	rootCmd.AddCommand(cli.EventCmd())
	rootCmd.AddCommand(cli.ReconcileCmd())
	rootCmd.AddCommand(cli.CheckAuthCmd())
	rootCmd.AddCommand(cli.UsersCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		cli.ReportError(os.Stderr, err)
		os.Exit(1)
	}
}
