package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/freelosync/internal/adapters/cli"
	"github.com/example/freelosync/internal/adapters/github"
	"github.com/example/freelosync/internal/config"
	"github.com/example/freelosync/internal/ports/primary"
	"github.com/example/freelosync/internal/wire"
)

// RunCmd returns the run command, the entry point inside a workflow. The
// trigger decides between handling one event and a reconciliation pass.
func RunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Sync whatever the current workflow trigger asks for",
		Long: `Reads GITHUB_EVENT_NAME and the payload at GITHUB_EVENT_PATH.

issues and issue_comment events update the linked Freelo task.
workflow_dispatch and schedule re-sync every open issue.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := prepare(cmd, validateAll)
			if err != nil {
				return err
			}
			mode, err := ModeForTrigger(cfg.EventName)
			if err != nil {
				return err
			}

			ctx := wire.RunContext(cmd.Context())
			if mode == ModeReconcile {
				return runReconcile(ctx, cfg, cmd)
			}
			return runEvent(ctx, cfg.EventName, cfg.EventPath, cmd)
		},
	}
}

// EventCmd returns the event command, which replays one saved payload.
func EventCmd() *cobra.Command {
	var name, payload string

	cmd := &cobra.Command{
		Use:   "event",
		Short: "Handle one issues or issue_comment payload",
		Example: `  freelo-sync event --name issues --payload opened.json
  freelo-sync event --name issue_comment --payload comment.json --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := prepare(cmd, validateAll); err != nil {
				return err
			}
			return runEvent(wire.RunContext(cmd.Context()), name, payload, cmd)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "event name (issues or issue_comment)")
	cmd.Flags().StringVar(&payload, "payload", "", "path to the JSON payload")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("payload")
	return cmd
}

// ReconcileCmd returns the reconcile command.
func ReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Re-sync every open issue",
		Long: `Updates the task of every open issue that has one.

With --create-tasks-for-unknown, issues without a task get one.
With --sync-comments, comments that were never mirrored are mirrored.
Exits non-zero when any issue failed; the others are still synced.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := prepare(cmd, validateAll)
			if err != nil {
				return err
			}
			return runReconcile(wire.RunContext(cmd.Context()), cfg, cmd)
		},
	}
}

// CheckAuthCmd returns the check-auth command.
func CheckAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-auth",
		Short: "Verify the Freelo and GitHub credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := prepare(cmd, validateCredentials); err != nil {
				return err
			}
			adapter, err := wire.SyncAdapterWithOutput(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return adapter.CheckAuth(wire.RunContext(cmd.Context()))
		},
	}
}

// UsersCmd returns the users command.
func UsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "Print the GitHub login to Freelo user mapping",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := prepare(cmd, validateNone); err != nil {
				return err
			}
			cliadapter.WriteIdentities(cmd.OutOrStdout(), wire.Identities())
			return nil
		},
	}
}

func runEvent(ctx context.Context, name, path string, cmd *cobra.Command) error {
	event, err := github.ReadEvent(name, path)
	if err != nil {
		return err
	}
	adapter, err := wire.SyncAdapterWithOutput(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	_, err = adapter.HandleEvent(ctx, event)
	return err
}

func runReconcile(ctx context.Context, cfg *config.Config, cmd *cobra.Command) error {
	adapter, err := wire.SyncAdapterWithOutput(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	report, err := adapter.Reconcile(ctx, primary.ReconcileRequest{
		CreateUnknown: cfg.CreateUnknown,
		SyncComments:  cfg.SyncComments,
	})
	if err != nil {
		return err
	}
	if report.HasFailures() {
		return fmt.Errorf("%w: %d of %d issues", ErrSyncFailed, len(report.Failures), report.Issues)
	}
	return nil
}
