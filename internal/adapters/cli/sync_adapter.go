// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting but delegate
// business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/freelosync/internal/models"
	"github.com/example/freelosync/internal/ports/primary"
)

// SyncAdapter is a thin adapter that translates CLI operations to SyncService calls.
// It depends only on the SyncService interface, enabling easy testing with mocks.
type SyncAdapter struct {
	service primary.SyncService
	out     io.Writer
}

// NewSyncAdapter creates a new SyncAdapter with the given service.
func NewSyncAdapter(service primary.SyncService, out io.Writer) *SyncAdapter {
	return &SyncAdapter{
		service: service,
		out:     out,
	}
}

// HandleEvent processes one event and prints what happened to the task.
func (a *SyncAdapter) HandleEvent(ctx context.Context, event models.Event) (*primary.EventResult, error) {
	result, err := a.service.HandleEvent(ctx, event)
	if err != nil {
		return nil, err
	}

	prefix := dryRunPrefix(result.DryRun)
	subject := fmt.Sprintf("%s.%s on #%d", result.Kind, result.Action, result.IssueNumber)
	switch {
	case result.Outcome == "skipped":
		fmt.Fprintf(a.out, "%s %s%s: nothing to do\n", color.New(color.FgYellow).Sprint("-"), prefix, subject)
	case result.TaskID != 0:
		fmt.Fprintf(a.out, "%s %s%s: task %d %s\n", color.New(color.FgGreen).Sprint("✓"), prefix, subject, result.TaskID, result.Outcome)
	default:
		fmt.Fprintf(a.out, "%s %s%s: %s\n", color.New(color.FgGreen).Sprint("✓"), prefix, subject, result.Outcome)
	}
	return result, nil
}

// Reconcile runs a reconciliation pass and prints the per-issue results and
// the failures. The report is returned so the caller can set the exit code.
func (a *SyncAdapter) Reconcile(ctx context.Context, req primary.ReconcileRequest) (*primary.ReconcileReport, error) {
	report, err := a.service.Reconcile(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("reconciliation failed: %w", err)
	}

	if report.Issues == 0 {
		fmt.Fprintln(a.out, "No open issues found")
		return report, nil
	}

	if len(report.Results) > 0 {
		fmt.Fprintf(a.out, "\n%-8s %-10s %-10s %s\n", "ISSUE", "TASK", "OUTCOME", "MIRRORED")
		fmt.Fprintln(a.out, "────────────────────────────────────────────")
		for _, r := range report.Results {
			task := "-"
			if r.TaskID != 0 {
				task = fmt.Sprintf("%d", r.TaskID)
			}
			fmt.Fprintf(a.out, "#%-7d %-10s %-10s %d\n", r.IssueNumber, task, outcomeLabel(r.Outcome), r.Mirrored)
		}
		fmt.Fprintln(a.out)
	}

	for _, f := range report.Failures {
		fmt.Fprintf(a.out, "%s #%d: %v\n", color.New(color.FgRed).Sprint("✗"), f.IssueNumber, f.Err)
	}

	fmt.Fprintf(a.out, "%s %s%d issues: %d created, %d updated, %d skipped, %d comments mirrored",
		summaryIcon(report), dryRunPrefix(report.DryRun), report.Issues,
		report.Created, report.Updated, report.Skipped, report.Mirrored)
	if report.HasFailures() {
		fmt.Fprintf(a.out, ", %s", color.New(color.FgRed).Sprintf("%d failed", len(report.Failures)))
	}
	fmt.Fprintln(a.out)

	return report, nil
}

// CheckAuth verifies the credentials and prints who they belong to.
func (a *SyncAdapter) CheckAuth(ctx context.Context) error {
	status, err := a.service.CheckAuth(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s Freelo: %s <%s> (user %d)\n",
		color.New(color.FgGreen).Sprint("✓"), status.FreeloName, status.FreeloEmail, status.FreeloUserID)
	if status.GitHubLogin != "" {
		fmt.Fprintf(a.out, "%s GitHub: %s\n", color.New(color.FgGreen).Sprint("✓"), status.GitHubLogin)
	} else {
		fmt.Fprintf(a.out, "%s GitHub: token accepted (installation token, no user)\n", color.New(color.FgGreen).Sprint("✓"))
	}
	return nil
}

// WriteIdentities prints an identity mapping as a table. It needs no
// service, so the mapping can be checked without credentials.
func WriteIdentities(out io.Writer, identities []primary.Identity) {
	if len(identities) == 0 {
		fmt.Fprintln(out, "No identity mappings loaded")
		return
	}

	fmt.Fprintf(out, "\n%-30s %s\n", "GITHUB LOGIN", "FREELO USER")
	fmt.Fprintln(out, "────────────────────────────────────────────")
	for _, id := range identities {
		fmt.Fprintf(out, "%-30s %d\n", id.Login, id.UserID)
	}
	fmt.Fprintln(out)
}

func dryRunPrefix(dryRun bool) string {
	if dryRun {
		return color.New(color.FgCyan).Sprint("[dry-run] ")
	}
	return ""
}

func summaryIcon(report *primary.ReconcileReport) string {
	if report.HasFailures() {
		return color.New(color.FgRed).Sprint("✗")
	}
	return color.New(color.FgGreen).Sprint("✓")
}

func outcomeLabel(outcome string) string {
	switch outcome {
	case "created":
		return color.New(color.FgGreen).Sprintf("%-10s", outcome)
	case "updated":
		return color.New(color.FgBlue).Sprintf("%-10s", outcome)
	default:
		return fmt.Sprintf("%-10s", outcome)
	}
}
