package primary

import (
	"context"

	"github.com/example/freelosync/internal/models"
)

// SyncService defines the primary port for issue → task synchronization.
type SyncService interface {
	// HandleEvent processes one issues or issue_comment event.
	HandleEvent(ctx context.Context, event models.Event) (*EventResult, error)

	// Reconcile re-syncs every open issue.
	Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileReport, error)

	// CheckAuth verifies both sets of credentials without mutating anything.
	CheckAuth(ctx context.Context) (*AuthStatus, error)
}

// EventResult describes what one event did.
type EventResult struct {
	Kind        models.EventKind
	Action      models.Action
	IssueNumber int
	TaskID      int64 // 0 when the issue has no task
	Outcome     string
	Mutations   int // remote mutations executed (or planned in dry-run)
	DryRun      bool
}

// ReconcileRequest contains parameters for a reconciliation pass.
type ReconcileRequest struct {
	CreateUnknown bool // create tasks for open issues without one
	SyncComments  bool // mirror comments that are not mirrored yet
}

// IssueResult is the outcome of reconciling one issue.
type IssueResult struct {
	IssueNumber int
	TaskID      int64
	Outcome     string
	Mirrored    int
}

// ReconcileReport summarizes a reconciliation pass.
type ReconcileReport struct {
	Issues   int
	Created  int
	Updated  int
	Skipped  int
	Mirrored int
	DryRun   bool
	Results  []IssueResult // ordered by issue number
	Failures []models.IssueFailure
}

// HasFailures reports whether any issue failed.
func (r *ReconcileReport) HasFailures() bool {
	return len(r.Failures) > 0
}

// AuthStatus reports the identities behind the configured credentials.
type AuthStatus struct {
	GitHubLogin  string
	FreeloUserID int64
	FreeloName   string
	FreeloEmail  string
}

// Identity is one login → Freelo user id mapping at the port boundary.
type Identity struct {
	Login  string
	UserID int64
}
