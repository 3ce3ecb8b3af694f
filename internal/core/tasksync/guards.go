// Package tasksync contains the pure business logic that keeps a Freelo task
// in step with its GitHub issue.
// Guards are pure functions that evaluate preconditions without side effects.
package tasksync

import (
	"fmt"

	"github.com/example/freelosync/internal/models"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	// Err is the sentinel the rejection maps to, if any.
	Err error
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	if r.Err != nil {
		return fmt.Errorf("%w (%s)", r.Err, r.Reason)
	}
	return fmt.Errorf("%s", r.Reason)
}

// EventContext provides context for event guards.
type EventContext struct {
	Kind       models.EventKind
	Action     models.Action
	Parent     models.ParentSelector
	HasIssue   bool
	HasComment bool
}

// NormalizeAction maps label changes onto the edited transition.
func NormalizeAction(a models.Action) models.Action {
	switch a {
	case models.ActionLabeled, models.ActionUnlabeled:
		return models.ActionEdited
	}
	return a
}

// CanHandleEvent evaluates whether an event can be processed at all.
// Rules:
// - A task list or parent task must be configured
// - The event must be an issues or issue_comment event carrying its entity
// - The action must be one the pipeline knows
func CanHandleEvent(ctx EventContext) GuardResult {
	if r := CanTarget(ctx.Parent); !r.Allowed {
		return r
	}

	switch ctx.Kind {
	case models.EventIssues:
		if !ctx.HasIssue {
			return GuardResult{Reason: "issues event without an issue payload", Err: models.ErrUnsupportedTrigger}
		}
		return canHandleIssueAction(ctx.Action)
	case models.EventIssueComment:
		if !ctx.HasIssue || !ctx.HasComment {
			return GuardResult{Reason: "issue_comment event without a comment payload", Err: models.ErrUnsupportedTrigger}
		}
		return canHandleCommentAction(ctx.Action)
	default:
		return GuardResult{
			Reason: fmt.Sprintf("event %q is not handled", ctx.Kind),
			Err:    models.ErrUnsupportedTrigger,
		}
	}
}

// CanTarget evaluates whether tasks have somewhere to go.
// Rules:
// - Project id must be set
// - Exactly one of task list id and parent task id must be set
func CanTarget(parent models.ParentSelector) GuardResult {
	if parent.ProjectID <= 0 {
		return GuardResult{Reason: "project-id is not set", Err: models.ErrMissingCredentials}
	}
	switch parent.Kind {
	case models.ParentTasklist, models.ParentTask:
		if parent.ID <= 0 {
			return GuardResult{Reason: fmt.Sprintf("%s id is not set", parent.Kind), Err: models.ErrMissingTarget}
		}
		return GuardResult{Allowed: true}
	default:
		return GuardResult{Reason: "no task list or parent task configured", Err: models.ErrMissingTarget}
	}
}

func canHandleIssueAction(a models.Action) GuardResult {
	switch NormalizeAction(a) {
	case models.ActionOpened, models.ActionEdited, models.ActionClosed,
		models.ActionReopened, models.ActionAssigned, models.ActionUnassigned:
		return GuardResult{Allowed: true}
	}
	return GuardResult{
		Reason: fmt.Sprintf("issue action %q", a),
		Err:    models.ErrUnsupportedAction,
	}
}

func canHandleCommentAction(a models.Action) GuardResult {
	switch a {
	case models.ActionCreated, models.ActionEdited, models.ActionDeleted:
		return GuardResult{Allowed: true}
	}
	return GuardResult{
		Reason: fmt.Sprintf("comment action %q", a),
		Err:    models.ErrUnsupportedAction,
	}
}
