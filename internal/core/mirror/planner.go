// Package mirror plans how GitHub issue comments are echoed onto the linked
// Freelo task. Mirrored comments are found again by the source comment id
// embedded in their body, so no index is kept anywhere.
package mirror

import (
	"github.com/example/freelosync/internal/core/effects"
	"github.com/example/freelosync/internal/core/marker"
	"github.com/example/freelosync/internal/models"
)

// Outcome summarizes what a mirror plan does.
type Outcome string

// Mirror outcomes
const (
	OutcomeMirrored Outcome = "mirrored"
	OutcomeUpdated  Outcome = "updated"
	OutcomeDeleted  Outcome = "deleted"
	OutcomeSkipped  Outcome = "skipped"
)

// SourceComment is a GitHub comment together with its rendered mirror body.
type SourceComment struct {
	Comment models.Comment
	Content string
	// Tracking is set for the bot's own tracking comment, which is never
	// mirrored.
	Tracking bool
}

// CommentEventInput contains pre-fetched data for an issue_comment event.
type CommentEventInput struct {
	Action models.Action
	Source SourceComment
	TaskID int64
	Linked bool
	// Existing holds the task's current comments; required whenever the
	// issue is linked.
	Existing []models.TaskComment
}

// BackfillInput contains pre-fetched data for mirroring every comment of one
// issue during reconciliation.
type BackfillInput struct {
	IssueNumber int
	TaskID      int64
	Comments    []SourceComment
	Existing    []models.TaskComment
}

// Plan represents the planned effects for mirroring.
type Plan struct {
	IssueNumber int
	Outcome     Outcome
	Effects     []effects.Effect
}

// Mirrored returns how many comments the plan creates.
func (p Plan) Mirrored() int {
	n := 0
	for _, e := range p.Effects {
		if _, ok := e.(effects.CreateTaskComment); ok {
			n++
		}
	}
	return n
}

// FindMirrored returns the first task comment that embeds sourceID.
func FindMirrored(comments []models.TaskComment, sourceID int64) (models.TaskComment, bool) {
	for _, c := range comments {
		if id, ok := marker.ExtractSourceCommentID(c.Content); ok && id == sourceID {
			return c, true
		}
	}
	return models.TaskComment{}, false
}

// NeedsExisting reports whether the shell must list the task's comments
// before planning.
func NeedsExisting(linked bool, source SourceComment) bool {
	return linked && !source.Tracking
}

// PlanCommentEvent decides the remote mutation for a comment event.
// This is a pure function - all input data must be pre-fetched.
func PlanCommentEvent(input CommentEventInput) Plan {
	comment := input.Source.Comment
	plan := Plan{IssueNumber: comment.IssueNumber}

	if input.Source.Tracking {
		return skip(plan, "debug", "ignoring the tracking comment", comment.ID)
	}
	if !input.Linked {
		return skip(plan, "info", "issue has no task, comment not mirrored", comment.ID)
	}

	existing, found := FindMirrored(input.Existing, comment.ID)

	switch input.Action {
	case models.ActionCreated:
		if found {
			return skip(plan, "info", "comment already mirrored", comment.ID)
		}
		plan.Outcome = OutcomeMirrored
		plan.Effects = append(plan.Effects, effects.CreateTaskComment{
			IssueNumber:     comment.IssueNumber,
			TaskID:          input.TaskID,
			SourceCommentID: comment.ID,
			Content:         input.Source.Content,
		})

	case models.ActionEdited:
		if !found {
			return skip(plan, "info", "comment was never mirrored, nothing to edit", comment.ID)
		}
		plan.Outcome = OutcomeUpdated
		plan.Effects = append(plan.Effects, effects.UpdateTaskComment{
			IssueNumber:     comment.IssueNumber,
			CommentID:       existing.ID,
			SourceCommentID: comment.ID,
			Content:         input.Source.Content,
		})

	case models.ActionDeleted:
		if !found {
			return skip(plan, "info", "comment was never mirrored, nothing to delete", comment.ID)
		}
		plan.Outcome = OutcomeDeleted
		plan.Effects = append(plan.Effects, effects.DeleteTaskComment{
			IssueNumber:     comment.IssueNumber,
			CommentID:       existing.ID,
			SourceCommentID: comment.ID,
		})

	default:
		return skip(plan, "warn", "unknown comment action", comment.ID)
	}
	return plan
}

// PlanBackfill mirrors every comment of an issue that is not mirrored yet.
// Comments are planned in listing order.
func PlanBackfill(input BackfillInput) Plan {
	plan := Plan{IssueNumber: input.IssueNumber, Outcome: OutcomeSkipped}

	for _, src := range input.Comments {
		if src.Tracking {
			continue
		}
		if _, found := FindMirrored(input.Existing, src.Comment.ID); found {
			continue
		}
		plan.Effects = append(plan.Effects, effects.CreateTaskComment{
			IssueNumber:     input.IssueNumber,
			TaskID:          input.TaskID,
			SourceCommentID: src.Comment.ID,
			Content:         src.Content,
		})
	}

	if len(plan.Effects) > 0 {
		plan.Outcome = OutcomeMirrored
	}
	return plan
}

func skip(plan Plan, level, message string, commentID int64) Plan {
	plan.Outcome = OutcomeSkipped
	plan.Effects = append(plan.Effects, effects.LogEffect{
		Level:   level,
		Message: message,
		Fields:  map[string]any{"issue": plan.IssueNumber, "comment_id": commentID},
	})
	return plan
}
