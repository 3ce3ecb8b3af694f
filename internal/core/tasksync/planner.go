package tasksync

import (
	"fmt"

	"github.com/example/freelosync/internal/core/effects"
	"github.com/example/freelosync/internal/models"
)

// Outcome summarizes what a plan does to the task.
type Outcome string

// Plan outcomes
const (
	OutcomeCreated    Outcome = "created"
	OutcomeUpdated    Outcome = "updated"
	OutcomeFinished   Outcome = "finished"
	OutcomeActivated  Outcome = "activated"
	OutcomeAssigned   Outcome = "assigned"
	OutcomeUnassigned Outcome = "unassigned"
	OutcomeSkipped    Outcome = "skipped"
)

// Link is the located issue → task link.
type Link struct {
	TaskID int64
	Linked bool
}

// IssueEventInput contains pre-fetched data for an issues event.
type IssueEventInput struct {
	Action models.Action
	Issue  models.Issue
	Link   Link
	Parent models.ParentSelector

	// Rendered content, used by opened and edited.
	Description string
	Labels      []models.Label

	// Assignee is the login added or removed by assigned/unassigned.
	Assignee       string
	AssigneeUserID int64
	AssigneeMapped bool

	// CurrentWorkerID is the task's worker as read from Freelo; only
	// required for unassigned, see NeedsCurrentWorker.
	CurrentWorkerID int64
}

// ReconcileInput contains pre-fetched data for one issue in bulk mode.
type ReconcileInput struct {
	Issue         models.Issue
	Link          Link
	Parent        models.ParentSelector
	CreateUnknown bool
	Description   string
	Labels        []models.Label
}

// Plan represents the planned effects for one issue.
type Plan struct {
	IssueNumber int
	Outcome     Outcome
	Effects     []effects.Effect
}

// Mutates reports whether the plan changes remote state.
func (p Plan) Mutates() bool {
	return effects.CountMutations(p.Effects) > 0
}

// NeedsCurrentWorker reports whether PlanIssueEvent needs the task's current
// worker for this input. The shell reads the task only in that case.
func NeedsCurrentWorker(action models.Action, link Link, assigneeMapped bool) bool {
	return action == models.ActionUnassigned && link.Linked && assigneeMapped
}

// PlanIssueEvent decides the remote mutations implied by an issues event.
// This is a pure function - all input data must be pre-fetched.
func PlanIssueEvent(input IssueEventInput) Plan {
	plan := Plan{IssueNumber: input.Issue.Number}
	action := NormalizeAction(input.Action)

	if action == models.ActionOpened {
		if input.Link.Linked {
			return skip(plan, "info", "task already exists, not creating another one", map[string]any{"task_id": input.Link.TaskID})
		}
		return planCreate(plan, input.Issue, input.Parent, input.Description, input.Labels)
	}

	if !input.Link.Linked {
		return skip(plan, "info", "no tracking comment found, nothing to update", map[string]any{"action": string(action)})
	}
	taskID := input.Link.TaskID
	number := input.Issue.Number

	switch action {
	case models.ActionEdited:
		return planUpdate(plan, input.Issue, taskID, input.Description, input.Labels)

	case models.ActionClosed:
		plan.Outcome = OutcomeFinished
		plan.Effects = append(plan.Effects, effects.FinishTask{IssueNumber: number, TaskID: taskID})
		return plan

	case models.ActionReopened:
		plan.Outcome = OutcomeActivated
		plan.Effects = append(plan.Effects, effects.ActivateTask{IssueNumber: number, TaskID: taskID})
		return plan

	case models.ActionAssigned:
		if !input.AssigneeMapped {
			return skip(plan, "info", "assignee has no Freelo identity", map[string]any{"login": input.Assignee})
		}
		plan.Outcome = OutcomeAssigned
		plan.Effects = append(plan.Effects, effects.SetTaskWorker{
			IssueNumber: number,
			TaskID:      taskID,
			WorkerID:    input.AssigneeUserID,
		})
		return plan

	case models.ActionUnassigned:
		if !input.AssigneeMapped {
			return skip(plan, "info", "assignee has no Freelo identity", map[string]any{"login": input.Assignee})
		}
		if input.CurrentWorkerID != input.AssigneeUserID {
			return skip(plan, "info", "task worker was changed in Freelo, leaving it", map[string]any{
				"login":          input.Assignee,
				"current_worker": input.CurrentWorkerID,
			})
		}
		plan.Outcome = OutcomeUnassigned
		plan.Effects = append(plan.Effects, effects.SetTaskWorker{IssueNumber: number, TaskID: taskID})
		return plan
	}

	return skip(plan, "warn", fmt.Sprintf("action %q has no transition", action), nil)
}

// PlanReconcile decides the remote mutations for one open issue in bulk mode.
// Linked issues are always updated; unlinked ones are created only when
// CreateUnknown is set.
func PlanReconcile(input ReconcileInput) Plan {
	plan := Plan{IssueNumber: input.Issue.Number}

	if input.Link.Linked {
		return planUpdate(plan, input.Issue, input.Link.TaskID, input.Description, input.Labels)
	}
	if !input.CreateUnknown {
		return skip(plan, "debug", "issue has no task and creation is disabled", nil)
	}
	return planCreate(plan, input.Issue, input.Parent, input.Description, input.Labels)
}

func planCreate(plan Plan, issue models.Issue, parent models.ParentSelector, description string, labels []models.Label) Plan {
	plan.Outcome = OutcomeCreated
	plan.Effects = append(plan.Effects, effects.CreateTask{
		IssueNumber: issue.Number,
		Parent:      parent,
		Task: models.NewTask{
			Name:    issue.Title,
			Content: description,
			Labels:  labels,
		},
	})
	return plan
}

// planUpdate orders title, labels, then description; each call assumes the
// previous one succeeded.
func planUpdate(plan Plan, issue models.Issue, taskID int64, description string, labels []models.Label) Plan {
	plan.Outcome = OutcomeUpdated
	plan.Effects = append(plan.Effects, effects.UpdateTaskTitle{
		IssueNumber: issue.Number,
		TaskID:      taskID,
		Name:        issue.Title,
	})
	// Adding nothing is a no-op; the description update carries labels too.
	if len(labels) > 0 {
		plan.Effects = append(plan.Effects, effects.UpdateTaskLabels{
			IssueNumber: issue.Number,
			TaskID:      taskID,
			Labels:      labels,
		})
	}
	plan.Effects = append(plan.Effects, effects.UpdateTaskDescription{
		IssueNumber: issue.Number,
		TaskID:      taskID,
		Content:     description,
		Labels:      labels,
	})
	return plan
}

func skip(plan Plan, level, message string, fields map[string]any) Plan {
	plan.Outcome = OutcomeSkipped
	if fields == nil {
		fields = map[string]any{}
	}
	fields["issue"] = plan.IssueNumber
	plan.Effects = append(plan.Effects, effects.LogEffect{Level: level, Message: message, Fields: fields})
	return plan
}
