package models

// EventKind is the GitHub event name that triggered a run.
type EventKind string

// Event kinds handled by the sync pipeline.
const (
	EventIssues       EventKind = "issues"
	EventIssueComment EventKind = "issue_comment"
)

// Action is the "action" field of an event payload.
type Action string

// Issue actions
const (
	ActionOpened     Action = "opened"
	ActionEdited     Action = "edited"
	ActionClosed     Action = "closed"
	ActionReopened   Action = "reopened"
	ActionAssigned   Action = "assigned"
	ActionUnassigned Action = "unassigned"
	ActionLabeled    Action = "labeled"
	ActionUnlabeled  Action = "unlabeled"
)

// Comment actions
const (
	ActionCreated Action = "created"
	ActionDeleted Action = "deleted"
	// ActionEdited is shared with issue events.
)

// Event is one inbound lifecycle event, already decoded from its payload.
type Event struct {
	Kind   EventKind
	Action Action
	Issue  Issue
	// Comment is set for issue_comment events.
	Comment *Comment
	// Assignee is the login added or removed by assigned/unassigned events.
	Assignee string
}
