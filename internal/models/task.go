// Package models contains domain types for issues, comments, and the Freelo
// tasks they are mirrored into.
// Remote I/O lives behind the interfaces in ports/secondary.
package models

// Task represents a Freelo task as read back from the remote API.
// It is never persisted locally; its ID is discovered through the
// tracking comment on the issue.
type Task struct {
	ID          int64
	Name        string
	Description string
	Labels      []Label
	WorkerID    int64 // 0 when nobody is assigned
	State       TaskState
	Comments    []TaskComment
}

// TaskState is the finished/active state of a Freelo task.
type TaskState string

// Task state constants
const (
	TaskStateActive   TaskState = "active"
	TaskStateFinished TaskState = "finished"
)

// TaskComment is a comment on a Freelo task.
type TaskComment struct {
	ID      int64
	Content string
}

// NewTask contains the fields sent when creating a Freelo task.
type NewTask struct {
	Name    string
	Content string // HTML body posted as the task's first comment/description
	Labels  []Label
}

// ParentKind selects where a new task is created.
type ParentKind string

const (
	// ParentTasklist creates a top-level task in a tasklist.
	ParentTasklist ParentKind = "tasklist"
	// ParentTask creates a subtask under an existing task.
	ParentTask ParentKind = "task"
)

// ParentSelector identifies the container for new tasks.
// Exactly one kind is configured per run.
type ParentSelector struct {
	Kind      ParentKind
	ProjectID int64
	ID        int64 // tasklist ID or parent task ID depending on Kind
}
