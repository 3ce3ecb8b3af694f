// Package effects defines effect types as data structures representing
// remote mutations. Planners in the core return effects; the app layer is the
// only place that turns them into API calls.
package effects

import "github.com/example/freelosync/internal/models"

// Effect is the base interface for all effects.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// IssueEffect is implemented by effects that belong to one GitHub issue.
type IssueEffect interface {
	Effect
	Issue() int
}

// LogEffect represents a logging operation.
type LogEffect struct {
	Level   string // "debug", "info", "warn"
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// CreateTask creates a Freelo task for an issue and then posts the tracking
// comment on the issue. Both steps belong to one effect so the link is never
// planned without the task.
type CreateTask struct {
	IssueNumber int
	Parent      models.ParentSelector
	Task        models.NewTask
}

func (e CreateTask) EffectType() string { return "create_task" }
func (e CreateTask) Issue() int         { return e.IssueNumber }

// UpdateTaskTitle renames a task.
type UpdateTaskTitle struct {
	IssueNumber int
	TaskID      int64
	Name        string
}

func (e UpdateTaskTitle) EffectType() string { return "update_task_title" }
func (e UpdateTaskTitle) Issue() int         { return e.IssueNumber }

// UpdateTaskLabels adds labels to a task.
type UpdateTaskLabels struct {
	IssueNumber int
	TaskID      int64
	Labels      []models.Label
}

func (e UpdateTaskLabels) EffectType() string { return "update_task_labels" }
func (e UpdateTaskLabels) Issue() int         { return e.IssueNumber }

// UpdateTaskDescription replaces the task description.
type UpdateTaskDescription struct {
	IssueNumber int
	TaskID      int64
	Content     string
	Labels      []models.Label
}

func (e UpdateTaskDescription) EffectType() string { return "update_task_description" }
func (e UpdateTaskDescription) Issue() int         { return e.IssueNumber }

// FinishTask marks a task finished.
type FinishTask struct {
	IssueNumber int
	TaskID      int64
}

func (e FinishTask) EffectType() string { return "finish_task" }
func (e FinishTask) Issue() int         { return e.IssueNumber }

// ActivateTask reopens a finished task.
type ActivateTask struct {
	IssueNumber int
	TaskID      int64
}

func (e ActivateTask) EffectType() string { return "activate_task" }
func (e ActivateTask) Issue() int         { return e.IssueNumber }

// SetTaskWorker sets the task worker. WorkerID 0 clears it.
type SetTaskWorker struct {
	IssueNumber int
	TaskID      int64
	WorkerID    int64
}

func (e SetTaskWorker) EffectType() string { return "set_task_worker" }
func (e SetTaskWorker) Issue() int         { return e.IssueNumber }

// CreateTaskComment posts a mirrored comment on a task.
type CreateTaskComment struct {
	IssueNumber     int
	TaskID          int64
	SourceCommentID int64
	Content         string
}

func (e CreateTaskComment) EffectType() string { return "create_task_comment" }
func (e CreateTaskComment) Issue() int         { return e.IssueNumber }

// UpdateTaskComment overwrites a mirrored comment.
type UpdateTaskComment struct {
	IssueNumber     int
	CommentID       int64
	SourceCommentID int64
	Content         string
}

func (e UpdateTaskComment) EffectType() string { return "update_task_comment" }
func (e UpdateTaskComment) Issue() int         { return e.IssueNumber }

// DeleteTaskComment removes a mirrored comment.
type DeleteTaskComment struct {
	IssueNumber     int
	CommentID       int64
	SourceCommentID int64
}

func (e DeleteTaskComment) EffectType() string { return "delete_task_comment" }
func (e DeleteTaskComment) Issue() int         { return e.IssueNumber }

// Mutating reports whether eff changes remote state.
func Mutating(eff Effect) bool {
	switch eff.(type) {
	case LogEffect:
		return false
	}
	return true
}

// CountMutations returns the number of mutating effects in effs.
func CountMutations(effs []Effect) int {
	n := 0
	for _, e := range effs {
		if Mutating(e) {
			n++
		}
	}
	return n
}
