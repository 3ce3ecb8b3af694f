// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives GitHub and Freelo.
package secondary

import (
	"context"

	"github.com/example/freelosync/internal/models"
)

// IssueTracker defines the secondary port for the source issue tracker.
// Listing calls return every page; callers never see pagination.
type IssueTracker interface {
	// ListComments returns all comments on an issue in chronological order.
	ListComments(ctx context.Context, issueNumber int) ([]models.Comment, error)

	// CreateComment posts a comment on an issue.
	CreateComment(ctx context.Context, issueNumber int, body string) (*models.Comment, error)

	// ListOpenIssues returns every open issue in the repository.
	ListOpenIssues(ctx context.Context) ([]models.Issue, error)

	// CurrentLogin returns the login of the authenticated identity.
	CurrentLogin(ctx context.Context) (string, error)
}

// TaskTracker defines the secondary port for the Freelo task API.
type TaskTracker interface {
	// CreateTask creates a task under a tasklist or as a subtask of a task.
	CreateTask(ctx context.Context, parent models.ParentSelector, task models.NewTask) (*models.Task, error)

	// UpdateTaskTitle renames a task.
	UpdateTaskTitle(ctx context.Context, taskID int64, name string) error

	// UpdateTaskLabels adds labels to a task.
	UpdateTaskLabels(ctx context.Context, taskID int64, labels []models.Label) error

	// UpdateTaskDescription replaces a task's description.
	UpdateTaskDescription(ctx context.Context, taskID int64, content string, labels []models.Label) error

	// FinishTask marks a task finished.
	FinishTask(ctx context.Context, taskID int64) error

	// ActivateTask reopens a finished task.
	ActivateTask(ctx context.Context, taskID int64) error

	// SetTaskWorker sets the task worker; workerID 0 clears it.
	SetTaskWorker(ctx context.Context, taskID int64, workerID int64) error

	// GetTask reads a task including its comments.
	GetTask(ctx context.Context, taskID int64) (*models.Task, error)

	// CreateTaskComment posts a comment on a task.
	CreateTaskComment(ctx context.Context, taskID int64, content string) (*models.TaskComment, error)

	// UpdateTaskComment overwrites a task comment.
	UpdateTaskComment(ctx context.Context, commentID int64, content string) error

	// DeleteTaskComment removes a task comment.
	DeleteTaskComment(ctx context.Context, commentID int64) error

	// CurrentUser returns the authenticated Freelo account.
	CurrentUser(ctx context.Context) (*RemoteUser, error)
}

// RemoteUser is the Freelo account behind the configured credentials.
type RemoteUser struct {
	ID       int64
	Fullname string
	Email    string
}
