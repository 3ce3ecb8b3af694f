package freelo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/freelosync/internal/models"
	"github.com/example/freelosync/internal/ports/secondary"
)

type labelPayload struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type commentPayload struct {
	Content string `json:"content"`
}

// createTaskRequest is shared by task and subtask creation.
type createTaskRequest struct {
	Name    string          `json:"name"`
	Comment *commentPayload `json:"comment,omitempty"`
	Labels  []labelPayload  `json:"labels,omitempty"`
}

type descriptionRequest struct {
	Content string         `json:"content"`
	Labels  []labelPayload `json:"labels,omitempty"`
}

type labelsRequest struct {
	Labels []labelPayload `json:"labels"`
}

type userPayload struct {
	ID       int64  `json:"id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}

type commentResponse struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

type taskResponse struct {
	ID       int64             `json:"id"`
	TaskID   int64             `json:"task_id"` // subtask responses carry the task id here
	Name     string            `json:"name"`
	Content  string            `json:"content"`
	Worker   *userPayload      `json:"worker"`
	State    json.RawMessage   `json:"state"`
	Labels   []models.Label    `json:"labels"` // objects, or bare names on older tasks
	Comments []commentResponse `json:"comments"`
}

func (t taskResponse) toModel() *models.Task {
	task := &models.Task{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Content,
		State:       decodeState(t.State),
	}
	if t.TaskID != 0 {
		task.ID = t.TaskID
	}
	if t.Worker != nil {
		task.WorkerID = t.Worker.ID
	}
	task.Labels = t.Labels
	for _, c := range t.Comments {
		task.Comments = append(task.Comments, models.TaskComment{ID: c.ID, Content: c.Content})
	}
	return task
}

// decodeState accepts either "finished" or {"id": 2, "state": "finished"}.
func decodeState(raw json.RawMessage) models.TaskState {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var obj struct {
			State string `json:"state"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return models.TaskStateActive
		}
		s = obj.State
	}
	if strings.EqualFold(s, string(models.TaskStateFinished)) {
		return models.TaskStateFinished
	}
	return models.TaskStateActive
}

func toLabelPayloads(labels []models.Label) []labelPayload {
	if len(labels) == 0 {
		return nil
	}
	out := make([]labelPayload, 0, len(labels))
	for _, l := range labels {
		out = append(out, labelPayload{Name: l.Name, Color: l.Color})
	}
	return out
}

// CreateTask creates a task in a tasklist, or a subtask of a parent task.
func (c *Client) CreateTask(ctx context.Context, parent models.ParentSelector, task models.NewTask) (*models.Task, error) {
	req := createTaskRequest{
		Name:   task.Name,
		Labels: toLabelPayloads(task.Labels),
	}
	if task.Content != "" {
		req.Comment = &commentPayload{Content: task.Content}
	}

	var path string
	switch parent.Kind {
	case models.ParentTasklist:
		path = fmt.Sprintf("/project/%d/tasklist/%d/tasks", parent.ProjectID, parent.ID)
	case models.ParentTask:
		path = fmt.Sprintf("/task/%d/subtasks", parent.ID)
	default:
		return nil, fmt.Errorf("%w: unknown parent kind %q", models.ErrMissingTarget, parent.Kind)
	}

	var resp taskResponse
	if err := c.post(ctx, "create task", path, req, &resp); err != nil {
		return nil, err
	}
	created := resp.toModel()
	if created.ID == 0 {
		return nil, &models.RemoteError{Service: "freelo", Operation: "create task", Err: fmt.Errorf("response carries no task id")}
	}
	if created.Name == "" {
		created.Name = task.Name
	}
	return created, nil
}

// UpdateTaskTitle renames a task.
func (c *Client) UpdateTaskTitle(ctx context.Context, taskID int64, name string) error {
	return c.post(ctx, "edit task name", fmt.Sprintf("/task/%d", taskID), map[string]any{"name": name}, nil)
}

// UpdateTaskLabels adds labels to a task.
func (c *Client) UpdateTaskLabels(ctx context.Context, taskID int64, labels []models.Label) error {
	req := labelsRequest{Labels: toLabelPayloads(labels)}
	return c.post(ctx, "add task labels", fmt.Sprintf("/task-labels/add-to-task/%d", taskID), req, nil)
}

// UpdateTaskDescription replaces a task's description.
func (c *Client) UpdateTaskDescription(ctx context.Context, taskID int64, content string, labels []models.Label) error {
	req := descriptionRequest{Content: content, Labels: toLabelPayloads(labels)}
	return c.post(ctx, "edit task description", fmt.Sprintf("/task/%d/description", taskID), req, nil)
}

// FinishTask marks a task finished.
func (c *Client) FinishTask(ctx context.Context, taskID int64) error {
	return c.post(ctx, "finish task", fmt.Sprintf("/task/%d/finish", taskID), nil, nil)
}

// ActivateTask reopens a finished task.
func (c *Client) ActivateTask(ctx context.Context, taskID int64) error {
	return c.post(ctx, "activate task", fmt.Sprintf("/task/%d/activate", taskID), nil, nil)
}

// SetTaskWorker sets the worker of a task; workerID 0 sends null and clears it.
func (c *Client) SetTaskWorker(ctx context.Context, taskID int64, workerID int64) error {
	var worker any
	if workerID != 0 {
		worker = workerID
	}
	return c.post(ctx, "edit task worker", fmt.Sprintf("/task/%d", taskID), map[string]any{"worker": worker}, nil)
}

// GetTask reads a task with its worker, labels and comments.
func (c *Client) GetTask(ctx context.Context, taskID int64) (*models.Task, error) {
	var resp taskResponse
	if err := c.get(ctx, "get task", fmt.Sprintf("/task/%d", taskID), &resp); err != nil {
		return nil, err
	}
	task := resp.toModel()
	if task.ID == 0 {
		task.ID = taskID
	}
	return task, nil
}

// CreateTaskComment posts a comment on a task.
func (c *Client) CreateTaskComment(ctx context.Context, taskID int64, content string) (*models.TaskComment, error) {
	var resp commentResponse
	if err := c.post(ctx, "create comment", fmt.Sprintf("/task/%d/comments", taskID), commentPayload{Content: content}, &resp); err != nil {
		return nil, err
	}
	return &models.TaskComment{ID: resp.ID, Content: resp.Content}, nil
}

// UpdateTaskComment overwrites a task comment.
func (c *Client) UpdateTaskComment(ctx context.Context, commentID int64, content string) error {
	return c.post(ctx, "edit comment", fmt.Sprintf("/comment/%d", commentID), commentPayload{Content: content}, nil)
}

// DeleteTaskComment removes a task comment.
func (c *Client) DeleteTaskComment(ctx context.Context, commentID int64) error {
	return c.delete(ctx, "delete comment", fmt.Sprintf("/comment/%d", commentID))
}

// CurrentUser returns the account behind the credentials.
func (c *Client) CurrentUser(ctx context.Context) (*secondary.RemoteUser, error) {
	var resp struct {
		User *userPayload `json:"user"`
		userPayload
	}
	if err := c.get(ctx, "get current user", "/users/me", &resp); err != nil {
		return nil, err
	}
	user := resp.userPayload
	if resp.User != nil {
		user = *resp.User
	}
	return &secondary.RemoteUser{ID: user.ID, Fullname: user.Fullname, Email: user.Email}, nil
}
