// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/freelosync/internal/core/effects"
	"github.com/example/freelosync/internal/core/marker"
	"github.com/example/freelosync/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place remote mutations happen.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) (ExecutionResult, error)
}

// ExecutionResult reports what executing a batch of effects did.
type ExecutionResult struct {
	// CreatedTaskID is set when a CreateTask effect ran.
	CreatedTaskID int64
	// Mutations counts executed (or, in dry-run, skipped) mutating effects.
	Mutations int
}

// TrackerEffectExecutor implements EffectExecutor against the two trackers.
// Effects run strictly in order; the first failure stops the batch.
type TrackerEffectExecutor struct {
	issues secondary.IssueTracker
	tasks  secondary.TaskTracker
	codec  marker.Codec
	logger *slog.Logger
	dryRun bool
}

// NewEffectExecutor creates a TrackerEffectExecutor. In dry-run mode mutating
// effects are logged and skipped.
func NewEffectExecutor(issues secondary.IssueTracker, tasks secondary.TaskTracker, codec marker.Codec, logger *slog.Logger, dryRun bool) *TrackerEffectExecutor {
	return &TrackerEffectExecutor{
		issues: issues,
		tasks:  tasks,
		codec:  codec,
		logger: logger,
		dryRun: dryRun,
	}
}

// Execute processes a slice of effects, executing each in sequence.
func (e *TrackerEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) (ExecutionResult, error) {
	var result ExecutionResult
	for _, eff := range effs {
		if e.dryRun && effects.Mutating(eff) {
			e.logger.Info("dry-run: skipping "+eff.EffectType(), effectAttrs(eff)...)
			result.Mutations++
			continue
		}
		if err := e.executeOne(ctx, eff, &result); err != nil {
			return result, fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err)
		}
		if effects.Mutating(eff) {
			result.Mutations++
		}
	}
	return result, nil
}

func (e *TrackerEffectExecutor) executeOne(ctx context.Context, eff effects.Effect, result *ExecutionResult) error {
	switch typed := eff.(type) {
	case effects.CreateTask:
		return e.executeCreateTask(ctx, typed, result)
	case effects.UpdateTaskTitle:
		return e.tasks.UpdateTaskTitle(ctx, typed.TaskID, typed.Name)
	case effects.UpdateTaskLabels:
		return e.tasks.UpdateTaskLabels(ctx, typed.TaskID, typed.Labels)
	case effects.UpdateTaskDescription:
		return e.tasks.UpdateTaskDescription(ctx, typed.TaskID, typed.Content, typed.Labels)
	case effects.FinishTask:
		return e.tasks.FinishTask(ctx, typed.TaskID)
	case effects.ActivateTask:
		return e.tasks.ActivateTask(ctx, typed.TaskID)
	case effects.SetTaskWorker:
		return e.tasks.SetTaskWorker(ctx, typed.TaskID, typed.WorkerID)
	case effects.CreateTaskComment:
		created, err := e.tasks.CreateTaskComment(ctx, typed.TaskID, typed.Content)
		if err != nil {
			return err
		}
		e.logger.Info("comment mirrored", "issue", typed.IssueNumber, "task_id", typed.TaskID,
			"source_comment_id", typed.SourceCommentID, "comment_id", created.ID)
		return nil
	case effects.UpdateTaskComment:
		return e.tasks.UpdateTaskComment(ctx, typed.CommentID, typed.Content)
	case effects.DeleteTaskComment:
		return e.tasks.DeleteTaskComment(ctx, typed.CommentID)
	case effects.LogEffect:
		e.logger.Log(ctx, logLevel(typed.Level), typed.Message, fieldAttrs(typed.Fields)...)
		return nil
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

// executeCreateTask creates the task and then records the link on the issue.
// If posting the tracking comment fails the task exists without a link; the
// error is returned with the task id so it can be linked by hand.
func (e *TrackerEffectExecutor) executeCreateTask(ctx context.Context, eff effects.CreateTask, result *ExecutionResult) error {
	task, err := e.tasks.CreateTask(ctx, eff.Parent, eff.Task)
	if err != nil {
		return err
	}
	result.CreatedTaskID = task.ID
	e.logger.Info("task created", "issue", eff.IssueNumber, "task_id", task.ID, "url", e.codec.TaskURL(task.ID))

	if _, err := e.issues.CreateComment(ctx, eff.IssueNumber, e.codec.TrackingCommentBody(task.ID)); err != nil {
		return fmt.Errorf("task %d created but tracking comment failed: %w", task.ID, err)
	}
	return nil
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func fieldAttrs(fields map[string]any) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}

func effectAttrs(eff effects.Effect) []any {
	args := []any{"effect", eff.EffectType()}
	if ie, ok := eff.(effects.IssueEffect); ok {
		args = append(args, "issue", ie.Issue())
	}
	switch typed := eff.(type) {
	case effects.CreateTask:
		args = append(args, "name", typed.Task.Name, "parent_kind", string(typed.Parent.Kind), "parent_id", typed.Parent.ID)
	case effects.UpdateTaskTitle:
		args = append(args, "task_id", typed.TaskID, "name", typed.Name)
	case effects.SetTaskWorker:
		args = append(args, "task_id", typed.TaskID, "worker_id", typed.WorkerID)
	case effects.CreateTaskComment:
		args = append(args, "task_id", typed.TaskID, "source_comment_id", typed.SourceCommentID)
	case effects.UpdateTaskComment:
		args = append(args, "comment_id", typed.CommentID)
	case effects.DeleteTaskComment:
		args = append(args, "comment_id", typed.CommentID)
	}
	return args
}
