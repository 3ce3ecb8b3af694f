package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/freelosync/internal/core/effects"
	"github.com/example/freelosync/internal/core/marker"
	"github.com/example/freelosync/internal/models"
)

func newTestExecutor(dryRun bool) (*TrackerEffectExecutor, *fakeIssueTracker, *fakeTaskTracker) {
	issues := newFakeIssueTracker()
	tasks := newFakeTaskTracker()
	return NewEffectExecutor(issues, tasks, marker.NewCodec("", issues.login), discardLogger(), dryRun), issues, tasks
}

func TestExecute_CreateTaskPostsTrackingComment(t *testing.T) {
	executor, issues, _ := newTestExecutor(false)

	result, err := executor.Execute(context.Background(), []effects.Effect{
		effects.CreateTask{IssueNumber: 4, Parent: testParent, Task: models.NewTask{Name: "x"}},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.CreatedTaskID == 0 || result.Mutations != 1 {
		t.Errorf("result = %+v", result)
	}

	comments, _ := issues.ListComments(context.Background(), 4)
	if len(comments) != 1 {
		t.Fatalf("comments = %d, want 1", len(comments))
	}
	if !strings.Contains(comments[0].Body, "https://app.freelo.io/task/") {
		t.Errorf("tracking comment body = %q", comments[0].Body)
	}
}

func TestExecute_TrackingCommentFailureNamesTask(t *testing.T) {
	executor, issues, _ := newTestExecutor(false)
	issues.createErr = errors.New("forbidden")

	result, err := executor.Execute(context.Background(), []effects.Effect{
		effects.CreateTask{IssueNumber: 4, Parent: testParent, Task: models.NewTask{Name: "x"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if result.CreatedTaskID == 0 {
		t.Fatal("CreatedTaskID must be reported even when linking failed")
	}
	if !strings.Contains(err.Error(), "task 501 created") {
		t.Errorf("error = %v, want it to name the task", err)
	}
}

func TestExecute_StopsOnFirstError(t *testing.T) {
	executor, _, tasks := newTestExecutor(false)
	tasks.addTask(models.Task{ID: 9})
	tasks.failOn["UpdateTaskTitle"] = errors.New("boom")

	_, err := executor.Execute(context.Background(), []effects.Effect{
		effects.UpdateTaskTitle{TaskID: 9, Name: "n"},
		effects.FinishTask{TaskID: 9},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if tasks.count("FinishTask") != 0 {
		t.Error("FinishTask must not run after a failure")
	}
}

func TestExecute_DryRunCountsButSkips(t *testing.T) {
	executor, _, tasks := newTestExecutor(true)

	result, err := executor.Execute(context.Background(), []effects.Effect{
		effects.LogEffect{Level: "info", Message: "hello"},
		effects.FinishTask{TaskID: 9},
		effects.SetTaskWorker{TaskID: 9, WorkerID: 3},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Mutations != 2 {
		t.Errorf("Mutations = %d, want 2", result.Mutations)
	}
	if calls := tasks.all(); len(calls) != 0 {
		t.Errorf("calls = %v, want none", calls)
	}
}

type unknownEffect struct{}

func (unknownEffect) EffectType() string { return "unknown" }

func TestExecute_UnknownEffect(t *testing.T) {
	executor, _, _ := newTestExecutor(false)

	if _, err := executor.Execute(context.Background(), []effects.Effect{unknownEffect{}}); err == nil {
		t.Fatal("expected error for unknown effect")
	}
}
