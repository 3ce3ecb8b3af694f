package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/example/freelosync/internal/core/mirror"
	"github.com/example/freelosync/internal/core/render"
	"github.com/example/freelosync/internal/core/tasksync"
	"github.com/example/freelosync/internal/ctxutil"
	"github.com/example/freelosync/internal/models"
	"github.com/example/freelosync/internal/ports/primary"
)

// Reconcile re-syncs every open issue. Issues run concurrently up to the
// configured limit, each issue's own calls stay in order, and a failing
// issue is recorded in the report while the others carry on. Only a
// configuration error or a failure to list the issues aborts the run.
func (s *SyncServiceImpl) Reconcile(ctx context.Context, req primary.ReconcileRequest) (*primary.ReconcileReport, error) {
	if err := tasksync.CanTarget(s.config.Parent).Error(); err != nil {
		return nil, err
	}

	logger := s.logger.With("run_id", ctxutil.RunIDFromContext(ctx), "mode", "reconcile")

	issues, err := s.issues.ListOpenIssues(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open issues: %w", err)
	}
	logger.Info("reconciling open issues",
		"issues", len(issues),
		"create_unknown", req.CreateUnknown,
		"sync_comments", req.SyncComments,
		"concurrency", s.config.Concurrency,
	)

	results := make([]primary.IssueResult, len(issues))
	failures := make([]error, len(issues))

	var g errgroup.Group
	g.SetLimit(s.config.Concurrency)
	for i, issue := range issues {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				failures[i] = err
				return nil
			}
			results[i], failures[i] = s.reconcileIssue(ctx, issue, req, logger)
			return nil
		})
	}
	_ = g.Wait()

	report := &primary.ReconcileReport{Issues: len(issues), DryRun: s.config.DryRun}
	for i, issue := range issues {
		if failures[i] != nil {
			logger.Error("issue failed", "issue", issue.Number, "error", failures[i])
			report.Failures = append(report.Failures, models.IssueFailure{IssueNumber: issue.Number, Err: failures[i]})
			continue
		}
		res := results[i]
		switch tasksync.Outcome(res.Outcome) {
		case tasksync.OutcomeCreated:
			report.Created++
		case tasksync.OutcomeUpdated:
			report.Updated++
		default:
			report.Skipped++
		}
		report.Mirrored += res.Mirrored
		report.Results = append(report.Results, res)
	}
	sort.Slice(report.Results, func(a, b int) bool {
		return report.Results[a].IssueNumber < report.Results[b].IssueNumber
	})
	sort.Slice(report.Failures, func(a, b int) bool {
		return report.Failures[a].IssueNumber < report.Failures[b].IssueNumber
	})

	logger.Info("reconciliation finished",
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"mirrored", report.Mirrored,
		"failed", len(report.Failures),
	)
	return report, nil
}

// reconcileIssue runs locate → create or update → mirror for one issue.
func (s *SyncServiceImpl) reconcileIssue(ctx context.Context, issue models.Issue, req primary.ReconcileRequest, logger *slog.Logger) (primary.IssueResult, error) {
	unlock := s.locks.Lock(issue.Number)
	defer unlock()

	result := primary.IssueResult{IssueNumber: issue.Number}

	res, err := s.locator.Resolve(ctx, issue.Number)
	if err != nil {
		return result, err
	}

	plan := tasksync.PlanReconcile(tasksync.ReconcileInput{
		Issue:         issue,
		Link:          tasksync.Link{TaskID: res.TaskID, Linked: res.Linked},
		Parent:        s.config.Parent,
		CreateUnknown: req.CreateUnknown,
		Description:   s.renderer.TaskBody(issue),
		Labels:        render.Labels(issue.Labels),
	})
	executed, err := s.executor.Execute(ctx, plan.Effects)
	if err != nil {
		return result, err
	}
	result.Outcome = string(plan.Outcome)
	result.TaskID = res.TaskID
	if executed.CreatedTaskID != 0 {
		result.TaskID = executed.CreatedTaskID
	}

	if !req.SyncComments || result.TaskID == 0 {
		return result, nil
	}

	mirrored, err := s.backfillComments(ctx, issue, result.TaskID, res.Comments)
	if err != nil {
		return result, err
	}
	result.Mirrored = mirrored
	logger.Debug("issue reconciled", "issue", issue.Number, "task_id", result.TaskID,
		"outcome", result.Outcome, "mirrored", mirrored)
	return result, nil
}

func (s *SyncServiceImpl) backfillComments(ctx context.Context, issue models.Issue, taskID int64, comments []models.Comment) (int, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return 0, fmt.Errorf("failed to read comments of task %d: %w", taskID, err)
	}

	sources := make([]mirror.SourceComment, 0, len(comments))
	for _, c := range comments {
		src := mirror.SourceComment{Comment: c, Tracking: s.codec.IsTrackingComment(c)}
		if !src.Tracking {
			src.Content = s.renderer.MirroredComment(c, issue)
		}
		sources = append(sources, src)
	}

	plan := mirror.PlanBackfill(mirror.BackfillInput{
		IssueNumber: issue.Number,
		TaskID:      taskID,
		Comments:    sources,
		Existing:    task.Comments,
	})
	if _, err := s.executor.Execute(ctx, plan.Effects); err != nil {
		return 0, err
	}
	return plan.Mirrored(), nil
}
