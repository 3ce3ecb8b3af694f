package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/freelosync/internal/core/identity"
	"github.com/example/freelosync/internal/core/marker"
	"github.com/example/freelosync/internal/core/mirror"
	"github.com/example/freelosync/internal/core/render"
	"github.com/example/freelosync/internal/core/tasksync"
	"github.com/example/freelosync/internal/ctxutil"
	"github.com/example/freelosync/internal/models"
	"github.com/example/freelosync/internal/ports/primary"
	"github.com/example/freelosync/internal/ports/secondary"
)

// SyncServiceConfig holds the settings SyncServiceImpl needs besides its
// collaborators.
type SyncServiceConfig struct {
	Parent      models.ParentSelector
	Concurrency int
	DryRun      bool
}

// SyncServiceImpl implements the SyncService interface.
type SyncServiceImpl struct {
	issues     secondary.IssueTracker
	tasks      secondary.TaskTracker
	locator    *TaskLocator
	executor   EffectExecutor
	renderer   *render.Renderer
	identities identity.Mapping
	codec      marker.Codec
	config     SyncServiceConfig
	locks      *issueLocks
	logger     *slog.Logger
}

var _ primary.SyncService = (*SyncServiceImpl)(nil)

// NewSyncService creates a new SyncService with injected dependencies.
func NewSyncService(
	issues secondary.IssueTracker,
	tasks secondary.TaskTracker,
	executor EffectExecutor,
	identities identity.Mapping,
	codec marker.Codec,
	config SyncServiceConfig,
	logger *slog.Logger,
) *SyncServiceImpl {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &SyncServiceImpl{
		issues:     issues,
		tasks:      tasks,
		locator:    NewTaskLocator(issues, codec, logger),
		executor:   executor,
		renderer:   render.New(identities),
		identities: identities,
		codec:      codec,
		config:     config,
		locks:      newIssueLocks(),
		logger:     logger,
	}
}

// HandleEvent processes one issues or issue_comment event. Configuration
// problems are rejected before any remote call.
func (s *SyncServiceImpl) HandleEvent(ctx context.Context, event models.Event) (*primary.EventResult, error) {
	guard := tasksync.CanHandleEvent(tasksync.EventContext{
		Kind:       event.Kind,
		Action:     event.Action,
		Parent:     s.config.Parent,
		HasIssue:   event.Issue.Number > 0,
		HasComment: event.Comment != nil,
	})
	if err := guard.Error(); err != nil {
		return nil, err
	}

	logger := s.logger.With("run_id", ctxutil.RunIDFromContext(ctx), "event", string(event.Kind),
		"action", string(event.Action), "issue", event.Issue.Number)

	unlock := s.locks.Lock(event.Issue.Number)
	defer unlock()

	if event.Kind == models.EventIssueComment {
		return s.handleCommentEvent(ctx, event, logger)
	}
	return s.handleIssueEvent(ctx, event, logger)
}

func (s *SyncServiceImpl) handleIssueEvent(ctx context.Context, event models.Event, logger *slog.Logger) (*primary.EventResult, error) {
	res, err := s.locator.Resolve(ctx, event.Issue.Number)
	if err != nil {
		return nil, err
	}
	link := tasksync.Link{TaskID: res.TaskID, Linked: res.Linked}
	action := tasksync.NormalizeAction(event.Action)

	input := tasksync.IssueEventInput{
		Action:   event.Action,
		Issue:    event.Issue,
		Link:     link,
		Parent:   s.config.Parent,
		Assignee: event.Assignee,
	}
	if action == models.ActionOpened || action == models.ActionEdited {
		input.Description = s.renderer.TaskBody(event.Issue)
		input.Labels = render.Labels(event.Issue.Labels)
	}
	if event.Assignee != "" {
		input.AssigneeUserID, input.AssigneeMapped = s.identities.RemoteUserID(event.Assignee)
	}
	if tasksync.NeedsCurrentWorker(action, link, input.AssigneeMapped) {
		task, err := s.tasks.GetTask(ctx, link.TaskID)
		if err != nil {
			return nil, fmt.Errorf("failed to read task %d: %w", link.TaskID, err)
		}
		input.CurrentWorkerID = task.WorkerID
	}

	plan := tasksync.PlanIssueEvent(input)
	executed, err := s.executor.Execute(ctx, plan.Effects)
	if err != nil {
		return nil, err
	}

	result := &primary.EventResult{
		Kind:        event.Kind,
		Action:      event.Action,
		IssueNumber: event.Issue.Number,
		TaskID:      link.TaskID,
		Outcome:     string(plan.Outcome),
		Mutations:   executed.Mutations,
		DryRun:      s.config.DryRun,
	}
	if executed.CreatedTaskID != 0 {
		result.TaskID = executed.CreatedTaskID
	}
	logger.Info("issue event handled", "outcome", result.Outcome, "task_id", result.TaskID, "mutations", result.Mutations)
	return result, nil
}

func (s *SyncServiceImpl) handleCommentEvent(ctx context.Context, event models.Event, logger *slog.Logger) (*primary.EventResult, error) {
	comment := *event.Comment
	if comment.IssueNumber == 0 {
		comment.IssueNumber = event.Issue.Number
	}

	source := mirror.SourceComment{
		Comment:  comment,
		Tracking: s.codec.IsTrackingComment(comment),
	}
	if event.Action != models.ActionDeleted {
		source.Content = s.renderer.MirroredComment(comment, event.Issue)
	}

	input := mirror.CommentEventInput{Action: event.Action, Source: source}
	if !source.Tracking {
		res, err := s.locator.Resolve(ctx, event.Issue.Number)
		if err != nil {
			return nil, err
		}
		input.TaskID, input.Linked = res.TaskID, res.Linked
	}
	if mirror.NeedsExisting(input.Linked, source) {
		task, err := s.tasks.GetTask(ctx, input.TaskID)
		if err != nil {
			return nil, fmt.Errorf("failed to read comments of task %d: %w", input.TaskID, err)
		}
		input.Existing = task.Comments
	}

	plan := mirror.PlanCommentEvent(input)
	executed, err := s.executor.Execute(ctx, plan.Effects)
	if err != nil {
		return nil, err
	}

	result := &primary.EventResult{
		Kind:        event.Kind,
		Action:      event.Action,
		IssueNumber: event.Issue.Number,
		TaskID:      input.TaskID,
		Outcome:     string(plan.Outcome),
		Mutations:   executed.Mutations,
		DryRun:      s.config.DryRun,
	}
	logger.Info("comment event handled", "comment_id", comment.ID, "outcome", result.Outcome, "task_id", result.TaskID)
	return result, nil
}

// CheckAuth verifies both sets of credentials. An Actions installation token
// cannot read /user and gets a 403; that still proves the token is valid.
func (s *SyncServiceImpl) CheckAuth(ctx context.Context) (*primary.AuthStatus, error) {
	user, err := s.tasks.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("freelo credentials rejected: %w", err)
	}
	status := &primary.AuthStatus{
		FreeloUserID: user.ID,
		FreeloName:   user.Fullname,
		FreeloEmail:  user.Email,
	}

	login, err := s.issues.CurrentLogin(ctx)
	if err != nil {
		if !isForbidden(err) {
			return nil, fmt.Errorf("github token rejected: %w", err)
		}
		s.logger.Debug("github token cannot read the authenticated user, assuming an installation token")
	}
	status.GitHubLogin = login
	return status, nil
}
