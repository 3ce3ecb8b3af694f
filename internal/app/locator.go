package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/freelosync/internal/core/marker"
	"github.com/example/freelosync/internal/models"
	"github.com/example/freelosync/internal/ports/secondary"
)

// Resolution is the located link of one issue plus the comments it was
// found in, so callers that need the comments do not list them twice.
type Resolution struct {
	TaskID   int64
	Linked   bool
	Comments []models.Comment
}

// TaskLocator finds the task linked to an issue by reading the tracking
// comment the bot posted when it created the task.
type TaskLocator struct {
	issues secondary.IssueTracker
	codec  marker.Codec
	logger *slog.Logger
}

// NewTaskLocator creates a TaskLocator.
func NewTaskLocator(issues secondary.IssueTracker, codec marker.Codec, logger *slog.Logger) *TaskLocator {
	return &TaskLocator{issues: issues, codec: codec, logger: logger}
}

// Locate returns the id of the task linked to issueNumber.
func (l *TaskLocator) Locate(ctx context.Context, issueNumber int) (int64, bool, error) {
	res, err := l.Resolve(ctx, issueNumber)
	if err != nil {
		return 0, false, err
	}
	return res.TaskID, res.Linked, nil
}

// Resolve lists every comment on the issue and returns the link from the
// first tracking comment in listing order. Extra tracking comments are
// tolerated and only logged.
func (l *TaskLocator) Resolve(ctx context.Context, issueNumber int) (*Resolution, error) {
	comments, err := l.issues.ListComments(ctx, issueNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to locate task for issue #%d: %w", issueNumber, err)
	}

	res := &Resolution{Comments: comments}
	found := 0
	for _, c := range comments {
		if !l.codec.IsTrackingComment(c) {
			continue
		}
		found++
		if found == 1 {
			res.TaskID, _ = l.codec.ExtractTaskID(c.Body)
			res.Linked = true
		}
	}

	switch {
	case found == 0:
		l.logger.Debug("no tracking comment", "issue", issueNumber, "comments", len(comments))
	case found > 1:
		l.logger.Warn("issue has several tracking comments, using the first",
			"issue", issueNumber,
			"task_id", res.TaskID,
			"tracking_comments", found,
		)
	}
	return res, nil
}
