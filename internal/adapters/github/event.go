package github

import (
	"fmt"
	"os"

	gh "github.com/google/go-github/v72/github"

	"github.com/example/freelosync/internal/models"
)

// ReadEvent reads and decodes the payload file an Actions runner writes to
// GITHUB_EVENT_PATH.
func ReadEvent(eventName, path string) (models.Event, error) {
	if path == "" {
		return models.Event{}, fmt.Errorf("%w: no event payload path for %q", models.ErrUnsupportedTrigger, eventName)
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to read event payload: %w", err)
	}
	return ParseEvent(eventName, payload)
}

// ParseEvent decodes an issues or issue_comment payload. Any other event
// name is an unsupported trigger.
func ParseEvent(eventName string, payload []byte) (models.Event, error) {
	kind := models.EventKind(eventName)
	if kind != models.EventIssues && kind != models.EventIssueComment {
		return models.Event{}, fmt.Errorf("%w: %q", models.ErrUnsupportedTrigger, eventName)
	}

	parsed, err := gh.ParseWebHook(eventName, payload)
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to decode %s payload: %w", eventName, err)
	}

	switch ev := parsed.(type) {
	case *gh.IssuesEvent:
		if ev.Issue == nil {
			return models.Event{}, fmt.Errorf("%w: issues payload without issue", models.ErrUnsupportedTrigger)
		}
		return models.Event{
			Kind:     models.EventIssues,
			Action:   models.Action(ev.GetAction()),
			Issue:    ConvertIssue(ev.Issue),
			Assignee: ev.GetAssignee().GetLogin(),
		}, nil

	case *gh.IssueCommentEvent:
		if ev.Issue == nil || ev.Comment == nil {
			return models.Event{}, fmt.Errorf("%w: issue_comment payload without issue or comment", models.ErrUnsupportedTrigger)
		}
		issue := ConvertIssue(ev.Issue)
		comment := convertComment(issue.Number, ev.Comment)
		return models.Event{
			Kind:    models.EventIssueComment,
			Action:  models.Action(ev.GetAction()),
			Issue:   issue,
			Comment: &comment,
		}, nil
	}

	return models.Event{}, fmt.Errorf("%w: unexpected payload type %T", models.ErrUnsupportedTrigger, parsed)
}
