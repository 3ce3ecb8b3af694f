package github

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/freelosync/internal/models"
)

const issuesPayload = `{
  "action": "unassigned",
  "issue": {
    "number": 12,
    "title": "Crash",
    "body": "steps",
    "state": "open",
    "user": {"login": "alice"},
    "labels": [{"name": "bug", "color": "d73a4a"}],
    "html_url": "https://github.com/acme/app/issues/12"
  },
  "assignee": {"login": "bob"}
}`

const commentPayload = `{
  "action": "created",
  "issue": {"number": 12, "title": "Crash", "user": {"login": "alice"}},
  "comment": {
    "id": 555,
    "body": "me too",
    "user": {"login": "dave"},
    "html_url": "https://github.com/acme/app/issues/12#issuecomment-555"
  }
}`

func TestParseEvent_Issues(t *testing.T) {
	event, err := ParseEvent("issues", []byte(issuesPayload))
	require.NoError(t, err)

	assert.Equal(t, models.EventIssues, event.Kind)
	assert.Equal(t, models.ActionUnassigned, event.Action)
	assert.Equal(t, "bob", event.Assignee)
	assert.Equal(t, 12, event.Issue.Number)
	assert.Equal(t, "alice", event.Issue.Author)
	assert.Equal(t, []models.Label{{Name: "bug", Color: "d73a4a"}}, event.Issue.Labels)
	assert.Nil(t, event.Comment)
}

func TestParseEvent_IssueComment(t *testing.T) {
	event, err := ParseEvent("issue_comment", []byte(commentPayload))
	require.NoError(t, err)

	assert.Equal(t, models.EventIssueComment, event.Kind)
	assert.Equal(t, models.ActionCreated, event.Action)
	require.NotNil(t, event.Comment)
	assert.Equal(t, int64(555), event.Comment.ID)
	assert.Equal(t, 12, event.Comment.IssueNumber)
	assert.Equal(t, "dave", event.Comment.Author)
}

func TestParseEvent_Errors(t *testing.T) {
	tests := []struct {
		name       string
		eventName  string
		payload    string
		wantConfig bool
	}{
		{name: "unsupported trigger", eventName: "push", payload: `{}`, wantConfig: true},
		{name: "issues without issue", eventName: "issues", payload: `{"action":"opened"}`, wantConfig: true},
		{name: "comment without comment", eventName: "issue_comment", payload: `{"action":"created","issue":{"number":1}}`, wantConfig: true},
		{name: "malformed json", eventName: "issues", payload: `{`, wantConfig: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvent(tt.eventName, []byte(tt.payload))
			require.Error(t, err)
			assert.Equal(t, tt.wantConfig, models.IsConfigurationError(err))
		})
	}
}

func TestReadEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(issuesPayload), 0o644))

	event, err := ReadEvent("issues", path)
	require.NoError(t, err)
	assert.Equal(t, 12, event.Issue.Number)

	_, err = ReadEvent("issues", "")
	assert.ErrorIs(t, err, models.ErrUnsupportedTrigger)
}
