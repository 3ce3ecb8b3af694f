package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabel_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Label
	}{
		{
			name:  "object form with color",
			input: `{"name":"bug","color":"f00"}`,
			want:  Label{Name: "bug", Color: "f00"},
		},
		{
			name:  "object form without color",
			input: `{"name":"feature"}`,
			want:  Label{Name: "feature"},
		},
		{
			name:  "bare string form",
			input: `"bug"`,
			want:  Label{Name: "bug"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Label
			require.NoError(t, json.Unmarshal([]byte(tt.input), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLabel_UnmarshalJSON_MixedList(t *testing.T) {
	var labels []Label
	require.NoError(t, json.Unmarshal([]byte(`["bug", {"name":"ui","color":"00ff00"}]`), &labels))
	assert.Equal(t, []Label{{Name: "bug"}, {Name: "ui", Color: "00ff00"}}, labels)
}

func TestLabel_UnmarshalJSON_Invalid(t *testing.T) {
	var got Label
	assert.Error(t, json.Unmarshal([]byte(`42`), &got))
}

func TestIsConfigurationError(t *testing.T) {
	assert.True(t, IsConfigurationError(ErrMissingTarget))
	assert.True(t, IsConfigurationError(fmt.Errorf("wrapped: %w", ErrUnsupportedAction)))
	assert.False(t, IsConfigurationError(&RemoteError{Service: "freelo", Operation: "create task", StatusCode: 500}))
	assert.False(t, IsConfigurationError(nil))
}

func TestRemoteError(t *testing.T) {
	cause := errors.New("connection reset")

	withStatus := &RemoteError{Service: "freelo", Operation: "finish task", StatusCode: 404, Body: `{"errors":["not found"]}`}
	assert.Equal(t, `freelo: finish task failed with status 404: {"errors":["not found"]}`, withStatus.Error())

	transport := &RemoteError{Service: "github", Operation: "list comments", Err: cause}
	assert.Equal(t, "github: list comments failed: connection reset", transport.Error())
	assert.ErrorIs(t, transport, cause)
}

func TestIssueFailure(t *testing.T) {
	cause := &RemoteError{Service: "freelo", Operation: "edit task", StatusCode: 500}
	failure := IssueFailure{IssueNumber: 7, Err: cause}

	assert.Contains(t, failure.Error(), "issue #7")

	var remote *RemoteError
	assert.True(t, errors.As(failure, &remote))
}
