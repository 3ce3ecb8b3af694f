package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/example/freelosync/internal/models"
)

func TestModeForTrigger(t *testing.T) {
	tests := []struct {
		event   string
		want    Mode
		wantErr bool
	}{
		{event: "issues", want: ModeEvent},
		{event: "issue_comment", want: ModeEvent},
		{event: "workflow_dispatch", want: ModeReconcile},
		{event: "schedule", want: ModeReconcile},
		{event: "push", wantErr: true},
		{event: "pull_request", wantErr: true},
		{event: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			got, err := ModeForTrigger(tt.event)
			if tt.wantErr {
				if !errors.Is(err, models.ErrUnsupportedTrigger) {
					t.Errorf("error = %v, want ErrUnsupportedTrigger", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ModeForTrigger(%q) = %q, want %q", tt.event, got, tt.want)
			}
		})
	}
}

func TestReportError(t *testing.T) {
	err := fmt.Errorf("reconcile: %w", errors.New("100% broken\nsecond line"))

	t.Run("terminal", func(t *testing.T) {
		t.Setenv("GITHUB_ACTIONS", "")
		var buf bytes.Buffer
		ReportError(&buf, err)
		if got := buf.String(); got != "Error: reconcile: 100% broken second line\n" {
			t.Errorf("output = %q", got)
		}
	})

	t.Run("actions", func(t *testing.T) {
		t.Setenv("GITHUB_ACTIONS", "true")
		var buf bytes.Buffer
		ReportError(&buf, err)
		got := buf.String()
		if !strings.HasPrefix(got, "::error::") {
			t.Errorf("output = %q, want an error annotation", got)
		}
		if !strings.Contains(got, "100%25 broken") {
			t.Errorf("output = %q, want %% escaped", got)
		}
		if strings.Count(got, "\n") != 1 {
			t.Errorf("output = %q, want a single line", got)
		}
	})
}
