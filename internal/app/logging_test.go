package app

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/example/freelosync/internal/ctxutil"
	"github.com/example/freelosync/internal/models"
	"github.com/example/freelosync/internal/ports/primary"
)

func TestLogLinesCarryRunIDOnce(t *testing.T) {
	env := newTestEnv(nil)
	var buf bytes.Buffer
	env.service.logger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	env.issues.openIssues = []models.Issue{sampleIssue(1)}
	ctx := ctxutil.WithRunID(context.Background(), "run-1")

	if _, err := env.service.HandleEvent(ctx, issueEvent(models.ActionOpened, sampleIssue(7))); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if _, err := env.service.Reconcile(ctx, primary.ReconcileRequest{CreateUnknown: true}); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatal("no log output")
	}
	for _, line := range lines {
		if n := strings.Count(line, `"run_id"`); n != 1 {
			t.Errorf("run_id appears %d times in %s", n, line)
		}
	}
}
