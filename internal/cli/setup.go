package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/freelosync/internal/config"
	"github.com/example/freelosync/internal/models"
	"github.com/example/freelosync/internal/wire"
)

// ErrSyncFailed is returned when a run finished but some issues failed.
var ErrSyncFailed = errors.New("sync finished with failures")

// Mode is what a trigger asks the tool to do.
type Mode string

const (
	ModeEvent     Mode = "event"
	ModeReconcile Mode = "reconcile"
)

// ModeForTrigger maps an Actions event name onto a mode.
func ModeForTrigger(eventName string) (Mode, error) {
	switch eventName {
	case string(models.EventIssues), string(models.EventIssueComment):
		return ModeEvent, nil
	case "workflow_dispatch", "schedule":
		return ModeReconcile, nil
	case "":
		return "", fmt.Errorf("%w: no event name, set %s or GITHUB_EVENT_NAME", models.ErrUnsupportedTrigger, config.KeyEventName)
	}
	return "", fmt.Errorf("%w: %q", models.ErrUnsupportedTrigger, eventName)
}

type validation int

const (
	validateNone validation = iota
	validateCredentials
	validateAll
)

// prepare resolves the configuration for cmd, validates it and hands it to
// wire. Nothing remote is touched here.
func prepare(cmd *cobra.Command, level validation) (*config.Config, error) {
	config.LoadDotenv()

	v := config.New()
	if err := config.Bind(v, cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	switch level {
	case validateCredentials:
		err = cfg.ValidateCredentials()
	case validateAll:
		err = cfg.Validate()
	}
	if err != nil {
		return nil, err
	}

	wire.Configure(cfg, cmd.ErrOrStderr())
	return cfg, nil
}

// ReportError writes err as one line. Under Actions it is also emitted as
// an error annotation.
func ReportError(w io.Writer, err error) {
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	if os.Getenv("GITHUB_ACTIONS") == "true" {
		fmt.Fprintf(w, "::error::%s\n", escapeAnnotation(msg))
		return
	}
	fmt.Fprintf(w, "Error: %s\n", msg)
}

// escapeAnnotation escapes the characters workflow commands treat specially.
func escapeAnnotation(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}
