package models

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks fatal errors raised before any remote mutation:
// missing credentials, a missing or ambiguous task target, or a trigger
// the pipeline does not understand.
var ErrConfiguration = errors.New("configuration error")

var (
	ErrMissingCredentials = fmt.Errorf("%w: missing required parameter", ErrConfiguration)
	ErrMissingTarget      = fmt.Errorf("%w: either task-id or tasklist-id needs to be set", ErrConfiguration)
	ErrAmbiguousTarget    = fmt.Errorf("%w: task-id and tasklist-id are mutually exclusive", ErrConfiguration)
	ErrUnsupportedTrigger = fmt.Errorf("%w: unsupported trigger", ErrConfiguration)
	ErrUnsupportedAction  = fmt.Errorf("%w: unknown action", ErrConfiguration)
)

// IsConfigurationError reports whether err is a configuration error.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// RemoteError is a failed call against GitHub or Freelo: a transport
// failure, a timeout, or a response status >= 400.
type RemoteError struct {
	Service    string // "github" or "freelo"
	Operation  string
	StatusCode int // 0 for transport failures
	Body       string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s failed with status %d: %s", e.Service, e.Operation, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Service, e.Operation, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IssueFailure records a per-issue failure collected during reconciliation.
type IssueFailure struct {
	IssueNumber int
	Err         error
}

func (f IssueFailure) Error() string {
	return fmt.Sprintf("issue #%d: %v", f.IssueNumber, f.Err)
}

func (f IssueFailure) Unwrap() error {
	return f.Err
}
