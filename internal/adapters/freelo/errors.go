package freelo

import "fmt"

// APIError represents a Freelo response with status >= 400.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (err *APIError) Error() string {
	return fmt.Sprintf("freelo: %s %s: HTTP %d: %s", err.Method, err.Path, err.StatusCode, err.Body)
}
