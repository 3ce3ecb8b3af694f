package models

import (
	"encoding/json"
	"fmt"
)

// Issue is a read-only view of a GitHub issue (or pull request) taken from
// an event payload or a listing call.
type Issue struct {
	Number        int
	Title         string
	Body          string
	Author        string // login
	Assignee      string // login, empty when unassigned
	Labels        []Label
	State         IssueState
	IsPullRequest bool
	URL           string // canonical html_url
}

// IssueState is the open/closed state of an issue.
type IssueState string

// Issue state constants
const (
	IssueOpen   IssueState = "open"
	IssueClosed IssueState = "closed"
)

// Comment is a GitHub issue comment.
type Comment struct {
	ID          int64
	IssueNumber int
	Author      string // login
	Body        string
	URL         string
}

// Label is an issue label. Color is optional and may carry a leading '#'.
// Names are unique within one issue.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// UnmarshalJSON accepts both the object form {"name": "bug", "color": "f00"}
// and the bare string form "bug".
func (l *Label) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*l = Label{Name: name}
		return nil
	}

	var obj struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("label must be a string or an object: %w", err)
	}
	*l = Label{Name: obj.Name, Color: obj.Color}
	return nil
}
