// Package marker encodes and decodes the markers that link GitHub issues to
// Freelo tasks without any local storage.
//
// Two markers exist:
//   - the task URL inside the tracking comment posted on the issue
//     ("https://app.freelo.io/task/123"), and
//   - the source comment token inside a mirrored Freelo comment
//     ("GitHub comment ID: <b>456</b>"), whose ">456<" part carries the id.
//
// Both are decoded by a small scanner: a fixed prefix followed by digits.
package marker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/example/freelosync/internal/models"
)

// DefaultAppURL is the Freelo web app origin used in task links.
const DefaultAppURL = "https://app.freelo.io"

// ActionsBotLogin authors comments posted with a workflow's installation
// token.
const ActionsBotLogin = "github-actions[bot]"

// sourceCommentPrefix precedes the originating GitHub comment id in a
// mirrored Freelo comment.
const sourceCommentPrefix = "GitHub comment ID:"

// Codec knows the Freelo host and the bot login that owns tracking comments.
type Codec struct {
	taskPrefix string
	botLogin   string
}

// NewCodec creates a Codec for the given Freelo app URL and bot login.
// An empty appURL falls back to DefaultAppURL.
func NewCodec(appURL, botLogin string) Codec {
	if appURL == "" {
		appURL = DefaultAppURL
	}
	return Codec{
		taskPrefix: strings.TrimRight(appURL, "/") + "/task/",
		botLogin:   botLogin,
	}
}

// TaskURL returns the canonical Freelo URL for a task.
func (c Codec) TaskURL(taskID int64) string {
	return c.taskPrefix + strconv.FormatInt(taskID, 10)
}

// ExtractTaskID returns the id from the first "<app>/task/<digits>" link in
// body. Occurrences of the prefix that are not followed by digits are skipped.
func (c Codec) ExtractTaskID(body string) (int64, bool) {
	rest := body
	for {
		idx := strings.Index(rest, c.taskPrefix)
		if idx < 0 {
			return 0, false
		}
		rest = rest[idx+len(c.taskPrefix):]
		if id, ok := leadingDigits(rest); ok {
			return id, true
		}
	}
}

// IsTrackingComment reports whether comment was posted by the bot and
// carries a task link. Both conditions are required: a human pasting a task
// URL must not be mistaken for the link.
func (c Codec) IsTrackingComment(comment models.Comment) bool {
	if c.botLogin == "" || !strings.EqualFold(comment.Author, c.botLogin) {
		return false
	}
	_, ok := c.ExtractTaskID(comment.Body)
	return ok
}

// TrackingCommentBody renders the issue comment that records the link.
func (c Codec) TrackingCommentBody(taskID int64) string {
	return fmt.Sprintf(
		`Freelo task assigned: <a href="%s">%d</a><br>Please do not edit or delete this comment as it is used to prevent duplication of tasks.`,
		c.TaskURL(taskID), taskID,
	)
}

// SourceCommentToken renders the marker embedded in a mirrored comment.
func SourceCommentToken(commentID int64) string {
	return fmt.Sprintf("%s <b>%d</b>", sourceCommentPrefix, commentID)
}

// ExtractSourceCommentID returns the GitHub comment id embedded in a mirrored
// Freelo comment. The token must open the comment, ignoring leading tags and
// whitespace, so the same text quoted further down is not a match. Tags
// between the prefix and the digits are skipped so the token survives Freelo
// rewriting <b> into <strong>.
func ExtractSourceCommentID(body string) (int64, bool) {
	rest, ok := strings.CutPrefix(skipTagsAndSpace(body), sourceCommentPrefix)
	if !ok {
		return 0, false
	}
	rest = skipTagsAndSpace(rest)

	id, ok := leadingDigits(rest)
	if !ok || !terminates(rest, digitRun(rest)) {
		return 0, false
	}
	return id, true
}

// leadingDigits parses the run of ASCII digits at the start of s.
func leadingDigits(s string) (int64, bool) {
	n := digitRun(s)
	if n == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(s[:n], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func digitRun(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}

// terminates reports whether the digit run of length n ends the token:
// end of input, a tag, or whitespace.
func terminates(s string, n int) bool {
	if n >= len(s) {
		return true
	}
	switch s[n] {
	case '<', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func skipTagsAndSpace(s string) string {
	for {
		s = strings.TrimLeft(s, " \t\r\n")
		if !strings.HasPrefix(s, "<") {
			return s
		}
		end := strings.IndexByte(s, '>')
		if end < 0 {
			return s
		}
		s = s[end+1:]
	}
}
