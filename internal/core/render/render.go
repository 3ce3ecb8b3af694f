// Package render builds the HTML sent to Freelo from GitHub issue and
// comment data. Everything taken from GitHub passes through Sanitize.
package render

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/example/freelosync/internal/core/identity"
	"github.com/example/freelosync/internal/core/marker"
	"github.com/example/freelosync/internal/models"
)

const disclaimer = "(This action was performed automatically)"

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func sanitizePolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("p", "i", "b", "strong")
		p.AllowAttrs("href").OnElements("a")
		p.AllowURLSchemes("http", "https", "mailto")
		p.RequireParseableURLs(true)
		policy = p
	})
	return policy
}

// Sanitize strips everything but a, p, i, b and strong from s. Links keep
// only an http(s) or mailto href. Script and style contents are dropped.
func Sanitize(s string) string {
	return sanitizePolicy().Sanitize(s)
}

// Renderer renders task descriptions and mirrored comments.
type Renderer struct {
	identities identity.Mapping
	md         goldmark.Markdown
}

// New creates a Renderer that resolves authors through identities.
func New(identities identity.Mapping) *Renderer {
	return &Renderer{
		identities: identities,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
}

// Markdown converts a GitHub markdown body to sanitized HTML. Raw HTML in
// the source is passed to the sanitizer rather than escaped.
func (r *Renderer) Markdown(src string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		// goldmark only fails on writer errors; fall back to escaped text
		return "<p>" + html.EscapeString(src) + "</p>"
	}
	return strings.TrimSpace(Sanitize(buf.String()))
}

// TaskBody renders the description of the task that tracks issue.
func (r *Renderer) TaskBody(issue models.Issue) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<p>Created by: %s</p>\n", r.identities.RemoteMention(issue.Author))

	description := "None"
	if strings.TrimSpace(issue.Body) != "" {
		description = r.Markdown(issue.Body)
	}
	fmt.Fprintf(&b, "<p>Description:</p>\n%s\n", description)

	fmt.Fprintf(&b, "<p>GitHub issue: %s</p>\n", issueLink(issue))

	if issue.Assignee != "" {
		fmt.Fprintf(&b, "<p>Assigned to: %s</p>\n", r.identities.RemoteMention(issue.Assignee))
	}
	if issue.IsPullRequest {
		b.WriteString("<p><i>This is a pull request.</i></p>\n")
	}

	b.WriteString("<p>" + disclaimer + "</p>")
	return b.String()
}

// MirroredComment renders the Freelo comment that mirrors comment. The
// source comment token comes first so it can be found again on edit and
// delete.
func (r *Renderer) MirroredComment(comment models.Comment, issue models.Issue) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<p>%s</p>\n", marker.SourceCommentToken(comment.ID))
	fmt.Fprintf(&b, "<p>Comment by: %s</p>\n", r.identities.RemoteMention(comment.Author))

	body := "None"
	if strings.TrimSpace(comment.Body) != "" {
		body = r.Markdown(comment.Body)
	}
	b.WriteString(body + "\n")

	link := issueLink(issue)
	if comment.URL != "" {
		link = fmt.Sprintf(`<a href="%s">#%d (comment)</a>`, html.EscapeString(comment.URL), issue.Number)
	}
	fmt.Fprintf(&b, "<p>GitHub issue: %s</p>\n", link)
	b.WriteString("<p>" + disclaimer + "</p>")
	return b.String()
}

func issueLink(issue models.Issue) string {
	if issue.URL == "" {
		return fmt.Sprintf("#%d", issue.Number)
	}
	return fmt.Sprintf(`<a href="%s">#%d</a>`, html.EscapeString(issue.URL), issue.Number)
}

// Labels normalizes labels for Freelo. Names pass through unchanged, empty
// names and repeated names are dropped, and colors become "#" plus the hex
// digits or are omitted when they are not 3 or 6 hex digits.
func Labels(labels []models.Label) []models.Label {
	if len(labels) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(labels))
	out := make([]models.Label, 0, len(labels))
	for _, l := range labels {
		if l.Name == "" || seen[l.Name] {
			continue
		}
		seen[l.Name] = true
		out = append(out, models.Label{Name: l.Name, Color: NormalizeColor(l.Color)})
	}
	return out
}

// NormalizeColor returns "#" followed by the hex digits of color, or "" when
// color is not a 3 or 6 digit hex value.
func NormalizeColor(color string) string {
	hex := strings.TrimPrefix(strings.TrimSpace(color), "#")
	if len(hex) != 3 && len(hex) != 6 {
		return ""
	}
	for i := 0; i < len(hex); i++ {
		c := hex[i]
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !isHex {
			return ""
		}
	}
	return "#" + hex
}
