// Package github implements the IssueTracker port over the GitHub REST API
// and decodes Actions event payloads into domain events.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v72/github"

	"github.com/example/freelosync/internal/models"
	"github.com/example/freelosync/internal/ports/secondary"
)

const pageSize = 100

// Config holds configuration for creating a Client.
type Config struct {
	// Token is the Actions GITHUB_TOKEN or a personal access token.
	Token string

	// Repository is "owner/name".
	Repository string

	// BaseURL is the REST API root. Defaults to https://api.github.com/.
	// GitHub Enterprise roots end in /api/v3/.
	BaseURL string

	// HTTPClient is used for all requests. Defaults to a client with no
	// timeout; callers are expected to set one.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client implements secondary.IssueTracker for a single repository.
type Client struct {
	api    *gh.Client
	owner  string
	repo   string
	logger *slog.Logger
}

var _ secondary.IssueTracker = (*Client)(nil)

// NewClient creates a Client from config.
func NewClient(config Config) (*Client, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("%w: github-token", models.ErrMissingCredentials)
	}
	owner, repo, err := SplitRepository(config.Repository)
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := gh.NewClient(config.HTTPClient).WithAuthToken(config.Token)
	if config.BaseURL != "" {
		base := config.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid github-api-url %q: %v", models.ErrConfiguration, config.BaseURL, err)
		}
		api.BaseURL = u
	}

	return &Client{
		api:    api,
		owner:  owner,
		repo:   repo,
		logger: logger,
	}, nil
}

// SplitRepository splits "owner/name".
func SplitRepository(full string) (owner, repo string, err error) {
	owner, repo, found := strings.Cut(strings.TrimSpace(full), "/")
	if !found || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("%w: repository must be owner/name, got %q", models.ErrConfiguration, full)
	}
	return owner, repo, nil
}

// ListComments returns every comment on an issue, following pagination.
func (c *Client) ListComments(ctx context.Context, issueNumber int) ([]models.Comment, error) {
	opts := &gh.IssueListCommentsOptions{ListOptions: gh.ListOptions{PerPage: pageSize}}

	var out []models.Comment
	for {
		page, resp, err := c.api.Issues.ListComments(ctx, c.owner, c.repo, issueNumber, opts)
		if err != nil {
			return nil, c.remoteError("list comments", err)
		}
		for _, comment := range page {
			out = append(out, convertComment(issueNumber, comment))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// CreateComment posts a comment on an issue.
func (c *Client) CreateComment(ctx context.Context, issueNumber int, body string) (*models.Comment, error) {
	created, _, err := c.api.Issues.CreateComment(ctx, c.owner, c.repo, issueNumber, &gh.IssueComment{Body: &body})
	if err != nil {
		return nil, c.remoteError("create comment", err)
	}
	comment := convertComment(issueNumber, created)
	return &comment, nil
}

// ListOpenIssues returns every open issue, pull requests included.
func (c *Client) ListOpenIssues(ctx context.Context) ([]models.Issue, error) {
	opts := &gh.IssueListByRepoOptions{
		State:       "open",
		Sort:        "created",
		Direction:   "asc",
		ListOptions: gh.ListOptions{PerPage: pageSize},
	}

	var out []models.Issue
	for {
		page, resp, err := c.api.Issues.ListByRepo(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, c.remoteError("list issues", err)
		}
		for _, issue := range page {
			out = append(out, ConvertIssue(issue))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.ListOptions.Page = resp.NextPage
	}
	return out, nil
}

// CurrentLogin returns the login behind the token. Installation tokens such
// as the Actions GITHUB_TOKEN cannot read /user; in that case the error is
// returned and the caller decides whether it matters.
func (c *Client) CurrentLogin(ctx context.Context) (string, error) {
	user, _, err := c.api.Users.Get(ctx, "")
	if err != nil {
		return "", c.remoteError("get authenticated user", err)
	}
	return user.GetLogin(), nil
}

func (c *Client) remoteError(operation string, err error) error {
	remote := &models.RemoteError{Service: "github", Operation: operation, Err: err}

	var errResp *gh.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		remote.StatusCode = errResp.Response.StatusCode
		remote.Body = errResp.Message
	}
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		remote.StatusCode = rateErr.Response.StatusCode
		remote.Body = rateErr.Message
	}

	c.logger.Error("github request failed",
		"operation", operation,
		"status", remote.StatusCode,
		"body", remote.Body,
		"error", err,
	)
	return remote
}

// ConvertIssue maps a go-github issue onto the domain type.
func ConvertIssue(issue *gh.Issue) models.Issue {
	labels := make([]models.Label, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, models.Label{Name: l.GetName(), Color: l.GetColor()})
	}

	state := models.IssueOpen
	if issue.GetState() == string(models.IssueClosed) {
		state = models.IssueClosed
	}

	return models.Issue{
		Number:        issue.GetNumber(),
		Title:         issue.GetTitle(),
		Body:          issue.GetBody(),
		Author:        issue.GetUser().GetLogin(),
		Assignee:      issue.GetAssignee().GetLogin(),
		Labels:        labels,
		State:         state,
		IsPullRequest: issue.IsPullRequest(),
		URL:           issue.GetHTMLURL(),
	}
}

func convertComment(issueNumber int, comment *gh.IssueComment) models.Comment {
	return models.Comment{
		ID:          comment.GetID(),
		IssueNumber: issueNumber,
		Author:      comment.GetUser().GetLogin(),
		Body:        comment.GetBody(),
		URL:         comment.GetHTMLURL(),
	}
}
