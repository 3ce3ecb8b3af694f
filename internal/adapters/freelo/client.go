// Package freelo implements the TaskTracker port over the Freelo REST API.
package freelo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/example/freelosync/internal/models"
	"github.com/example/freelosync/internal/ports/secondary"
)

// DefaultBaseURL is the public Freelo API root.
const DefaultBaseURL = "https://api.freelo.io/v1"

// DefaultUserAgent identifies this client to Freelo.
const DefaultUserAgent = "freelo-sync"

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4096

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Email and APIKey are the basic auth credentials.
	Email  string
	APIKey string

	// UserAgent is sent on every request. Defaults to DefaultUserAgent.
	UserAgent string

	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration

	// RequestsPerSecond limits the request rate. Zero disables limiting.
	RequestsPerSecond float64

	// HTTPClient is used for all requests. Timeout is applied to a copy.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client implements secondary.TaskTracker.
type Client struct {
	baseURL    string
	email      string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

var _ secondary.TaskTracker = (*Client)(nil)

// NewClient creates a Client from config.
func NewClient(config Config) (*Client, error) {
	if config.Email == "" || config.APIKey == "" {
		return nil, fmt.Errorf("%w: email and api-key", models.ErrMissingCredentials)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	httpClient := &http.Client{}
	if config.HTTPClient != nil {
		copied := *config.HTTPClient
		httpClient = &copied
	}
	if config.Timeout > 0 {
		httpClient.Timeout = config.Timeout
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		email:      config.Email,
		apiKey:     config.APIKey,
		userAgent:  userAgent,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
	}, nil
}

// do executes an authenticated request and returns the response body.
// Responses with status >= 400 become *APIError.
func (c *Client) do(ctx context.Context, method, path string, requestBody any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("freelo: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("freelo: creating request: %w", err)
	}
	req.SetBasicAuth(c.email, c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("freelo: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("freelo: reading response body: %w", err)
	}

	c.logger.Debug("freelo request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode >= 400 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// call runs a request for a named operation and decodes the response into
// result when it is non-nil. Failures are logged with the response body and
// returned as *models.RemoteError.
func (c *Client) call(ctx context.Context, operation, method, path string, requestBody, result any) error {
	body, err := c.do(ctx, method, path, requestBody)
	if err == nil && result != nil && len(body) > 0 {
		if decodeErr := json.Unmarshal(body, result); decodeErr != nil {
			err = fmt.Errorf("freelo: decoding %s response: %w", operation, decodeErr)
		}
	}
	if err == nil {
		return nil
	}

	remote := &models.RemoteError{Service: "freelo", Operation: operation, Err: err}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		remote.StatusCode = apiErr.StatusCode
		remote.Body = apiErr.Body
	}
	c.logger.Error("freelo request failed",
		"operation", operation,
		"method", method,
		"path", path,
		"status", remote.StatusCode,
		"body", remote.Body,
		"error", err,
	)
	return remote
}

func (c *Client) get(ctx context.Context, operation, path string, result any) error {
	return c.call(ctx, operation, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, operation, path string, requestBody, result any) error {
	return c.call(ctx, operation, http.MethodPost, path, requestBody, result)
}

func (c *Client) delete(ctx context.Context, operation, path string) error {
	return c.call(ctx, operation, http.MethodDelete, path, nil, nil)
}
