// Package client is the Go SDK for the activity signup HTTP API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/celerix-dev/mergington-activities/internal/registry"
)

// Errors returned by the client match the registry's, so callers can use
// errors.Is against either package.
var (
	ErrActivityNotFound = registry.ErrActivityNotFound
	ErrAlreadySignedUp  = registry.ErrAlreadySignedUp
	ErrNotSignedUp      = registry.ErrNotSignedUp
)

type (
	Activity = registry.Activity
	Catalog  = registry.Catalog
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("activities api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("activities api: status %d: %s", e.StatusCode, e.Detail)
}

// Unwrap maps the response onto the registry sentinel errors.
func (e *APIError) Unwrap() error {
	detail := strings.ToLower(e.Detail)
	switch {
	case e.StatusCode == http.StatusNotFound && strings.Contains(detail, "not found"):
		return ErrActivityNotFound
	case e.StatusCode == http.StatusBadRequest && strings.Contains(detail, "already signed up"):
		return ErrAlreadySignedUp
	case e.StatusCode == http.StatusBadRequest && strings.Contains(detail, "not signed up"):
		return ErrNotSignedUp
	}
	return nil
}

// Client talks to a running activities daemon.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	attempts   int
	backoff    time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry sets how many times List is attempted and the base backoff.
// Signup and Unregister are never retried.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		c.backoff = backoff
	}
}

// New returns a client for the daemon at baseURL, e.g. http://localhost:8000.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		attempts:   3,
		backoff:    200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List fetches the full catalog.
func (c *Client) List(ctx context.Context) (Catalog, error) {
	var (
		catalog Catalog
		err     error
	)
	for i := 0; i < c.attempts; i++ {
		err = c.do(ctx, http.MethodGet, c.endpoint("activities"), &catalog)
		if err == nil || !retryable(err) {
			return catalog, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * c.backoff):
		}
	}
	return nil, fmt.Errorf("failed after %d attempts: %w", c.attempts, err)
}

// Signup registers email for activity and returns the server's message.
func (c *Client) Signup(ctx context.Context, activity, email string) (string, error) {
	return c.enroll(ctx, http.MethodPost, activity, "signup", email)
}

// Unregister removes email from activity and returns the server's message.
func (c *Client) Unregister(ctx context.Context, activity, email string) (string, error) {
	return c.enroll(ctx, http.MethodDelete, activity, "unregister", email)
}

func (c *Client) enroll(ctx context.Context, method, activity, action, email string) (string, error) {
	u := c.endpoint("activities", activity, action)
	q := u.Query()
	q.Set("email", email)
	u.RawQuery = q.Encode()

	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, method, u, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// endpoint joins escaped path segments onto the base URL.
func (c *Client) endpoint(segments ...string) *url.URL {
	u := *c.baseURL
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.Join(segments, "/")
	u.RawPath = strings.TrimRight(c.baseURL.EscapedPath(), "/") + "/" + strings.Join(escaped, "/")
	return &u
}

func (c *Client) do(ctx context.Context, method string, u *url.URL, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Detail = payload.Detail
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// retryable reports transport failures and 5xx responses.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
