// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paperfuse/pkg/types"
)

// DefaultUserAgent is sent when the configuration leaves it empty.
const DefaultUserAgent = "paperfuse/0.1 (+https://github.com/pdiddy/paperfuse)"

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Client is an HTTP client owned by one source. It waits on its rate
// limiter before every request, retries retryable responses, and counts
// the retries it performed.
type Client struct {
	HTTP       *http.Client
	Limiter    *rate.Limiter
	MaxRetries int
	BaseDelay  time.Duration
	UserAgent  string

	retries atomic.Int64
}

// NewClient builds a Client from cfg. A non-positive RequestsPerMinute
// disables rate limiting.
func NewClient(cfg types.HTTPConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	c := &Client{
		HTTP:       &http.Client{Timeout: timeout},
		MaxRetries: cfg.RetryAttempts,
		BaseDelay:  cfg.RetryDelay,
		UserAgent:  ua,
	}
	if cfg.RequestsPerMinute > 0 {
		c.Limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return c
}

// Retries returns the number of retries performed so far.
func (c *Client) Retries() int64 { return c.retries.Load() }

// Do sends req after waiting on the limiter, retrying per DoWithRetry.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	base := c.BaseDelay
	if base <= 0 {
		base = RetryBaseDelay
	}
	return doWithRetry(ctx, c.HTTP, req, c.MaxRetries, base, func() { c.retries.Add(1) })
}

// GetJSON issues a GET to url with the given headers and decodes a 2xx
// JSON body into v. Other statuses return a *StatusError.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	for k, vals := range header {
		for _, val := range vals {
			req.Header.Add(k, val)
		}
	}
	req.Header.Set("Accept", "application/json")
	return c.DoJSON(ctx, req, v)
}

// DoJSON sends req and decodes a 2xx JSON body into v.
func (c *Client) DoJSON(ctx context.Context, req *http.Request, v any) error {
	body, err := c.Fetch(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// Fetch sends req and returns the body of a 2xx response.
func (c *Client) Fetch(ctx context.Context, req *http.Request) ([]byte, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncateBody(body)}
	}
	return body, nil
}

// DecodeError wraps a malformed response body.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decoding response: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

func truncateBody(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
