package retry

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Defaults: resolvers are best-effort collaborators, so a single
// bounded retry is the ceiling, not a starting point.
const (
	defaultMaxRetries        = 1
	defaultInitialRetryDelay = 500 * time.Millisecond
	defaultMaxRetryDelay     = 2 * time.Second
	defaultDelayMultiple     = 2.0
)

// Client is an HTTP client with bounded retry on transient failures.
type Client struct {
	maxRetries        int
	initialRetryDelay time.Duration
	maxRetryDelay     time.Duration
	delayMultiple     float64
	httpClient        *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithMaxRetries sets the maximum number of retry attempts
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithInitialRetryDelay sets the delay before the first retry
func WithInitialRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.initialRetryDelay = d
		}
	}
}

// WithMaxRetryDelay caps the delay between retries
func WithMaxRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.maxRetryDelay = d
		}
	}
}

// WithHTTPClient sets the underlying http.Client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient creates a retry-enabled HTTP client
func NewClient(opts ...Option) *Client {
	c := &Client{
		maxRetries:        defaultMaxRetries,
		initialRetryDelay: defaultInitialRetryDelay,
		maxRetryDelay:     defaultMaxRetryDelay,
		delayMultiple:     defaultDelayMultiple,
		httpClient:        http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryable reports whether the attempt should be retried: network
// errors, 5xx responses and 429s. A 4xx is a final answer.
func retryable(err error, resp *http.Response) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
}

// Do executes the request, retrying transient failures with
// exponential backoff until the retry budget is spent.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	var resp *http.Response
	delay := c.initialRetryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				if lastErr != nil {
					return nil, fmt.Errorf("context cancelled after %d attempts: %w", attempt, lastErr)
				}
				return nil, ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * c.delayMultiple)
				if delay > c.maxRetryDelay {
					delay = c.maxRetryDelay
				}
			}
		}

		// Clone the request for retry (the body may already be consumed)
		resp, lastErr = c.httpClient.Do(req.Clone(ctx))

		if !retryable(lastErr, resp) {
			return resp, lastErr
		}

		// Only drop the response when another attempt follows; the
		// final response goes back to the caller intact.
		if attempt < c.maxRetries && resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("request failed after %d retries: %w", c.maxRetries, lastErr)
	}
	return resp, lastErr
}
