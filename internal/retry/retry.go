package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/careercrawl/internal/adapter"
	"github.com/amishk599/careercrawl/internal/model"
)

// maxRetryAfter caps how long a Retry-After header can make us sleep.
const maxRetryAfter = 30 * time.Second

// Client is a decorator that retries transient failures with exponential
// backoff and jitter before giving up on the wrapped adapter.Client.
type Client struct {
	inner      adapter.Client
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// New wraps an adapter.Client with retry logic.
// maxRetries is the number of additional attempts after the first failure (default: 2).
// baseDelay is the delay before the first retry (default: 5s), doubled on each subsequent retry.
func New(inner adapter.Client, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Client {
	return &Client{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Get retries GET requests on transient errors.
func (c *Client) Get(ctx context.Context, url string) (*adapter.Response, error) {
	return c.do(ctx, url, func() (*adapter.Response, error) { return c.inner.Get(ctx, url) })
}

// PostJSON retries POST requests on transient errors. Every ATS endpoint we
// POST to is a read-only search, so replaying is safe.
func (c *Client) PostJSON(ctx context.Context, url string, body any) (*adapter.Response, error) {
	return c.do(ctx, url, func() (*adapter.Response, error) { return c.inner.PostJSON(ctx, url, body) })
}

func (c *Client) do(ctx context.Context, url string, call func() (*adapter.Response, error)) (*adapter.Response, error) {
	resp, err := call()
	if err == nil {
		return resp, nil
	}

	if !isRetryable(err) {
		return nil, err
	}

	var lastErr error = err
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		delay := c.backoffDelay(attempt, lastErr)

		c.logger.Warn("retrying after transient error",
			"url", url,
			"attempt", attempt,
			"max_retries", c.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		resp, err = call()
		if err == nil {
			return resp, nil
		}

		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func (c *Client) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return min(httpErr.RetryAfter, maxRetryAfter)
	}

	// Exponential: baseDelay * 2^(attempt-1)
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	// Apply ±30% jitter
	jitter := float64(delay) * 0.3
	delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)

	return delay
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Cancellation: never retry. Per-call deadlines are handled by the
	// context check in the retry loop.
	if errors.Is(err, context.Canceled) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		// 429 Too Many Requests: retryable.
		if httpErr.StatusCode == 429 {
			return true
		}
		// 5xx: retryable.
		if httpErr.StatusCode >= 500 {
			return true
		}
		// 4xx (not 429): not retryable. 403 goes to the cached-copy fallback.
		return false
	}

	if errors.Is(err, model.ErrParse) {
		return false
	}

	// Non-HTTP errors (network, DNS, per-call timeout): retryable.
	return true
}
