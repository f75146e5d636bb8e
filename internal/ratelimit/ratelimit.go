package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/amishk599/careercrawl/internal/adapter"
)

// HostLimiter keeps one token bucket per host so that crawling many
// companies on the same ATS backend stays polite.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter // key: host without www.
	rps      rate.Limit
	burst    int
}

// NewHostLimiter creates a limiter allowing rps requests per second, with
// the given burst, to each host.
func NewHostLimiter(rps float64, burst int) *HostLimiter {
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

// Wait blocks until a request to host is allowed.
// Returns an error if the context is cancelled while waiting.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	if err := h.limiter(host).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", host, err)
	}
	return nil
}

func (h *HostLimiter) limiter(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(h.rps, h.burst)
		h.limiters[host] = l
	}
	return l
}

// Client is a decorator that enforces per-host rate limiting before
// delegating to the wrapped adapter.Client.
type Client struct {
	inner   adapter.Client
	limiter *HostLimiter
}

// NewClient wraps an adapter.Client. All clients for one crawl run should
// share the same limiter instance.
func NewClient(inner adapter.Client, limiter *HostLimiter) *Client {
	return &Client{inner: inner, limiter: limiter}
}

func (c *Client) Get(ctx context.Context, rawURL string) (*adapter.Response, error) {
	if err := c.limiter.Wait(ctx, hostOf(rawURL)); err != nil {
		return nil, err
	}
	return c.inner.Get(ctx, rawURL)
}

func (c *Client) PostJSON(ctx context.Context, rawURL string, body any) (*adapter.Response, error) {
	if err := c.limiter.Wait(ctx, hostOf(rawURL)); err != nil {
		return nil, err
	}
	return c.inner.PostJSON(ctx, rawURL, body)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
