package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/careercrawl/internal/model"
)

const (
	// ListingTimeout bounds one listing page or platform API call.
	ListingTimeout = 30 * time.Second
	// maxBodyBytes caps how much of a response we read.
	maxBodyBytes = 8 << 20
)

// DefaultCacheURLTemplate is the cached-copy source tried once after a 403/429.
const DefaultCacheURLTemplate = "https://webcache.googleusercontent.com/search?q=cache:%s"

// browserHeaders is the header set sent with every request. Several ATS
// front doors reject obvious bot user agents.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.8,*/*;q=0.7",
	"Accept-Language": "en-US,en;q=0.9",
}

// Response is a fully-read HTTP response.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client performs the HTTP calls every strategy and the detail enricher make.
// Non-2xx responses are returned as *model.HTTPError.
type Client interface {
	Get(ctx context.Context, url string) (*Response, error)
	PostJSON(ctx context.Context, url string, body any) (*Response, error)
}

// HTTPClient is the default Client backed by net/http.
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPClient wraps client. timeout is applied per call on top of any
// client-level timeout; zero means ListingTimeout.
func NewHTTPClient(client *http.Client, timeout time.Duration) *HTTPClient {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = ListingTimeout
	}
	return &HTTPClient{client: client, timeout: timeout}
}

// Get issues a GET with the browser header set.
func (c *HTTPClient) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.do(ctx, http.MethodGet, rawURL, nil)
}

// PostJSON marshals body and POSTs it as application/json.
func (c *HTTPClient) PostJSON(ctx context.Context, rawURL string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request for %s: %w", rawURL, err)
	}
	return c.do(ctx, http.MethodPost, rawURL, payload)
}

func (c *HTTPClient) do(ctx context.Context, method, rawURL string, payload []byte) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", method, rawURL, model.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w: %w", rawURL, model.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("%s %s: unexpected status %d", method, rawURL, resp.StatusCode),
		}
	}

	return &Response{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// GetWithFallback fetches rawURL and, when the site answers 403 or 429,
// retries exactly once through the cached-copy template. An empty template
// disables the fallback.
func GetWithFallback(ctx context.Context, c Client, rawURL, cacheTemplate string, logger *slog.Logger) (*Response, error) {
	resp, err := c.Get(ctx, rawURL)
	if err == nil {
		return resp, nil
	}
	if !errors.Is(err, model.ErrPlatformBlocked) || cacheTemplate == "" {
		return nil, err
	}

	cached := CachedCopyURL(cacheTemplate, rawURL)
	if logger != nil {
		logger.Info("blocked, trying cached copy", "url", rawURL, "cache_url", cached)
	}
	resp, cacheErr := c.Get(ctx, cached)
	if cacheErr != nil {
		return nil, fmt.Errorf("cached copy of %s: %w (original: %w)", rawURL, cacheErr, err)
	}
	resp.URL = rawURL
	return resp, nil
}

// CachedCopyURL fills the cache template with the escaped target URL.
func CachedCopyURL(template, rawURL string) string {
	if !strings.Contains(template, "%s") {
		return template + url.QueryEscape(rawURL)
	}
	return fmt.Sprintf(template, url.QueryEscape(rawURL))
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
