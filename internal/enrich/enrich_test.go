package enrich

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/careercrawl/internal/adapter"
	"github.com/amishk599/careercrawl/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClient serves canned pages by exact URL and tracks concurrency.
type fakeClient struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
	delay time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeClient() *fakeClient {
	return &fakeClient{pages: map[string]string{}, errs: map[string]error{}}
}

func (c *fakeClient) Get(ctx context.Context, url string) (*adapter.Response, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		m := c.maxInFlight.Load()
		if n <= m || c.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	c.mu.Lock()
	c.calls = append(c.calls, url)
	body, ok := c.pages[url]
	err := c.errs[url]
	c.mu.Unlock()

	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &model.HTTPError{StatusCode: 404}
	}
	return &adapter.Response{URL: url, StatusCode: 200, Body: []byte(body)}, nil
}

func (c *fakeClient) PostJSON(ctx context.Context, url string, _ any) (*adapter.Response, error) {
	return c.Get(ctx, url)
}

func (c *fakeClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]Detail
}

func (c *mapCache) Get(_ context.Context, key string) (Detail, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.m[key]
	return d, ok
}

func (c *mapCache) Set(_ context.Context, key string, d Detail) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = d
}

func longText(prefix string) string {
	return prefix + " " + strings.Repeat("You will design, build and operate reliable services. ", 4)
}

func detailPage(desc string) string {
	return `<html><body><nav>Home Jobs About</nav><main><h1>Data Engineer</h1><p>` + desc + `</p></main></body></html>`
}

func TestEnrich_FetchesAndCaches(t *testing.T) {
	client := newFakeClient()
	client.pages["https://acme.com/jobs/1"] = detailPage(longText("Join the data team."))
	cache := &mapCache{m: map[string]Detail{}}

	var outcomes []string
	e := New(client, discardLogger(), WithCache(cache), WithObserver(func(o string) { outcomes = append(outcomes, o) }))

	d := e.Enrich(context.Background(), "https://acme.com/jobs/1")
	assert.Contains(t, d.Description, "Join the data team.")
	assert.Equal(t, SourceGeneric, d.Source)

	again := e.Enrich(context.Background(), "https://www.acme.com/jobs/1/")
	assert.Equal(t, d.Description, again.Description)
	assert.Equal(t, 1, client.callCount(), "second call should be served from cache")
	assert.Equal(t, []string{OutcomeFetched, OutcomeCacheHit}, outcomes)
}

func TestEnrich_FailureReturnsEmpty(t *testing.T) {
	client := newFakeClient()
	var outcomes []string
	e := New(client, discardLogger(), WithObserver(func(o string) { outcomes = append(outcomes, o) }))

	d := e.Enrich(context.Background(), "https://acme.com/jobs/missing")
	assert.True(t, d.Empty())
	assert.Equal(t, []string{OutcomeFailed}, outcomes)
}

func TestEnrich_BlockedUsesCachedCopy(t *testing.T) {
	const jobURL = "https://acme.com/jobs/42"
	client := newFakeClient()
	client.errs[jobURL] = &model.HTTPError{StatusCode: 403}
	client.pages[adapter.CachedCopyURL(adapter.DefaultCacheURLTemplate, jobURL)] = detailPage(longText("Cached copy description."))

	e := New(client, discardLogger())
	d := e.Enrich(context.Background(), jobURL)

	require.NotEmpty(t, d.Description)
	assert.Contains(t, d.Description, "Cached copy description.")
	assert.Equal(t, 2, client.callCount())
}

func TestEnrich_BlockedWithoutTemplateGivesUp(t *testing.T) {
	const jobURL = "https://acme.com/jobs/42"
	client := newFakeClient()
	client.errs[jobURL] = &model.HTTPError{StatusCode: 403}

	e := New(client, discardLogger(), WithCacheTemplate(""))
	d := e.Enrich(context.Background(), jobURL)

	assert.True(t, d.Empty())
	assert.Equal(t, 1, client.callCount())
}

func TestEnrichAll_ConcurrencyBound(t *testing.T) {
	client := newFakeClient()
	client.delay = 20 * time.Millisecond
	var jobs []*model.CandidateJob
	for i := 0; i < 10; i++ {
		url := fmt.Sprintf("https://acme.com/jobs/%d", i)
		client.pages[url] = detailPage(longText(fmt.Sprintf("Role number %d.", i)))
		jobs = append(jobs, &model.CandidateJob{Title: "Engineer", URL: url})
	}

	e := New(client, discardLogger())
	var pauses atomic.Int32
	e.sleep = func(context.Context, time.Duration) error {
		pauses.Add(1)
		return nil
	}

	stats := e.EnrichAll(context.Background(), jobs, BatchOptions{Concurrency: 3})

	assert.LessOrEqual(t, client.maxInFlight.Load(), int32(3))
	assert.Equal(t, 10, stats.Attempted)
	assert.Equal(t, 10, stats.Enriched)
	assert.Equal(t, int32(3), pauses.Load(), "pause between each of 4 batches")
	for i, j := range jobs {
		assert.Contains(t, j.Description, fmt.Sprintf("Role number %d.", i))
	}
}

func TestEnrichAll_SkipsDescribedAndCapsFetches(t *testing.T) {
	client := newFakeClient()
	described := &model.CandidateJob{Title: "A", URL: "https://acme.com/jobs/a", Description: longText("Already here.")}
	var jobs = []*model.CandidateJob{described}
	for i := 0; i < 5; i++ {
		url := fmt.Sprintf("https://acme.com/jobs/%d", i)
		client.pages[url] = detailPage(longText("Fetched."))
		jobs = append(jobs, &model.CandidateJob{Title: "B", URL: url, Description: "short"})
	}

	e := New(client, discardLogger())
	e.sleep = func(context.Context, time.Duration) error { return nil }

	stats := e.EnrichAll(context.Background(), jobs, BatchOptions{Concurrency: 2, MaxDetailFetches: 3})

	assert.Equal(t, 3, stats.Attempted)
	assert.Equal(t, 3, client.callCount())
	assert.Contains(t, described.Description, "Already here.")
	assert.Equal(t, "short", jobs[5].Description)
}

func TestMerge_KeepsLongerDescription(t *testing.T) {
	published := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	job := &model.CandidateJob{Description: longText("Listing text that is long.") + " extra extra extra", Requirements: []string{"Go"}}

	changed := merge(job, Detail{
		Description:  "shorter",
		Requirements: []string{"Rust"},
		Benefits:     []string{"Health"},
		PublishedAt:  &published,
	})

	assert.True(t, changed)
	assert.Contains(t, job.Description, "Listing text")
	assert.Equal(t, []string{"Go"}, job.Requirements)
	assert.Equal(t, []string{"Health"}, job.Benefits)
	require.NotNil(t, job.PublishedAt)
	assert.True(t, job.PublishedAt.Equal(published))
}

func TestJitter_WithinBounds(t *testing.T) {
	for i := 0; i < 50; i++ {
		d := jitter(time.Second, 3*time.Second)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.Less(t, d, 3*time.Second)
	}
	assert.Equal(t, time.Second, jitter(time.Second, time.Second))
}
