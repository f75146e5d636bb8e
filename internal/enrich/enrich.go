// Package enrich fetches individual job pages and extracts a full
// description, requirement and benefit lists through a cascade of
// increasingly generic strategies.
package enrich

import (
	"context"
	"log/slog"
	"time"

	"github.com/amishk599/careercrawl/internal/adapter"
	"github.com/amishk599/careercrawl/internal/model"
)

const (
	// DetailTimeout bounds one detail page fetch.
	DetailTimeout = 15 * time.Second
	// MinUsableDescription is the length a description must exceed before
	// the cascade stops.
	MinUsableDescription = 100
	// MaxDescriptionRunes caps stored descriptions.
	MaxDescriptionRunes = 20000
	// MaxListItems caps requirements and benefits each.
	MaxListItems = 20
)

// Outcomes reported to the observer, one per Enrich call.
const (
	OutcomeCacheHit = "cache_hit"
	OutcomeFetched  = "fetched"
	OutcomeEmpty    = "empty"
	OutcomeFailed   = "failed"
)

// Detail is what a detail page yields. The zero value is a valid empty result.
type Detail struct {
	Description  string
	Requirements []string
	Benefits     []string
	PublishedAt  *time.Time
	ApplyURL     string
	Company      *model.CompanyInfo
	Source       string // cascade level that produced the description
}

// Empty reports whether nothing useful was extracted.
func (d Detail) Empty() bool {
	return d.Description == "" && len(d.Requirements) == 0 && len(d.Benefits) == 0
}

// Cache stores details by normalized URL.
type Cache interface {
	Get(ctx context.Context, key string) (Detail, bool)
	Set(ctx context.Context, key string, d Detail)
}

// Enricher runs the detail cascade for single URLs and bounded batches.
type Enricher struct {
	client        adapter.Client
	ai            model.DescriptionExtractor
	cache         Cache
	cacheTemplate string
	timeout       time.Duration
	logger        *slog.Logger
	observe       func(outcome string)
	sleep         func(ctx context.Context, d time.Duration) error
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithAI enables the last cascade level. A nil extractor disables it.
func WithAI(x model.DescriptionExtractor) Option {
	return func(e *Enricher) { e.ai = x }
}

// WithCache enables the detail cache.
func WithCache(c Cache) Option {
	return func(e *Enricher) { e.cache = c }
}

// WithCacheTemplate sets the cached-copy URL template used after a 403/429.
// An empty template disables the fallback.
func WithCacheTemplate(template string) Option {
	return func(e *Enricher) { e.cacheTemplate = template }
}

// WithTimeout overrides DetailTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Enricher) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithObserver registers a callback receiving one outcome per Enrich call.
func WithObserver(fn func(outcome string)) Option {
	return func(e *Enricher) { e.observe = fn }
}

// New creates an Enricher.
func New(client adapter.Client, logger *slog.Logger, opts ...Option) *Enricher {
	e := &Enricher{
		client:        client,
		cacheTemplate: adapter.DefaultCacheURLTemplate,
		timeout:       DetailTimeout,
		logger:        logger,
		sleep:         sleepCtx,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich fetches rawURL and runs the cascade. Failures are logged and yield
// an empty Detail.
func (e *Enricher) Enrich(ctx context.Context, rawURL string) Detail {
	key := model.NormalizeURL(rawURL)
	if e.cache != nil {
		if d, ok := e.cache.Get(ctx, key); ok && !d.Empty() {
			e.report(OutcomeCacheHit)
			return d
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := adapter.GetWithFallback(fetchCtx, e.client, rawURL, e.cacheTemplate, e.logger)
	if err != nil {
		e.logger.Warn("detail fetch failed", "url", rawURL, "error", err)
		e.report(OutcomeFailed)
		return Detail{}
	}

	d := e.Extract(ctx, rawURL, string(resp.Body))
	if d.Empty() {
		e.report(OutcomeEmpty)
		return d
	}
	if e.cache != nil {
		e.cache.Set(ctx, key, d)
	}
	e.report(OutcomeFetched)
	return d
}

func (e *Enricher) report(outcome string) {
	if e.observe != nil {
		e.observe(outcome)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
