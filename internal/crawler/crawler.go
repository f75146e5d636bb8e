// Package crawler runs the per-company pipeline: list, enrich, normalize,
// reconcile. Companies run concurrently under a limit and each one is
// bounded by a hard timeout.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/careercrawl/internal/adapter"
	"github.com/amishk599/careercrawl/internal/enrich"
	"github.com/amishk599/careercrawl/internal/model"
	"github.com/amishk599/careercrawl/internal/normalize"
	"github.com/amishk599/careercrawl/internal/reconcile"
)

// Defaults for RunOptions and the crawler.
const (
	DefaultCompanyTimeout     = 180 * time.Second
	DefaultCompanyConcurrency = 3
	DefaultDetailConcurrency  = 3
)

// Company result statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusTimeout = "timeout"
)

// ErrCompanyTimeout marks a company abandoned after the hard timeout.
var ErrCompanyTimeout = errors.New("company crawl timed out")

// Lister extracts candidate jobs from a careers page.
type Lister interface {
	Extract(ctx context.Context, target model.CrawlTarget) adapter.Result
}

// DetailFetcher fills in descriptions from detail pages.
type DetailFetcher interface {
	EnrichAll(ctx context.Context, jobs []*model.CandidateJob, opts enrich.BatchOptions) enrich.BatchStats
}

// Reconciler plans and applies store writes for one company.
type Reconciler interface {
	Reconcile(ctx context.Context, companyID, companyName string, fresh []model.CandidateJob) (reconcile.Plan, error)
	Apply(ctx context.Context, plan reconcile.Plan) error
}

// RunOptions selects and shapes one run.
type RunOptions struct {
	CompanyID          string // only this company when set
	Limit              int    // at most this many companies when > 0
	Concurrency        int    // detail fetches per enrichment batch
	CompanyConcurrency int    // companies in flight
	FetchDetails       bool
	MaxDetailFetches   int
	PlanOnly           bool // compute plans without writing or notifying
}

// CompanyResult is the outcome of one company.
type CompanyResult struct {
	CompanyID   string
	CompanyName string
	Status      string
	Platform    model.PlatformKind
	Extracted   int
	Enriched    int
	Kept        int
	Inserted    int
	Updated     int
	Migrated    int
	Pending     int
	Deleted     int
	Duration    time.Duration
	Plan        reconcile.Plan
	Err         error
}

// Summary aggregates a run.
type Summary struct {
	Processed        int
	Failed           int
	UpdatedCompanies int
	NewJobsFound     int
	Results          []CompanyResult
}

// Crawler composes the pipeline stages.
type Crawler struct {
	lister     Lister
	details    DetailFetcher
	normalizer *normalize.Normalizer
	reconciler Reconciler
	notifier   model.Notifier
	logger     *slog.Logger

	companyTimeout time.Duration
	minDelay       time.Duration
	maxDelay       time.Duration
	observe        func(status string, took time.Duration)
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithCompanyTimeout overrides DefaultCompanyTimeout.
func WithCompanyTimeout(d time.Duration) Option {
	return func(c *Crawler) { c.companyTimeout = d }
}

// WithBatchDelay sets the randomized pause between enrichment batches.
func WithBatchDelay(minDelay, maxDelay time.Duration) Option {
	return func(c *Crawler) { c.minDelay, c.maxDelay = minDelay, maxDelay }
}

// WithNotifier reports newly inserted jobs after each applied plan.
func WithNotifier(n model.Notifier) Option {
	return func(c *Crawler) { c.notifier = n }
}

// WithObserver is called once per finished company.
func WithObserver(fn func(status string, took time.Duration)) Option {
	return func(c *Crawler) { c.observe = fn }
}

// New creates a Crawler. details may be nil, which disables enrichment.
func New(lister Lister, details DetailFetcher, normalizer *normalize.Normalizer, reconciler Reconciler, logger *slog.Logger, opts ...Option) *Crawler {
	defaults := enrich.DefaultBatchOptions()
	c := &Crawler{
		lister:         lister,
		details:        details,
		normalizer:     normalizer,
		reconciler:     reconciler,
		logger:         logger,
		companyTimeout: DefaultCompanyTimeout,
		minDelay:       defaults.MinDelay,
		maxDelay:       defaults.MaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run crawls the selected targets and always returns a summary; a failing
// company is recorded in its result and the others continue.
func (c *Crawler) Run(ctx context.Context, targets []model.CrawlTarget, opts RunOptions) Summary {
	targets = selectTargets(targets, opts)
	limit := opts.CompanyConcurrency
	if limit <= 0 {
		limit = DefaultCompanyConcurrency
	}

	results := make([]CompanyResult, len(targets))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, target := range targets {
		g.Go(func() error {
			results[i] = c.CrawlCompany(ctx, target, opts)
			return nil
		})
	}
	g.Wait()

	summary := Summary{Processed: len(results), Results: results}
	for _, r := range results {
		if r.Status != StatusSuccess {
			summary.Failed++
			continue
		}
		if !opts.PlanOnly && !r.Plan.Empty() {
			summary.UpdatedCompanies++
		}
		summary.NewJobsFound += r.Inserted
	}
	c.logger.Info("crawl run finished",
		"processed", summary.Processed,
		"failed", summary.Failed,
		"updated_companies", summary.UpdatedCompanies,
		"new_jobs", summary.NewJobsFound,
	)
	return summary
}

func selectTargets(targets []model.CrawlTarget, opts RunOptions) []model.CrawlTarget {
	var out []model.CrawlTarget
	for _, t := range targets {
		if opts.CompanyID != "" && t.CompanyID != opts.CompanyID {
			continue
		}
		out = append(out, t)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out
}

// CrawlCompany runs the pipeline for one target under the company timeout.
// On timeout the result is returned at once and the abandoned work sees a
// cancelled context.
func (c *Crawler) CrawlCompany(ctx context.Context, target model.CrawlTarget, opts RunOptions) CompanyResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.companyTimeout)
	defer cancel()

	done := make(chan CompanyResult, 1)
	go func() { done <- c.crawl(ctx, target, opts) }()

	var res CompanyResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = CompanyResult{
			CompanyID:   target.CompanyID,
			CompanyName: target.CompanyName,
			Status:      StatusTimeout,
			Err:         fmt.Errorf("crawl %s: %w after %s", target.CompanyName, ErrCompanyTimeout, c.companyTimeout),
		}
	}
	res.Duration = time.Since(start)

	if res.Err != nil {
		c.logger.Error("company crawl failed", "company", target.CompanyName, "status", res.Status, "error", res.Err)
	}
	if c.observe != nil {
		c.observe(res.Status, res.Duration)
	}
	return res
}

func (c *Crawler) crawl(ctx context.Context, target model.CrawlTarget, opts RunOptions) CompanyResult {
	res := CompanyResult{CompanyID: target.CompanyID, CompanyName: target.CompanyName}

	listing := c.lister.Extract(ctx, target)
	jobs := listing.Jobs
	res.Extracted = len(jobs)
	if len(jobs) > 0 {
		res.Platform = jobs[0].Platform
	}

	if opts.FetchDetails && c.details != nil && len(jobs) > 0 {
		ptrs := make([]*model.CandidateJob, len(jobs))
		for i := range jobs {
			ptrs[i] = &jobs[i]
		}
		concurrency := opts.Concurrency
		if concurrency <= 0 {
			concurrency = DefaultDetailConcurrency
		}
		stats := c.details.EnrichAll(ctx, ptrs, enrich.BatchOptions{
			Concurrency:      concurrency,
			MaxDetailFetches: opts.MaxDetailFetches,
			MinDelay:         c.minDelay,
			MaxDelay:         c.maxDelay,
		})
		res.Enriched = stats.Enriched
	}

	kept, stats := c.normalizer.NormalizeAll(target, jobs)
	res.Kept = stats.Kept

	// Never reconcile an empty listing: it would delete every stored job.
	if res.Extracted == 0 {
		res.Status = StatusFailed
		res.Err = fmt.Errorf("crawl %s: no jobs extracted from %s", target.CompanyName, target.CareersURL)
		return res
	}

	// A timed-out company is abandoned: nothing may be written for it.
	if err := ctx.Err(); err != nil {
		return abandoned(res, err)
	}
	plan, err := c.reconciler.Reconcile(ctx, target.CompanyID, target.CompanyName, kept)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		return res
	}
	res.Plan = plan
	res.Inserted = plan.Count(reconcile.KindInsert)
	res.Updated = plan.Count(reconcile.KindUpdate)
	res.Migrated = plan.Count(reconcile.KindMigrate)
	res.Pending = plan.Count(reconcile.KindPending)
	res.Deleted = plan.Count(reconcile.KindDelete)

	if opts.PlanOnly {
		res.Status = StatusSuccess
		return res
	}
	if err := ctx.Err(); err != nil {
		return abandoned(res, err)
	}
	if err := c.reconciler.Apply(ctx, plan); err != nil {
		res.Status = StatusFailed
		res.Err = err
		return res
	}
	res.Status = StatusSuccess

	if inserted := plan.Inserted(); len(inserted) > 0 && c.notifier != nil {
		if err := c.notifier.Notify(target.CompanyName, inserted); err != nil {
			c.logger.Warn("notify failed", "company", target.CompanyName, "error", err)
		}
	}

	c.logger.Info("crawled company",
		"company", target.CompanyName,
		"platform", res.Platform,
		"extracted", res.Extracted,
		"enriched", res.Enriched,
		"kept", res.Kept,
		"inserted", res.Inserted,
		"updated", res.Updated,
		"deleted", res.Deleted,
	)
	return res
}

func abandoned(res CompanyResult, err error) CompanyResult {
	res.Status = StatusTimeout
	res.Err = fmt.Errorf("crawl %s: %w: %w", res.CompanyName, ErrCompanyTimeout, err)
	return res
}
