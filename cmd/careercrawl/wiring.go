package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/amishk599/careercrawl/internal/adapter"
	"github.com/amishk599/careercrawl/internal/ai"
	"github.com/amishk599/careercrawl/internal/cache"
	"github.com/amishk599/careercrawl/internal/config"
	"github.com/amishk599/careercrawl/internal/crawler"
	"github.com/amishk599/careercrawl/internal/enrich"
	"github.com/amishk599/careercrawl/internal/metrics"
	"github.com/amishk599/careercrawl/internal/model"
	"github.com/amishk599/careercrawl/internal/normalize"
	"github.com/amishk599/careercrawl/internal/notifier"
	"github.com/amishk599/careercrawl/internal/ratelimit"
	"github.com/amishk599/careercrawl/internal/reconcile"
	"github.com/amishk599/careercrawl/internal/retry"
	"github.com/amishk599/careercrawl/internal/store"
)

// app holds the wired pipeline of one command invocation.
type app struct {
	cfg       *config.Config
	store     store.Store
	extractor *adapter.Extractor
	crawler   *crawler.Crawler
	logger    *slog.Logger
	closers   []func() error
}

type appOptions struct {
	dryRun  bool
	metrics *metrics.Metrics // nil disables observers
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	st, err := setupStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, st.Close)
	if opts.dryRun {
		logger.Info("dry-run mode enabled, no writes will reach the store")
		a.store = store.NewDryRun(st, logger)
	} else {
		a.store = st
	}

	detailCache, err := setupCache(ctx, cfg.Cache, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	extractorAI, closeAI, err := setupAI(ctx, cfg.AI, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if closeAI != nil {
		a.closers = append(a.closers, closeAI)
	}

	limiter := ratelimit.NewHostLimiter(cfg.RateLimit.PerHostRPS, cfg.RateLimit.Burst)
	base := adapter.NewHTTPClient(&http.Client{}, cfg.Crawl.FetchTimeout)
	politeClient := ratelimit.NewClient(base, limiter)
	listingClient := retry.New(politeClient, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)

	m := opts.metrics
	extractorOpts := []adapter.ExtractorOption{adapter.WithCacheTemplate(cfg.Crawl.CacheURLTemplate)}
	enrichOpts := []enrich.Option{
		enrich.WithAI(extractorAI),
		enrich.WithCacheTemplate(cfg.Crawl.CacheURLTemplate),
		enrich.WithTimeout(cfg.Crawl.DetailTimeout),
	}
	if detailCache != nil {
		enrichOpts = append(enrichOpts, enrich.WithCache(detailCache))
	}
	reconcileOpts := []reconcile.Option{
		reconcile.WithThresholds(reconcile.Thresholds{
			Direct:         cfg.Reconcile.DirectSimilarity,
			Fuzzy:          cfg.Reconcile.FuzzyThreshold,
			ProtectedFuzzy: cfg.Reconcile.ProtectedFuzzyThreshold,
		}),
		reconcile.WithAutoApprove(cfg.Reconcile.AutoApprove),
	}
	crawlerOpts := []crawler.Option{
		crawler.WithCompanyTimeout(cfg.Crawl.CompanyTimeout),
		crawler.WithBatchDelay(cfg.Crawl.BatchDelayMin, cfg.Crawl.BatchDelayMax),
		crawler.WithNotifier(notifier.NewLogNotifier(logger)),
	}
	if m != nil {
		extractorOpts = append(extractorOpts, adapter.WithObserver(m.ObserveStrategy))
		enrichOpts = append(enrichOpts, enrich.WithObserver(m.ObserveDetail))
		reconcileOpts = append(reconcileOpts, reconcile.WithObserver(m.ObserveReconcile))
		crawlerOpts = append(crawlerOpts, crawler.WithObserver(m.ObserveCompany))
	}

	a.extractor = adapter.NewExtractor(listingClient, logger, extractorOpts...)
	enricher := enrich.New(politeClient, logger, enrichOpts...)

	normalizer := normalize.New(
		normalize.NewKeywordClassifier(cfg.Filters.Overseas),
		logger,
		normalize.WithRetention(cfg.Retention.Window),
		normalize.WithAllowList(cfg.Retention.AllowList),
		normalize.WithTitleFilter(normalize.NewTitleFilter(cfg.Filters.TitleKeywords)),
	)
	engine := reconcile.New(a.store, logger, reconcileOpts...)

	a.crawler = crawler.New(a.extractor, enricher, normalizer, engine, logger, crawlerOpts...)
	return a, nil
}

// targets returns the configured companies, falling back to the targets
// stored by an earlier run when the config lists none.
func (a *app) targets(ctx context.Context) ([]model.CrawlTarget, error) {
	targets := a.cfg.Targets()
	if len(targets) == 0 {
		stored, err := a.store.Targets(ctx)
		if err != nil {
			return nil, fmt.Errorf("load stored targets: %w", err)
		}
		return stored, nil
	}
	if err := a.store.SaveTargets(ctx, targets); err != nil {
		a.logger.Warn("failed to save targets", "error", err)
	}
	return targets, nil
}

// runOptions builds the crawl options from the config defaults.
func (a *app) runOptions() crawler.RunOptions {
	return crawler.RunOptions{
		Concurrency:        a.cfg.Crawl.DetailConcurrency,
		CompanyConcurrency: a.cfg.Crawl.CompanyConcurrency,
		FetchDetails:       a.cfg.Crawl.FetchDetails,
		MaxDetailFetches:   a.cfg.Crawl.MaxDetailFetches,
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

func setupStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "memory":
		return store.NewMemory(), nil
	case "postgres":
		s, err := store.NewPostgresStore(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("setup store: %w", err)
		}
		return s, nil
	default:
		s, err := store.NewSQLiteStore(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("setup store: %w", err)
		}
		return s, nil
	}
}

func setupCache(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (enrich.Cache, error) {
	switch cfg.Driver {
	case "none":
		return nil, nil
	case "redis":
		client, err := cache.NewRedisClient(ctx, cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("setup detail cache: %w", err)
		}
		logger.Info("using redis detail cache")
		return cache.NewRedis(client, cfg.TTL, logger), nil
	default:
		return cache.NewMemory(cfg.TTL), nil
	}
}

// setupAI returns the description extractor and an optional closer.
func setupAI(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (model.DescriptionExtractor, func() error, error) {
	if !cfg.Enabled {
		return ai.NewNopDescriptionExtractor(), nil, nil
	}

	var provider ai.LLMProvider
	var closer func() error
	switch cfg.Provider {
	case "gemini":
		p, err := ai.NewGeminiProvider(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, nil, fmt.Errorf("setup ai provider: %w", err)
		}
		provider, closer = p, p.Close
	default:
		provider = ai.NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, &http.Client{Timeout: cfg.Timeout})
	}
	logger.Info("ai description extractor enabled", "provider", cfg.Provider, "model", cfg.Model)
	return ai.NewLLMDescriptionExtractor(provider, ai.DescriptionTemplate, logger), closer, nil
}
