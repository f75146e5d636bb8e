package adapter

import (
	"context"
	"log/slog"
	"strings"

	"github.com/amishk599/careercrawl/internal/model"
)

// StrategyKind groups strategies by how they acquire jobs.
type StrategyKind string

const (
	KindAPI      StrategyKind = "api"
	KindEmbedded StrategyKind = "embedded"
	KindGeneric  StrategyKind = "generic"
)

// conclusiveEmbedded is the job count at which embedded data wins outright
// and the generic link heuristic is skipped.
const conclusiveEmbedded = 3

// Page is what a strategy sees: the careers URL, the listing HTML when it
// has been fetched, and the detected platform.
type Page struct {
	URL      string
	HTML     string
	Platform model.PlatformKind
}

// Result is the output of one strategy or of a whole extraction.
type Result struct {
	Jobs    []model.CandidateJob
	Company *model.CompanyInfo
}

// Strategy turns a page into candidate jobs.
type Strategy interface {
	Name() string
	Kind() StrategyKind
	Extract(ctx context.Context, page Page) (Result, error)
}

// rule pairs a strategy with the predicate that decides whether it applies.
type rule struct {
	applies  func(Page) bool
	strategy Strategy
}

func onPlatform(kinds ...model.PlatformKind) func(Page) bool {
	return func(p Page) bool {
		for _, k := range kinds {
			if p.Platform == k {
				return true
			}
		}
		return false
	}
}

func hasHTML(p Page) bool { return p.HTML != "" }

// ExtractObserver is notified after each strategy that produced jobs.
type ExtractObserver func(strategy string, jobs int)

// Extractor runs the strategy plan for a careers page.
type Extractor struct {
	client        Client
	cacheTemplate string
	rules         []rule
	logger        *slog.Logger
	observe       ExtractObserver
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithCacheTemplate sets the cached-copy URL template used after a 403/429.
func WithCacheTemplate(template string) ExtractorOption {
	return func(e *Extractor) { e.cacheTemplate = template }
}

// WithObserver registers a callback for per-strategy job counts.
func WithObserver(fn ExtractObserver) ExtractorOption {
	return func(e *Extractor) { e.observe = fn }
}

// WithStrategies replaces the default plan. Every strategy applies to every
// page; order within each kind is the given order.
func WithStrategies(strategies ...Strategy) ExtractorOption {
	return func(e *Extractor) {
		e.rules = nil
		for _, s := range strategies {
			e.rules = append(e.rules, rule{applies: func(Page) bool { return true }, strategy: s})
		}
	}
}

// NewExtractor builds an Extractor with the default strategy plan.
func NewExtractor(client Client, logger *slog.Logger, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		client:        client,
		cacheTemplate: DefaultCacheURLTemplate,
		logger:        logger,
		rules:         defaultRules(client),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// defaultRules is the priority-ordered strategy plan.
func defaultRules(client Client) []rule {
	return []rule{
		{onPlatform(model.PlatformAshby), NewAshbyStrategy(client)},
		{onPlatform(model.PlatformGreenhouse), NewGreenhouseStrategy(client)},
		{onPlatform(model.PlatformLever), NewLeverStrategy(client)},
		{onPlatform(model.PlatformWorkable), NewWorkableStrategy(client)},
		{onPlatform(model.PlatformWorkday), NewWorkdayStrategy(client)},
		{onPlatform(model.PlatformGem), NewGemStrategy(client)},
		{onPlatform(model.PlatformRecruitee), NewRecruiteeStrategy(client)},
		{onPlatform(model.PlatformSmartRecruiters), NewSmartRecruitersStrategy(client)},
		{hasHTML, NewAppDataStrategy()},
		{hasHTML, NewNextDataStrategy(nil)},
		{hasHTML, NewJSONLDStrategy()},
		{hasHTML, NewGenericStrategy()},
	}
}

// Extract runs the plan for one target. It never returns an error: every
// failure is logged and the next strategy is tried.
func (e *Extractor) Extract(ctx context.Context, target model.CrawlTarget) Result {
	page := Page{URL: target.CareersURL, Platform: Detect(target.CareersURL, "")}

	// API-first platforms are tried before any page fetch.
	if page.Platform.IsATS() {
		if res, ok := e.runAPI(ctx, target, page); ok {
			return res
		}
	}

	resp, err := GetWithFallback(ctx, e.client, target.CareersURL, e.cacheTemplate, e.logger)
	if err != nil {
		e.logger.Warn("listing fetch failed", "company", target.CompanyName, "url", target.CareersURL, "error", err)
		return Result{}
	}
	page.HTML = string(resp.Body)

	detected := Detect(target.CareersURL, page.HTML)
	if detected != page.Platform && detected.IsATS() {
		page.Platform = detected
		if res, ok := e.runAPI(ctx, target, page); ok {
			return res
		}
	} else {
		page.Platform = detected
	}

	return e.runHTML(ctx, target, page)
}

func (e *Extractor) runAPI(ctx context.Context, target model.CrawlTarget, page Page) (Result, bool) {
	for _, r := range e.rules {
		if r.strategy.Kind() != KindAPI || !r.applies(page) {
			continue
		}
		res, ok := e.try(ctx, target, page, r.strategy)
		if ok {
			res.Jobs = finalize(res.Jobs, page.Platform)
			return res, true
		}
	}
	return Result{}, false
}

// runHTML combines embedded and generic output. Embedded data wins alone
// once it reaches conclusiveEmbedded jobs.
func (e *Extractor) runHTML(ctx context.Context, target model.CrawlTarget, page Page) Result {
	var combined Result
	platform := page.Platform

	for _, r := range e.rules {
		if r.strategy.Kind() != KindEmbedded || !r.applies(page) {
			continue
		}
		res, ok := e.try(ctx, target, page, r.strategy)
		if !ok {
			continue
		}
		combined.Jobs = append(combined.Jobs, res.Jobs...)
		if combined.Company == nil {
			combined.Company = res.Company
		}
	}

	embedded := len(dedupe(combined.Jobs))
	if embedded >= conclusiveEmbedded {
		combined.Jobs = finalize(combined.Jobs, platform)
		return combined
	}

	for _, r := range e.rules {
		if r.strategy.Kind() != KindGeneric || !r.applies(page) {
			continue
		}
		res, ok := e.try(ctx, target, page, r.strategy)
		if !ok {
			continue
		}
		combined.Jobs = append(combined.Jobs, res.Jobs...)
		if embedded == 0 {
			platform = model.PlatformGeneric
		}
	}

	combined.Jobs = finalize(combined.Jobs, platform)
	return combined
}

func (e *Extractor) try(ctx context.Context, target model.CrawlTarget, page Page, s Strategy) (Result, bool) {
	res, err := s.Extract(ctx, page)
	if err != nil {
		e.logger.Debug("strategy failed",
			"company", target.CompanyName,
			"strategy", s.Name(),
			"error", err,
		)
		return Result{}, false
	}
	if len(res.Jobs) == 0 {
		return Result{}, false
	}
	e.logger.Debug("strategy produced jobs",
		"company", target.CompanyName,
		"strategy", s.Name(),
		"jobs", len(res.Jobs),
	)
	if e.observe != nil {
		e.observe(s.Name(), len(res.Jobs))
	}
	return res, true
}

// finalize drops jobs without a title or URL, dedupes by normalized URL and
// stamps the deterministic id.
func finalize(jobs []model.CandidateJob, platform model.PlatformKind) []model.CandidateJob {
	out := dedupe(jobs)
	for i := range out {
		out[i].ID = model.JobID(out[i].URL)
		if out[i].Platform == "" {
			out[i].Platform = platform
		}
		if out[i].SourceType == "" {
			out[i].SourceType = model.SourceOfficial
		}
	}
	return out
}

// dedupe keeps the first job per normalized URL, filling empty fields of the
// kept job from later duplicates.
func dedupe(jobs []model.CandidateJob) []model.CandidateJob {
	seen := make(map[string]int, len(jobs))
	out := make([]model.CandidateJob, 0, len(jobs))
	for _, j := range jobs {
		j.Title = strings.TrimSpace(j.Title)
		if j.Title == "" || j.URL == "" {
			continue
		}
		key := model.NormalizeURL(j.URL)
		if idx, ok := seen[key]; ok {
			mergeMissing(&out[idx], j)
			continue
		}
		seen[key] = len(out)
		out = append(out, j)
	}
	return out
}

func mergeMissing(dst *model.CandidateJob, src model.CandidateJob) {
	if dst.Location == "" {
		dst.Location = src.Location
	}
	if len(src.Description) > len(dst.Description) {
		dst.Description = src.Description
	}
	if dst.PublishedAt == nil {
		dst.PublishedAt = src.PublishedAt
	}
	if dst.EmploymentType == "" {
		dst.EmploymentType = src.EmploymentType
	}
	if dst.ApplyURL == "" {
		dst.ApplyURL = src.ApplyURL
	}
}
