package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/amishk599/careercrawl/internal/adapter"
	"github.com/amishk599/careercrawl/internal/model"
)

// Config is the root configuration for careercrawl.
type Config struct {
	Companies []CompanyConfig `validate:"dive"`
	Filters   FilterConfig
	Crawl     CrawlConfig
	Retention RetentionConfig
	Reconcile ReconcileConfig
	Store     StoreConfig
	Cache     CacheConfig
	AI        AIConfig
	Schedule  string
	Metrics   MetricsConfig
	RateLimit RateLimitConfig
	Retry     RetryConfig
}

// CompanyConfig describes a single careers page to crawl.
type CompanyConfig struct {
	ID         string `yaml:"id" validate:"required"`
	Name       string `yaml:"name" validate:"required"`
	CareersURL string `yaml:"careers_url" validate:"required,url"`
	Enabled    bool   `yaml:"enabled"`
	KeepStale  bool   `yaml:"keep_stale"`
}

// FilterConfig holds title keyword filter settings.
type FilterConfig struct {
	TitleKeywords []string `yaml:"title_keywords"`
	// Overseas replaces the classifier's default exclusion phrases when set.
	Overseas []string `yaml:"overseas"`
}

// CrawlConfig bounds concurrency, timeouts and politeness of a run.
type CrawlConfig struct {
	CompanyConcurrency int `validate:"min=1,max=32"`
	DetailConcurrency  int `validate:"min=1,max=32"`
	MaxDetailFetches   int `validate:"min=0"`
	FetchDetails       bool
	CompanyTimeout     time.Duration `validate:"gt=0"`
	FetchTimeout       time.Duration `validate:"gt=0"`
	DetailTimeout      time.Duration `validate:"gt=0"`
	BatchDelayMin      time.Duration `validate:"min=0"`
	BatchDelayMax      time.Duration `validate:"min=0"`
	CacheURLTemplate   string        // empty disables the cached-copy fallback
}

// RetentionConfig controls how old a posting may be.
type RetentionConfig struct {
	Window    time.Duration `validate:"min=0"`
	AllowList []string
}

// ReconcileConfig holds the similarity thresholds.
type ReconcileConfig struct {
	DirectSimilarity        float64 `validate:"gte=0,lte=1"`
	FuzzyThreshold          float64 `validate:"gte=0,lte=1"`
	ProtectedFuzzyThreshold float64 `validate:"gte=0,lte=1"`
	AutoApprove             bool
}

// StoreConfig selects the persisted-record backend.
type StoreConfig struct {
	Driver string `validate:"oneof=memory sqlite postgres"`
	DSN    string
}

// CacheConfig selects the detail-page cache backend.
type CacheConfig struct {
	Driver string `validate:"oneof=none memory redis"`
	Addr   string
	TTL    time.Duration `validate:"gt=0"`
}

// AIConfig controls the optional AI description extractor.
type AIConfig struct {
	Enabled  bool
	Provider string `validate:"oneof=openai gemini"`
	BaseURL  string // OpenAI-compatible endpoint
	Model    string
	APIKey   string        // expanded from env var by Load
	Timeout  time.Duration `validate:"gt=0"`
}

// MetricsConfig controls the Prometheus endpoint of the serve command.
type MetricsConfig struct {
	Enabled bool
	Addr    string
}

// RateLimitConfig controls per-host request pacing.
type RateLimitConfig struct {
	PerHostRPS float64 `validate:"gt=0"`
	Burst      int     `validate:"min=1"`
}

// RetryConfig controls retries of listing and API requests.
type RetryConfig struct {
	MaxRetries int           `validate:"min=0,max=10"`
	BaseDelay  time.Duration `validate:"min=0"`
}

// Defaults applied when a field is left unset.
const (
	DefaultSchedule       = "@every 6h"
	DefaultSQLitePath     = "careercrawl.db"
	DefaultMetricsAddr    = ":9090"
	defaultOpenAIBaseURL  = "https://api.openai.com/v1"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultGeminiModel    = "gemini-1.5-flash"
	disabledCacheTemplate = "none"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Companies []CompanyConfig    `yaml:"companies"`
	Filters   FilterConfig       `yaml:"filters"`
	Crawl     rawCrawlConfig     `yaml:"crawl"`
	Retention rawRetentionConfig `yaml:"retention"`
	Reconcile rawReconcileConfig `yaml:"reconcile"`
	Store     StoreConfig        `yaml:"store"`
	Cache     rawCacheConfig     `yaml:"cache"`
	AI        rawAIConfig        `yaml:"ai"`
	Schedule  string             `yaml:"schedule"`
	Metrics   MetricsConfig      `yaml:"metrics"`
	RateLimit RateLimitConfig    `yaml:"rate_limit"`
	Retry     rawRetryConfig     `yaml:"retry"`
}

type rawCrawlConfig struct {
	CompanyConcurrency int    `yaml:"company_concurrency"`
	DetailConcurrency  int    `yaml:"detail_concurrency"`
	MaxDetailFetches   int    `yaml:"max_detail_fetches"`
	FetchDetails       *bool  `yaml:"fetch_details"`
	CompanyTimeout     string `yaml:"company_timeout"`
	FetchTimeout       string `yaml:"fetch_timeout"`
	DetailTimeout      string `yaml:"detail_timeout"`
	BatchDelayMin      string `yaml:"batch_delay_min"`
	BatchDelayMax      string `yaml:"batch_delay_max"`
	CacheURLTemplate   string `yaml:"cache_url_template"`
}

type rawRetentionConfig struct {
	Window    string   `yaml:"window"`
	AllowList []string `yaml:"allow_list"`
}

type rawReconcileConfig struct {
	DirectSimilarity        *float64 `yaml:"direct_similarity"`
	FuzzyThreshold          *float64 `yaml:"fuzzy_threshold"`
	ProtectedFuzzyThreshold *float64 `yaml:"protected_fuzzy_threshold"`
	AutoApprove             *bool    `yaml:"auto_approve"`
}

type rawCacheConfig struct {
	Driver string `yaml:"driver"`
	Addr   string `yaml:"addr"`
	TTL    string `yaml:"ttl"`
}

type rawAIConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	Timeout  string `yaml:"timeout"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes. Environment variables are expanded
// before parsing.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var errs []error
	duration := func(field, value string, def time.Duration) time.Duration {
		if value == "" {
			return def
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("parse %s %q: %w", field, value, err))
			return def
		}
		return d
	}

	cfg := &Config{
		Companies: raw.Companies,
		Filters:   raw.Filters,
		Crawl: CrawlConfig{
			CompanyConcurrency: orDefault(raw.Crawl.CompanyConcurrency, 3),
			DetailConcurrency:  orDefault(raw.Crawl.DetailConcurrency, 3),
			MaxDetailFetches:   raw.Crawl.MaxDetailFetches,
			FetchDetails:       raw.Crawl.FetchDetails == nil || *raw.Crawl.FetchDetails,
			CompanyTimeout:     duration("crawl.company_timeout", raw.Crawl.CompanyTimeout, 180*time.Second),
			FetchTimeout:       duration("crawl.fetch_timeout", raw.Crawl.FetchTimeout, 30*time.Second),
			DetailTimeout:      duration("crawl.detail_timeout", raw.Crawl.DetailTimeout, 15*time.Second),
			BatchDelayMin:      duration("crawl.batch_delay_min", raw.Crawl.BatchDelayMin, time.Second),
			BatchDelayMax:      duration("crawl.batch_delay_max", raw.Crawl.BatchDelayMax, 3*time.Second),
			CacheURLTemplate:   cacheTemplate(raw.Crawl.CacheURLTemplate),
		},
		Retention: RetentionConfig{
			Window:    duration("retention.window", raw.Retention.Window, 30*24*time.Hour),
			AllowList: raw.Retention.AllowList,
		},
		Reconcile: ReconcileConfig{
			DirectSimilarity:        floatOr(raw.Reconcile.DirectSimilarity, 0.8),
			FuzzyThreshold:          floatOr(raw.Reconcile.FuzzyThreshold, 0.8),
			ProtectedFuzzyThreshold: floatOr(raw.Reconcile.ProtectedFuzzyThreshold, 0.1),
			AutoApprove:             raw.Reconcile.AutoApprove == nil || *raw.Reconcile.AutoApprove,
		},
		Store: raw.Store,
		Cache: CacheConfig{
			Driver: strOr(raw.Cache.Driver, "memory"),
			Addr:   raw.Cache.Addr,
			TTL:    duration("cache.ttl", raw.Cache.TTL, 24*time.Hour),
		},
		AI: AIConfig{
			Enabled:  raw.AI.Enabled,
			Provider: strOr(raw.AI.Provider, "openai"),
			BaseURL:  strOr(raw.AI.BaseURL, defaultOpenAIBaseURL),
			Model:    raw.AI.Model,
			APIKey:   raw.AI.APIKey,
			Timeout:  duration("ai.timeout", raw.AI.Timeout, 30*time.Second),
		},
		Schedule: strOr(raw.Schedule, DefaultSchedule),
		Metrics: MetricsConfig{
			Enabled: raw.Metrics.Enabled,
			Addr:    strOr(raw.Metrics.Addr, DefaultMetricsAddr),
		},
		RateLimit: RateLimitConfig{
			PerHostRPS: raw.RateLimit.PerHostRPS,
			Burst:      orDefault(raw.RateLimit.Burst, 2),
		},
		Retry: RetryConfig{
			MaxRetries: 2,
			BaseDelay:  duration("retry.base_delay", raw.Retry.BaseDelay, 2*time.Second),
		},
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if cfg.RateLimit.PerHostRPS == 0 {
		cfg.RateLimit.PerHostRPS = 2
	}
	if raw.Retry.MaxRetries != nil {
		cfg.Retry.MaxRetries = *raw.Retry.MaxRetries
	}
	cfg.Store.Driver = strOr(cfg.Store.Driver, "sqlite")
	if cfg.Store.Driver == "sqlite" && cfg.Store.DSN == "" {
		cfg.Store.DSN = DefaultSQLitePath
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = defaultOpenAIModel
		if cfg.AI.Provider == "gemini" {
			cfg.AI.Model = defaultGeminiModel
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var structValidator = validator.New()

func validate(cfg *Config) error {
	if err := structValidator.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	seen := make(map[string]bool, len(cfg.Companies))
	for _, c := range cfg.Companies {
		if seen[c.ID] {
			return fmt.Errorf("companies: duplicate id %q", c.ID)
		}
		seen[c.ID] = true
	}

	if cfg.Crawl.BatchDelayMin > cfg.Crawl.BatchDelayMax {
		return fmt.Errorf("crawl.batch_delay_min (%v) must not exceed crawl.batch_delay_max (%v)", cfg.Crawl.BatchDelayMin, cfg.Crawl.BatchDelayMax)
	}
	if cfg.Store.Driver == "postgres" && cfg.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required when store.driver is \"postgres\"")
	}
	if cfg.Cache.Driver == "redis" && cfg.Cache.Addr == "" {
		return fmt.Errorf("cache.addr is required when cache.driver is \"redis\"")
	}

	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.Provider == "openai" && cfg.AI.BaseURL == "" {
			return fmt.Errorf("ai.base_url is required for the openai provider")
		}
	}
	return nil
}

// Targets returns the enabled companies as crawl targets. Companies on the
// retention allow-list keep stale postings.
func (c *Config) Targets() []model.CrawlTarget {
	allowed := make(map[string]bool, len(c.Retention.AllowList))
	for _, id := range c.Retention.AllowList {
		allowed[id] = true
	}
	var out []model.CrawlTarget
	for _, co := range c.Companies {
		if !co.Enabled {
			continue
		}
		out = append(out, model.CrawlTarget{
			CompanyID:   co.ID,
			CompanyName: co.Name,
			CareersURL:  co.CareersURL,
			KeepStale:   co.KeepStale || allowed[co.ID],
		})
	}
	return out
}

func cacheTemplate(v string) string {
	switch strings.TrimSpace(v) {
	case "":
		return adapter.DefaultCacheURLTemplate
	case disabledCacheTemplate:
		return ""
	default:
		return v
	}
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func strOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
