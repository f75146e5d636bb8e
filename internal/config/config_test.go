package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/careercrawl/internal/adapter"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimal = `
companies:
  - id: acme
    name: Acme
    careers_url: https://jobs.ashbyhq.com/acme
    enabled: true
  - id: beta
    name: Beta
    careers_url: https://beta.example.com/careers
    enabled: false
`

func TestLoad_ValidConfigDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.Companies) != 2 || cfg.Companies[0].ID != "acme" {
		t.Errorf("Companies = %+v", cfg.Companies)
	}
	if cfg.Crawl.CompanyConcurrency != 3 || cfg.Crawl.DetailConcurrency != 3 {
		t.Errorf("concurrency = %d/%d, want 3/3", cfg.Crawl.CompanyConcurrency, cfg.Crawl.DetailConcurrency)
	}
	if !cfg.Crawl.FetchDetails {
		t.Error("FetchDetails should default to true")
	}
	if cfg.Crawl.CompanyTimeout != 180*time.Second || cfg.Crawl.FetchTimeout != 30*time.Second || cfg.Crawl.DetailTimeout != 15*time.Second {
		t.Errorf("timeouts = %v/%v/%v", cfg.Crawl.CompanyTimeout, cfg.Crawl.FetchTimeout, cfg.Crawl.DetailTimeout)
	}
	if cfg.Crawl.CacheURLTemplate != adapter.DefaultCacheURLTemplate {
		t.Errorf("CacheURLTemplate = %q", cfg.Crawl.CacheURLTemplate)
	}
	if cfg.Retention.Window != 30*24*time.Hour {
		t.Errorf("Retention.Window = %v, want 720h", cfg.Retention.Window)
	}
	if cfg.Reconcile.DirectSimilarity != 0.8 || cfg.Reconcile.FuzzyThreshold != 0.8 || cfg.Reconcile.ProtectedFuzzyThreshold != 0.1 || !cfg.Reconcile.AutoApprove {
		t.Errorf("Reconcile = %+v", cfg.Reconcile)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.DSN != DefaultSQLitePath {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Cache.Driver != "memory" || cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Schedule != DefaultSchedule {
		t.Errorf("Schedule = %q", cfg.Schedule)
	}
	if cfg.RateLimit.PerHostRPS != 2 || cfg.RateLimit.Burst != 2 {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Retry.MaxRetries != 2 {
		t.Errorf("Retry.MaxRetries = %d, want 2", cfg.Retry.MaxRetries)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "secret")
	cfg, err := Load(writeConfig(t, minimal+`
filters:
  title_keywords: [engineer, designer]
crawl:
  company_concurrency: 5
  fetch_details: false
  max_detail_fetches: 20
  batch_delay_min: 500ms
  batch_delay_max: 2s
  cache_url_template: none
retention:
  window: 168h
  allow_list: [beta]
reconcile:
  fuzzy_threshold: 0.7
  auto_approve: false
store:
  driver: postgres
  dsn: postgres://localhost/careercrawl
cache:
  driver: redis
  addr: redis://localhost:6379/0
  ttl: 1h
ai:
  enabled: true
  provider: gemini
  api_key: ${TEST_GEMINI_KEY}
schedule: "0 */4 * * *"
retry:
  max_retries: 0
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Crawl.CompanyConcurrency != 5 || cfg.Crawl.FetchDetails || cfg.Crawl.MaxDetailFetches != 20 {
		t.Errorf("Crawl = %+v", cfg.Crawl)
	}
	if cfg.Crawl.CacheURLTemplate != "" {
		t.Errorf("cache template should be disabled, got %q", cfg.Crawl.CacheURLTemplate)
	}
	if cfg.Retention.Window != 7*24*time.Hour {
		t.Errorf("Retention.Window = %v", cfg.Retention.Window)
	}
	if cfg.Reconcile.FuzzyThreshold != 0.7 || cfg.Reconcile.DirectSimilarity != 0.8 || cfg.Reconcile.AutoApprove {
		t.Errorf("Reconcile = %+v", cfg.Reconcile)
	}
	if cfg.AI.APIKey != "secret" || cfg.AI.Model != defaultGeminiModel {
		t.Errorf("AI = %+v", cfg.AI)
	}
	if cfg.Schedule != "0 */4 * * *" {
		t.Errorf("Schedule = %q", cfg.Schedule)
	}
	if cfg.Retry.MaxRetries != 0 {
		t.Errorf("Retry.MaxRetries = %d, want 0", cfg.Retry.MaxRetries)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "companies: [broken"))
	if err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		extra   string
		wantErr string
	}{
		{"bad duration", "crawl:\n  company_timeout: soon\n", "crawl.company_timeout"},
		{"unknown store", "store:\n  driver: mongo\n", "Driver"},
		{"postgres without dsn", "store:\n  driver: postgres\n", "store.dsn"},
		{"redis without addr", "cache:\n  driver: redis\n", "cache.addr"},
		{"delay order", "crawl:\n  batch_delay_min: 5s\n  batch_delay_max: 1s\n", "batch_delay_min"},
		{"threshold range", "reconcile:\n  fuzzy_threshold: 1.5\n", "FuzzyThreshold"},
		{"ai without key", "ai:\n  enabled: true\n", "ai.api_key"},
		{"bad provider", "ai:\n  provider: claude\n", "Provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, minimal+tt.extra))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_InvalidCompanies(t *testing.T) {
	tests := map[string]string{
		"missing url": `
companies:
  - id: acme
    name: Acme
    enabled: true
`,
		"bad url": `
companies:
  - id: acme
    name: Acme
    careers_url: not a url
`,
		"duplicate id": `
companies:
  - id: acme
    name: Acme
    careers_url: https://acme.com/careers
  - id: acme
    name: Acme Again
    careers_url: https://acme.com/jobs
`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestTargets(t *testing.T) {
	cfg, err := Parse([]byte(minimal + `
  - id: gamma
    name: Gamma
    careers_url: https://gamma.example.com/jobs
    enabled: true
    keep_stale: true
retention:
  allow_list: [acme]
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	targets := cfg.Targets()
	if len(targets) != 2 {
		t.Fatalf("targets = %+v, want acme and gamma", targets)
	}
	if targets[0].CompanyID != "acme" || !targets[0].KeepStale {
		t.Errorf("acme target = %+v, want KeepStale from allow-list", targets[0])
	}
	if targets[1].CompanyID != "gamma" || !targets[1].KeepStale {
		t.Errorf("gamma target = %+v", targets[1])
	}
}
