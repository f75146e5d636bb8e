package crawler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/careercrawl/internal/adapter"
	"github.com/amishk599/careercrawl/internal/enrich"
	"github.com/amishk599/careercrawl/internal/model"
	"github.com/amishk599/careercrawl/internal/normalize"
	"github.com/amishk599/careercrawl/internal/reconcile"
	"github.com/amishk599/careercrawl/internal/store"
)

// --- Fakes ---

// fakeLister returns canned jobs per company and records concurrency.
type fakeLister struct {
	jobs  map[string][]model.CandidateJob
	delay time.Duration
	block bool

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (l *fakeLister) Extract(ctx context.Context, target model.CrawlTarget) adapter.Result {
	n := l.inFlight.Add(1)
	defer l.inFlight.Add(-1)
	for {
		m := l.maxInFlight.Load()
		if n <= m || l.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	if l.block {
		<-ctx.Done()
		return adapter.Result{}
	}
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	return adapter.Result{Jobs: append([]model.CandidateJob(nil), l.jobs[target.CompanyID]...)}
}

// recordingNotifier records which jobs were sent to Notify.
type recordingNotifier struct {
	mu       sync.Mutex
	notified map[string][]model.CandidateJob
}

func (n *recordingNotifier) Notify(company string, jobs []model.CandidateJob) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.notified == nil {
		n.notified = map[string][]model.CandidateJob{}
	}
	n.notified[company] = append(n.notified[company], jobs...)
	return nil
}

// failingReconciler fails to load one company.
type failingReconciler struct {
	Reconciler
	failFor string
}

func (r *failingReconciler) Reconcile(ctx context.Context, companyID, companyName string, fresh []model.CandidateJob) (reconcile.Plan, error) {
	if companyID == r.failFor {
		return reconcile.Plan{}, model.ErrStore
	}
	return r.Reconciler.Reconcile(ctx, companyID, companyName, fresh)
}

// pageClient serves canned pages by exact URL.
type pageClient struct {
	pages map[string]string
	errs  map[string]error
}

func (c *pageClient) Get(_ context.Context, url string) (*adapter.Response, error) {
	if err, ok := c.errs[url]; ok {
		return nil, err
	}
	body, ok := c.pages[url]
	if !ok {
		return nil, &model.HTTPError{StatusCode: 404}
	}
	return &adapter.Response{URL: url, StatusCode: 200, Body: []byte(body)}, nil
}

func (c *pageClient) PostJSON(ctx context.Context, url string, _ any) (*adapter.Response, error) {
	return c.Get(ctx, url)
}

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func target(id string) model.CrawlTarget {
	return model.CrawlTarget{CompanyID: id, CompanyName: strings.ToUpper(id), CareersURL: "https://" + id + ".com/careers"}
}

func job(company, slug, title string) model.CandidateJob {
	url := "https://" + company + ".com/jobs/" + slug
	return model.CandidateJob{ID: model.JobID(url), Title: title, URL: url, Location: "Berlin", SourceType: model.SourceOfficial}
}

func newCrawler(lister Lister, details DetailFetcher, s store.Store, opts ...Option) *Crawler {
	n := normalize.New(normalize.NewKeywordClassifier(nil), discardLogger())
	return New(lister, details, n, reconcile.New(s, discardLogger()), discardLogger(), opts...)
}

// --- Tests ---

func TestCrawlCompany_PipelineInsertsAndNotifies(t *testing.T) {
	s := store.NewMemory()
	notifier := &recordingNotifier{}
	lister := &fakeLister{jobs: map[string][]model.CandidateJob{
		"acme": {job("acme", "1", "Backend Engineer"), job("acme", "2", "Product Designer"), job("acme", "3", "Engineer (US only)")},
	}}
	c := newCrawler(lister, nil, s, WithNotifier(notifier))

	res := c.CrawlCompany(context.Background(), target("acme"), RunOptions{})

	if res.Status != StatusSuccess {
		t.Fatalf("status = %s, err = %v", res.Status, res.Err)
	}
	if res.Extracted != 3 || res.Kept != 2 || res.Inserted != 2 {
		t.Errorf("extracted/kept/inserted = %d/%d/%d, want 3/2/2", res.Extracted, res.Kept, res.Inserted)
	}
	if got := len(notifier.notified["ACME"]); got != 2 {
		t.Errorf("notified = %d, want 2", got)
	}

	stored, err := s.Select(context.Background(), store.Filter{CompanyID: "acme"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored = %d, want 2", len(stored))
	}
	for _, p := range stored {
		if p.Category == "" || p.ExperienceLevel == "" {
			t.Errorf("job %s missing taxonomy: %+v", p.ID, p)
		}
	}

	again := c.CrawlCompany(context.Background(), target("acme"), RunOptions{})
	if !again.Plan.Empty() {
		t.Errorf("second crawl should write nothing, got %+v", again.Plan)
	}
	if got := len(notifier.notified["ACME"]); got != 2 {
		t.Errorf("notified after second crawl = %d, want 2", got)
	}
}

func TestCrawlCompany_Timeout(t *testing.T) {
	var statuses []string
	c := newCrawler(&fakeLister{block: true}, nil, store.NewMemory(),
		WithCompanyTimeout(20*time.Millisecond),
		WithObserver(func(status string, _ time.Duration) { statuses = append(statuses, status) }),
	)

	res := c.CrawlCompany(context.Background(), target("slow"), RunOptions{})

	if res.Status != StatusTimeout {
		t.Errorf("status = %s, want %s", res.Status, StatusTimeout)
	}
	if !errors.Is(res.Err, ErrCompanyTimeout) {
		t.Errorf("err = %v, want ErrCompanyTimeout", res.Err)
	}
	if len(statuses) != 1 || statuses[0] != StatusTimeout {
		t.Errorf("observed = %v", statuses)
	}
}

func TestCrawlCompany_TimedOutCrawlWritesNothing(t *testing.T) {
	s := store.NewMemory()
	lister := &fakeLister{
		delay: 150 * time.Millisecond,
		jobs:  map[string][]model.CandidateJob{"slow": {job("slow", "1", "Backend Engineer")}},
	}
	c := newCrawler(lister, nil, s, WithCompanyTimeout(50*time.Millisecond))

	res := c.CrawlCompany(context.Background(), target("slow"), RunOptions{})
	if res.Status != StatusTimeout {
		t.Fatalf("status = %s, want %s", res.Status, StatusTimeout)
	}

	// Let the abandoned pipeline finish its listing and reach the writes.
	time.Sleep(250 * time.Millisecond)

	stored, err := s.Select(context.Background(), store.Filter{CompanyID: "slow"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("stored = %d after timeout, want 0", len(stored))
	}
}

func TestCrawlCompany_EmptyListingDoesNotDelete(t *testing.T) {
	s := store.NewMemory()
	existing := job("acme", "1", "Backend Engineer")
	if _, err := s.Upsert(context.Background(), []model.PersistedJob{{CandidateJob: existing, CompanyID: "acme", CompanyName: "ACME"}}, store.UpsertReplace); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res := newCrawler(&fakeLister{}, nil, s).CrawlCompany(context.Background(), target("acme"), RunOptions{})

	if res.Status != StatusFailed {
		t.Errorf("status = %s, want failed", res.Status)
	}
	stored, _ := s.Select(context.Background(), store.Filter{CompanyID: "acme"})
	if len(stored) != 1 {
		t.Errorf("stored = %d, want 1", len(stored))
	}
}

func TestRun_ConcurrencyLimitAndSelection(t *testing.T) {
	lister := &fakeLister{jobs: map[string][]model.CandidateJob{}, delay: 20 * time.Millisecond}
	var targets []model.CrawlTarget
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		targets = append(targets, target(id))
		lister.jobs[id] = []model.CandidateJob{job(id, "1", "Backend Engineer")}
	}
	c := newCrawler(lister, nil, store.NewMemory())

	summary := c.Run(context.Background(), targets, RunOptions{CompanyConcurrency: 2})

	if got := lister.maxInFlight.Load(); got > 2 {
		t.Errorf("max in flight = %d, want <= 2", got)
	}
	if summary.Processed != 7 || summary.UpdatedCompanies != 7 || summary.NewJobsFound != 7 {
		t.Errorf("summary = %+v", summary)
	}

	one := c.Run(context.Background(), targets, RunOptions{CompanyID: "c"})
	if one.Processed != 1 || one.Results[0].CompanyID != "c" {
		t.Errorf("company filter: %+v", one)
	}
	if one.UpdatedCompanies != 0 {
		t.Errorf("re-crawl should not update, got %d", one.UpdatedCompanies)
	}

	limited := c.Run(context.Background(), targets, RunOptions{Limit: 3})
	if limited.Processed != 3 {
		t.Errorf("limit: processed = %d, want 3", limited.Processed)
	}
}

func TestRun_StoreErrorIsolatedToCompany(t *testing.T) {
	s := store.NewMemory()
	lister := &fakeLister{jobs: map[string][]model.CandidateJob{
		"ok":  {job("ok", "1", "Backend Engineer")},
		"bad": {job("bad", "1", "Backend Engineer")},
	}}
	n := normalize.New(normalize.NewKeywordClassifier(nil), discardLogger())
	rec := &failingReconciler{Reconciler: reconcile.New(s, discardLogger()), failFor: "bad"}
	c := New(lister, nil, n, rec, discardLogger())

	summary := c.Run(context.Background(), []model.CrawlTarget{target("ok"), target("bad")}, RunOptions{})

	if summary.Processed != 2 || summary.Failed != 1 || summary.NewJobsFound != 1 {
		t.Errorf("summary = %+v", summary)
	}
	for _, r := range summary.Results {
		if r.CompanyID == "bad" && !errors.Is(r.Err, model.ErrStore) {
			t.Errorf("bad company err = %v, want ErrStore", r.Err)
		}
	}
}

func TestRun_PlanOnlyWritesNothing(t *testing.T) {
	s := store.NewMemory()
	lister := &fakeLister{jobs: map[string][]model.CandidateJob{"acme": {job("acme", "1", "Backend Engineer")}}}

	summary := newCrawler(lister, nil, s).Run(context.Background(), []model.CrawlTarget{target("acme")}, RunOptions{PlanOnly: true})

	if summary.Results[0].Inserted != 1 {
		t.Errorf("planned inserts = %d, want 1", summary.Results[0].Inserted)
	}
	stored, _ := s.Select(context.Background(), store.Filter{})
	if len(stored) != 0 {
		t.Errorf("stored = %d, want 0", len(stored))
	}
}

func TestCrawl_BlockedListingStillYieldsDescription(t *testing.T) {
	const careers = "https://acme.com/careers"
	const detail = "https://acme.com/jobs/backend-engineer"
	description := "You will own the ingestion services that move postings from hundreds of careers pages into our catalogue every day."

	client := &pageClient{
		pages: map[string]string{
			adapter.CachedCopyURL(adapter.DefaultCacheURLTemplate, careers): `<html><head><script type="application/ld+json">
				{"@context":"https://schema.org","@type":"JobPosting","title":"Backend Engineer","url":"` + detail + `",
				 "hiringOrganization":{"@type":"Organization","name":"Acme"}}</script></head><body></body></html>`,
			adapter.CachedCopyURL(adapter.DefaultCacheURLTemplate, detail): `<html><body><main><h1>Backend Engineer</h1><p>` + description + `</p></main></body></html>`,
		},
		errs: map[string]error{
			careers: &model.HTTPError{StatusCode: 403},
			detail:  &model.HTTPError{StatusCode: 403},
		},
	}

	s := store.NewMemory()
	c := newCrawler(adapter.NewExtractor(client, discardLogger()), enrich.New(client, discardLogger()), s, WithBatchDelay(0, 0))

	res := c.CrawlCompany(context.Background(), model.CrawlTarget{CompanyID: "acme", CompanyName: "Acme", CareersURL: careers}, RunOptions{FetchDetails: true})
	if res.Status != StatusSuccess {
		t.Fatalf("status = %s, err = %v", res.Status, res.Err)
	}

	stored, err := s.Select(context.Background(), store.Filter{CompanyID: "acme"})
	if err != nil || len(stored) != 1 {
		t.Fatalf("stored = %d, err = %v", len(stored), err)
	}
	if !strings.Contains(stored[0].Description, "ingestion services") {
		t.Errorf("description = %q, want cached detail text", stored[0].Description)
	}
}
