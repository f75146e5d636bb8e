// Package metrics exposes crawl counters and durations to Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Company crawl statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusTimeout = "timeout"
)

// Metrics holds the collectors of one registry.
type Metrics struct {
	gatherer prometheus.Gatherer

	CompaniesCrawled *prometheus.CounterVec
	JobsExtracted    *prometheus.CounterVec
	DetailFetches    *prometheus.CounterVec
	ReconcileOps     *prometheus.CounterVec
	CrawlDuration    prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		CompaniesCrawled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careercrawl_companies_crawled_total",
				Help: "Total number of company crawls by status.",
			},
			[]string{"status"},
		),
		JobsExtracted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careercrawl_jobs_extracted_total",
				Help: "Total number of listing jobs extracted by strategy.",
			},
			[]string{"strategy"},
		),
		DetailFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careercrawl_detail_fetches_total",
				Help: "Total number of detail page lookups by outcome.",
			},
			[]string{"outcome"},
		),
		ReconcileOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careercrawl_reconcile_operations_total",
				Help: "Total number of reconciliation writes by kind.",
			},
			[]string{"kind"},
		),
		CrawlDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "careercrawl_company_crawl_duration_seconds",
				Help:    "Duration of each company crawl in seconds.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 180},
			},
		),
	}
	reg.MustRegister(m.CompaniesCrawled, m.JobsExtracted, m.DetailFetches, m.ReconcileOps, m.CrawlDuration)
	return m
}

// ObserveCompany records one finished company crawl.
func (m *Metrics) ObserveCompany(status string, took time.Duration) {
	m.CompaniesCrawled.WithLabelValues(status).Inc()
	m.CrawlDuration.Observe(took.Seconds())
}

// ObserveStrategy matches adapter.ExtractObserver.
func (m *Metrics) ObserveStrategy(strategy string, jobs int) {
	m.JobsExtracted.WithLabelValues(strategy).Add(float64(jobs))
}

// ObserveDetail matches the enrich observer.
func (m *Metrics) ObserveDetail(outcome string) {
	m.DetailFetches.WithLabelValues(outcome).Inc()
}

// ObserveReconcile matches the reconcile observer.
func (m *Metrics) ObserveReconcile(kind string, n int) {
	m.ReconcileOps.WithLabelValues(kind).Add(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
