package store

import (
	"context"
	"log/slog"

	"github.com/amishk599/careercrawl/internal/model"
)

// DryRun is used by `crawl --dry-run`. Reads go to the wrapped store so the
// reconcile plan is computed against real data; writes are logged and dropped.
type DryRun struct {
	inner  Store
	logger *slog.Logger
}

// NewDryRun wraps inner. A nil inner behaves like an empty store.
func NewDryRun(inner Store, logger *slog.Logger) *DryRun {
	if inner == nil {
		inner = NewMemory()
	}
	return &DryRun{inner: inner, logger: logger}
}

func (d *DryRun) Select(ctx context.Context, f Filter) ([]model.PersistedJob, error) {
	return d.inner.Select(ctx, f)
}

func (d *DryRun) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	return d.inner.Query(ctx, query, args...)
}

func (d *DryRun) Transaction(_ context.Context, fn func(tx Store) error) error {
	return fn(d)
}

func (d *DryRun) Upsert(_ context.Context, jobs []model.PersistedJob, mode UpsertMode) (int, error) {
	for _, j := range jobs {
		d.logger.Info("dry-run upsert", "id", j.ID, "company", j.CompanyName, "title", j.Title, "mode", string(mode))
	}
	return len(jobs), nil
}

func (d *DryRun) DeleteObsolete(_ context.Context, companyID, companyName string, ids []string) (int, error) {
	for _, id := range ids {
		d.logger.Info("dry-run delete", "id", id, "company", companyName, "company_id", companyID)
	}
	return len(ids), nil
}

func (d *DryRun) Targets(ctx context.Context) ([]model.CrawlTarget, error) {
	return d.inner.Targets(ctx)
}

func (d *DryRun) SaveTargets(_ context.Context, targets []model.CrawlTarget) error {
	d.logger.Debug("dry-run targets not saved", "count", len(targets))
	return nil
}

// Close leaves the wrapped store open; its owner closes it.
func (d *DryRun) Close() error { return nil }
