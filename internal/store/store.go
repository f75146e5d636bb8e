// Package store persists canonical job records and the companies to crawl.
package store

import (
	"context"
	"errors"

	"github.com/amishk599/careercrawl/internal/model"
)

// UpsertMode controls how an upsert treats an existing row with the same id.
type UpsertMode string

const (
	// UpsertMerge updates crawl-owned columns and keeps the stored curation
	// columns (approval, featured, manual edit flag, translations).
	UpsertMerge UpsertMode = "merge"
	// UpsertReplace overwrites every column.
	UpsertReplace UpsertMode = "replace"
)

// ChunkSize is the number of rows or ids per write statement.
const ChunkSize = 100

// ErrUnsupported is returned by backends that cannot run an operation.
var ErrUnsupported = errors.New("operation not supported by this store")

// Filter selects persisted jobs. Zero fields match everything.
type Filter struct {
	// CompanyID matches rows of the company. When CompanyName is also set,
	// rows without a company id but with that name match too.
	CompanyID   string
	CompanyName string
	IDs         []string
	Limit       int
}

// Row is one result row of a raw query, keyed by column name.
type Row map[string]any

// Store is the persisted-record store. Implementations must be safe for
// concurrent use; writes for one company go through one Transaction.
type Store interface {
	Select(ctx context.Context, f Filter) ([]model.PersistedJob, error)
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
	// Transaction runs fn against a store whose writes commit together when
	// fn returns nil and are discarded otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
	Upsert(ctx context.Context, jobs []model.PersistedJob, mode UpsertMode) (int, error)
	// DeleteObsolete removes the listed ids of the company. Rows with
	// source type manual or the manual edit flag are never deleted.
	DeleteObsolete(ctx context.Context, companyID, companyName string, ids []string) (int, error)
	Targets(ctx context.Context) ([]model.CrawlTarget, error)
	SaveTargets(ctx context.Context, targets []model.CrawlTarget) error
	Close() error
}

// mergeCuration copies the curation fields of stored into incoming.
func mergeCuration(incoming, stored model.PersistedJob) model.PersistedJob {
	incoming.IsManuallyEdited = stored.IsManuallyEdited
	incoming.IsApproved = stored.IsApproved
	incoming.IsFeatured = stored.IsFeatured
	incoming.Translations = stored.Translations
	return incoming
}

// deletable reports whether DeleteObsolete may remove the row.
func deletable(p model.PersistedJob) bool {
	return p.SourceType != model.SourceManual && !p.IsManuallyEdited
}

// ofCompany reports whether the row belongs to the company, falling back to
// the name for rows stored without a company id.
func ofCompany(p model.PersistedJob, companyID, companyName string) bool {
	if companyID != "" && p.CompanyID == companyID {
		return true
	}
	return companyName != "" && p.CompanyID == "" && p.CompanyName == companyName
}
