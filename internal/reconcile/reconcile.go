// Package reconcile diffs a freshly crawled batch against the stored records
// of one company. It keeps manual curation, migrates identity when a posting
// moves to a new URL, and only deletes records nobody has touched.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/amishk599/careercrawl/internal/model"
	"github.com/amishk599/careercrawl/internal/store"
)

// Default thresholds. They are empirical and meant to be tuned through
// configuration. Tokens keeps every CJK character as its own token, so
// CJK descriptions share many more tokens than word-split ones and score
// higher for the same overlap.
const (
	// DirectSimilarity is the description similarity above which a direct
	// match keeps the stored title and description.
	DirectSimilarity = 0.8
	// FuzzyThreshold is the similarity a title-equal obsolete record needs
	// to be treated as the same posting under a new URL.
	FuzzyThreshold = 0.8
	// ProtectedFuzzyThreshold replaces FuzzyThreshold when the obsolete
	// record is manual, featured or manually edited.
	ProtectedFuzzyThreshold = 0.1
)

// Thresholds groups the similarity cut-offs used by the Engine.
type Thresholds struct {
	Direct         float64
	Fuzzy          float64
	ProtectedFuzzy float64
}

// DefaultThresholds returns the package defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{Direct: DirectSimilarity, Fuzzy: FuzzyThreshold, ProtectedFuzzy: ProtectedFuzzyThreshold}
}

// Kind tells why a record is part of a plan.
type Kind string

const (
	KindInsert  Kind = "insert"
	KindUpdate  Kind = "update"
	KindMigrate Kind = "migrate"
	KindPending Kind = "pending"
	KindDelete  Kind = "delete"
)

// Upsert is one record to write.
type Upsert struct {
	Job  model.PersistedJob
	Kind Kind
}

// Plan is the set of writes that brings the store in line with one crawl.
type Plan struct {
	CompanyID   string
	CompanyName string
	Upserts     []Upsert
	Deletes     []string
	// Pendings are ids of protected records the crawl no longer returns.
	// A record goes pending on its first miss; no miss count is kept.
	// They stay stored with approval withdrawn.
	Pendings []string
}

// Count returns how many upserts of kind k the plan holds. KindDelete
// counts deletes.
func (p Plan) Count(k Kind) int {
	if k == KindDelete {
		return len(p.Deletes)
	}
	return lo.CountBy(p.Upserts, func(u Upsert) bool { return u.Kind == k })
}

// Empty reports whether applying the plan would write nothing.
func (p Plan) Empty() bool {
	return len(p.Upserts) == 0 && len(p.Deletes) == 0
}

// Inserted returns the candidate fields of newly inserted records.
func (p Plan) Inserted() []model.CandidateJob {
	return lo.FilterMap(p.Upserts, func(u Upsert, _ int) (model.CandidateJob, bool) {
		return u.Job.CandidateJob, u.Kind == KindInsert
	})
}

// Engine builds and applies reconciliation plans against a store.
type Engine struct {
	store       store.Store
	logger      *slog.Logger
	thresholds  Thresholds
	autoApprove bool
	observe     func(kind string, n int)
	now         func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithThresholds overrides DefaultThresholds.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) { e.thresholds = t }
}

// WithAutoApprove sets the approval flag of inserted records. Default true.
func WithAutoApprove(v bool) Option {
	return func(e *Engine) { e.autoApprove = v }
}

// WithObserver is called after Apply with the number of writes per kind.
func WithObserver(fn func(kind string, n int)) Option {
	return func(e *Engine) { e.observe = fn }
}

// WithClock replaces time.Now for UpdatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine.
func New(s store.Store, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:       s,
		logger:      logger,
		thresholds:  DefaultThresholds(),
		autoApprove: true,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reconcile loads the company's stored records and computes the plan for
// the fresh batch. It does not write.
func (e *Engine) Reconcile(ctx context.Context, companyID, companyName string, fresh []model.CandidateJob) (Plan, error) {
	existing, err := e.store.Select(ctx, store.Filter{CompanyID: companyID, CompanyName: companyName})
	if err != nil {
		return Plan{}, fmt.Errorf("reconcile load for %s: %w", companyName, err)
	}
	return e.plan(companyID, companyName, fresh, existing), nil
}

func (e *Engine) plan(companyID, companyName string, fresh []model.CandidateJob, existing []model.PersistedJob) Plan {
	plan := Plan{CompanyID: companyID, CompanyName: companyName}
	now := e.now()

	fresh = lo.Map(fresh, func(c model.CandidateJob, _ int) model.CandidateJob {
		if c.ID == "" {
			c.ID = model.JobID(c.URL)
		}
		return c
	})
	fresh = lo.UniqBy(fresh, func(c model.CandidateJob) string { return c.ID })

	byID := make(map[string]int, len(existing))
	byURL := make(map[string]int, len(existing))
	for i, p := range existing {
		byID[p.ID] = i
		if p.URL != "" {
			byURL[model.NormalizeURL(p.URL)] = i
		}
	}

	matched := make([]bool, len(existing))
	var candidates []model.CandidateJob
	for _, c := range fresh {
		i, ok := byID[c.ID]
		if !ok {
			i, ok = byURL[model.NormalizeURL(c.URL)]
		}
		if !ok || matched[i] {
			candidates = append(candidates, c)
			continue
		}
		matched[i] = true
		if merged, changed := e.merge(existing[i], c, companyID, companyName); changed {
			merged.UpdatedAt = now
			plan.Upserts = append(plan.Upserts, Upsert{Job: merged, Kind: KindUpdate})
		}
	}

	var obsolete []int
	for i := range existing {
		if !matched[i] {
			obsolete = append(obsolete, i)
		}
	}

	for _, c := range candidates {
		best, bestScore := -1, 0.0
		for k, i := range obsolete {
			old := existing[i]
			if !strings.EqualFold(strings.TrimSpace(old.Title), strings.TrimSpace(c.Title)) {
				continue
			}
			threshold := e.thresholds.Fuzzy
			if old.Protected() {
				threshold = e.thresholds.ProtectedFuzzy
			}
			score := Similarity(old.Description, c.Description)
			if score > threshold && (best < 0 || score > bestScore) {
				best, bestScore = k, score
			}
		}
		if best < 0 {
			plan.Upserts = append(plan.Upserts, Upsert{Job: e.insert(c, companyID, companyName, now), Kind: KindInsert})
			continue
		}

		old := existing[obsolete[best]]
		obsolete = append(obsolete[:best], obsolete[best+1:]...)
		c.ID = old.ID
		merged, _ := e.merge(old, c, companyID, companyName)
		merged.UpdatedAt = now
		plan.Upserts = append(plan.Upserts, Upsert{Job: merged, Kind: KindMigrate})
		e.logger.Debug("migrating job identity", "company", companyName, "id", old.ID, "from", old.URL, "to", c.URL, "similarity", bestScore)
	}

	for _, i := range obsolete {
		old := existing[i]
		if !old.Protected() {
			plan.Deletes = append(plan.Deletes, old.ID)
			continue
		}
		plan.Pendings = append(plan.Pendings, old.ID)
		if old.IsApproved {
			old.IsApproved = false
			old.UpdatedAt = now
			plan.Upserts = append(plan.Upserts, Upsert{Job: old, Kind: KindPending})
		}
	}
	return plan
}

func (e *Engine) insert(c model.CandidateJob, companyID, companyName string, now time.Time) model.PersistedJob {
	if c.SourceType == "" {
		c.SourceType = model.SourceOfficial
	}
	return model.PersistedJob{
		CandidateJob: c,
		CompanyID:    companyID,
		CompanyName:  companyName,
		IsApproved:   e.autoApprove,
		UpdatedAt:    now,
	}
}

// merge folds fresh crawl data into a stored record. Curation flags always
// survive. A manually edited record keeps its content and only takes the
// crawl's location of the posting; a record whose description is nearly
// unchanged keeps its title, description, tags and translations.
func (e *Engine) merge(old model.PersistedJob, c model.CandidateJob, companyID, companyName string) (model.PersistedJob, bool) {
	out := old
	if out.CompanyID == "" {
		out.CompanyID = companyID
	}
	if out.CompanyName == "" {
		out.CompanyName = companyName
	}

	out.URL = c.URL
	out.Platform = c.Platform
	if c.ApplyURL != "" {
		out.ApplyURL = c.ApplyURL
	}
	if c.PublishedAt != nil {
		out.PublishedAt = c.PublishedAt
	}
	if old.SourceType == "" {
		out.SourceType = c.SourceType
		if out.SourceType == "" {
			out.SourceType = model.SourceOfficial
		}
	}

	if !old.IsManuallyEdited {
		out.Location = c.Location
		out.EmploymentType = c.EmploymentType
		out.Requirements = c.Requirements
		out.Benefits = c.Benefits
		out.Category = c.Category
		out.ExperienceLevel = c.ExperienceLevel
		out.Timezone = c.Timezone
		out.IsRemote = c.IsRemote

		if Similarity(old.Description, c.Description) <= e.thresholds.Direct {
			out.Title = c.Title
			out.Description = c.Description
			out.Tags = c.Tags
			if old.Description != c.Description {
				out.Translations = nil
			}
		}
	}
	return out, !sameRecord(old, out)
}

// Apply writes the plan inside one store transaction. Inserts use merge
// mode so a concurrently curated row keeps its curation; everything else
// replaces the stored row.
func (e *Engine) Apply(ctx context.Context, plan Plan) error {
	if plan.Empty() {
		return nil
	}
	var inserts, rest []model.PersistedJob
	for _, u := range plan.Upserts {
		if u.Kind == KindInsert {
			inserts = append(inserts, u.Job)
		} else {
			rest = append(rest, u.Job)
		}
	}

	err := e.store.Transaction(ctx, func(tx store.Store) error {
		if len(inserts) > 0 {
			if _, err := tx.Upsert(ctx, inserts, store.UpsertMerge); err != nil {
				return err
			}
		}
		if len(rest) > 0 {
			if _, err := tx.Upsert(ctx, rest, store.UpsertReplace); err != nil {
				return err
			}
		}
		if len(plan.Deletes) > 0 {
			if _, err := tx.DeleteObsolete(ctx, plan.CompanyID, plan.CompanyName, plan.Deletes); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reconcile apply for %s: %w", plan.CompanyName, err)
	}

	if e.observe != nil {
		for _, k := range []Kind{KindInsert, KindUpdate, KindMigrate, KindPending, KindDelete} {
			if n := plan.Count(k); n > 0 {
				e.observe(string(k), n)
			}
		}
	}
	e.logger.Info("reconciled company",
		"company", plan.CompanyName,
		"inserted", plan.Count(KindInsert),
		"updated", plan.Count(KindUpdate),
		"migrated", plan.Count(KindMigrate),
		"pending", plan.Count(KindPending),
		"deleted", len(plan.Deletes),
	)
	return nil
}
