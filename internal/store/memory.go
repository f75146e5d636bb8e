package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/amishk599/careercrawl/internal/model"
)

// Memory keeps everything in process. It is selected with store.driver
// "memory" and used by tests.
type Memory struct {
	mu      sync.RWMutex
	jobs    map[string]model.PersistedJob
	targets map[string]model.CrawlTarget
	now     func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		jobs:    make(map[string]model.PersistedJob),
		targets: make(map[string]model.CrawlTarget),
		now:     time.Now,
	}
}

func (m *Memory) Select(_ context.Context, f Filter) ([]model.PersistedJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.PersistedJob
	for _, p := range m.jobs {
		if f.matches(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) Query(_ context.Context, query string, _ ...any) ([]Row, error) {
	return nil, fmt.Errorf("memory store query %q: %w: %w", query, model.ErrStore, ErrUnsupported)
}

// Transaction runs fn on a copy of the data and swaps it in on success.
// Transactions are serialized against every other call. A context done
// before the swap discards the copy.
func (m *Memory) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory store transaction: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &Memory{
		jobs:    maps.Clone(m.jobs),
		targets: maps.Clone(m.targets),
		now:     m.now,
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory store commit: %w", err)
	}
	m.jobs = tx.jobs
	m.targets = tx.targets
	return nil
}

func (m *Memory) Upsert(ctx context.Context, jobs []model.PersistedJob, mode UpsertMode) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("memory store upsert: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, j := range jobs {
		if j.ID == "" {
			return 0, fmt.Errorf("upsert job %q: %w: empty id", j.URL, model.ErrStore)
		}
		if stored, ok := m.jobs[j.ID]; ok && mode == UpsertMerge {
			j = mergeCuration(j, stored)
		}
		j.UpdatedAt = now
		m.jobs[j.ID] = j
	}
	return len(jobs), nil
}

func (m *Memory) DeleteObsolete(ctx context.Context, companyID, companyName string, ids []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("memory store delete: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for _, chunk := range lo.Chunk(ids, ChunkSize) {
		for _, id := range chunk {
			p, ok := m.jobs[id]
			if !ok || !ofCompany(p, companyID, companyName) || !deletable(p) {
				continue
			}
			delete(m.jobs, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *Memory) Targets(_ context.Context) ([]model.CrawlTarget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := slices.Collect(maps.Values(m.targets))
	sort.Slice(out, func(i, j int) bool { return out[i].CompanyName < out[j].CompanyName })
	return out, nil
}

func (m *Memory) SaveTargets(_ context.Context, targets []model.CrawlTarget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range targets {
		m.targets[t.CompanyID] = t
	}
	return nil
}

func (m *Memory) Close() error { return nil }

func (f Filter) matches(p model.PersistedJob) bool {
	switch {
	case f.CompanyID != "":
		if !ofCompany(p, f.CompanyID, f.CompanyName) {
			return false
		}
	case f.CompanyName != "":
		if p.CompanyName != f.CompanyName {
			return false
		}
	}
	return len(f.IDs) == 0 || lo.Contains(f.IDs, p.ID)
}
