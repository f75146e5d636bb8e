// Package cache stores detail page results so repeated crawls skip the
// network for postings already enriched.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/amishk599/careercrawl/internal/enrich"
)

// Memory is an in-process enrich.Cache with per-entry expiry.
type Memory struct {
	cache *gocache.Cache
}

// NewMemory creates a cache whose entries live for ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{cache: gocache.New(ttl, 2*ttl)}
}

func (m *Memory) Get(_ context.Context, key string) (enrich.Detail, bool) {
	v, found := m.cache.Get(key)
	if !found {
		return enrich.Detail{}, false
	}
	d, ok := v.(enrich.Detail)
	return d, ok
}

func (m *Memory) Set(_ context.Context, key string, d enrich.Detail) {
	m.cache.Set(key, d, gocache.DefaultExpiration)
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	return m.cache.ItemCount()
}
