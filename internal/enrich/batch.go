package enrich

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/careercrawl/internal/model"
)

// BatchOptions bounds one EnrichAll run.
type BatchOptions struct {
	Concurrency      int // fetches per batch, default 3
	MaxDetailFetches int // <= 0 means every candidate lacking a description
	MinDelay         time.Duration
	MaxDelay         time.Duration
}

// DefaultBatchOptions returns the options used when the config leaves them unset.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		Concurrency: 3,
		MinDelay:    time.Second,
		MaxDelay:    3 * time.Second,
	}
}

// BatchStats describes what EnrichAll did.
type BatchStats struct {
	Attempted int
	Enriched  int
}

// EnrichAll fills in details for the jobs lacking a usable description.
// Jobs are fetched in batches of opts.Concurrency; each batch completes
// before a randomized pause and the next batch. Jobs are merged in place.
func (e *Enricher) EnrichAll(ctx context.Context, jobs []*model.CandidateJob, opts BatchOptions) BatchStats {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}

	pending := lo.Filter(jobs, func(j *model.CandidateJob, _ int) bool {
		return j != nil && j.URL != "" && !usable(j.Description)
	})
	if opts.MaxDetailFetches > 0 && len(pending) > opts.MaxDetailFetches {
		pending = pending[:opts.MaxDetailFetches]
	}

	var stats BatchStats
	batches := lo.Chunk(pending, opts.Concurrency)
	for i, batch := range batches {
		if ctx.Err() != nil {
			break
		}
		details := make([]Detail, len(batch))
		var g errgroup.Group
		for k, job := range batch {
			g.Go(func() error {
				details[k] = e.Enrich(ctx, job.URL)
				return nil
			})
		}
		_ = g.Wait()

		for k, job := range batch {
			stats.Attempted++
			if merge(job, details[k]) {
				stats.Enriched++
			}
		}

		if i < len(batches)-1 {
			if err := e.sleep(ctx, jitter(opts.MinDelay, opts.MaxDelay)); err != nil {
				break
			}
		}
	}

	e.logger.Debug("detail enrichment done", "candidates", len(jobs), "attempted", stats.Attempted, "enriched", stats.Enriched)
	return stats
}

// merge copies d into job. The description is replaced only by a longer
// one; other fields are filled only when empty.
func merge(job *model.CandidateJob, d Detail) bool {
	if d.Empty() && d.PublishedAt == nil && d.ApplyURL == "" {
		return false
	}
	changed := false
	if len(d.Description) > len(job.Description) {
		job.Description = d.Description
		changed = true
	}
	if len(job.Requirements) == 0 && len(d.Requirements) > 0 {
		job.Requirements = d.Requirements
		changed = true
	}
	if len(job.Benefits) == 0 && len(d.Benefits) > 0 {
		job.Benefits = d.Benefits
		changed = true
	}
	if job.PublishedAt == nil && d.PublishedAt != nil {
		job.PublishedAt = d.PublishedAt
		changed = true
	}
	if job.ApplyURL == "" && d.ApplyURL != "" {
		job.ApplyURL = d.ApplyURL
		changed = true
	}
	return changed
}

func jitter(minDelay, maxDelay time.Duration) time.Duration {
	if maxDelay <= minDelay {
		return minDelay
	}
	return minDelay + rand.N(maxDelay-minDelay)
}
