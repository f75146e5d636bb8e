package store

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/amishk599/careercrawl/internal/model"
)

// backends runs a test against every Store that needs no external service.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, newTestSQLite(t)) })
}

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func job(id, companyID, title string) model.PersistedJob {
	return model.PersistedJob{
		CandidateJob: model.CandidateJob{
			ID:         id,
			Title:      title,
			URL:        "https://acme.com/jobs/" + id,
			SourceType: model.SourceOfficial,
			Platform:   model.PlatformGreenhouse,
			Category:   "Engineering",
			Tags:       []string{"Platform"},
		},
		CompanyID:   companyID,
		CompanyName: "Acme",
	}
}

func TestUpsertThenSelect(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		published := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
		a := job("job_a", "acme", "Backend Engineer")
		a.PublishedAt = &published
		a.Requirements = []string{"Go", "SQL"}
		a.Translations = map[string]string{"de": "Backend-Entwickler"}
		b := job("job_b", "other", "Designer")

		if n, err := s.Upsert(ctx, []model.PersistedJob{a, b}, UpsertReplace); err != nil || n != 2 {
			t.Fatalf("Upsert: n=%d err=%v", n, err)
		}

		got, err := s.Select(ctx, Filter{CompanyID: "acme"})
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if len(got) != 1 || got[0].ID != "job_a" {
			t.Fatalf("expected only job_a, got %+v", got)
		}
		g := got[0]
		if g.PublishedAt == nil || !g.PublishedAt.Equal(published) {
			t.Errorf("PublishedAt = %v, want %v", g.PublishedAt, published)
		}
		if len(g.Requirements) != 2 || g.Translations["de"] != "Backend-Entwickler" {
			t.Errorf("json columns not round-tripped: %+v", g)
		}
		if g.Platform != model.PlatformGreenhouse || g.UpdatedAt.IsZero() {
			t.Errorf("unexpected platform/updated_at: %q %v", g.Platform, g.UpdatedAt)
		}
	})
}

func TestSelect_CompanyNameFallback(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		orphan := job("job_orphan", "", "Legacy Role")
		stranger := job("job_x", "", "Other Role")
		stranger.CompanyName = "Globex"
		if _, err := s.Upsert(ctx, []model.PersistedJob{job("job_a", "acme", "A"), orphan, stranger}, UpsertReplace); err != nil {
			t.Fatalf("Upsert: %v", err)
		}

		got, err := s.Select(ctx, Filter{CompanyID: "acme", CompanyName: "Acme"})
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if len(got) != 2 || got[0].ID != "job_a" || got[1].ID != "job_orphan" {
			t.Fatalf("expected job_a and job_orphan, got %+v", got)
		}
	})
}

func TestUpsertMerge_KeepsCuration(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		curated := job("job_a", "acme", "Backend Engineer")
		curated.IsApproved = true
		curated.IsFeatured = true
		curated.Translations = map[string]string{"fr": "Ingénieur"}
		if _, err := s.Upsert(ctx, []model.PersistedJob{curated}, UpsertReplace); err != nil {
			t.Fatalf("Upsert: %v", err)
		}

		fresh := job("job_a", "acme", "Backend Engineer II")
		if _, err := s.Upsert(ctx, []model.PersistedJob{fresh}, UpsertMerge); err != nil {
			t.Fatalf("Upsert merge: %v", err)
		}
		got, _ := s.Select(ctx, Filter{IDs: []string{"job_a"}})
		if len(got) != 1 {
			t.Fatalf("expected 1 row, got %d", len(got))
		}
		if got[0].Title != "Backend Engineer II" {
			t.Errorf("Title = %q, want crawl update applied", got[0].Title)
		}
		if !got[0].IsApproved || !got[0].IsFeatured || got[0].Translations["fr"] != "Ingénieur" {
			t.Errorf("curation lost: %+v", got[0])
		}

		if _, err := s.Upsert(ctx, []model.PersistedJob{fresh}, UpsertReplace); err != nil {
			t.Fatalf("Upsert replace: %v", err)
		}
		got, _ = s.Select(ctx, Filter{IDs: []string{"job_a"}})
		if got[0].IsApproved || got[0].IsFeatured {
			t.Errorf("replace should overwrite curation: %+v", got[0])
		}
	})
}

func TestDeleteObsolete_SkipsProtectedAndOtherCompanies(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		manual := job("job_manual", "acme", "Manual")
		manual.SourceType = model.SourceManual
		edited := job("job_edited", "acme", "Edited")
		edited.IsManuallyEdited = true
		orphan := job("job_orphan", "", "Orphan")
		foreign := job("job_foreign", "globex", "Foreign")
		plain := job("job_plain", "acme", "Plain")

		all := []model.PersistedJob{manual, edited, orphan, foreign, plain}
		if _, err := s.Upsert(ctx, all, UpsertReplace); err != nil {
			t.Fatalf("Upsert: %v", err)
		}

		ids := []string{"job_manual", "job_edited", "job_orphan", "job_foreign", "job_plain"}
		n, err := s.DeleteObsolete(ctx, "acme", "Acme", ids)
		if err != nil {
			t.Fatalf("DeleteObsolete: %v", err)
		}
		if n != 2 {
			t.Errorf("deleted %d rows, want 2 (plain + orphan)", n)
		}

		left, _ := s.Select(ctx, Filter{})
		remaining := map[string]bool{}
		for _, p := range left {
			remaining[p.ID] = true
		}
		for _, id := range []string{"job_manual", "job_edited", "job_foreign"} {
			if !remaining[id] {
				t.Errorf("%s should survive", id)
			}
		}
		for _, id := range []string{"job_plain", "job_orphan"} {
			if remaining[id] {
				t.Errorf("%s should be deleted", id)
			}
		}
	})
}

func TestDeleteObsolete_Chunks(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		var jobs []model.PersistedJob
		var ids []string
		for i := 0; i < ChunkSize*2+5; i++ {
			id := "job_" + strconv.Itoa(i)
			jobs = append(jobs, job(id, "acme", "Role"))
			ids = append(ids, id)
		}
		if _, err := s.Upsert(ctx, jobs, UpsertReplace); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		n, err := s.DeleteObsolete(ctx, "acme", "Acme", ids)
		if err != nil {
			t.Fatalf("DeleteObsolete: %v", err)
		}
		if n != len(ids) {
			t.Errorf("deleted %d, want %d", n, len(ids))
		}
	})
}

func TestTransaction_RollbackOnError(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		boom := errors.New("boom")
		err := s.Transaction(ctx, func(tx Store) error {
			if _, err := tx.Upsert(ctx, []model.PersistedJob{job("job_a", "acme", "A")}, UpsertReplace); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		got, _ := s.Select(ctx, Filter{})
		if len(got) != 0 {
			t.Errorf("expected rollback, found %d rows", len(got))
		}

		err = s.Transaction(ctx, func(tx Store) error {
			_, err := tx.Upsert(ctx, []model.PersistedJob{job("job_b", "acme", "B")}, UpsertReplace)
			return err
		})
		if err != nil {
			t.Fatalf("Transaction: %v", err)
		}
		got, _ = s.Select(ctx, Filter{})
		if len(got) != 1 {
			t.Errorf("expected committed row, found %d", len(got))
		}
	})
}

func TestMemory_CancelledContextWritesNothing(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.Upsert(ctx, []model.PersistedJob{job("job_a", "acme", "Backend Engineer")}, UpsertReplace); !errors.Is(err, context.Canceled) {
		t.Errorf("Upsert err = %v, want context.Canceled", err)
	}
	if _, err := m.DeleteObsolete(ctx, "acme", "Acme", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("DeleteObsolete err = %v, want context.Canceled", err)
	}
	if err := m.Transaction(ctx, func(Store) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("Transaction err = %v, want context.Canceled", err)
	}

	// Cancelled mid-transaction: the copy is discarded.
	txCtx, txCancel := context.WithCancel(context.Background())
	err := m.Transaction(txCtx, func(tx Store) error {
		if _, err := tx.Upsert(txCtx, []model.PersistedJob{job("job_b", "acme", "Designer")}, UpsertReplace); err != nil {
			return err
		}
		txCancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Transaction err = %v, want context.Canceled", err)
	}

	got, err := m.Select(context.Background(), Filter{CompanyID: "acme"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("stored = %d, want 0", len(got))
	}
}

func TestTargets_SaveAndLoad(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		targets := []model.CrawlTarget{
			{CompanyID: "zeta", CompanyName: "Zeta", CareersURL: "https://zeta.io/careers"},
			{CompanyID: "acme", CompanyName: "Acme", CareersURL: "https://boards.greenhouse.io/acme", KeepStale: true},
		}
		if err := s.SaveTargets(ctx, targets); err != nil {
			t.Fatalf("SaveTargets: %v", err)
		}
		got, err := s.Targets(ctx)
		if err != nil {
			t.Fatalf("Targets: %v", err)
		}
		if len(got) != 2 || got[0].CompanyID != "acme" || !got[0].KeepStale {
			t.Fatalf("unexpected targets: %+v", got)
		}
	})
}

func TestUpsert_RejectsEmptyID(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		_, err := s.Upsert(context.Background(), []model.PersistedJob{job("", "acme", "A")}, UpsertReplace)
		if !errors.Is(err, model.ErrStore) {
			t.Fatalf("expected ErrStore, got %v", err)
		}
	})
}
