package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/samber/lo"

	"github.com/amishk599/careercrawl/internal/model"
)

// dialect holds what differs between the SQL backends.
type dialect struct {
	name        string
	placeholder sq.PlaceholderFormat
	schema      []string
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// sqlStore implements Store on database/sql for every SQL backend.
type sqlStore struct {
	db      *sql.DB // nil inside a transaction
	exec    execer
	dialect dialect
	now     func() time.Time
}

var jobColumns = []string{
	"id", "company_id", "company_name", "title", "url", "location", "employment_type",
	"description", "requirements", "benefits", "tags", "published_at", "apply_url",
	"source_type", "platform", "category", "experience_level", "timezone", "is_remote",
	"is_manually_edited", "is_approved", "is_featured", "translations", "updated_at",
}

// curationColumns are left untouched by UpsertMerge on conflict.
var curationColumns = []string{"is_manually_edited", "is_approved", "is_featured", "translations"}

func newSQLStore(db *sql.DB, d dialect) (*sqlStore, error) {
	for _, stmt := range d.schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("creating %s schema: %w", d.name, err)
		}
	}
	return &sqlStore{db: db, exec: db, dialect: d, now: time.Now}, nil
}

func (s *sqlStore) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(s.dialect.placeholder)
}

func (s *sqlStore) Select(ctx context.Context, f Filter) ([]model.PersistedJob, error) {
	q := s.builder().Select(jobColumns...).From("jobs").OrderBy("id")
	switch {
	case f.CompanyID != "" && f.CompanyName != "":
		q = q.Where(sq.Or{
			sq.Eq{"company_id": f.CompanyID},
			sq.And{sq.Eq{"company_id": ""}, sq.Eq{"company_name": f.CompanyName}},
		})
	case f.CompanyID != "":
		q = q.Where(sq.Eq{"company_id": f.CompanyID})
	case f.CompanyName != "":
		q = q.Where(sq.Eq{"company_name": f.CompanyName})
	}
	if len(f.IDs) > 0 {
		q = q.Where(sq.Eq{"id": f.IDs})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}
	rows, err := s.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("selecting jobs for %q: %w: %w", f.CompanyID, model.ErrStore, err)
	}
	defer rows.Close()

	var out []model.PersistedJob
	for rows.Next() {
		p, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job row: %w: %w", model.ErrStore, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating job rows: %w: %w", model.ErrStore, err)
	}
	return out, nil
}

func (s *sqlStore) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w: %w", model.ErrStore, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query columns: %w: %w", model.ErrStore, err)
	}
	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("query scan: %w: %w", model.ErrStore, err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query rows: %w: %w", model.ErrStore, err)
	}
	return out, nil
}

// Transaction begins a database transaction. Nested calls reuse the outer one.
func (s *sqlStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w: %w", model.ErrStore, err)
	}
	if err := fn(&sqlStore{exec: tx, dialect: s.dialect, now: s.now}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback after %v: %w: %w", err, model.ErrStore, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w: %w", model.ErrStore, err)
	}
	return nil
}

func (s *sqlStore) Upsert(ctx context.Context, jobs []model.PersistedJob, mode UpsertMode) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}
	updated := jobColumns[1:]
	if mode == UpsertMerge {
		updated = lo.Without(updated, curationColumns...)
	}
	sets := lo.Map(updated, func(c string, _ int) string { return c + " = excluded." + c })
	suffix := "ON CONFLICT (id) DO UPDATE SET " + strings.Join(sets, ", ")

	now := s.now().UTC()
	written := 0
	for _, chunk := range lo.Chunk(jobs, ChunkSize) {
		q := s.builder().Insert("jobs").Columns(jobColumns...).Suffix(suffix)
		for _, j := range chunk {
			if j.ID == "" {
				return written, fmt.Errorf("upsert job %q: %w: empty id", j.URL, model.ErrStore)
			}
			j.UpdatedAt = now
			values, err := jobValues(j)
			if err != nil {
				return written, err
			}
			q = q.Values(values...)
		}
		query, args, err := q.ToSql()
		if err != nil {
			return written, fmt.Errorf("building upsert: %w", err)
		}
		if _, err := s.exec.ExecContext(ctx, query, args...); err != nil {
			return written, fmt.Errorf("upserting %d jobs: %w: %w", len(chunk), model.ErrStore, err)
		}
		written += len(chunk)
	}
	return written, nil
}

func (s *sqlStore) DeleteObsolete(ctx context.Context, companyID, companyName string, ids []string) (int, error) {
	deleted := 0
	for _, chunk := range lo.Chunk(ids, ChunkSize) {
		owner := sq.Or{sq.And{sq.Eq{"company_id": ""}, sq.Eq{"company_name": companyName}}}
		if companyID != "" {
			owner = append(owner, sq.Eq{"company_id": companyID})
		}
		query, args, err := s.builder().Delete("jobs").
			Where(sq.Eq{"id": chunk}).
			Where(owner).
			Where(sq.NotEq{"source_type": model.SourceManual}).
			Where(sq.Eq{"is_manually_edited": false}).
			ToSql()
		if err != nil {
			return deleted, fmt.Errorf("building delete: %w", err)
		}
		res, err := s.exec.ExecContext(ctx, query, args...)
		if err != nil {
			return deleted, fmt.Errorf("deleting obsolete jobs for %s: %w: %w", companyName, model.ErrStore, err)
		}
		n, _ := res.RowsAffected()
		deleted += int(n)
	}
	return deleted, nil
}

func (s *sqlStore) Targets(ctx context.Context) ([]model.CrawlTarget, error) {
	query, args, err := s.builder().
		Select("id", "name", "careers_url", "keep_stale").
		From("companies").
		Where(sq.Eq{"enabled": true}).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building targets query: %w", err)
	}
	rows, err := s.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("loading targets: %w: %w", model.ErrStore, err)
	}
	defer rows.Close()

	var out []model.CrawlTarget
	for rows.Next() {
		var t model.CrawlTarget
		if err := rows.Scan(&t.CompanyID, &t.CompanyName, &t.CareersURL, &t.KeepStale); err != nil {
			return nil, fmt.Errorf("scanning target: %w: %w", model.ErrStore, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *sqlStore) SaveTargets(ctx context.Context, targets []model.CrawlTarget) error {
	if len(targets) == 0 {
		return nil
	}
	q := s.builder().Insert("companies").
		Columns("id", "name", "careers_url", "keep_stale", "enabled").
		Suffix("ON CONFLICT (id) DO UPDATE SET name = excluded.name, careers_url = excluded.careers_url, keep_stale = excluded.keep_stale, enabled = excluded.enabled")
	for _, t := range targets {
		q = q.Values(t.CompanyID, t.CompanyName, t.CareersURL, t.KeepStale, true)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("building targets upsert: %w", err)
	}
	if _, err := s.exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("saving %d targets: %w: %w", len(targets), model.ErrStore, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *sqlStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(r rowScanner) (model.PersistedJob, error) {
	var (
		p                                    model.PersistedJob
		requirements, benefits, tags, transl string
		platform                             string
		published                            sql.NullTime
		updated                              sql.NullTime
	)
	err := r.Scan(
		&p.ID, &p.CompanyID, &p.CompanyName, &p.Title, &p.URL, &p.Location, &p.EmploymentType,
		&p.Description, &requirements, &benefits, &tags, &published, &p.ApplyURL,
		&p.SourceType, &platform, &p.Category, &p.ExperienceLevel, &p.Timezone, &p.IsRemote,
		&p.IsManuallyEdited, &p.IsApproved, &p.IsFeatured, &transl, &updated,
	)
	if err != nil {
		return p, err
	}
	p.Platform = model.PlatformKind(platform)
	if published.Valid {
		t := published.Time.UTC()
		p.PublishedAt = &t
	}
	if updated.Valid {
		p.UpdatedAt = updated.Time.UTC()
	}
	for _, f := range []struct {
		raw string
		dst any
	}{
		{requirements, &p.Requirements},
		{benefits, &p.Benefits},
		{tags, &p.Tags},
		{transl, &p.Translations},
	} {
		if f.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return p, fmt.Errorf("decoding json column of %s: %w", p.ID, err)
		}
	}
	return p, nil
}

func jobValues(j model.PersistedJob) ([]any, error) {
	encoded := make([]string, 4)
	for i, v := range []any{j.Requirements, j.Benefits, j.Tags, j.Translations} {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding json column of %s: %w", j.ID, err)
		}
		encoded[i] = string(b)
	}
	var published any
	if j.PublishedAt != nil {
		published = j.PublishedAt.UTC()
	}
	return []any{
		j.ID, j.CompanyID, j.CompanyName, j.Title, j.URL, j.Location, j.EmploymentType,
		j.Description, encoded[0], encoded[1], encoded[2], published, j.ApplyURL,
		j.SourceType, string(j.Platform), j.Category, j.ExperienceLevel, j.Timezone, j.IsRemote,
		j.IsManuallyEdited, j.IsApproved, j.IsFeatured, encoded[3], j.UpdatedAt,
	}, nil
}
