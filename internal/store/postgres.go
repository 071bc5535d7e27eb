package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/ingestion-service/internal/model"
)

const postingColumns = `id, external_id, title, company, location, description, salary_text,
	posted_at, apply_url, source, batch_id, created_at, signature, available`

// Postgres is the pgx-backed Store.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an open pool. The schema must already be migrated.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// ─── Postings ────────────────────────────────────────────────────────────────

func (s *Postgres) ListPostings(ctx context.Context, c Collection, f Filter) ([]model.JobPosting, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w %q", ErrBadCollection, c)
	}

	var (
		where []string
		args  []any
	)
	if f.ActiveOnly {
		where = append(where, "available")
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	q := "SELECT " + postingColumns + " FROM " + table(c)
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if f.OrderByCreatedAsc {
		q += " ORDER BY created_at ASC, id ASC"
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listPostings query: %w", err)
	}
	defer rows.Close()

	postings := make([]model.JobPosting, 0)
	for rows.Next() {
		var p model.JobPosting
		if err := rows.Scan(
			&p.ID, &p.ExternalID, &p.Title, &p.Company, &p.Location, &p.Description, &p.SalaryText,
			&p.PostedAt, &p.ApplyURL, &p.Source, &p.BatchID, &p.CreatedAt, &p.Signature, &p.Available,
		); err != nil {
			return nil, fmt.Errorf("listPostings scan: %w", err)
		}
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

func (s *Postgres) CreatePosting(ctx context.Context, c Collection, p model.JobPosting) error {
	if !c.Valid() {
		return fmt.Errorf("%w %q", ErrBadCollection, c)
	}
	q, args := insertPosting(c, p)
	if _, err := s.pool.Exec(ctx, q, args...); err != nil {
		return fmt.Errorf("createPosting: %w", err)
	}
	return nil
}

func (s *Postgres) DeletePosting(ctx context.Context, c Collection, id string) error {
	if !c.Valid() {
		return fmt.Errorf("%w %q", ErrBadCollection, c)
	}
	tag, err := s.pool.Exec(ctx, "DELETE FROM "+table(c)+" WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deletePosting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) SetAvailability(ctx context.Context, c Collection, id string, available bool) error {
	if !c.Valid() {
		return fmt.Errorf("%w %q", ErrBadCollection, c)
	}
	tag, err := s.pool.Exec(ctx, "UPDATE "+table(c)+" SET available = $1 WHERE id = $2", available, id)
	if err != nil {
		return fmt.Errorf("setAvailability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Commit sends every operation as one pgx.Batch inside a transaction.
func (s *Postgres) Commit(ctx context.Context, ops []Op) error {
	if err := ValidateOps(ops); err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("commit begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, op := range ops {
		switch op.Kind {
		case OpCreate:
			q, args := insertPosting(op.Collection, op.Posting)
			batch.Queue(q, args...)
		case OpDelete:
			batch.Queue("DELETE FROM "+table(op.Collection)+" WHERE id = $1", op.ID)
		}
	}

	br := tx.SendBatch(ctx, batch)
	for i := range ops {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("commit op %d (%s): %w", i, ops[i].Kind, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("commit batch close: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ─── Batch runs ──────────────────────────────────────────────────────────────

func (s *Postgres) LatestBatchRun(ctx context.Context, batchID string) (model.BatchRun, error) {
	var (
		r      model.BatchRun
		execMS int64
	)
	err := s.pool.QueryRow(ctx,
		`SELECT run_id, batch_id, completed_at, total_fetched, new_jobs, duplicates,
		        filtered, skipped, failed_writes, queries_processed, errors, execution_ms
		 FROM batch_runs
		 WHERE batch_id = $1
		 ORDER BY completed_at DESC
		 LIMIT 1`,
		batchID,
	).Scan(
		&r.RunID, &r.BatchID, &r.CompletedAt, &r.TotalFetched, &r.NewJobs, &r.Duplicates,
		&r.Filtered, &r.Skipped, &r.FailedWrites, &r.QueriesProcessed, &r.Errors, &execMS,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.BatchRun{}, ErrNotFound
	}
	if err != nil {
		return model.BatchRun{}, fmt.Errorf("latestBatchRun: %w", err)
	}
	r.ExecutionTime = time.Duration(execMS) * time.Millisecond
	return r, nil
}

func (s *Postgres) CreateBatchRun(ctx context.Context, r model.BatchRun) error {
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO batch_runs (run_id, batch_id, completed_at, total_fetched, new_jobs, duplicates,
		                         filtered, skipped, failed_writes, queries_processed, errors, execution_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		r.RunID, r.BatchID, r.CompletedAt, r.TotalFetched, r.NewJobs, r.Duplicates,
		r.Filtered, r.Skipped, r.FailedWrites, r.QueriesProcessed, errs, r.ExecutionTime.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("createBatchRun: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

func table(c Collection) string {
	return pgx.Identifier{string(c)}.Sanitize()
}

// insertPosting builds an insert that silently skips ID and active-signature
// conflicts.
func insertPosting(c Collection, p model.JobPosting) (string, []any) {
	q := "INSERT INTO " + table(c) + " (" + postingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT DO NOTHING`
	return q, []any{
		p.ID, p.ExternalID, p.Title, p.Company, p.Location, p.Description, p.SalaryText,
		p.PostedAt, p.ApplyURL, p.Source, p.BatchID, p.CreatedAt, p.Signature, p.Available,
	}
}
