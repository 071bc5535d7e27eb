package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"jobmate/ingestion-service/internal/model"
)

// SQLite is a single-file Store for local runs. Timestamps are stored as
// Unix nanoseconds so that ORDER BY created_at is chronological.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open %q: %w", path, err)
	}
	// sqlite wants a single writer
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping %q: %w", path, err)
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

const sqliteSchemaVersion = 1

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= sqliteSchemaVersion {
		return tx.Commit()
	}

	stmts := []string{
		postingTableDDL(Canonical),
		`CREATE UNIQUE INDEX IF NOT EXISTS job_postings_active_signature_idx
		   ON job_postings (signature) WHERE available = 1;`,
		`CREATE INDEX IF NOT EXISTS job_postings_created_at_idx ON job_postings (created_at);`,
		postingTableDDL(Staging),
		`CREATE INDEX IF NOT EXISTS job_postings_staging_created_at_idx ON job_postings_staging (created_at);`,
		`CREATE TABLE IF NOT EXISTS batch_runs (
		   run_id TEXT PRIMARY KEY,
		   batch_id TEXT NOT NULL,
		   completed_at INTEGER NOT NULL,
		   total_fetched INTEGER NOT NULL DEFAULT 0,
		   new_jobs INTEGER NOT NULL DEFAULT 0,
		   duplicates INTEGER NOT NULL DEFAULT 0,
		   filtered INTEGER NOT NULL DEFAULT 0,
		   skipped INTEGER NOT NULL DEFAULT 0,
		   failed_writes INTEGER NOT NULL DEFAULT 0,
		   queries_processed INTEGER NOT NULL DEFAULT 0,
		   errors TEXT NOT NULL DEFAULT '[]',
		   execution_ms INTEGER NOT NULL DEFAULT 0
		 );`,
		`CREATE INDEX IF NOT EXISTS batch_runs_batch_id_idx ON batch_runs (batch_id, completed_at);`,
		fmt.Sprintf(`PRAGMA user_version = %d;`, sqliteSchemaVersion),
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func postingTableDDL(c Collection) string {
	return `CREATE TABLE IF NOT EXISTS ` + string(c) + ` (
	  id TEXT PRIMARY KEY,
	  external_id TEXT NOT NULL DEFAULT '',
	  title TEXT NOT NULL,
	  company TEXT NOT NULL,
	  location TEXT NOT NULL DEFAULT '',
	  description TEXT NOT NULL DEFAULT '',
	  salary_text TEXT NOT NULL DEFAULT '',
	  posted_at INTEGER,
	  apply_url TEXT NOT NULL DEFAULT '',
	  source TEXT NOT NULL,
	  batch_id TEXT NOT NULL,
	  created_at INTEGER NOT NULL,
	  signature TEXT NOT NULL,
	  available INTEGER NOT NULL DEFAULT 1
	);`
}

// ─── Postings ────────────────────────────────────────────────────────────────

func (s *SQLite) ListPostings(ctx context.Context, c Collection, f Filter) ([]model.JobPosting, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w %q", ErrBadCollection, c)
	}

	var (
		where []string
		args  []any
	)
	if f.ActiveOnly {
		where = append(where, "available = 1")
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.Since.UnixNano())
	}
	q := "SELECT " + postingColumns + " FROM " + string(c)
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if f.OrderByCreatedAsc {
		q += " ORDER BY created_at ASC, id ASC"
	}
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listPostings query: %w", err)
	}
	defer rows.Close()

	postings := make([]model.JobPosting, 0)
	for rows.Next() {
		var (
			p         model.JobPosting
			postedAt  sql.NullInt64
			createdAt int64
		)
		if err := rows.Scan(
			&p.ID, &p.ExternalID, &p.Title, &p.Company, &p.Location, &p.Description, &p.SalaryText,
			&postedAt, &p.ApplyURL, &p.Source, &p.BatchID, &createdAt, &p.Signature, &p.Available,
		); err != nil {
			return nil, fmt.Errorf("listPostings scan: %w", err)
		}
		if postedAt.Valid {
			t := time.Unix(0, postedAt.Int64).UTC()
			p.PostedAt = &t
		}
		p.CreatedAt = time.Unix(0, createdAt).UTC()
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

func (s *SQLite) CreatePosting(ctx context.Context, c Collection, p model.JobPosting) error {
	if !c.Valid() {
		return fmt.Errorf("%w %q", ErrBadCollection, c)
	}
	q, args := sqliteInsertPosting(c, p)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("createPosting: %w", err)
	}
	return nil
}

func (s *SQLite) DeletePosting(ctx context.Context, c Collection, id string) error {
	if !c.Valid() {
		return fmt.Errorf("%w %q", ErrBadCollection, c)
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+string(c)+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deletePosting: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) SetAvailability(ctx context.Context, c Collection, id string, available bool) error {
	if !c.Valid() {
		return fmt.Errorf("%w %q", ErrBadCollection, c)
	}
	res, err := s.db.ExecContext(ctx, "UPDATE "+string(c)+" SET available = ? WHERE id = ?", available, id)
	if err != nil {
		return fmt.Errorf("setAvailability: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) Commit(ctx context.Context, ops []Op) error {
	if err := ValidateOps(ops); err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, op := range ops {
		var (
			q    string
			args []any
		)
		switch op.Kind {
		case OpCreate:
			q, args = sqliteInsertPosting(op.Collection, op.Posting)
		case OpDelete:
			q, args = "DELETE FROM "+string(op.Collection)+" WHERE id = ?", []any{op.ID}
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("commit op %d (%s): %w", i, op.Kind, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ─── Batch runs ──────────────────────────────────────────────────────────────

func (s *SQLite) LatestBatchRun(ctx context.Context, batchID string) (model.BatchRun, error) {
	var (
		r           model.BatchRun
		completedAt int64
		errsJSON    string
		execMS      int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, batch_id, completed_at, total_fetched, new_jobs, duplicates,
		        filtered, skipped, failed_writes, queries_processed, errors, execution_ms
		 FROM batch_runs
		 WHERE batch_id = ?
		 ORDER BY completed_at DESC, rowid DESC
		 LIMIT 1`,
		batchID,
	).Scan(
		&r.RunID, &r.BatchID, &completedAt, &r.TotalFetched, &r.NewJobs, &r.Duplicates,
		&r.Filtered, &r.Skipped, &r.FailedWrites, &r.QueriesProcessed, &errsJSON, &execMS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.BatchRun{}, ErrNotFound
	}
	if err != nil {
		return model.BatchRun{}, fmt.Errorf("latestBatchRun: %w", err)
	}
	if err := json.Unmarshal([]byte(errsJSON), &r.Errors); err != nil {
		return model.BatchRun{}, fmt.Errorf("latestBatchRun errors column: %w", err)
	}
	r.CompletedAt = time.Unix(0, completedAt).UTC()
	r.ExecutionTime = time.Duration(execMS) * time.Millisecond
	return r, nil
}

func (s *SQLite) CreateBatchRun(ctx context.Context, r model.BatchRun) error {
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	errsJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("createBatchRun marshal errors: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO batch_runs (run_id, batch_id, completed_at, total_fetched, new_jobs, duplicates,
		                         filtered, skipped, failed_writes, queries_processed, errors, execution_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.BatchID, r.CompletedAt.UnixNano(), r.TotalFetched, r.NewJobs, r.Duplicates,
		r.Filtered, r.Skipped, r.FailedWrites, r.QueriesProcessed, string(errsJSON), r.ExecutionTime.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("createBatchRun: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func sqliteInsertPosting(c Collection, p model.JobPosting) (string, []any) {
	var postedAt any
	if p.PostedAt != nil {
		postedAt = p.PostedAt.UnixNano()
	}
	q := "INSERT INTO " + string(c) + " (" + postingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`
	return q, []any{
		p.ID, p.ExternalID, p.Title, p.Company, p.Location, p.Description, p.SalaryText,
		postedAt, p.ApplyURL, p.Source, p.BatchID, p.CreatedAt.UnixNano(), p.Signature, p.Available,
	}
}
