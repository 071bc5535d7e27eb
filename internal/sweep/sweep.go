// Package sweep reconciles the canonical collection and drains the staging
// collection into it, using the same duplicate resolver as live ingestion.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"jobmate/ingestion-service/internal/dedup"
	"jobmate/ingestion-service/internal/events"
	"jobmate/ingestion-service/internal/metrics"
	"jobmate/ingestion-service/internal/model"
	"jobmate/ingestion-service/internal/store"
)

// Publisher announces completed sweeps.
type Publisher interface {
	PublishSweepCompleted(ctx context.Context, ev events.SweepCompleted) error
}

// Options configures one sweep.
type Options struct {
	DryRun    bool
	Threshold float64 // 0 = similarity.DefaultThreshold
	ChunkSize int     // 0 = store.MaxBatchOps
}

// Result summarises a sweep.
type Result struct {
	Migrated         int                    `json:"migrated"`
	Duplicates       int                    `json:"duplicates"`
	Removed          int                    `json:"removed"`
	StagingProcessed int                    `json:"stagingProcessed"`
	DuplicateGroups  []model.DuplicateGroup `json:"duplicateGroups"`
	Errors           []string               `json:"errors"`
	DryRun           bool                   `json:"dryRun"`
	Duration         time.Duration          `json:"duration"`
}

// Sweeper runs sweeps against a store.
type Sweeper struct {
	store     store.Store
	publisher Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
	log       *slog.Logger
}

func New(st store.Store) *Sweeper {
	return &Sweeper{
		store: st,
		now:   time.Now,
		log:   slog.Default().With("component", "sweep"),
	}
}

// WithPublisher enables completion events.
func (s *Sweeper) WithPublisher(p Publisher) *Sweeper { s.publisher = p; return s }

// WithMetrics enables Prometheus accounting.
func (s *Sweeper) WithMetrics(m *metrics.Metrics) *Sweeper { s.metrics = m; return s }

// Run reconciles canonical, then migrates staging. Only store reads are
// fatal; write failures are listed in Result.Errors.
func (s *Sweeper) Run(ctx context.Context, opts Options) (Result, error) {
	start := s.now()
	res := Result{DryRun: opts.DryRun, Errors: []string{}}
	if opts.ChunkSize < 0 || opts.ChunkSize > store.MaxBatchOps {
		return res, fmt.Errorf("chunk size must be within [1,%d], got %d", store.MaxBatchOps, opts.ChunkSize)
	}
	chunkSize := opts.ChunkSize
	if chunkSize == 0 {
		chunkSize = store.MaxBatchOps
	}
	// A staging record may need a create and a delete in the same chunk.
	chunkSize = max(chunkSize, 2)
	resolver := dedup.Resolver{Threshold: opts.Threshold}
	groups := dedup.NewGroupSet()
	log := s.log.With("dry_run", opts.DryRun)

	// ── Canonical reconciliation ───────────────────────────
	canonical, err := s.store.ListPostings(ctx, store.Canonical, store.Filter{ActiveOnly: true, OrderByCreatedAsc: true})
	if err != nil {
		return res, fmt.Errorf("load canonical: %w", err)
	}
	rec := dedup.Reconcile(canonical, resolver)
	for _, g := range rec.Groups {
		groups.AddGroup(g)
	}
	res.Duplicates += len(rec.Removed)
	log.Info("canonical reconciled", "postings", len(canonical), "losers", len(rec.Removed))

	if opts.DryRun {
		res.Removed = len(rec.Removed)
	} else {
		deletes := make([]store.Op, len(rec.Removed))
		for i, p := range rec.Removed {
			deletes[i] = store.Delete(store.Canonical, p.ID)
		}
		for i, chunk := range store.Chunk(deletes, chunkSize) {
			if err := s.store.Commit(ctx, chunk); err != nil {
				s.metrics.CommitChunk(err)
				res.Errors = append(res.Errors, fmt.Sprintf("delete canonical chunk %d: %v", i+1, err))
				continue
			}
			s.metrics.CommitChunk(nil)
			res.Removed += len(chunk)
		}
	}

	// ── Staging migration ──────────────────────────────────
	idx := dedup.NewIndex()
	idx.Seed(rec.Survivors)

	staging, err := s.store.ListPostings(ctx, store.Staging, store.Filter{OrderByCreatedAsc: true})
	if err != nil {
		return res, fmt.Errorf("load staging: %w", err)
	}

	var (
		pending         []store.Op
		pendingMigrated int
		pendingRecords  int
		stopped         bool
	)
	flush := func() {
		if len(pending) == 0 {
			return
		}
		if !opts.DryRun {
			err := s.store.Commit(ctx, pending)
			s.metrics.CommitChunk(err)
			if err != nil {
				// Later records may resolve against postings in this chunk, so
				// the pass stops here and the rest stays staged.
				res.Errors = append(res.Errors, fmt.Sprintf("migrate chunk of %d records: %v", pendingRecords, err))
				stopped = true
				pending, pendingMigrated, pendingRecords = nil, 0, 0
				return
			}
		}
		res.Migrated += pendingMigrated
		res.StagingProcessed += pendingRecords
		pending, pendingMigrated, pendingRecords = nil, 0, 0
	}

	for _, p := range staging {
		if ctx.Err() != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("sweep interrupted: %v", ctx.Err()))
			stopped = true
			break
		}
		d := resolver.Resolve(idx, p)
		ops := []store.Op{store.Delete(store.Staging, p.ID)}
		if d.IsDuplicate() {
			res.Duplicates++
			groups.Add(d)
		} else {
			ops = append([]store.Op{store.Create(store.Canonical, d.Posting)}, ops...)
		}
		if len(pending)+len(ops) > chunkSize {
			flush()
			if stopped {
				break
			}
		}
		pending = append(pending, ops...)
		pendingRecords++
		if !d.IsDuplicate() {
			pendingMigrated++
		}
	}
	if !stopped {
		flush()
	}

	res.DuplicateGroups = groups.List()
	res.Duration = s.now().Sub(start)

	if !opts.DryRun && s.publisher != nil {
		ev := events.SweepCompleted{
			Migrated:         res.Migrated,
			Duplicates:       res.Duplicates,
			Removed:          res.Removed,
			StagingProcessed: res.StagingProcessed,
			Errors:           len(res.Errors),
		}
		if err := s.publisher.PublishSweepCompleted(ctx, ev); err != nil {
			log.Warn("publish EVENT_SWEEP_COMPLETED failed", "err", err)
		}
	}
	if !opts.DryRun {
		s.metrics.ObserveSweep(res.Migrated, res.Duplicates, res.Removed, res.Duration)
	}

	log.Info("sweep finished",
		"staging", len(staging),
		"processed", res.StagingProcessed,
		"migrated", res.Migrated,
		"duplicates", res.Duplicates,
		"removed", res.Removed,
		"errors", len(res.Errors),
		"took", res.Duration,
	)
	return res, nil
}
