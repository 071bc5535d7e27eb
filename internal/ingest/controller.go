package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"jobmate/ingestion-service/internal/dedup"
	"jobmate/ingestion-service/internal/metrics"
	"jobmate/ingestion-service/internal/model"
	"jobmate/ingestion-service/internal/scraper"
	"jobmate/ingestion-service/internal/store"
)

// Claimer reserves a batch id across hosts.
type Claimer interface {
	Claim(ctx context.Context, batchID, owner string) (bool, error)
	Release(ctx context.Context, batchID, owner string) error
}

// Publisher announces completed runs.
type Publisher interface {
	PublishBatchCompleted(ctx context.Context, run model.BatchRun) error
}

// Result is what a run reports to its caller.
type Result struct {
	BatchRun        model.BatchRun         `json:"batchRun"`
	DuplicateGroups []model.DuplicateGroup `json:"duplicateGroups"`
	Skipped         bool                   `json:"skipped"`
	SkipReason      string                 `json:"skipReason,omitempty"`
	DryRun          bool                   `json:"dryRun"`
}

// Controller runs the ingestion pipeline. Runs are sequential; callers
// serialize concurrent invocations (see the runner package).
type Controller struct {
	store     store.Store
	source    scraper.Source
	zone      *time.Location
	claimer   Claimer
	publisher Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
	log       *slog.Logger
	stage     atomic.Value
}

// NewController wires a controller computing batch ids in zone.
func NewController(st store.Store, src scraper.Source, zone *time.Location) *Controller {
	if zone == nil {
		zone = time.UTC
	}
	c := &Controller{
		store:  st,
		source: src,
		zone:   zone,
		now:    time.Now,
		log:    slog.Default().With("component", "ingest"),
	}
	c.stage.Store(StageIdle)
	return c
}

// WithClaimer enables strict batch claims.
func (c *Controller) WithClaimer(cl Claimer) *Controller { c.claimer = cl; return c }

// WithPublisher enables completion events.
func (c *Controller) WithPublisher(p Publisher) *Controller { c.publisher = p; return c }

// WithMetrics enables Prometheus accounting.
func (c *Controller) WithMetrics(m *metrics.Metrics) *Controller { c.metrics = m; return c }

// WithClock replaces time.Now.
func (c *Controller) WithClock(now func() time.Time) *Controller { c.now = now; return c }

// Stage returns the stage of the run in progress, or IDLE.
func (c *Controller) Stage() Stage { return c.stage.Load().(Stage) }

// Run executes one ingestion run. The returned error is non-nil only for
// fatal conditions; per-pair, per-record and per-chunk failures are listed
// in Result.BatchRun.Errors.
func (c *Controller) Run(ctx context.Context, opts Options) (res Result, err error) {
	opts = opts.withDefaults()
	m := newMachine(&c.stage, c.log)
	defer m.abort()

	start := c.now()
	res.DryRun = opts.DryRun

	// ── Batch id ───────────────────────────────────────────
	if err := m.to(StageComputeBatchID); err != nil {
		return res, err
	}
	batchID := BatchID(start, c.zone)
	log := c.log.With("batch_id", batchID, "dry_run", opts.DryRun)

	if err := opts.validate(); err != nil {
		return res, err
	}
	if v, ok := c.source.(scraper.Validator); ok {
		if verr := v.Validate(); verr != nil {
			return res, &ConfigurationError{Field: "upstream " + c.source.Name(), Err: verr}
		}
	}

	// ── Idempotency ────────────────────────────────────────
	if err := m.to(StageCheckIdempotency); err != nil {
		return res, err
	}
	prior, err := c.store.LatestBatchRun(ctx, batchID)
	switch {
	case err == nil && !opts.Force:
		log.Info("batch already ran today, skipping", "run_id", prior.RunID)
		c.metrics.ObserveRun(prior, true, opts.DryRun)
		res.BatchRun, res.Skipped, res.SkipReason = prior, true, "batch already completed"
		return res, m.to(StageSkipped)
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return res, fmt.Errorf("idempotency check for %s: %w", batchID, err)
	}

	runID := uuid.NewString()
	if opts.StrictClaim && !opts.DryRun && !opts.Force && c.claimer != nil {
		ok, cerr := c.claimer.Claim(ctx, batchID, runID)
		if cerr != nil {
			return res, fmt.Errorf("claim %s: %w", batchID, cerr)
		}
		if !ok {
			log.Info("batch claimed by another run, skipping")
			c.metrics.ObserveRun(model.BatchRun{}, true, false)
			res.BatchRun = model.BatchRun{BatchID: batchID}
			res.Skipped, res.SkipReason = true, "batch claimed by another run"
			return res, m.to(StageSkipped)
		}
		defer func() {
			// A failed run gives the day back so the next cycle can retry.
			if err != nil {
				if rerr := c.claimer.Release(context.WithoutCancel(ctx), batchID, runID); rerr != nil {
					log.Warn("release claim failed", "err", rerr)
				}
			}
		}()
	}

	// ── Seed index ─────────────────────────────────────────
	if err := m.to(StageSeedIndex); err != nil {
		return res, err
	}
	idx, err := c.seedIndex(ctx, opts, start)
	if err != nil {
		return res, err
	}
	log.Info("run started", "run_id", runID, "seeded", idx.Len(), "pairs", len(opts.pairs()))

	run := model.BatchRun{RunID: runID, BatchID: batchID, Errors: []string{}}
	resolver := dedup.Resolver{Threshold: opts.Threshold}
	filter := scraper.NewExcludeFilter(opts.ExcludeTerms)
	groups := dedup.NewGroupSet()
	src := scraper.NewPaced(c.source, opts.PacingDelay)
	var accepted []model.JobPosting

	// ── Fetch ⇄ Resolve ────────────────────────────────────
	for _, pair := range opts.pairs() {
		query, location := pair[0], pair[1]
		if ctx.Err() != nil {
			run.Errors = append(run.Errors, fmt.Sprintf("run interrupted: %v", ctx.Err()))
			break
		}
		if err := m.to(StageFetch); err != nil {
			return res, err
		}
		raws, ferr := src.Fetch(ctx, query, location, opts.MaxResultsPerQuery)
		run.QueriesProcessed++
		if ferr != nil {
			uerr := &UpstreamFetchError{Query: query, Location: location, Err: ferr}
			log.Warn("upstream fetch failed, continuing", "err", uerr)
			c.metrics.FetchFailed()
			run.Errors = append(run.Errors, uerr.Error())
			continue
		}
		run.TotalFetched += len(raws)

		if err := m.to(StageResolve); err != nil {
			return res, err
		}
		for _, raw := range raws {
			p, perr := model.FromRaw(raw, src.Name(), batchID, c.now())
			if perr != nil {
				run.Skipped++
				run.Errors = append(run.Errors, perr.Error())
				continue
			}
			if term, hit := filter.Match(p); hit {
				log.Debug("posting excluded", "term", term, "title", p.Title)
				run.Filtered++
				continue
			}
			d := resolver.Resolve(idx, p)
			if d.IsDuplicate() {
				run.Duplicates++
				groups.Add(d)
				continue
			}
			accepted = append(accepted, d.Posting)
		}
	}

	// ── Commit ─────────────────────────────────────────────
	if err := m.to(StageCommit); err != nil {
		return res, err
	}
	if opts.DryRun {
		run.NewJobs = len(accepted)
	} else {
		c.commit(ctx, log, opts, accepted, &run)
	}

	// ── Summary ────────────────────────────────────────────
	if err := m.to(StageRecordSummary); err != nil {
		return res, err
	}
	run.CompletedAt = c.now().UTC()
	run.ExecutionTime = run.CompletedAt.Sub(start)
	res.BatchRun = run
	res.DuplicateGroups = groups.List()

	if !opts.DryRun {
		if err := c.store.CreateBatchRun(ctx, run); err != nil {
			return res, fmt.Errorf("record batch run: %w", err)
		}
		if c.publisher != nil {
			if perr := c.publisher.PublishBatchCompleted(ctx, run); perr != nil {
				log.Warn("publish EVENT_BATCH_COMPLETED failed", "err", perr)
			}
		}
	}
	c.metrics.ObserveRun(run, false, opts.DryRun)

	log.Info("run finished",
		"run_id", runID,
		"fetched", run.TotalFetched,
		"new", run.NewJobs,
		"duplicates", run.Duplicates,
		"filtered", run.Filtered,
		"skipped", run.Skipped,
		"failed_writes", run.FailedWrites,
		"errors", len(run.Errors),
		"took", run.ExecutionTime,
	)
	return res, m.to(StageIdle)
}

// seedIndex loads active postings the run must not duplicate: the canonical
// collection and, when writing to staging, the staging backlog too.
func (c *Controller) seedIndex(ctx context.Context, opts Options, now time.Time) (*dedup.Index, error) {
	f := store.Filter{ActiveOnly: true, OrderByCreatedAsc: true}
	if opts.SeedLookback > 0 {
		f.Since = now.Add(-opts.SeedLookback)
	}
	idx := dedup.NewIndex()
	collections := []store.Collection{store.Canonical}
	if opts.Target == store.Staging {
		collections = append(collections, store.Staging)
	}
	for _, coll := range collections {
		postings, err := c.store.ListPostings(ctx, coll, f)
		if err != nil {
			return nil, fmt.Errorf("seed index from %s: %w", coll, err)
		}
		idx.Seed(postings)
	}
	return idx, nil
}

// commit writes accepted postings chunk by chunk. A failed chunk is recorded
// and the remaining chunks still go out.
func (c *Controller) commit(ctx context.Context, log *slog.Logger, opts Options, accepted []model.JobPosting, run *model.BatchRun) {
	ops := make([]store.Op, len(accepted))
	for i, p := range accepted {
		ops[i] = store.Create(opts.Target, p)
	}
	for i, chunk := range store.Chunk(ops, opts.ChunkSize) {
		err := c.store.Commit(ctx, chunk)
		c.metrics.CommitChunk(err)
		if err != nil {
			cerr := &CommitError{Chunk: i + 1, Size: len(chunk), Err: err}
			log.Error("commit chunk failed", "err", cerr)
			run.FailedWrites += len(chunk)
			run.Errors = append(run.Errors, cerr.Error())
			continue
		}
		run.NewJobs += len(chunk)
	}
}
