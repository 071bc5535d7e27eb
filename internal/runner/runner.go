// Package runner serializes ingestion runs and sweeps on a host and turns the
// configured run plan into controller options.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"jobmate/ingestion-service/internal/config"
	"jobmate/ingestion-service/internal/ingest"
	"jobmate/ingestion-service/internal/model"
	"jobmate/ingestion-service/internal/store"
	"jobmate/ingestion-service/internal/sweep"
)

// ErrBusy is returned when another run or sweep holds the lock.
var ErrBusy = errors.New("another run or sweep is in progress")

// Request carries the per-invocation switches of a run.
type Request struct {
	DryRun bool
	Force  bool
}

// Runner owns the pipeline entry points.
type Runner struct {
	mu      sync.Mutex
	lock    *flock.Flock // nil disables the host lock
	ingest  *ingest.Controller
	sweeper *sweep.Sweeper
	store   store.Store
	zone    *time.Location
	plan    config.RunPlan
	strict  bool
	now     func() time.Time
}

// New wires a runner. lockPath may be empty to skip the host lock.
func New(ctrl *ingest.Controller, sw *sweep.Sweeper, st store.Store, zone *time.Location, plan config.RunPlan, strict bool, lockPath string) *Runner {
	r := &Runner{
		ingest:  ctrl,
		sweeper: sw,
		store:   st,
		zone:    zone,
		plan:    plan,
		strict:  strict,
		now:     time.Now,
	}
	if lockPath != "" {
		r.lock = flock.New(lockPath)
	}
	return r
}

// Options converts the run plan and req into controller options.
func (r *Runner) Options(req Request) ingest.Options {
	return OptionsFromPlan(r.plan, req, r.strict)
}

// OptionsFromPlan converts a run plan into controller options.
func OptionsFromPlan(p config.RunPlan, req Request, strict bool) ingest.Options {
	return ingest.Options{
		Queries:            p.Queries,
		Locations:          p.Locations,
		MaxResultsPerQuery: p.MaxResultsPerQuery,
		MaxQueries:         p.MaxQueries,
		MaxLocations:       p.MaxLocations,
		PacingDelay:        p.PacingDelay,
		Threshold:          p.Threshold,
		ChunkSize:          p.ChunkSize,
		ExcludeTerms:       p.ExcludeTerms,
		DryRun:             req.DryRun,
		Force:              req.Force,
		StrictClaim:        strict,
		Target:             store.Collection(targetTable(p.Target)),
		SeedLookback:       p.SeedLookback,
	}
}

func targetTable(target string) string {
	switch target {
	case "staging":
		return string(store.Staging)
	case "", "canonical":
		return string(store.Canonical)
	}
	return target
}

// Ingest runs the ingestion pipeline once.
func (r *Runner) Ingest(ctx context.Context, req Request) (ingest.Result, error) {
	unlock, err := r.acquire()
	if err != nil {
		return ingest.Result{}, err
	}
	defer unlock()
	return r.ingest.Run(ctx, r.Options(req))
}

// Sweep runs the migration sweep once.
func (r *Runner) Sweep(ctx context.Context, dryRun bool) (sweep.Result, error) {
	unlock, err := r.acquire()
	if err != nil {
		return sweep.Result{}, err
	}
	defer unlock()
	return r.sweeper.Run(ctx, sweep.Options{
		DryRun:    dryRun,
		Threshold: r.plan.Threshold,
		ChunkSize: r.plan.ChunkSize,
	})
}

// Latest returns the most recent run recorded for today's batch.
func (r *Runner) Latest(ctx context.Context) (model.BatchRun, error) {
	return r.store.LatestBatchRun(ctx, ingest.BatchID(r.now(), r.zone))
}

// Stage reports what the ingestion controller is doing.
func (r *Runner) Stage() ingest.Stage { return r.ingest.Stage() }

func (r *Runner) acquire() (func(), error) {
	if !r.mu.TryLock() {
		return nil, ErrBusy
	}
	if r.lock == nil {
		return r.mu.Unlock, nil
	}
	ok, err := r.lock.TryLock()
	if err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("host lock %s: %w", r.lock.Path(), err)
	}
	if !ok {
		r.mu.Unlock()
		return nil, ErrBusy
	}
	return func() {
		if err := r.lock.Unlock(); err != nil {
			slog.Warn("release host lock failed", "path", r.lock.Path(), "err", err)
		}
		r.mu.Unlock()
	}, nil
}
