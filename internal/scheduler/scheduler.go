// Package scheduler wires up the cron jobs that periodically trigger
// ingestion runs and migration sweeps.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"jobmate/ingestion-service/internal/ingest"
	"jobmate/ingestion-service/internal/runner"
	"jobmate/ingestion-service/internal/sweep"
)

// Pipeline is the part of the runner the scheduler triggers.
type Pipeline interface {
	Ingest(ctx context.Context, req runner.Request) (ingest.Result, error)
	Sweep(ctx context.Context, dryRun bool) (sweep.Result, error)
}

// Scheduler wraps robfig/cron and manages the ingestion and sweep loops.
type Scheduler struct {
	cron       *cron.Cron
	pipeline   Pipeline
	ingestSpec string // e.g. "@every 6h"
	sweepSpec  string // standard cron spec; empty disables sweeps
}

// New creates a Scheduler that ingests every intervalHours hours and sweeps
// on sweepSpec.
func New(p Pipeline, intervalHours int, sweepSpec string) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithLogger(cron.DefaultLogger)),
		pipeline:   p,
		ingestSpec: fmt.Sprintf("@every %dh", intervalHours),
		sweepSpec:  sweepSpec,
	}
}

// Start registers the jobs and starts the scheduler. Also runs one ingestion
// immediately so the day's batch does not wait for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.ingestSpec, func() { s.runIngest(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc(%s): %w", s.ingestSpec, err)
	}
	if s.sweepSpec != "" {
		if _, err := s.cron.AddFunc(s.sweepSpec, func() { s.runSweep(ctx) }); err != nil {
			return fmt.Errorf("cron.AddFunc(%s): %w", s.sweepSpec, err)
		}
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started — ingest: %s, sweep: %q", s.ingestSpec, s.sweepSpec)

	go s.runIngest(ctx)
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[scheduler] Cron stopped")
}

// Entries is the number of registered jobs.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

func (s *Scheduler) runIngest(ctx context.Context) {
	log.Println("[scheduler] Ingestion cycle started")
	res, err := s.pipeline.Ingest(ctx, runner.Request{})
	switch {
	case errors.Is(err, runner.ErrBusy):
		log.Println("[scheduler] Ingestion skipped — another run is in progress")
	case err != nil:
		log.Printf("[scheduler] Ingestion error: %v", err)
	case res.Skipped:
		log.Printf("[scheduler] Ingestion skipped — %s", res.SkipReason)
	default:
		log.Printf("[scheduler] Ingestion complete — new=%d duplicates=%d errors=%d",
			res.BatchRun.NewJobs, res.BatchRun.Duplicates, len(res.BatchRun.Errors))
	}
}

func (s *Scheduler) runSweep(ctx context.Context) {
	log.Println("[scheduler] Sweep started")
	res, err := s.pipeline.Sweep(ctx, false)
	switch {
	case errors.Is(err, runner.ErrBusy):
		log.Println("[scheduler] Sweep skipped — another run is in progress")
	case err != nil:
		log.Printf("[scheduler] Sweep error: %v", err)
	default:
		log.Printf("[scheduler] Sweep complete — migrated=%d duplicates=%d removed=%d",
			res.Migrated, res.Duplicates, res.Removed)
	}
}
