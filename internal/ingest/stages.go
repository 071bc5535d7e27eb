// Package ingest runs the batch ingestion pipeline: fetch raw postings for
// every (query × location) pair, resolve duplicates against a per-run index
// and commit the survivors in bounded chunks, at most once per batch day.
//
// Stage graph:
//
//	IDLE ──► COMPUTE_BATCH_ID ──► CHECK_IDEMPOTENCY ──► SKIPPED ──► IDLE
//	                                     │
//	                                     └──► SEED_INDEX ──► FETCH ⇄ RESOLVE
//	                                                           │        │
//	                                                           └──► COMMIT ──► RECORD_SUMMARY ──► IDLE
//
// FETCH may repeat (a failed pair moves on to the next one). Every stage may
// abort back to IDLE on a fatal error.
package ingest

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Stage is one step of a run.
type Stage string

const (
	StageIdle             Stage = "IDLE"
	StageComputeBatchID   Stage = "COMPUTE_BATCH_ID"
	StageCheckIdempotency Stage = "CHECK_IDEMPOTENCY"
	StageSkipped          Stage = "SKIPPED"
	StageSeedIndex        Stage = "SEED_INDEX"
	StageFetch            Stage = "FETCH"
	StageResolve          Stage = "RESOLVE"
	StageCommit           Stage = "COMMIT"
	StageRecordSummary    Stage = "RECORD_SUMMARY"
)

// validTransitions lists every allowed (from → to) pair besides aborting to
// IDLE.
var validTransitions = map[Stage][]Stage{
	StageIdle:             {StageComputeBatchID},
	StageComputeBatchID:   {StageCheckIdempotency},
	StageCheckIdempotency: {StageSkipped, StageSeedIndex},
	StageSkipped:          {StageIdle},
	StageSeedIndex:        {StageFetch, StageCommit},
	StageFetch:            {StageResolve, StageFetch, StageCommit},
	StageResolve:          {StageFetch, StageCommit},
	StageCommit:           {StageRecordSummary},
	StageRecordSummary:    {StageIdle},
}

// ParseStage converts a raw string to a Stage, returning an error for
// unknown values.
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	switch st {
	case StageIdle, StageComputeBatchID, StageCheckIdempotency, StageSkipped, StageSeedIndex,
		StageFetch, StageResolve, StageCommit, StageRecordSummary:
		return st, nil
	}
	return "", fmt.Errorf("unknown ingestion stage %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted.
func IsTransitionAllowed(from, to Stage) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	if to == StageIdle && from != StageIdle {
		return true // abort
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsWriting reports whether a run in stage s may be writing to the store.
func IsWriting(s Stage) bool { return s == StageCommit || s == StageRecordSummary }

// machine tracks the current stage of one run and publishes it for
// observers.
type machine struct {
	cur    Stage
	shared *atomic.Value
	log    *slog.Logger
}

func newMachine(shared *atomic.Value, log *slog.Logger) *machine {
	m := &machine{cur: StageIdle, shared: shared, log: log}
	m.shared.Store(StageIdle)
	return m
}

func (m *machine) to(next Stage) error {
	if !IsTransitionAllowed(m.cur, next) {
		return fmt.Errorf("stage transition %s → %s is not allowed", m.cur, next)
	}
	if next != m.cur {
		m.log.Debug("stage", "from", m.cur, "to", next)
	}
	m.cur = next
	m.shared.Store(next)
	return nil
}

// abort returns to IDLE from wherever the run stopped.
func (m *machine) abort() {
	if m.cur != StageIdle {
		_ = m.to(StageIdle)
	}
}
