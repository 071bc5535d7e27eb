package ingest_test

import (
	"testing"

	"jobmate/ingestion-service/internal/ingest"
)

var allStages = []ingest.Stage{
	ingest.StageIdle,
	ingest.StageComputeBatchID,
	ingest.StageCheckIdempotency,
	ingest.StageSkipped,
	ingest.StageSeedIndex,
	ingest.StageFetch,
	ingest.StageResolve,
	ingest.StageCommit,
	ingest.StageRecordSummary,
}

// ── ParseStage ─────────────────────────────────────────────────────────────

func TestParseStage_AllConstantsRoundTrip(t *testing.T) {
	for _, s := range allStages {
		got, err := ingest.ParseStage(string(s))
		if err != nil {
			t.Errorf("ParseStage(%q) unexpected error: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseStage(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseStage_Invalid(t *testing.T) {
	for _, s := range []string{"", "UNKNOWN", "fetch", " FETCH", "FETCH "} {
		if _, err := ingest.ParseStage(s); err == nil {
			t.Errorf("ParseStage(%q) expected error, got nil", s)
		}
	}
}

// ── IsTransitionAllowed: happy path ────────────────────────────────────────

func TestIsTransitionAllowed_LiveRunPath(t *testing.T) {
	path := []ingest.Stage{
		ingest.StageIdle,
		ingest.StageComputeBatchID,
		ingest.StageCheckIdempotency,
		ingest.StageSeedIndex,
		ingest.StageFetch,
		ingest.StageResolve,
		ingest.StageFetch,
		ingest.StageFetch,
		ingest.StageResolve,
		ingest.StageCommit,
		ingest.StageRecordSummary,
		ingest.StageIdle,
	}
	for i := 1; i < len(path); i++ {
		if !ingest.IsTransitionAllowed(path[i-1], path[i]) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be true", path[i-1], path[i])
		}
	}
}

func TestIsTransitionAllowed_SkippedPath(t *testing.T) {
	if !ingest.IsTransitionAllowed(ingest.StageCheckIdempotency, ingest.StageSkipped) {
		t.Error("CHECK_IDEMPOTENCY → SKIPPED should be allowed")
	}
	for _, to := range allStages {
		want := to == ingest.StageIdle
		if got := ingest.IsTransitionAllowed(ingest.StageSkipped, to); got != want {
			t.Errorf("IsTransitionAllowed(SKIPPED → %s) = %v, want %v", to, got, want)
		}
	}
}

// ── IsTransitionAllowed: abort is always allowed ───────────────────────────

func TestIsTransitionAllowed_AbortToIdle(t *testing.T) {
	for _, from := range allStages[1:] {
		if !ingest.IsTransitionAllowed(from, ingest.StageIdle) {
			t.Errorf("IsTransitionAllowed(%s → IDLE) should be true", from)
		}
	}
	if ingest.IsTransitionAllowed(ingest.StageIdle, ingest.StageIdle) {
		t.Error("IDLE → IDLE should be false")
	}
}

// ── IsTransitionAllowed: forbidden moves ───────────────────────────────────

func TestIsTransitionAllowed_NoWritesBeforeIdempotencyCheck(t *testing.T) {
	for _, from := range []ingest.Stage{ingest.StageIdle, ingest.StageComputeBatchID} {
		for _, to := range []ingest.Stage{ingest.StageFetch, ingest.StageCommit, ingest.StageRecordSummary, ingest.StageSeedIndex} {
			if ingest.IsTransitionAllowed(from, to) {
				t.Errorf("IsTransitionAllowed(%s → %s) should be false", from, to)
			}
		}
	}
}

func TestIsTransitionAllowed_Backwards(t *testing.T) {
	cases := []struct {
		from, to ingest.Stage
	}{
		{ingest.StageCommit, ingest.StageFetch},
		{ingest.StageRecordSummary, ingest.StageCommit},
		{ingest.StageSeedIndex, ingest.StageCheckIdempotency},
		{ingest.StageResolve, ingest.StageSeedIndex},
	}
	for _, c := range cases {
		if ingest.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be false (backwards)", c.from, c.to)
		}
	}
}

func TestIsTransitionAllowed_OnlyFetchRepeats(t *testing.T) {
	for _, s := range allStages {
		want := s == ingest.StageFetch
		if got := ingest.IsTransitionAllowed(s, s); got != want {
			t.Errorf("IsTransitionAllowed(%s → %s) = %v, want %v", s, s, got, want)
		}
	}
}

func TestIsTransitionAllowed_UnknownStage(t *testing.T) {
	if ingest.IsTransitionAllowed(ingest.Stage("BOGUS"), ingest.StageIdle) {
		t.Error("unknown stages have no transitions")
	}
}

// ── IsWriting ──────────────────────────────────────────────────────────────

func TestIsWriting(t *testing.T) {
	for _, s := range allStages {
		want := s == ingest.StageCommit || s == ingest.StageRecordSummary
		if got := ingest.IsWriting(s); got != want {
			t.Errorf("IsWriting(%s) = %v, want %v", s, got, want)
		}
	}
}
