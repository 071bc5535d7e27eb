package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"jobmate/ingestion-service/internal/model"
	"jobmate/ingestion-service/internal/signature"
	"jobmate/ingestion-service/internal/store"
)

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newPosting(title, company, location string, offset time.Duration) model.JobPosting {
	return model.JobPosting{
		ID:        uuid.NewString(),
		Title:     title,
		Company:   company,
		Location:  location,
		Source:    "test",
		BatchID:   "batch_2024-05-01",
		CreatedAt: base.Add(offset),
		Signature: signature.Generate(title, company, location),
		Available: true,
	}
}

// contract exercises the behaviour every Store implementation shares.
func contract(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("CreateAndList", func(t *testing.T) {
		a := newPosting("Engineer", "Acme", "Austin, TX", 2*time.Hour)
		b := newPosting("Analyst", "Globex", "Denver, CO", time.Hour)
		posted := base.Add(-24 * time.Hour)
		b.PostedAt = &posted
		for _, p := range []model.JobPosting{a, b} {
			if err := s.CreatePosting(ctx, store.Staging, p); err != nil {
				t.Fatalf("CreatePosting: %v", err)
			}
		}
		got, err := s.ListPostings(ctx, store.Staging, store.Filter{OrderByCreatedAsc: true})
		if err != nil {
			t.Fatalf("ListPostings: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if got[0].ID != b.ID || got[1].ID != a.ID {
			t.Errorf("order = [%s %s], want [%s %s]", got[0].ID, got[1].ID, b.ID, a.ID)
		}
		if got[0].PostedAt == nil || !got[0].PostedAt.Equal(posted) {
			t.Errorf("PostedAt = %v, want %v", got[0].PostedAt, posted)
		}
		if !got[1].CreatedAt.Equal(a.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got[1].CreatedAt, a.CreatedAt)
		}
		for _, p := range got {
			if err := s.DeletePosting(ctx, store.Staging, p.ID); err != nil {
				t.Errorf("DeletePosting: %v", err)
			}
		}
	})

	t.Run("FilterActiveSinceLimit", func(t *testing.T) {
		old := newPosting("Old", "Acme", "Remote", -72*time.Hour)
		inactive := newPosting("Gone", "Acme", "Remote", time.Hour)
		recent := newPosting("Recent", "Acme", "Remote", 2*time.Hour)
		newest := newPosting("Newest", "Acme", "Remote", 3*time.Hour)
		for _, p := range []model.JobPosting{old, inactive, recent, newest} {
			if err := s.CreatePosting(ctx, store.Canonical, p); err != nil {
				t.Fatalf("CreatePosting: %v", err)
			}
		}
		if err := s.SetAvailability(ctx, store.Canonical, inactive.ID, false); err != nil {
			t.Fatalf("SetAvailability: %v", err)
		}
		got, err := s.ListPostings(ctx, store.Canonical, store.Filter{
			Since: base, ActiveOnly: true, OrderByCreatedAsc: true, Limit: 1,
		})
		if err != nil {
			t.Fatalf("ListPostings: %v", err)
		}
		if len(got) != 1 || got[0].ID != recent.ID {
			t.Errorf("ListPostings = %v, want only %s", ids(got), recent.ID)
		}
		for _, p := range []model.JobPosting{old, inactive, recent, newest} {
			_ = s.DeletePosting(ctx, store.Canonical, p.ID)
		}
	})

	t.Run("MissingIDs", func(t *testing.T) {
		missing := uuid.NewString()
		if err := s.DeletePosting(ctx, store.Canonical, missing); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("DeletePosting(missing) = %v, want ErrNotFound", err)
		}
		if err := s.SetAvailability(ctx, store.Canonical, missing, false); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("SetAvailability(missing) = %v, want ErrNotFound", err)
		}
	})

	t.Run("CommitMovesStagingToCanonical", func(t *testing.T) {
		p := newPosting("Designer", "Initech", "Remote", 0)
		if err := s.CreatePosting(ctx, store.Staging, p); err != nil {
			t.Fatalf("CreatePosting: %v", err)
		}
		err := s.Commit(ctx, []store.Op{
			store.Create(store.Canonical, p),
			store.Delete(store.Staging, p.ID),
		})
		if err != nil {
			t.Fatalf("Commit: %v", err)
		}
		staging, _ := s.ListPostings(ctx, store.Staging, store.Filter{})
		canonical, _ := s.ListPostings(ctx, store.Canonical, store.Filter{})
		if len(staging) != 0 || len(canonical) != 1 {
			t.Errorf("staging=%d canonical=%d, want 0 and 1", len(staging), len(canonical))
		}
		_ = s.DeletePosting(ctx, store.Canonical, p.ID)
	})

	t.Run("CommitIgnoresActiveSignatureConflict", func(t *testing.T) {
		a := newPosting("Engineer", "Hooli", "Remote", 0)
		b := newPosting("engineer", "HOOLI INC", "anywhere", time.Minute)
		if err := s.Commit(ctx, []store.Op{store.Create(store.Canonical, a), store.Create(store.Canonical, b)}); err != nil {
			t.Fatalf("Commit: %v", err)
		}
		got, _ := s.ListPostings(ctx, store.Canonical, store.Filter{ActiveOnly: true})
		if len(got) != 1 || got[0].ID != a.ID {
			t.Errorf("active canonical = %v, want only %s", ids(got), a.ID)
		}
		_ = s.DeletePosting(ctx, store.Canonical, a.ID)
	})

	t.Run("CommitTooLarge", func(t *testing.T) {
		ops := make([]store.Op, store.MaxBatchOps+1)
		for i := range ops {
			ops[i] = store.Create(store.Staging, newPosting("T", "C", "L", 0))
		}
		if err := s.Commit(ctx, ops); !errors.Is(err, store.ErrBatchTooLarge) {
			t.Errorf("Commit(501 ops) = %v, want ErrBatchTooLarge", err)
		}
		got, _ := s.ListPostings(ctx, store.Staging, store.Filter{})
		if len(got) != 0 {
			t.Errorf("rejected commit wrote %d postings", len(got))
		}
	})

	t.Run("BatchRuns", func(t *testing.T) {
		if _, err := s.LatestBatchRun(ctx, "batch_1999-01-01"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("LatestBatchRun(unknown) = %v, want ErrNotFound", err)
		}
		first := model.BatchRun{
			RunID: uuid.NewString(), BatchID: "batch_2024-05-01", CompletedAt: base,
			TotalFetched: 10, NewJobs: 7, Duplicates: 3, QueriesProcessed: 2,
			Errors: []string{"boom"}, ExecutionTime: 1500 * time.Millisecond,
		}
		second := first
		second.RunID = uuid.NewString()
		second.CompletedAt = base.Add(time.Hour)
		second.NewJobs = 1
		second.Errors = nil
		for _, r := range []model.BatchRun{first, second} {
			if err := s.CreateBatchRun(ctx, r); err != nil {
				t.Fatalf("CreateBatchRun: %v", err)
			}
		}
		got, err := s.LatestBatchRun(ctx, "batch_2024-05-01")
		if err != nil {
			t.Fatalf("LatestBatchRun: %v", err)
		}
		if got.RunID != second.RunID || got.NewJobs != 1 || len(got.Errors) != 0 {
			t.Errorf("LatestBatchRun = %+v, want run %s", got, second.RunID)
		}
		if got.ExecutionTime != 1500*time.Millisecond {
			t.Errorf("ExecutionTime = %v, want 1.5s", got.ExecutionTime)
		}
	})

	t.Run("BadCollection", func(t *testing.T) {
		if _, err := s.ListPostings(ctx, store.Collection("jobs; DROP TABLE x"), store.Filter{}); !errors.Is(err, store.ErrBadCollection) {
			t.Errorf("ListPostings(bad) = %v, want ErrBadCollection", err)
		}
	})
}

func ids(ps []model.JobPosting) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

// ── Memory ─────────────────────────────────────────────────────────────────

func TestMemory_Contract(t *testing.T) {
	contract(t, store.NewMemory())
}

func TestMemory_CommitSizesAndFailures(t *testing.T) {
	m := store.NewMemory()
	m.FailCommit = func(n int, _ []store.Op) error {
		if n == 2 {
			return errors.New("injected")
		}
		return nil
	}
	ctx := context.Background()
	one := []store.Op{store.Create(store.Canonical, newPosting("A", "B", "C", 0))}
	two := []store.Op{store.Create(store.Canonical, newPosting("D", "E", "F", 0))}
	if err := m.Commit(ctx, one); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if err := m.Commit(ctx, two); err == nil {
		t.Fatal("second commit should fail")
	}
	if got := m.CommitSizes(); len(got) != 2 || got[0] != 1 || got[1] != 0 {
		t.Errorf("CommitSizes = %v, want [1 0]", got)
	}
	if m.Count(store.Canonical) != 1 {
		t.Errorf("Count = %d, want 1", m.Count(store.Canonical))
	}
}

// ── SQLite ─────────────────────────────────────────────────────────────────

func TestSQLite_Contract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingest.db")
	s, err := store.OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	contract(t, s)
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ingest.db")
	s, err := store.OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	p := newPosting("Engineer", "Acme", "Remote", 0)
	if err := s.CreatePosting(ctx, store.Canonical, p); err != nil {
		t.Fatalf("CreatePosting: %v", err)
	}
	s.Close()

	s, err = store.OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.ListPostings(ctx, store.Canonical, store.Filter{})
	if err != nil || len(got) != 1 {
		t.Fatalf("ListPostings after reopen = %d, %v", len(got), err)
	}
}

// ── Chunk ──────────────────────────────────────────────────────────────────

func TestChunk(t *testing.T) {
	ops := make([]store.Op, 1200)
	chunks := store.Chunk(ops, 500)
	want := []int{500, 500, 200}
	if len(chunks) != len(want) {
		t.Fatalf("len(chunks) = %d, want %d", len(chunks), len(want))
	}
	for i, c := range chunks {
		if len(c) != want[i] {
			t.Errorf("chunk %d size = %d, want %d", i, len(c), want[i])
		}
	}
	if got := store.Chunk(ops, 10_000); len(got) != 3 {
		t.Errorf("oversized chunk size not clamped: %d chunks", len(got))
	}
	if got := store.Chunk(nil, 500); len(got) != 0 {
		t.Errorf("Chunk(nil) = %d chunks, want 0", len(got))
	}
}
