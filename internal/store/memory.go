package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"jobmate/ingestion-service/internal/model"
)

// Memory is an in-process Store used by tests and the "memory" driver.
// Commits are recorded so callers can inspect chunking.
type Memory struct {
	mu       sync.Mutex
	postings map[Collection]map[string]model.JobPosting
	runs     []model.BatchRun
	commits  []int

	// FailCommit, when set, is called before each commit with its 1-based
	// sequence number. A non-nil error aborts that commit.
	FailCommit func(n int, ops []Op) error
}

func NewMemory() *Memory {
	return &Memory{postings: map[Collection]map[string]model.JobPosting{
		Canonical: {},
		Staging:   {},
	}}
}

func (m *Memory) ListPostings(_ context.Context, c Collection, f Filter) ([]model.JobPosting, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w %q", ErrBadCollection, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.JobPosting, 0, len(m.postings[c]))
	for _, p := range m.postings[c] {
		if f.ActiveOnly && !p.Available {
			continue
		}
		if !f.Since.IsZero() && p.CreatedAt.Before(f.Since) {
			continue
		}
		out = append(out, p)
	}
	// Map order is random; always sort so results are reproducible.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) CreatePosting(_ context.Context, c Collection, p model.JobPosting) error {
	if !c.Valid() {
		return fmt.Errorf("%w %q", ErrBadCollection, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.create(c, p)
	return nil
}

func (m *Memory) DeletePosting(_ context.Context, c Collection, id string) error {
	if !c.Valid() {
		return fmt.Errorf("%w %q", ErrBadCollection, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.postings[c][id]; !ok {
		return ErrNotFound
	}
	delete(m.postings[c], id)
	return nil
}

func (m *Memory) SetAvailability(_ context.Context, c Collection, id string, available bool) error {
	if !c.Valid() {
		return fmt.Errorf("%w %q", ErrBadCollection, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.postings[c][id]
	if !ok {
		return ErrNotFound
	}
	p.Available = available
	m.postings[c][id] = p
	return nil
}

func (m *Memory) Commit(_ context.Context, ops []Op) error {
	if err := ValidateOps(ops); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.commits) + 1
	if m.FailCommit != nil {
		if err := m.FailCommit(n, ops); err != nil {
			m.commits = append(m.commits, 0)
			return err
		}
	}
	for _, op := range ops {
		switch op.Kind {
		case OpCreate:
			m.create(op.Collection, op.Posting)
		case OpDelete:
			delete(m.postings[op.Collection], op.ID)
		}
	}
	m.commits = append(m.commits, len(ops))
	return nil
}

// create mirrors the SQL stores: duplicate IDs and active canonical
// signatures are ignored.
func (m *Memory) create(c Collection, p model.JobPosting) {
	if _, ok := m.postings[c][p.ID]; ok {
		return
	}
	if c == Canonical && p.Available {
		for _, q := range m.postings[c] {
			if q.Available && q.Signature == p.Signature {
				return
			}
		}
	}
	m.postings[c][p.ID] = p
}

func (m *Memory) LatestBatchRun(_ context.Context, batchID string) (model.BatchRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.runs) - 1; i >= 0; i-- {
		if m.runs[i].BatchID == batchID {
			return m.runs[i], nil
		}
	}
	return model.BatchRun{}, ErrNotFound
}

func (m *Memory) CreateBatchRun(_ context.Context, run model.BatchRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) Close() error { return nil }

// CommitSizes returns the operation count of every Commit call so far. A
// failed commit is reported as 0.
func (m *Memory) CommitSizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.commits...)
}

// BatchRuns returns every recorded run in insertion order.
func (m *Memory) BatchRuns() []model.BatchRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.BatchRun(nil), m.runs...)
}

// Count returns the number of postings in c.
func (m *Memory) Count(c Collection) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.postings[c])
}
