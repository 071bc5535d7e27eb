// Package store persists job postings and batch run records.
//
// Two collections hold postings: Canonical, the authoritative de-duplicated
// set, and Staging, freshly scraped postings waiting for a sweep. Bulk writes
// go through Commit, which applies at most MaxBatchOps operations atomically.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobmate/ingestion-service/internal/model"
)

// MaxBatchOps is the per-transaction operation ceiling of Commit.
const MaxBatchOps = 500

// Collection names a posting table.
type Collection string

const (
	Canonical Collection = "job_postings"
	Staging   Collection = "job_postings_staging"
)

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool { return c == Canonical || c == Staging }

var (
	ErrNotFound       = errors.New("not found")
	ErrBatchTooLarge  = fmt.Errorf("batch exceeds %d operations", MaxBatchOps)
	ErrBadCollection  = errors.New("unknown collection")
	ErrUnknownOpKind  = errors.New("unknown operation kind")
	ErrUnknownBackend = errors.New("unknown store driver")
)

// Filter narrows ListPostings. The zero value returns everything in
// unspecified order.
type Filter struct {
	// Since keeps postings created at or after this instant.
	Since             time.Time
	ActiveOnly        bool
	OrderByCreatedAsc bool
	Limit             int
}

// OpKind is the kind of a bulk operation.
type OpKind int

const (
	OpCreate OpKind = iota
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Op is one operation of a Commit. Create uses Posting, Delete uses ID.
type Op struct {
	Kind       OpKind
	Collection Collection
	Posting    model.JobPosting
	ID         string
}

// Create returns a create operation for p.
func Create(c Collection, p model.JobPosting) Op {
	return Op{Kind: OpCreate, Collection: c, Posting: p}
}

// Delete returns a delete operation for id.
func Delete(c Collection, id string) Op {
	return Op{Kind: OpDelete, Collection: c, ID: id}
}

// Store is implemented by Postgres, SQLite and Memory.
type Store interface {
	ListPostings(ctx context.Context, c Collection, f Filter) ([]model.JobPosting, error)
	CreatePosting(ctx context.Context, c Collection, p model.JobPosting) error
	DeletePosting(ctx context.Context, c Collection, id string) error
	SetAvailability(ctx context.Context, c Collection, id string, available bool) error

	// Commit applies ops atomically. It fails with ErrBatchTooLarge when
	// len(ops) > MaxBatchOps.
	Commit(ctx context.Context, ops []Op) error

	// LatestBatchRun returns the most recent run recorded for batchID, or
	// ErrNotFound.
	LatestBatchRun(ctx context.Context, batchID string) (model.BatchRun, error)
	CreateBatchRun(ctx context.Context, run model.BatchRun) error

	Close() error
}

// ValidateOps checks the operation count and every operation's collection
// and kind.
func ValidateOps(ops []Op) error {
	if len(ops) > MaxBatchOps {
		return fmt.Errorf("%w: got %d", ErrBatchTooLarge, len(ops))
	}
	for i, op := range ops {
		if !op.Collection.Valid() {
			return fmt.Errorf("op %d: %w %q", i, ErrBadCollection, op.Collection)
		}
		if op.Kind != OpCreate && op.Kind != OpDelete {
			return fmt.Errorf("op %d: %w", i, ErrUnknownOpKind)
		}
	}
	return nil
}

// Chunk splits ops into consecutive slices of at most size operations.
// size is clamped to (0, MaxBatchOps].
func Chunk(ops []Op, size int) [][]Op {
	if size <= 0 || size > MaxBatchOps {
		size = MaxBatchOps
	}
	var chunks [][]Op
	for len(ops) > 0 {
		n := min(size, len(ops))
		chunks = append(chunks, ops[:n:n])
		ops = ops[n:]
	}
	return chunks
}
