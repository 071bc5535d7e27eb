package ingest

import (
	"errors"
	"fmt"
	"time"

	"jobmate/ingestion-service/internal/similarity"
	"jobmate/ingestion-service/internal/store"
)

const (
	DefaultMaxResultsPerQuery = 50
	DefaultChunkSize          = store.MaxBatchOps
)

// Options configures one controller run.
type Options struct {
	Queries   []string
	Locations []string // empty means one nationwide search per query

	MaxResultsPerQuery int
	MaxQueries         int // 0 = no cap
	MaxLocations       int // 0 = no cap
	PacingDelay        time.Duration

	Threshold    float64
	ChunkSize    int
	ExcludeTerms []string

	DryRun bool
	Force  bool
	// StrictClaim reserves the batch id in Redis before fetching so that
	// concurrent runs for the same day cannot both proceed.
	StrictClaim bool

	// Target is the collection accepted postings are written to.
	Target store.Collection
	// SeedLookback limits index seeding to canonical postings created within
	// this window. Zero seeds from every active posting.
	SeedLookback time.Duration
}

// withDefaults fills zero values.
func (o Options) withDefaults() Options {
	if o.MaxResultsPerQuery <= 0 {
		o.MaxResultsPerQuery = DefaultMaxResultsPerQuery
	}
	if o.Threshold == 0 {
		o.Threshold = similarity.DefaultThreshold
	}
	if o.ChunkSize == 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Target == "" {
		o.Target = store.Canonical
	}
	return o
}

// validate reports the first problem as a ConfigurationError.
func (o Options) validate() error {
	switch {
	case len(o.Queries) == 0:
		return &ConfigurationError{Field: "queries", Err: errors.New("at least one query is required")}
	case o.Threshold < 0 || o.Threshold > 100:
		return &ConfigurationError{Field: "threshold", Err: fmt.Errorf("must be within [0,100], got %v", o.Threshold)}
	case o.ChunkSize < 0 || o.ChunkSize > store.MaxBatchOps:
		return &ConfigurationError{Field: "chunkSize", Err: fmt.Errorf("must be within [1,%d], got %d", store.MaxBatchOps, o.ChunkSize)}
	case o.MaxQueries < 0 || o.MaxLocations < 0:
		return &ConfigurationError{Field: "maxQueries/maxLocations", Err: errors.New("must not be negative")}
	case o.PacingDelay < 0:
		return &ConfigurationError{Field: "pacingDelay", Err: errors.New("must not be negative")}
	case !o.Target.Valid():
		return &ConfigurationError{Field: "target", Err: fmt.Errorf("unknown collection %q", o.Target)}
	}
	return nil
}

// pairs returns the capped (query, location) enumeration.
func (o Options) pairs() [][2]string {
	queries := capped(o.Queries, o.MaxQueries)
	locations := capped(o.Locations, o.MaxLocations)
	if len(locations) == 0 {
		locations = []string{""}
	}
	out := make([][2]string, 0, len(queries)*len(locations))
	for _, q := range queries {
		for _, l := range locations {
			out = append(out, [2]string{q, l})
		}
	}
	return out
}

func capped(xs []string, n int) []string {
	if n > 0 && len(xs) > n {
		return xs[:n]
	}
	return xs
}

// BatchID derives the idempotency key for t: "batch_" followed by the
// calendar date in zone.
func BatchID(t time.Time, zone *time.Location) string {
	if zone == nil {
		zone = time.UTC
	}
	return "batch_" + t.In(zone).Format("2006-01-02")
}
