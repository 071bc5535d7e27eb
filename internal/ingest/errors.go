package ingest

import "fmt"

// UpstreamFetchError is a failed fetch for one (query, location) pair. It is
// recorded and the run moves on.
type UpstreamFetchError struct {
	Query    string
	Location string
	Err      error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("fetch %q in %q: %v", e.Query, e.Location, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

// CommitError is a failed write chunk. Postings in the chunk are not
// persisted this run; other chunks are unaffected.
type CommitError struct {
	Chunk int // 1-based
	Size  int
	Err   error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit chunk %d (%d ops): %v", e.Chunk, e.Size, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// ConfigurationError aborts a run before anything is fetched or written.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return "configuration: " + e.Field
	}
	return fmt.Sprintf("configuration: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
