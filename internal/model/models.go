// Package model defines shared data structures for the ingestion service.
package model

import "time"

// RawPosting is an offer exactly as returned by an external job board, before
// any normalization or defaulting.
type RawPosting struct {
	ExternalID   string  `json:"externalId"`
	Title        string  `json:"title"`
	Company      string  `json:"company"`
	Location     string  `json:"location"`
	Description  string  `json:"description"`
	SalaryMin    float64 `json:"salaryMin,omitempty"`
	SalaryMax    float64 `json:"salaryMax,omitempty"`
	SalaryText   string  `json:"salaryText,omitempty"`
	SourceURL    string  `json:"sourceUrl"`
	ContractType string  `json:"contractType,omitempty"`
	PublishedAt  string  `json:"publishedAt,omitempty"`
}

// JobPosting is the canonical record stored in the staging and canonical
// collections. Every field except Available is fixed once created.
type JobPosting struct {
	ID          string     `json:"id"`
	ExternalID  string     `json:"externalId,omitempty"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location"`
	Description string     `json:"description,omitempty"`
	SalaryText  string     `json:"salaryText,omitempty"`
	PostedAt    *time.Time `json:"postedAt,omitempty"`
	ApplyURL    string     `json:"applyUrl,omitempty"`
	Source      string     `json:"source"`
	BatchID     string     `json:"batchId"`
	CreatedAt   time.Time  `json:"createdAt"`
	Signature   string     `json:"signature"`
	Available   bool       `json:"available"`
}

// HasExternalID reports whether the source assigned a stable id.
func (p JobPosting) HasExternalID() bool { return p.ExternalID != "" }

// BatchRun summarises one live execution of the ingestion pipeline.
// It is written once at the end of the run and never updated.
type BatchRun struct {
	RunID            string        `json:"runId"`
	BatchID          string        `json:"batchId"`
	CompletedAt      time.Time     `json:"completedAt"`
	TotalFetched     int           `json:"totalFetched"`
	NewJobs          int           `json:"newJobs"`
	Duplicates       int           `json:"duplicates"`
	Filtered         int           `json:"filtered"`
	Skipped          int           `json:"skipped"`
	FailedWrites     int           `json:"failedWrites"`
	QueriesProcessed int           `json:"queriesProcessed"`
	Errors           []string      `json:"errors"`
	ExecutionTime    time.Duration `json:"executionTime"`
}

// DuplicateReason explains why a posting was removed.
type DuplicateReason string

const (
	ReasonExactSignature DuplicateReason = "exact_signature"
	ReasonHighSimilarity DuplicateReason = "high_similarity"
)

// DuplicateGroup is a keep/remove decision. It only lives in run summaries
// and logs.
type DuplicateGroup struct {
	KeptID     string          `json:"keptId"`
	RemovedIDs []string        `json:"removedIds"`
	Score      float64         `json:"score"`
	Reason     DuplicateReason `json:"reason"`
}
