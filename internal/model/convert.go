package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobmate/ingestion-service/internal/normalize"
	"jobmate/ingestion-service/internal/signature"
)

// RecordParseError marks a single raw posting that could not be turned into
// a JobPosting. The posting is skipped; the run continues.
type RecordParseError struct {
	ExternalID string
	Reason     string
}

func (e *RecordParseError) Error() string {
	if e.ExternalID == "" {
		return "parse record: " + e.Reason
	}
	return fmt.Sprintf("parse record %s: %s", e.ExternalID, e.Reason)
}

var postedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FromRaw converts an upstream record into a JobPosting. It is the only place
// where defaults are applied; downstream code can rely on a title and company
// that survive normalization, a computed signature and a generated ID.
func FromRaw(raw RawPosting, source, batchID string, now time.Time) (JobPosting, error) {
	title := normalize.CleanText(raw.Title)
	company := normalize.CleanText(raw.Company)
	if title == "" {
		return JobPosting{}, &RecordParseError{ExternalID: raw.ExternalID, Reason: "missing title"}
	}
	if company == "" {
		return JobPosting{}, &RecordParseError{ExternalID: raw.ExternalID, Reason: "missing company"}
	}
	// Titles like "???" or companies like "!!!" normalize to nothing and
	// could never match themselves.
	if normalize.JobTitle(title) == "" {
		return JobPosting{}, &RecordParseError{ExternalID: raw.ExternalID, Reason: fmt.Sprintf("title %q has no comparable words", title)}
	}
	if normalize.CompanyName(company) == "" {
		return JobPosting{}, &RecordParseError{ExternalID: raw.ExternalID, Reason: fmt.Sprintf("company %q has no comparable words", company)}
	}

	var postedAt *time.Time
	if s := strings.TrimSpace(raw.PublishedAt); s != "" {
		t, err := parsePostedAt(s)
		if err != nil {
			return JobPosting{}, &RecordParseError{ExternalID: raw.ExternalID, Reason: fmt.Sprintf("bad posting date %q", s)}
		}
		postedAt = &t
	}

	location := normalize.CleanText(raw.Location)

	return JobPosting{
		ID:          uuid.NewString(),
		ExternalID:  strings.TrimSpace(raw.ExternalID),
		Title:       title,
		Company:     company,
		Location:    location,
		Description: normalize.Description(raw.Description),
		SalaryText:  salaryText(raw),
		PostedAt:    postedAt,
		ApplyURL:    strings.TrimSpace(raw.SourceURL),
		Source:      source,
		BatchID:     batchID,
		CreatedAt:   now.UTC(),
		Signature:   signature.Generate(title, company, location),
		Available:   true,
	}, nil
}

func parsePostedAt(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range postedAtLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func salaryText(raw RawPosting) string {
	if s := normalize.CleanText(raw.SalaryText); s != "" {
		return s
	}
	switch {
	case raw.SalaryMin > 0 && raw.SalaryMax > 0 && raw.SalaryMin != raw.SalaryMax:
		return fmt.Sprintf("%.0f-%.0f", raw.SalaryMin, raw.SalaryMax)
	case raw.SalaryMin > 0:
		return fmt.Sprintf("%.0f", raw.SalaryMin)
	case raw.SalaryMax > 0:
		return fmt.Sprintf("%.0f", raw.SalaryMax)
	}
	return ""
}
