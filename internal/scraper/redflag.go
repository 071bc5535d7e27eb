package scraper

import (
	"strings"

	"jobmate/ingestion-service/internal/model"
)

// ExcludeFilter drops postings whose title, company or description mentions
// one of its terms (case-insensitive).
type ExcludeFilter struct {
	terms []string
}

// NewExcludeFilter lowercases terms and ignores blank ones.
func NewExcludeFilter(terms []string) ExcludeFilter {
	var f ExcludeFilter
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			f.terms = append(f.terms, t)
		}
	}
	return f
}

// Empty reports whether the filter never matches.
func (f ExcludeFilter) Empty() bool { return len(f.terms) == 0 }

// Match returns the first term found in p.
func (f ExcludeFilter) Match(p model.JobPosting) (string, bool) {
	if f.Empty() {
		return "", false
	}
	combined := strings.ToLower(p.Title + " " + p.Company + " " + p.Description)
	for _, term := range f.terms {
		if strings.Contains(combined, term) {
			return term, true
		}
	}
	return "", false
}
