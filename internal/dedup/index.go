// Package dedup classifies incoming postings as new, exact duplicates or near
// duplicates against a per-run index, and picks survivors among stored
// duplicates.
package dedup

import (
	"jobmate/ingestion-service/internal/model"
	"jobmate/ingestion-service/internal/signature"
	"jobmate/ingestion-service/internal/similarity"
)

// Index holds the postings accepted so far in one run. It is not safe for
// concurrent use; each run builds its own with NewIndex.
type Index struct {
	kept     map[string]string // signature → kept posting ID
	accepted []model.JobPosting
	fields   []similarity.Fields
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{kept: make(map[string]string)}
}

// Add records p as accepted. A missing signature is computed first.
func (idx *Index) Add(p model.JobPosting) {
	p = withSignature(p)
	if _, ok := idx.kept[p.Signature]; !ok {
		idx.kept[p.Signature] = p.ID
	}
	idx.accepted = append(idx.accepted, p)
	idx.fields = append(idx.fields, similarity.FieldsOf(p))
}

// Seed adds every posting in order.
func (idx *Index) Seed(postings []model.JobPosting) {
	for _, p := range postings {
		idx.Add(p)
	}
}

// Lookup returns the ID kept for sig.
func (idx *Index) Lookup(sig string) (string, bool) {
	id, ok := idx.kept[sig]
	return id, ok
}

// Accepted returns the accepted postings in insertion order. The slice must
// not be modified.
func (idx *Index) Accepted() []model.JobPosting { return idx.accepted }

// Len is the number of accepted postings.
func (idx *Index) Len() int { return len(idx.accepted) }

// best returns the highest scoring accepted posting at or above threshold.
// On ties the earliest accepted wins.
func (idx *Index) best(f similarity.Fields, threshold float64) (model.JobPosting, float64, bool) {
	matches := similarity.FindSimilarFields(f, idx.fields, threshold)
	if len(matches) == 0 {
		return model.JobPosting{}, 0, false
	}
	return idx.accepted[matches[0].Index], matches[0].Score, true
}

func withSignature(p model.JobPosting) model.JobPosting {
	if p.Signature == "" {
		p.Signature = signature.Generate(p.Title, p.Company, p.Location)
	}
	return p
}
