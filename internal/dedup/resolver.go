package dedup

import (
	"sort"

	"jobmate/ingestion-service/internal/model"
	"jobmate/ingestion-service/internal/similarity"
)

// Outcome is the classification of one posting.
type Outcome int

const (
	Accepted Outcome = iota
	ExactDuplicate
	NearDuplicate
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case ExactDuplicate:
		return string(model.ReasonExactSignature)
	case NearDuplicate:
		return string(model.ReasonHighSimilarity)
	}
	return "unknown"
}

// Decision is the result of resolving one posting.
type Decision struct {
	Outcome Outcome
	// Posting is the resolved posting with its signature filled in.
	Posting model.JobPosting
	KeptID  string
	Score   float64
}

// IsDuplicate reports whether the posting must be dropped.
func (d Decision) IsDuplicate() bool { return d.Outcome != Accepted }

// Group converts a duplicate decision into a report entry. It returns false
// for accepted postings.
func (d Decision) Group() (model.DuplicateGroup, bool) {
	if !d.IsDuplicate() {
		return model.DuplicateGroup{}, false
	}
	reason := model.ReasonHighSimilarity
	if d.Outcome == ExactDuplicate {
		reason = model.ReasonExactSignature
	}
	return model.DuplicateGroup{
		KeptID:     d.KeptID,
		RemovedIDs: []string{d.Posting.ID},
		Score:      d.Score,
		Reason:     reason,
	}, true
}

// Resolver applies signature lookup, then similarity scoring, against an
// Index. A zero Threshold means similarity.DefaultThreshold.
type Resolver struct {
	Threshold float64
}

func (r Resolver) threshold() float64 {
	if r.Threshold <= 0 {
		return similarity.DefaultThreshold
	}
	return r.Threshold
}

// Resolve classifies p against idx. Accepted postings are added to idx;
// duplicates leave it untouched.
func (r Resolver) Resolve(idx *Index, p model.JobPosting) Decision {
	p = withSignature(p)

	if kept, ok := idx.Lookup(p.Signature); ok {
		return Decision{Outcome: ExactDuplicate, Posting: p, KeptID: kept, Score: 100}
	}

	if match, score, ok := idx.best(similarity.FieldsOf(p), r.threshold()); ok {
		return Decision{Outcome: NearDuplicate, Posting: p, KeptID: match.ID, Score: score}
	}

	idx.Add(p)
	return Decision{Outcome: Accepted, Posting: p}
}

// PreferredOrder returns a copy of postings sorted so that the posting to
// keep comes first: one carrying an external ID, then the earliest created,
// then the smallest ID.
func PreferredOrder(postings []model.JobPosting) []model.JobPosting {
	out := make([]model.JobPosting, len(postings))
	copy(out, postings)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.HasExternalID() != b.HasExternalID() {
			return a.HasExternalID()
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

// Reconciliation is the outcome of Reconcile.
type Reconciliation struct {
	Survivors []model.JobPosting
	Removed   []model.JobPosting
	Groups    []model.DuplicateGroup
}

// Reconcile resolves already-stored postings against a fresh index in
// preferred order, so each duplicate group keeps its preferred member.
func Reconcile(postings []model.JobPosting, r Resolver) Reconciliation {
	idx := NewIndex()
	groups := NewGroupSet()
	var res Reconciliation
	for _, p := range PreferredOrder(postings) {
		d := r.Resolve(idx, p)
		if !d.IsDuplicate() {
			res.Survivors = append(res.Survivors, d.Posting)
			continue
		}
		res.Removed = append(res.Removed, d.Posting)
		groups.Add(d)
	}
	res.Groups = groups.List()
	return res
}
