package dedup_test

import (
	"fmt"
	"testing"
	"time"

	"jobmate/ingestion-service/internal/dedup"
	"jobmate/ingestion-service/internal/model"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func posting(id, title, company, location string) model.JobPosting {
	return model.JobPosting{ID: id, Title: title, Company: company, Location: location, CreatedAt: t0}
}

// ── Resolve ────────────────────────────────────────────────────────────────

func TestResolve_ClusterOfFourSameSignature(t *testing.T) {
	idx := dedup.NewIndex()
	r := dedup.Resolver{}
	cluster := []model.JobPosting{
		posting("a", "Software Engineer", "Tech Solutions Inc", "San Francisco, CA"),
		posting("b", "software engineer", "Tech Solutions", "san francisco, california"),
		posting("c", "Senior Software Engineer", "TECH SOLUTIONS LLC", "San Francisco, CA"),
		posting("d", "Software Engineer (Hybrid)", "Tech Solutions Corp.", "San Fransisco, CA"),
	}

	accepted, exact := 0, 0
	for _, p := range cluster {
		d := r.Resolve(idx, p)
		switch d.Outcome {
		case dedup.Accepted:
			accepted++
		case dedup.ExactDuplicate:
			exact++
			if d.KeptID != "a" || d.Score != 100 {
				t.Errorf("exact duplicate %s: kept=%s score=%v, want kept=a score=100", p.ID, d.KeptID, d.Score)
			}
		default:
			t.Errorf("posting %s classified %s", p.ID, d.Outcome)
		}
	}
	if accepted != 1 || exact != 3 {
		t.Errorf("accepted=%d exact=%d, want 1 and 3", accepted, exact)
	}
	if idx.Len() != 1 {
		t.Errorf("idx.Len() = %d, want 1", idx.Len())
	}
}

func TestResolve_NearDuplicate(t *testing.T) {
	idx := dedup.NewIndex()
	r := dedup.Resolver{Threshold: 85}
	first := r.Resolve(idx, posting("a", "Software Engineer", "Tech Solutions Inc", "San Francisco, CA"))
	if first.IsDuplicate() {
		t.Fatal("first posting should be accepted")
	}
	second := r.Resolve(idx, posting("b", "Software Engineer", "Tech Solutions Corporation", "San Francisco"))
	if second.Outcome != dedup.NearDuplicate {
		t.Fatalf("Outcome = %s, want %s", second.Outcome, dedup.NearDuplicate)
	}
	if second.KeptID != "a" {
		t.Errorf("KeptID = %s, want a", second.KeptID)
	}
	g, ok := second.Group()
	if !ok || g.Reason != model.ReasonHighSimilarity || len(g.RemovedIDs) != 1 || g.RemovedIDs[0] != "b" {
		t.Errorf("Group() = %+v, %v", g, ok)
	}
}

func TestResolve_BestMatchWins(t *testing.T) {
	idx := dedup.NewIndex()
	idx.Seed([]model.JobPosting{
		posting("weak", "Backend Engineer", "Initech", "Austin, TX"),
		posting("strong", "Backend Developer", "Initech", "Austin"),
	})
	d := dedup.Resolver{Threshold: 60}.Resolve(idx, posting("new", "Backend Developer", "Initech Inc", "Austin, Texas"))
	if d.Outcome != dedup.NearDuplicate || d.KeptID != "strong" {
		t.Errorf("Resolve = %s kept=%s, want high_similarity kept=strong", d.Outcome, d.KeptID)
	}
}

func TestResolve_DistinctPostingsAccepted(t *testing.T) {
	idx := dedup.NewIndex()
	r := dedup.Resolver{}
	for i, p := range []model.JobPosting{
		posting("1", "Software Engineer", "Acme", "Austin, TX"),
		posting("2", "Registered Nurse", "Mercy Hospital", "Chicago, IL"),
		posting("3", "Accountant", "Globex", "Denver, CO"),
	} {
		if d := r.Resolve(idx, p); d.IsDuplicate() {
			t.Errorf("posting %d classified %s", i, d.Outcome)
		}
	}
	if idx.Len() != 3 {
		t.Errorf("idx.Len() = %d, want 3", idx.Len())
	}
}

func TestResolve_FillsSignature(t *testing.T) {
	d := dedup.Resolver{}.Resolve(dedup.NewIndex(), posting("1", "Engineer", "Acme", "Remote"))
	if d.Posting.Signature == "" {
		t.Error("resolved posting should carry a signature")
	}
	if _, ok := d.Group(); ok {
		t.Error("accepted decision should not produce a group")
	}
}

func TestNewIndex_IndependentRuns(t *testing.T) {
	p := posting("1", "Engineer", "Acme", "Remote")
	r := dedup.Resolver{}
	r.Resolve(dedup.NewIndex(), p)
	if d := r.Resolve(dedup.NewIndex(), p); d.IsDuplicate() {
		t.Error("a fresh index must not remember postings from another run")
	}
}

// ── PreferredOrder ─────────────────────────────────────────────────────────

func TestPreferredOrder(t *testing.T) {
	older := posting("z-older", "Engineer", "Acme", "Remote")
	older.CreatedAt = t0.Add(-time.Hour)
	withExt := posting("y-ext", "Engineer", "Acme", "Remote")
	withExt.ExternalID = "adz-1"
	withExt.CreatedAt = t0.Add(time.Hour)
	tieA := posting("a", "Engineer", "Acme", "Remote")
	tieB := posting("b", "Engineer", "Acme", "Remote")

	got := dedup.PreferredOrder([]model.JobPosting{tieB, older, tieA, withExt})
	want := []string{"y-ext", "z-older", "a", "b"}
	for i, p := range got {
		if p.ID != want[i] {
			t.Errorf("PreferredOrder[%d] = %s, want %s", i, p.ID, want[i])
		}
	}
}

// ── Reconcile ──────────────────────────────────────────────────────────────

func TestReconcile_KeepsPreferredMember(t *testing.T) {
	noExt := posting("first-scraped", "Software Engineer", "Acme Inc", "Austin, TX")
	noExt.CreatedAt = t0.Add(-48 * time.Hour)
	ext := posting("with-ext", "Sr. Software Engineer", "ACME", "austin, texas")
	ext.ExternalID = "adz-42"
	near := posting("near", "Software Engineer", "Acme", "Austin")
	other := posting("other", "Accountant", "Globex", "Denver, CO")

	res := dedup.Reconcile([]model.JobPosting{noExt, ext, near, other}, dedup.Resolver{})
	if len(res.Survivors) != 2 {
		t.Fatalf("len(Survivors) = %d, want 2", len(res.Survivors))
	}
	if res.Survivors[0].ID != "with-ext" {
		t.Errorf("Survivors[0] = %s, want with-ext", res.Survivors[0].ID)
	}
	if len(res.Removed) != 2 {
		t.Errorf("len(Removed) = %d, want 2", len(res.Removed))
	}
	if len(res.Groups) != 1 {
		t.Fatalf("len(Groups) = %d, want 1", len(res.Groups))
	}
	g := res.Groups[0]
	if g.KeptID != "with-ext" || len(g.RemovedIDs) != 2 {
		t.Errorf("group = %+v", g)
	}
	if g.Reason != model.ReasonHighSimilarity {
		t.Errorf("merged reason = %s, want %s", g.Reason, model.ReasonHighSimilarity)
	}
}

func TestReconcile_Empty(t *testing.T) {
	res := dedup.Reconcile(nil, dedup.Resolver{})
	if len(res.Survivors) != 0 || len(res.Groups) != 0 {
		t.Errorf("Reconcile(nil) = %+v", res)
	}
}

// ── GroupSet ───────────────────────────────────────────────────────────────

func TestGroupSet_MergesByKeptID(t *testing.T) {
	idx := dedup.NewIndex()
	r := dedup.Resolver{}
	gs := dedup.NewGroupSet()
	for i := 0; i < 3; i++ {
		gs.Add(r.Resolve(idx, posting(fmt.Sprint(i), "Engineer", "Acme", "Remote")))
	}
	if gs.Len() != 1 {
		t.Fatalf("gs.Len() = %d, want 1", gs.Len())
	}
	g := gs.List()[0]
	if g.KeptID != "0" || len(g.RemovedIDs) != 2 || g.Reason != model.ReasonExactSignature {
		t.Errorf("group = %+v", g)
	}
}
