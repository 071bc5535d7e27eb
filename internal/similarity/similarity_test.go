package similarity_test

import (
	"testing"
	"time"

	"jobmate/ingestion-service/internal/model"
	"jobmate/ingestion-service/internal/similarity"
)

func posting(id, title, company, location string) model.JobPosting {
	return model.JobPosting{ID: id, Title: title, Company: company, Location: location}
}

// ── Score ──────────────────────────────────────────────────────────────────

func TestScore_Reflexive(t *testing.T) {
	for _, p := range []model.JobPosting{
		posting("1", "Software Engineer", "Tech Solutions Inc", "San Francisco, CA"),
		posting("2", "Nurse", "General Hospital", ""),
		posting("3", "Data Analyst (Contract)", "Globex LLC", "Remote"),
	} {
		if got := similarity.Score(p, p); got != 100 {
			t.Errorf("Score(x, x) = %v for %q, want 100", got, p.Title)
		}
	}
}

func TestScore_NormalizationInvariant(t *testing.T) {
	a := posting("1", "Senior Software Engineer", "Tech Solutions Inc.", "Remote")
	b := posting("2", "software engineer", "TECH SOLUTIONS", "anywhere")
	if got := similarity.Score(a, b); got != 100 {
		t.Errorf("Score = %v, want 100", got)
	}
}

func TestScore_TechSolutionsScenario(t *testing.T) {
	a := posting("1", "Software Engineer", "Tech Solutions Inc", "San Francisco, CA")
	b := posting("2", "Software Engineer", "Tech Solutions Corporation", "San Francisco")
	got := similarity.Score(a, b)
	if got < similarity.DefaultThreshold {
		t.Errorf("Score = %v, want >= %v", got, similarity.DefaultThreshold)
	}
	if !similarity.AreSimilar(a, b, similarity.DefaultThreshold) {
		t.Error("AreSimilar should be true at the default threshold")
	}
}

func TestScore_UnrelatedPostingsScoreLow(t *testing.T) {
	a := posting("1", "Software Engineer", "Tech Solutions", "San Francisco, CA")
	b := posting("2", "Registered Nurse", "Mercy Hospital", "Chicago, IL")
	if got := similarity.Score(a, b); got >= 50 {
		t.Errorf("Score = %v, want < 50", got)
	}
}

func TestScore_MissingFieldsDegrade(t *testing.T) {
	a := posting("1", "Software Engineer", "", "Austin, TX")
	b := posting("2", "Software Engineer", "Acme", "Austin, TX")
	got := similarity.Score(a, b)
	if got != 65 {
		t.Errorf("Score with empty company = %v, want 65", got)
	}
	if got := similarity.Score(posting("1", "", "", ""), posting("2", "", "", "")); got < 0 || got > 100 {
		t.Errorf("Score of empty postings = %v, want within [0,100]", got)
	}
}

func TestScore_Symmetric(t *testing.T) {
	a := posting("1", "Backend Developer", "Initech", "Austin, TX")
	b := posting("2", "Backend Engineer", "Initech Inc", "Austin")
	if similarity.Score(a, b) != similarity.Score(b, a) {
		t.Error("Score should be symmetric")
	}
}

func TestScore_ReflexiveForConvertedPostings(t *testing.T) {
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	for _, raw := range []model.RawPosting{
		{Title: "C++ Developer", Company: "Initech GmbH", Location: "austin tx"},
		{Title: "Sr.", Company: "Acme", Location: "Austin, TX"},
		{Title: "Nurse (Night Shift)", Company: "Inc.", Location: ""},
	} {
		p, err := model.FromRaw(raw, "fake", "b", at)
		if err != nil {
			t.Fatalf("FromRaw(%q): %v", raw.Title, err)
		}
		if got := similarity.Score(p, p); got != 100 {
			t.Errorf("Score(x, x) = %v for %q at %q, want 100", got, raw.Title, raw.Company)
		}
	}
}

// ── AreSimilar ─────────────────────────────────────────────────────────────

func TestAreSimilar_Monotonic(t *testing.T) {
	a := posting("1", "Backend Developer", "Initech", "Austin, TX")
	b := posting("2", "Backend Engineer", "Initech Inc", "Austin")
	score := similarity.Score(a, b)
	for th := 0.0; th <= 100; th += 5 {
		got := similarity.AreSimilar(a, b, th)
		if got != (score >= th) {
			t.Errorf("AreSimilar(th=%v) = %v with score %v", th, got, score)
		}
		if got {
			for lower := 0.0; lower <= th; lower += 5 {
				if !similarity.AreSimilar(a, b, lower) {
					t.Errorf("AreSimilar true at %v but false at %v", th, lower)
				}
			}
		}
	}
}

// ── FindSimilar ────────────────────────────────────────────────────────────

func TestFindSimilar_EmptyCandidates(t *testing.T) {
	got := similarity.FindSimilar(posting("1", "Engineer", "Acme", "Remote"), nil, 85)
	if got == nil || len(got) != 0 {
		t.Errorf("FindSimilar(nil) = %v, want empty slice", got)
	}
}

func TestFindSimilar_SortedAndFiltered(t *testing.T) {
	target := posting("t", "Software Engineer", "Tech Solutions", "San Francisco, CA")
	candidates := []model.JobPosting{
		posting("far", "Registered Nurse", "Mercy Hospital", "Chicago, IL"),
		posting("near", "Software Engineer", "Tech Solutions", "San Francisco"),
		posting("exact", "Software Engineer", "Tech Solutions Inc", "San Francisco, CA"),
		posting("exact2", "Sr Software Engineer", "Tech Solutions", "san francisco, california"),
	}
	got := similarity.FindSimilar(target, candidates, 85)
	if len(got) != 3 {
		t.Fatalf("len(FindSimilar) = %d, want 3", len(got))
	}
	wantIDs := []string{"exact", "exact2", "near"}
	for i, m := range got {
		if m.Posting.ID != wantIDs[i] {
			t.Errorf("match[%d] = %s, want %s", i, m.Posting.ID, wantIDs[i])
		}
		if i > 0 && m.Score > got[i-1].Score {
			t.Errorf("matches not sorted: %v after %v", m.Score, got[i-1].Score)
		}
	}
}

func TestFindSimilarFields_TiesKeepCandidateOrder(t *testing.T) {
	f := similarity.FieldsOf(posting("t", "Welder", "Acme", "Austin, TX"))
	other := similarity.FieldsOf(posting("o", "Registered Nurse", "Mercy Hospital", "Chicago, IL"))
	got := similarity.FindSimilarFields(f, []similarity.Fields{other, f, f}, 85)
	if len(got) != 2 {
		t.Fatalf("len(FindSimilarFields) = %d, want 2", len(got))
	}
	if got[0].Index != 1 || got[1].Index != 2 {
		t.Errorf("indexes = [%d %d], want [1 2]", got[0].Index, got[1].Index)
	}
	if got[0].Score != 100 {
		t.Errorf("Score = %v, want 100", got[0].Score)
	}
}
