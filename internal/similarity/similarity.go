// Package similarity scores how alike two postings are on a 0–100 scale.
//
// Each of title, company and location is normalized, then compared with the
// larger of a Levenshtein ratio and a token Jaccard ratio. The field scores are
// combined with fixed weights:
//
//	title    0.45
//	company  0.35
//	location 0.20
package similarity

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"jobmate/ingestion-service/internal/model"
	"jobmate/ingestion-service/internal/normalize"
)

const (
	TitleWeight    = 0.45
	CompanyWeight  = 0.35
	LocationWeight = 0.20

	// DefaultThreshold is the score at or above which two postings are
	// treated as the same job.
	DefaultThreshold = 85.0
)

// Fields holds the normalized comparison fields of one posting.
type Fields struct {
	Title    string
	Company  string
	Location string
}

// FieldsOf normalizes the comparison fields of p.
func FieldsOf(p model.JobPosting) Fields {
	return Fields{
		Title:    normalize.JobTitle(p.Title),
		Company:  normalize.CompanyName(p.Company),
		Location: strings.ToLower(normalize.Location(p.Location)),
	}
}

// Score returns the weighted similarity of a and b, rounded to two decimals.
func Score(a, b model.JobPosting) float64 {
	return ScoreFields(FieldsOf(a), FieldsOf(b))
}

// ScoreFields is Score over already normalized fields.
func ScoreFields(a, b Fields) float64 {
	s := TitleWeight*fieldScore(a.Title, b.Title) +
		CompanyWeight*fieldScore(a.Company, b.Company) +
		LocationWeight*fieldScore(a.Location, b.Location)
	return math.Round(s*100*100) / 100
}

// AreSimilar reports whether Score(a, b) >= threshold.
func AreSimilar(a, b model.JobPosting, threshold float64) bool {
	return Score(a, b) >= threshold
}

// Match is one candidate that met the threshold.
type Match struct {
	Posting model.JobPosting
	Score   float64
}

// FindSimilar scores every candidate against target and returns those at or
// above threshold, best first. Ties keep candidate order.
func FindSimilar(target model.JobPosting, candidates []model.JobPosting, threshold float64) []Match {
	fields := make([]Fields, len(candidates))
	for i, c := range candidates {
		fields[i] = FieldsOf(c)
	}
	found := FindSimilarFields(FieldsOf(target), fields, threshold)
	matches := make([]Match, len(found))
	for i, m := range found {
		matches[i] = Match{Posting: candidates[m.Index], Score: m.Score}
	}
	return matches
}

// FieldMatch is the position of a candidate that met the threshold.
type FieldMatch struct {
	Index int
	Score float64
}

// FindSimilarFields is FindSimilar over already normalized fields. Matches
// are best first; ties keep candidate order.
func FindSimilarFields(target Fields, candidates []Fields, threshold float64) []FieldMatch {
	matches := []FieldMatch{}
	for i, c := range candidates {
		if s := ScoreFields(target, c); s >= threshold {
			matches = append(matches, FieldMatch{Index: i, Score: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches
}

// fieldScore is in [0,1]. An empty side scores 0.
func fieldScore(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return math.Max(editRatio(a, b), jaccard(a, b))
}

func editRatio(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

func jaccard(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for tok := range ta {
		if tb[tok] {
			inter++
		}
	}
	return float64(inter) / float64(len(ta)+len(tb)-inter)
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, tok := range normalize.Tokens(s) {
		set[tok] = true
	}
	return set
}
