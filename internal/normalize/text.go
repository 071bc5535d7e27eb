// Package normalize turns free-text posting fields into comparable canonical
// forms. All functions are pure and safe for concurrent use.
package normalize

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// CleanText replaces non-breaking spaces, collapses runs of whitespace and
// trims the result.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Description strips markup from a posting description and collapses
// whitespace. Plain text passes through CleanText unchanged.
func Description(raw string) string {
	if !strings.ContainsAny(raw, "<&") {
		return CleanText(raw)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return CleanText(raw)
	}
	doc.Find("script, style").Remove()
	// Block elements would otherwise run their text together.
	doc.Find("br, p, div, li, tr, h1, h2, h3, h4, h5, h6").AfterHtml(" ")
	return CleanText(doc.Text())
}

// tokens lowercases s and splits it on anything that is not a letter, a digit
// or one of keep.
func tokens(s, keep string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune(keep, r)
	})
}

// Tokens returns the lowercase word tokens of s with punctuation removed.
func Tokens(s string) []string { return tokens(s, "") }
