package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Remote is the canonical token for every location-independent posting.
const Remote = "Remote"

var remoteExact = map[string]bool{
	"":                true,
	"remote":          true,
	"anywhere":        true,
	"work from home":  true,
	"wfh":             true,
	"worldwide":       true,
	"telecommute":     true,
	"fully remote":    true,
	"100% remote":     true,
	"remote - us":     true,
	"us remote":       true,
	"remote, us":      true,
	"remote (us)":     true,
	"remote/anywhere": true,
}

var countrySegments = map[string]bool{
	"us": true, "usa": true, "u.s.": true, "u.s.a.": true,
	"united states": true, "united states of america": true,
}

// Location maps a free-text location to a canonical form:
//
//	""                        → Remote
//	"work from home"          → Remote
//	"san fransisco, californa" → San Francisco, CA
//	"austin tx"               → Austin, TX
//	"new york, NY, USA"       → New York, NY
func Location(location string) string {
	loc := CleanText(location)
	loc = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(loc, "Location:"), "LOCATIONS:"))
	if isRemote(loc) {
		return Remote
	}

	segments := splitSegments(loc)
	if len(segments) == 0 {
		return Remote
	}

	// Country suffixes carry no information for US postings.
	for len(segments) > 1 && countrySegments[strings.ToLower(segments[len(segments)-1])] {
		segments = segments[:len(segments)-1]
	}

	// "Austin TX", "austin tx", "Albany New York": a trailing state inside a
	// single segment, matched case-insensitively.
	if len(segments) == 1 {
		segments = splitTrailingState(segments[0])
	}

	if city, ok := cityFixes[strings.ToLower(segments[0])]; ok {
		segments[0] = city
	}
	if len(segments) > 1 {
		last := len(segments) - 1
		if code, ok := stateCodes[strings.ToLower(segments[last])]; ok {
			segments[last] = code
		}
	}

	for i, seg := range segments {
		segments[i] = capitalize(seg)
	}
	return strings.Join(segments, ", ")
}

func isRemote(loc string) bool {
	lower := strings.ToLower(loc)
	if remoteExact[lower] {
		return true
	}
	return startsWithWord(lower, "remote") ||
		strings.Contains(lower, "anywhere") ||
		strings.Contains(lower, "work from home")
}

// startsWithWord reports whether s begins with word followed by a non-letter
// or the end of s.
func startsWithWord(s, word string) bool {
	if !strings.HasPrefix(s, word) {
		return false
	}
	r, size := utf8.DecodeRuneInString(s[len(word):])
	return size == 0 || !unicode.IsLetter(r)
}

// splitTrailingState splits a trailing state off seg. Two-word state names
// are tried before single words, and at least one city word must remain. A
// segment that is itself a state name ("New York", "West Virginia") is kept
// whole.
func splitTrailingState(seg string) []string {
	if _, ok := stateCodes[strings.ToLower(seg)]; ok {
		return []string{seg}
	}
	words := strings.Fields(seg)
	n := len(words)
	if n > 2 {
		name := strings.ToLower(words[n-2] + " " + words[n-1])
		if _, ok := stateCodes[name]; ok {
			return []string{strings.Join(words[:n-2], " "), name}
		}
	}
	if n > 1 {
		last := strings.ToLower(words[n-1])
		if _, ok := stateCodes[last]; ok {
			return []string{strings.Join(words[:n-1], " "), last}
		}
	}
	return []string{seg}
}

// splitSegments splits on commas, trims each part and drops empty segments
// and repeats. A repeated state name is kept ("New York, New York").
func splitSegments(loc string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range strings.Split(loc, ",") {
		p = CleanText(p)
		if p == "" {
			continue
		}
		k := strings.ToLower(p)
		if _, state := stateCodes[k]; seen[k] && !state {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return out
}

func isUpperCode(w string) bool {
	if utf8.RuneCountInString(w) != 2 {
		return false
	}
	for _, r := range w {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// capitalize title-cases every word of a segment, hyphenated parts included.
// Two-letter all-caps words are treated as codes and kept as is.
func capitalize(seg string) string {
	words := strings.Fields(seg)
	for i, w := range words {
		if isUpperCode(w) {
			continue
		}
		parts := strings.Split(strings.ToLower(w), "-")
		for j, p := range parts {
			r, size := utf8.DecodeRuneInString(p)
			if size == 0 {
				continue
			}
			parts[j] = string(unicode.ToUpper(r)) + p[size:]
		}
		words[i] = strings.Join(parts, "-")
	}
	return strings.Join(words, " ")
}
