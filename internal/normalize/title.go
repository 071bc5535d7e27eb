package normalize

import (
	"regexp"
	"strings"
)

var annotationRe = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)

var levelTagRe = regexp.MustCompile(`^l[1-9]$`)

var seniorityTokens = map[string]bool{
	"senior": true, "sr": true,
	"junior": true, "jr": true,
	"staff": true, "lead": true, "principal": true,
	"mid": true, "entry": true,
}

var levelTokens = map[string]bool{
	"i": true, "ii": true, "iii": true, "iv": true, "v": true,
	"1": true, "2": true, "3": true, "4": true, "5": true,
}

// JobTitle lowercases a title, removes parenthetical and bracketed
// annotations, drops seniority and level markers and collapses whitespace
// and punctuation. "+" and "#" survive so that C++ and C# stay distinct.
func JobTitle(title string) string {
	stripped := annotationRe.ReplaceAllString(title, " ")
	toks := tokens(stripped, "+#")

	out := make([]string, 0, len(toks))
	for i, tok := range toks {
		switch {
		case seniorityTokens[tok], levelTokens[tok], levelTagRe.MatchString(tok):
			continue
		case tok == "level":
			next := i+1 < len(toks) && levelTokens[toks[i+1]]
			prev := i > 0 && (toks[i-1] == "entry" || toks[i-1] == "mid")
			if next || prev {
				continue
			}
		}
		out = append(out, tok)
	}
	if len(out) == 0 {
		return strings.Join(tokens(title, "+#"), " ")
	}
	return strings.Join(out, " ")
}
