package normalize

import "strings"

// legalSuffixes holds entity suffixes with dots removed.
var legalSuffixes = map[string]bool{
	"inc": true, "incorporated": true,
	"llc": true, "corp": true, "corporation": true,
	"co": true, "company": true,
	"ltd": true, "limited": true,
	"plc": true, "gmbh": true,
	"lp": true, "llp": true, "pllc": true,
	"sa": true, "ag": true,
}

// CompanyName lowercases a company name, strips trailing legal-entity
// suffixes ("Acme Co., Inc." → "acme") and collapses whitespace and
// punctuation. A name made only of suffixes is returned collapsed rather than
// emptied.
func CompanyName(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(CleanText(name)), func(r rune) bool {
		return r == ' ' || r == ','
	})
	for len(fields) > 0 && legalSuffixes[strings.ReplaceAll(fields[len(fields)-1], ".", "")] {
		fields = fields[:len(fields)-1]
	}
	if len(fields) == 0 {
		return strings.Join(Tokens(name), " ")
	}
	return strings.Join(Tokens(strings.Join(fields, " ")), " ")
}
