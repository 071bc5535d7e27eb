// Package signature derives the exact-duplicate fingerprint of a posting.
package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"jobmate/ingestion-service/internal/normalize"
)

// Separator joins the normalized fields. None of the normalizers can emit it.
const Separator = "|"

// Key returns the unhashed signature key: normalized title, company and
// location joined by Separator.
func Key(title, company, location string) string {
	return strings.Join([]string{
		normalize.JobTitle(title),
		normalize.CompanyName(company),
		strings.ToLower(normalize.Location(location)),
	}, Separator)
}

// Generate returns the lowercase hex SHA-256 of Key. Equal normalized triples
// always yield equal signatures.
func Generate(title, company, location string) string {
	sum := sha256.Sum256([]byte(Key(title, company, location)))
	return hex.EncodeToString(sum[:])
}
