// Package names normalizes municipality names so that the geometry file and
// the region catalog, which spell names differently, can be joined.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Key returns the lookup key for a name: whitespace collapsed, diacritics
// stripped and case folded. "Acambay de Ruíz  Castañeda" and
// "acambay de ruiz castaneda" share a key.
func Key(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	// Transformers keep state, build a fresh chain per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

// Tokens splits a key into words.
func Tokens(key string) []string {
	return strings.Fields(key)
}
