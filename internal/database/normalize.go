package database

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeName normalizes a student name for comparison (lowercase, no
// diacritics, spaces for dashes).
func NormalizeName(name string) string {
	name = RemoveDiacritics(name)
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", " ")
	return name
}

// MatchesName reports whether a student name matches a search query,
// ignoring case and diacritics.
func MatchesName(name, query string) bool {
	return strings.Contains(NormalizeName(name), NormalizeName(query))
}
