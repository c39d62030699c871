// Package sanitize provides text normalization shared by the matching and
// reconciliation code.
package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips combining marks, so "Abogacía" and "abogacia"
// compare equal. Letters without a decomposition (ß, ø) are left as is.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Email returns the comparison key for an email address: trimmed and lowercased.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
