// Package similarity provides the text normalization and scoring used to
// compare a retelling against the original text.
package similarity

import (
	"strings"
	"unicode"
)

// Normalize lowercases the input, drops every rune that is not a letter,
// digit, or whitespace, collapses whitespace runs into single spaces, and
// trims the result. It is Unicode-aware (the skill's domain is Russian
// text) and idempotent.
func Normalize(s string) string {
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if b.Len() > 0 && !space {
				b.WriteByte(' ')
				space = true
			}
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
			space = false
		}
	}

	return strings.TrimRight(b.String(), " ")
}
