package similarity

import (
	"math"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Ratio returns how close two strings are as an integer percentage in
// [0, 100], based on Levenshtein distance over runes. It is symmetric,
// returns 100 for equal inputs, and by convention scores two empty strings
// as a perfect match. Inputs are expected to be normalized already; Ratio
// itself is case-sensitive.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}

	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}

	dist := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(dist)/float64(maxLen))))
}
