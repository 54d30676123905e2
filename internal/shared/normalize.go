package shared

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// NormalizeName collapses runs of non-alphanumeric characters into a
// single dash and trims dangling separators. Display names keep their
// original casing; uniqueness comparisons go through FoldName.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pendingDash := false
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// FoldName returns the case-folded normalized form used for uniqueness
// checks and lookups.
func FoldName(name string) string {
	return foldCaser.String(NormalizeName(name))
}
