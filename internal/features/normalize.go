package features

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize returns the canonical form of a column label used for equality
// checks: trimmed, lowercased, internal whitespace collapsed to one space and
// doubled backslashes collapsed to one. Two labels name the same column iff
// their normalized forms are equal.
func Normalize(label string) string {
	s := cases.Lower(language.Und).String(strings.TrimSpace(label))
	s = strings.Join(strings.Fields(s), " ")
	if !strings.Contains(s, `\\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	prevSlash := false
	for _, r := range s {
		if r == '\\' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SameColumn reports whether two labels refer to the same column.
func SameColumn(a, b string) bool { return Normalize(a) == Normalize(b) }
