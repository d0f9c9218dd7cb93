// Package normalize builds canonical join keys from free-text names.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes text and removes combining marks, so "JOSÉ" and
// "JOSE" fold to the same bytes.
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Key canonicalizes a free-text string into a comparable join key: trimmed,
// accent-stripped, upper-cased, with every character outside [A-Z0-9 ]
// replaced by a space and whitespace runs collapsed. Key is total and
// idempotent; empty input yields "".
func Key(text string) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return ""
	}

	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	s = strings.ToUpper(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// JoinKey builds the key for a first-name/last-name pair. Both fragments are
// normalized independently so either side may be empty.
func JoinKey(first, last string) string {
	return strings.TrimSpace(Key(first) + " " + Key(last))
}
