package cards

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics (NFD, combining marks removed), so
// "École" and "ecole" fold to the same string.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// newCollator returns a French collator at base strength: case and accents
// are ignored. Collators keep internal buffers, so one is built per sort.
func newCollator() *collate.Collator {
	return collate.New(language.French, collate.IgnoreCase, collate.IgnoreDiacritics)
}

// SortTags sorts labels in place with French collation, falling back to a
// byte comparison so distinct labels never tie.
func SortTags(tags []string) {
	c := newCollator()
	slices.SortStableFunc(tags, func(a, b string) int {
		if n := c.CompareString(a, b); n != 0 {
			return n
		}
		return strings.Compare(a, b)
	})
}
