package wikimark

import (
	"strings"
	"unicode"
)

// Punctuation that survives normalization; everything else that is
// punctuation, symbol, or whitespace is stripped. Colons are kept with an
// eye toward namespaced words later.
const allowedPunctuation = "-_.:"

// Normalize converts arbitrary wiki-word text to its canonical form: lower
// case, spaces become hyphens, and all punctuation outside the allowed set
// is removed. The storage layer names wiki page directories with exactly
// this form, so link targets and page lookups agree.
func Normalize(word string) string {
	word = strings.ReplaceAll(strings.ToLower(word), " ", "-")
	var sb strings.Builder
	sb.Grow(len(word))
	for _, r := range word {
		if !strings.ContainsRune(allowedPunctuation, r) &&
			(unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r)) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
