package bibs

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ErrCannotSuggest is returned when a bib entry lacks the author, year, or
// title material a cite key is built from; callers fall back to the key the
// entry already carries.
var ErrCannotSuggest = errors.New("cannot suggest cite key")

// SuggestCiteKey derives a predictable cite key from a bib entry's contents:
// author surnames, year, and the first few informative title words, eg
// "nothman-curran-2008-transf-wikiped-named".
func SuggestCiteKey(content string) (string, error) {
	authors := scrapeField(content, "author")
	if authors == "" {
		authors = scrapeField(content, "editor")
	}
	surnames, err := authorSurnames(authors)
	if err != nil {
		return "", err
	}

	year := scrapeField(content, "year")
	if _, err := strconv.Atoi(year); err != nil {
		return "", fmt.Errorf("%w: year %q is not a number", ErrCannotSuggest, year)
	}

	title := titleWords(scrapeField(content, "title"), 3)
	if title == "" {
		return "", fmt.Errorf("%w: no informative title words", ErrCannotSuggest)
	}

	return surnames + "-" + year + "-" + title, nil
}

var andSplitter = regexp.MustCompile(`(?i)\s+and\s+`)

func authorSurnames(authors string) (string, error) {
	var names []string
	for _, author := range andSplitter.Split(authors, -1) {
		if author = strings.TrimSpace(author); author != "" {
			names = append(names, normalizeLastName(lastName(author)))
		}
	}
	switch len(names) {
	case 0:
		return "", fmt.Errorf("%w: no authors or editors", ErrCannotSuggest)
	case 1:
		return names[0], nil
	case 2:
		return names[0] + "-" + names[1], nil
	default:
		return names[0] + "-etal", nil
	}
}

// lastName extracts the surname from either "Last, First" or "First Last".
func lastName(author string) string {
	if i := strings.IndexByte(author, ','); i >= 0 {
		return strings.TrimSpace(author[:i])
	}
	fields := strings.Fields(author)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

const maxNameLen = 7

func normalizeLastName(name string) string {
	name = stripToAlnum(asciiFold(strings.ToLower(name)))
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	return name
}

// Words such as "approach" and "experiment" are uninformative (and
// interchangeable) in titles; anything under 3 characters is blocked anyway.
var titleStopwords = map[string]bool{
	"and": true, "approach": true, "approaches": true, "based": true,
	"experiment": true, "experiments": true, "exploration": true,
	"explorations": true, "for": true, "from": true, "into": true,
	"method": true, "methods": true, "new": true, "one": true, "onto": true,
	"per": true, "scale": true, "specific": true, "the": true, "using": true,
	"with": true,
}

// Hyphenated components that add nothing, eg "WordNet-based X" is no more
// informative than "WordNet X".
var uninformativeComponents = map[string]bool{
	"based": true, "scale": true, "specific": true,
}

// titleWords normalizes a title down to its first n informative words,
// hyphen-joined, each word truncated to a pronounceable stem.
func titleWords(title string, n int) string {
	var words []string
	for _, w := range strings.Fields(title) {
		w = normalizeHyphenatedWord(w)
		if len(w) < 3 || titleStopwords[w] {
			continue
		}
		words = append(words, splitWordAtHyphens(w)...)
	}
	if len(words) > n {
		words = words[:n]
	}
	for i, w := range words {
		words[i] = truncateTitleWord(w)
	}
	return strings.Join(words, "-")
}

// normalizeHyphenatedWord lowercases and strips punctuation from a word
// while keeping its hyphen structure, collapsing runs of hyphens.
func normalizeHyphenatedWord(w string) string {
	w = asciiFold(strings.ToLower(w))
	var pieces []string
	for _, piece := range strings.Split(w, "-") {
		if piece = stripToAlnum(piece); piece != "" {
			pieces = append(pieces, piece)
		}
	}
	return strings.Join(pieces, "-")
}

// splitWordAtHyphens breaks a word at hyphens, dropping uninformative
// components and gluing sub-3-character fragments to their neighbor.
func splitWordAtHyphens(word string) []string {
	var comps []string
	for _, c := range strings.Split(word, "-") {
		if c != "" {
			comps = append(comps, c)
		}
	}
	if len(comps) == 0 {
		return nil
	}
	if len(comps) >= 2 && len(comps[0]) < 3 {
		merged := comps[0] + "-" + comps[1]
		comps = append([]string{merged}, comps[2:]...)
	}
	out := []string{comps[0]}
	for _, comp := range comps[1:] {
		switch {
		case uninformativeComponents[comp]:
		case len(comp) < 3:
			out[len(out)-1] += "-" + comp
		default:
			out = append(out, comp)
		}
	}
	return out
}

const maxTitleWordLen = 7

func isVowel(c byte) bool { return strings.IndexByte("aeiou", c) >= 0 }

// truncateTitleWord cuts a word to length, then keeps trimming while the cut
// end looks bad: a trailing hyphen, or a vowel after a non-vowel.
func truncateTitleWord(w string) string {
	if len(w) <= maxTitleWordLen {
		return w
	}
	w = w[:maxTitleWordLen]
	for {
		switch {
		case w[len(w)-1] == '-':
			w = w[:len(w)-1]
		case len(w) >= 2 && isVowel(w[len(w)-1]) && !isVowel(w[len(w)-2]):
			w = w[:len(w)-1]
		default:
			return w
		}
	}
}

// stripToAlnum removes everything but letters and digits.
func stripToAlnum(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

var asciiFolds = map[rune]string{
	'à': "a", 'á': "a", 'â': "a", 'ã': "a", 'ä': "a", 'å': "a", 'æ': "ae",
	'ç': "c",
	'è': "e", 'é': "e", 'ê': "e", 'ë': "e",
	'ì': "i", 'í': "i", 'î': "i", 'ï': "i",
	'ñ': "n",
	'ò': "o", 'ó': "o", 'ô': "o", 'õ': "o", 'ö': "o", 'ø': "o", 'œ': "oe",
	'ù': "u", 'ú': "u", 'û': "u", 'ü': "u",
	'ý': "y", 'ÿ': "y",
	'ß': "ss",
	'đ': "d", 'ł': "l", 'š': "s", 'ž': "z", 'č': "c", 'ć': "c",
}

// asciiFold transliterates common accented Latin letters to their plain
// ASCII spellings. Input is expected to be lowercased already.
func asciiFold(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if fold, ok := asciiFolds[r]; ok {
			sb.WriteString(fold)
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
