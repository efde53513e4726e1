package wikimark

import (
	"regexp"
	"strings"
	"unicode"
)

// Inline rules run in a fixed order within one line: bold, italic, code,
// citation links, wiki links, then bare URLs. Citation links must be tried
// before wiki links since '[cite:...]' is a specialization of the general
// bracket syntax. Replacement text is never rescanned by the rule that
// produced it.
var inlineRules = []func(Renderer, string) string{
	replaceBold,
	replaceItalics,
	replaceCode,
	replaceCitations,
	replaceWikiLinks,
	replaceBareURLs,
}

func processInline(r Renderer, s string, _ int, _ *State, out []string) (string, []string, error) {
	for _, rule := range inlineRules {
		s = rule(r, s)
	}
	return s, out, nil
}

var (
	boldPattern = regexp.MustCompile(`\*\*(.+?)\*\*`)
	codePattern = regexp.MustCompile("`([^`]+)`")
	citePattern = regexp.MustCompile(`(?i)\[cite:(.+?)\]`)
	wikiPattern = regexp.MustCompile(`\[(.+?)\]`)
)

func replaceBold(_ Renderer, s string) string {
	return boldPattern.ReplaceAllString(s, "<b>$1</b>")
}

func replaceCode(_ Renderer, s string) string {
	return codePattern.ReplaceAllString(s, "<code>$1</code>")
}

// replaceItalics wraps //text// spans, but a '//' immediately preceded by a
// colon neither opens nor closes a span, so "http://", "ftp://" and
// "file://" pass through. Hand-rolled because RE2 has no lookbehind.
func replaceItalics(_ Renderer, s string) string {
	var sb strings.Builder
	for {
		open := indexSlashes(s, 0)
		if open < 0 {
			break
		}
		// non-greedy: first eligible close after at least one char of text
		end := indexSlashes(s, open+3)
		if end < 0 {
			break
		}
		sb.WriteString(s[:open])
		sb.WriteString("<i>")
		sb.WriteString(s[open+2 : end])
		sb.WriteString("</i>")
		s = s[end+2:]
	}
	if sb.Len() == 0 {
		return s
	}
	sb.WriteString(s)
	return sb.String()
}

// indexSlashes finds the next "//" at or after from that is not preceded by
// a colon.
func indexSlashes(s string, from int) int {
	if from+2 > len(s) {
		return -1
	}
	for i := from; ; i++ {
		j := strings.Index(s[i:], "//")
		if j < 0 {
			return -1
		}
		i += j
		if i == 0 || s[i-1] != ':' {
			return i
		}
	}
}

func replaceCitations(r Renderer, s string) string {
	return replaceAllSubmatch(citePattern, s, func(key string) string {
		return makeLink(linkClass(r.Oracle != nil && r.Oracle.CitationExists(key)), "/bib/"+key, key)
	})
}

func replaceWikiLinks(r Renderer, s string) string {
	return replaceAllSubmatch(wikiPattern, s, func(word string) string {
		normalized := Normalize(word)
		return makeLink(linkClass(r.Oracle != nil && r.Oracle.WikiWordExists(normalized)), "/wiki/"+normalized, word)
	})
}

func linkClass(exists bool) string {
	if exists {
		return "found"
	}
	return "not-found"
}

func makeLink(class, href, text string) string {
	return `<a class="` + class + `" href="` + href + `">` + text + `</a>`
}

// replaceAllSubmatch substitutes every match of pattern, passing the first
// submatch to repl. Unlike ReplaceAllStringFunc this hands the capture
// group, not the whole match, to the replacement function.
func replaceAllSubmatch(pattern *regexp.Regexp, s string, repl func(string) string) string {
	matches := pattern.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s
	}
	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(s[last:m[0]])
		sb.WriteString(repl(s[m[2]:m[3]]))
		last = m[1]
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// replaceBareURLs links every http:// run. Where a URL ends is necessarily
// arbitrary: most punctuation that would close a sentence ends the URL, but
// commas, semicolons, colons and the like are kept when not followed by a
// space, and a period is kept unless followed by another period. Trailing
// brackets, angle brackets and whitespace always end the URL.
func replaceBareURLs(_ Renderer, s string) string {
	const scheme = "http://"
	var sb strings.Builder
	for {
		i := strings.Index(s, scheme)
		if i < 0 {
			break
		}
		end := i + len(scheme)
		for end < len(s) {
			n := urlRun(s[end:])
			if n == 0 {
				break
			}
			end += n
		}
		if end == i+len(scheme) {
			// a bare scheme with nothing after it is not a URL
			sb.WriteString(s[:end])
			s = s[end:]
			continue
		}
		url := s[i:end]
		sb.WriteString(s[:i])
		sb.WriteString(makeLink("external", url, url))
		s = s[end:]
	}
	if sb.Len() == 0 {
		return s
	}
	sb.WriteString(s)
	return sb.String()
}

// urlRun reports how many leading bytes of s continue a URL: 0 if none do.
func urlRun(s string) int {
	c := s[0]
	switch c {
	case '[', ']', '{', '}', '(', ')', '<', '>', '"':
		return 0
	case ',', ';', ':', '!', '?':
		// sentence punctuation ends a URL only when followed by a space
		if len(s) > 1 && s[1] == ' ' {
			return 0
		}
		return 1
	case '.':
		// a run of periods is an ellipsis, not part of the URL
		if len(s) > 1 && s[1] == '.' {
			return 0
		}
		return 1
	}
	if unicode.IsSpace(rune(c)) {
		return 0
	}
	return 1
}
