package wikimark

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// A lineFilter rewrites one line. Filters run in a fixed order; each
// consumes the previous filter's output. The list filter is the only one
// that can fail, and the heading and list filters may emit open/close tags
// into out ahead of the line itself.
type lineFilter func(r Renderer, s string, lineNum int, st *State, out []string) (string, []string, error)

// The order is load-bearing: quotes must precede inline markup so that
// entity conversion cannot break generated hyperlinks, and multi-char
// sequences must precede dashes so that '<-->' is an arrow, not a dash.
var lineFilters = []lineFilter{
	escapeEntities,
	convertDoubleQuotes,
	processHeadings,
	processLists,
	processInline,
	processAbbrevs,
	convertMultiCharSeqs,
	convertDashes,
}

func (r Renderer) applyLineFilters(s string, lineNum int, st *State, out []string) (string, []string, error) {
	for _, f := range lineFilters {
		var err error
		s, out, err = f(r, s, lineNum, st, out)
		if err != nil {
			return "", nil, err
		}
	}
	return s, out, nil
}

// entityEscaper runs exactly once per line, as the first filter, so
// already-escaped text is never escaped again.
var entityEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeEntities(_ Renderer, s string, _ int, _ *State, out []string) (string, []string, error) {
	return entityEscaper.Replace(s), out, nil
}

var (
	openQuoteAtStart   = regexp.MustCompile(`^"`)
	openQuoteAfterChar = regexp.MustCompile(`([ (])"`)
)

// convertDoubleQuotes turns straight double quotes into typographic ones.
// A quote at line start, or preceded by a space or left paren, opens; every
// other quote closes.
func convertDoubleQuotes(_ Renderer, s string, _ int, _ *State, out []string) (string, []string, error) {
	s = openQuoteAtStart.ReplaceAllString(s, "&ldquo;")
	s = openQuoteAfterChar.ReplaceAllString(s, "$1&ldquo;")
	s = strings.ReplaceAll(s, `"`, "&rdquo;")
	return s, out, nil
}

// Heading configuration: four levels of '=' wrapping, where four '=' signs
// bind tightest and map to the topmost tag level.
const (
	topHeadingTagLevel = 3 // ie, <h3>
	numHeadingLevels   = 4 // ie, <h3> through <h6>
)

type headingRule struct {
	pattern     *regexp.Regexp
	open, close string
}

var headingRules = func() []headingRule {
	rules := make([]headingRule, 0, numHeadingLevels)
	// longest first, so four '=' signs bind tighter than one
	for n := numHeadingLevels; n >= 1; n-- {
		level := topHeadingTagLevel + numHeadingLevels - n
		rules = append(rules, headingRule{
			pattern: regexp.MustCompile(fmt.Sprintf(`^={%d}(.*)={%d}$`, n, n)),
			open:    fmt.Sprintf("<h%d>", level),
			close:   fmt.Sprintf("</h%d>", level),
		})
	}
	return rules
}()

func processHeadings(_ Renderer, s string, _ int, st *State, out []string) (string, []string, error) {
	for _, rule := range headingRules {
		if m := rule.pattern.FindStringSubmatch(s); m != nil {
			out = st.closeListsDownTo(0, out)
			return rule.open + strings.TrimSpace(m[1]) + rule.close, out, nil
		}
	}
	return s, out, nil
}

// List markers: zero or more two-space indent groups, then either '*' or a
// decimal number followed by '.', then at least one space or tab. The
// trailing space requirement keeps '**bold**' at line start from reading as
// a list item.
var listPatterns = []struct {
	pattern *regexp.Regexp
	kind    listKind
}{
	{regexp.MustCompile(`^((?:  )*)\*[ \t]`), listItemize},
	{regexp.MustCompile(`^((?:  )*)\d+\.[ \t]`), listEnumerate},
}

func processLists(_ Renderer, s string, lineNum int, st *State, out []string) (string, []string, error) {
	for _, lp := range listPatterns {
		m := lp.pattern.FindStringSubmatchIndex(s)
		if m == nil {
			continue
		}

		// depth 1 is the shallowest list
		depth := (m[3]-m[2])/2 + 1
		if st.Depth() > depth {
			out = st.closeListsDownTo(depth, out)
		}
		for st.Depth() < depth {
			out = st.openList(lp.kind, out)
		}

		return "<li>" + strings.TrimSpace(s[m[1]:]) + "</li>", out, nil
	}

	// No list marker matched, so indentation here has nothing to attach to.
	if s[0] == ' ' || s[0] == '\t' {
		return "", nil, &SyntaxError{
			Message: "cannot indent text if not followed by a list item",
			Line:    lineNum,
			Text:    s,
			Start:   0,
			End:     len(s) - len(strings.TrimLeftFunc(s, unicode.IsSpace)),
		}
	}

	return s, out, nil
}

// Abbreviations are styled by plain ordered substring replacement, each
// variant listed with its trailing punctuation so that only real
// abbreviation uses match.
var abbrevMappings = [][2]string{
	{"etc.", "<i>etc</i>."},

	{"eg,", "<i>eg</i>,"},
	{"eg.", "<i>eg</i>."},

	{"ie,", "<i>ie</i>,"},
	{"ie.", "<i>ie</i>."},

	{"vs ", "<i>vs</i> "},
	{"vs.", "<i>vs</i>."},

	{"aka ", "<i>aka</i> "},
	{"aka.", "<i>aka</i>."},
}

func processAbbrevs(_ Renderer, s string, _ int, _ *State, out []string) (string, []string, error) {
	for _, m := range abbrevMappings {
		s = strings.ReplaceAll(s, m[0], m[1])
	}
	return s, out, nil
}

// Arrow sequences are matched against their entity-escaped spellings, since
// escaping has already happened by this stage.
var arrowMappings = [][2]string{
	{"&lt;-&gt;", "&harr;"},   // <->
	{"&lt;--&gt;", "&harr;"},  // <-->
	{"&lt;=&gt;", "&hArr;"},   // <=>
	{"&lt;==&gt;", "&hArr;"},  // <==>
	{"-&gt;", "&rarr;"},       // ->
	{"=&gt;", "&rArr;"},       // =>
	{"&gt;&gt;", "&raquo;"},   // >>
}

func convertMultiCharSeqs(_ Renderer, s string, _ int, _ *State, out []string) (string, []string, error) {
	s = strings.ReplaceAll(s, "...", "&hellip;")
	for _, m := range arrowMappings {
		s = strings.ReplaceAll(s, m[0], m[1])
	}
	return s, out, nil
}

var (
	spacedHyphen = regexp.MustCompile(`(\s)-(\s)`)
	numericRange = regexp.MustCompile(`(\d)-(\d)`)
)

// convertDashes runs after arrow conversion so that hyphens inside arrow
// sequences are never mistaken for dashes.
func convertDashes(_ Renderer, s string, _ int, _ *State, out []string) (string, []string, error) {
	s = strings.ReplaceAll(s, "--", "&mdash;")
	s = spacedHyphen.ReplaceAllString(s, "$1&mdash;$2")
	s = numericRange.ReplaceAllString(s, "$1&ndash;$2")
	return s, out, nil
}
