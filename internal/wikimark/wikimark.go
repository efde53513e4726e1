/* Package wikimark renders a restricted line-oriented wiki markup language
as HTML fragments.

The language is deliberately line-local: every input line produces at most
one output line, structure is inferred from line prefixes (heading rules,
list markers, verbatim fences) rather than from a grammar, and the only
cross-line state is the stack of currently open lists. Rendering is two
passes: a forward pass that runs every non-verbatim, non-blank line through
an ordered filter pipeline, then a whole-document pass that wraps prose
lines in paragraph tags based on their neighbors.

Link targets are resolved through an Oracle supplied by the caller; the
renderer itself never touches storage.
*/
package wikimark

import (
	"strings"
	"unicode"
)

// Oracle answers the two existence questions the renderer needs to style
// citation and wiki links as found or not found.
type Oracle interface {
	CitationExists(key string) bool
	WikiWordExists(word string) bool
}

type listKind string

const (
	listItemize   listKind = "ul"
	listEnumerate listKind = "ol"
)

// State carries rendering state across lines: the stack of open lists and
// whether we are inside a verbatim region. A zero State is ready for use.
//
// State is caller-owned so that a document may be rendered in chunks with
// list nesting preserved between calls; concurrent renders must each use
// their own State.
type State struct {
	lists        []listKind
	preformatted bool
}

// Depth returns the current list nesting depth.
func (st *State) Depth() int { return len(st.lists) }

func (st *State) openList(kind listKind, out []string) []string {
	st.lists = append(st.lists, kind)
	return append(out, "<"+string(kind)+">")
}

// closeListsDownTo pops list scopes until the stack is at most target deep,
// emitting a matching close tag for each popped scope.
func (st *State) closeListsDownTo(target int, out []string) []string {
	for len(st.lists) > target {
		i := len(st.lists) - 1
		out = append(out, "</"+string(st.lists[i])+">")
		st.lists = st.lists[:i]
	}
	return out
}

// Renderer converts wiki markup lines to HTML fragment lines.
// The zero value renders with a nil Oracle, which treats every citation and
// wiki word as missing.
type Renderer struct {
	Oracle Oracle
}

const (
	beginPreformat = "{{{"
	endPreformat   = "}}}"
)

// Render transforms a whole document using a fresh State.
// On a *SyntaxError no output is returned; partial output must never be
// shown as a complete render.
func (r Renderer) Render(lines []string) ([]string, error) {
	var st State
	return r.RenderWith(&st, lines)
}

// RenderWith transforms lines using caller-provided state, allowing list
// nesting to persist across chunked calls. Any lists still open at the end
// of lines are closed, so with well-formed input the state ends empty.
func (r Renderer) RenderWith(st *State, lines []string) ([]string, error) {
	out := make([]string, 0, len(lines))
	verbatim := make([]bool, 0, len(lines))

	emit := func(prior []string, s string, verb bool) []string {
		// filters may have emitted open/close tags ahead of s
		for len(verbatim) < len(prior) {
			verbatim = append(verbatim, false)
		}
		verbatim = append(verbatim, verb)
		return append(prior, s)
	}

	for i, line := range lines {
		lineNum := i + 1
		s := strings.TrimRightFunc(line, unicode.IsSpace)

		// A verbatim region opens only at line start, and only outside an
		// already-open region: the first close marker always ends the
		// region, nested open markers are not recognized.
		if !st.preformatted && strings.HasPrefix(s, beginPreformat) {
			st.preformatted = true
			s = s[len(beginPreformat):]
			if s == "" {
				continue
			}
		}

		if st.preformatted {
			if j := strings.Index(s, endPreformat); j >= 0 {
				st.preformatted = false
				before := strings.TrimRightFunc(s[:j], unicode.IsSpace)
				if before != "" {
					out = emit(out, before, true)
				}
			} else {
				out = emit(out, s, true)
			}
			continue
		}

		if s == "" {
			out = st.closeListsDownTo(0, out)
			out = emit(out, s, false)
			continue
		}

		var err error
		s, out, err = r.applyLineFilters(s, lineNum, st, out)
		if err != nil {
			return nil, err
		}
		out = emit(out, s, false)
	}

	// force the end-of-document invariant: no open lists, no open verbatim
	out = st.closeListsDownTo(0, out)
	st.preformatted = false
	for len(verbatim) < len(out) {
		verbatim = append(verbatim, false)
	}
	return markupParagraphs(out, verbatim), nil
}
