package wikimark

import "regexp"

var (
	blockOpenTags  = regexp.MustCompile(`^<ol>|^<ul>|^<h\d>`)
	blockCloseTags = regexp.MustCompile(`</ol>$|</ul>$|</li>$|</h\d>$`)
)

// markupParagraphs is the second full pass: it wraps prose lines in
// paragraph tags by looking at each line's neighbors. It only ever prepends
// or appends markers to existing lines, never adds or removes any.
//
// A line opens a paragraph when it is non-empty, does not already open a
// block element, and sits at the start of the document or after an empty
// line. It closes one when it is non-empty, does not already close a block
// element, and sits at the end of the document or before an empty or
// block-opening line. Verbatim lines are raw output: they are never wrapped
// themselves and act as paragraph boundaries for their neighbors, so every
// opened paragraph still gets closed.
func markupParagraphs(lines []string, verbatim []bool) []string {
	if len(lines) == 0 {
		return lines
	}

	opened := make([]string, len(lines))
	for i, cur := range lines {
		switch {
		case cur == "" || verbatim[i]:
		case blockOpenTags.MatchString(cur):
		case i > 0 && lines[i-1] != "" && !verbatim[i-1]:
			// an unbroken run of text continues the paragraph
		default:
			cur = "<p>" + cur
		}
		opened[i] = cur
	}

	closed := make([]string, len(opened))
	for i, cur := range opened {
		switch {
		case cur == "" || verbatim[i]:
		case blockCloseTags.MatchString(cur):
		case blockOpenTags.MatchString(cur):
			// a bare open tag, as when several list levels open at once
		case i+1 < len(opened) && opened[i+1] != "" && !verbatim[i+1] && !blockOpenTags.MatchString(opened[i+1]):
			// the next line carries the paragraph on
		default:
			cur += "</p>"
		}
		closed[i] = cur
	}

	return closed
}
