package wikimark_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclib/distil/internal/wikimark"
)

func Example() {
	var r wikimark.Renderer
	lines, err := r.Render(strings.Split(strings.TrimPrefix(`
====My Reading Notes====

Quoting "the master" -- computers are fast...
See [cite:knuth1997], chapters 1-3.

* **fast** -> use //sparingly//
* see http://example.com/docs
  1. nested detail, ie, ordered

{{{
verbatim **stays** <raw>
}}}
Done.`, "\n"), "\n"))
	if err != nil {
		fmt.Println("ERROR:", err)
		return
	}
	for _, line := range lines {
		fmt.Println(line)
	}

	// Output:
	// <h3>My Reading Notes</h3>
	//
	// <p>Quoting &ldquo;the master&rdquo; &mdash; computers are fast&hellip;
	// See <a class="not-found" href="/bib/knuth1997">knuth1997</a>, chapters 1&ndash;3.</p>
	//
	// <ul>
	// <li><b>fast</b> &rarr; use <i>sparingly</i></li>
	// <li>see <a class="external" href="http://example.com/docs">http://example.com/docs</a></li>
	// <ol>
	// <li>nested detail, <i>ie</i>, ordered</li>
	// </ol>
	// </ul>
	//
	// verbatim **stays** <raw>
	// <p>Done.</p>
}

type fakeOracle struct {
	cites map[string]bool
	words map[string]bool
}

func (o fakeOracle) CitationExists(key string) bool { return o.cites[key] }
func (o fakeOracle) WikiWordExists(word string) bool { return o.words[word] }

func TestRenderer_Render(t *testing.T) {
	for _, tc := range []struct {
		name   string
		oracle wikimark.Oracle
		in     []string
		out    []string
	}{

		{
			name: "empty document",
			in:   []string{},
			out:  []string{},
		},

		{
			name: "single paragraph line",
			in:   []string{"just some prose"},
			out:  []string{"<p>just some prose</p>"},
		},

		{
			name: "paragraph spans adjacent lines",
			in:   []string{"first line", "second line"},
			out:  []string{"<p>first line", "second line</p>"},
		},

		{
			name: "blank line separates paragraphs",
			in:   []string{"one", "", "two"},
			out:  []string{"<p>one</p>", "", "<p>two</p>"},
		},

		{
			name: "trailing whitespace is stripped",
			in:   []string{"padded   \t"},
			out:  []string{"<p>padded</p>"},
		},

		{
			name: "heading levels",
			in: []string{
				"====Top====",
				"===Next===",
				"==Lower==",
				"=Lowest=",
			},
			out: []string{
				"<h3>Top</h3>",
				"<h4>Next</h4>",
				"<h5>Lower</h5>",
				"<h6>Lowest</h6>",
			},
		},

		{
			name: "heading text is trimmed",
			in:   []string{"==  spaced out  =="},
			out:  []string{"<h5>spaced out</h5>"},
		},

		{
			name: "heading closes open lists",
			in:   []string{"* item", "=After="},
			out:  []string{"<ul>", "<li>item</li>", "</ul>", "<h6>After</h6>"},
		},

		{
			name: "nested lists balance",
			in:   []string{"* one", "* two", "  1. sub", "* three"},
			out: []string{
				"<ul>",
				"<li>one</li>",
				"<li>two</li>",
				"<ol>",
				"<li>sub</li>",
				"</ol>",
				"<li>three</li>",
				"</ul>",
			},
		},

		{
			name: "deep jump opens every level",
			in:   []string{"* a", "    * deep"},
			out: []string{
				"<ul>",
				"<li>a</li>",
				"<ul>",
				"<ul>",
				"<li>deep</li>",
				"</ul>",
				"</ul>",
				"</ul>",
			},
		},

		{
			name: "blank line closes lists",
			in:   []string{"* a", "", "after"},
			out:  []string{"<ul>", "<li>a</li>", "</ul>", "", "<p>after</p>"},
		},

		{
			name: "marker kind change at same depth keeps list open",
			in:   []string{"* a", "1. b"},
			out:  []string{"<ul>", "<li>a</li>", "<li>b</li>", "</ul>"},
		},

		{
			name: "bold at line start is not a list item",
			in:   []string{"**bold** words"},
			out:  []string{"<p><b>bold</b> words</p>"},
		},

		{
			name: "inline markup inside list items",
			in:   []string{"* **really** important"},
			out:  []string{"<ul>", "<li><b>really</b> important</li>", "</ul>"},
		},

		{
			name: "verbatim lines pass through untouched",
			in:   []string{"{{{", "**not bold**", "}}}"},
			out:  []string{"**not bold**"},
		},

		{
			name: "verbatim text on marker lines",
			in:   []string{"{{{first", "last}}}discarded"},
			out:  []string{"first", "last"},
		},

		{
			name: "open marker not recognized inside verbatim",
			in:   []string{"{{{", "{{{ still raw", "}}}"},
			out:  []string{"{{{ still raw"},
		},

		{
			name: "unterminated verbatim runs to end of input",
			in:   []string{"{{{", "dangling"},
			out:  []string{"dangling"},
		},

		{
			name: "verbatim bounds paragraphs on both sides",
			in:   []string{"before", "{{{", "raw & <x>", "}}}", "after"},
			out:  []string{"<p>before</p>", "raw & <x>", "<p>after</p>"},
		},

		{
			name: "entities are escaped once",
			in:   []string{"a < b & c"},
			out:  []string{"<p>a &lt; b &amp; c</p>"},
		},

		{
			name: "double quotes become typographic",
			in:   []string{`She said "yes" and ("no")`},
			out:  []string{"<p>She said &ldquo;yes&rdquo; and (&ldquo;no&rdquo;)</p>"},
		},

		{
			name: "quote at line start opens",
			in:   []string{`"Hello"`},
			out:  []string{"<p>&ldquo;Hello&rdquo;</p>"},
		},

		{
			name: "italics skip scheme slashes",
			in:   []string{"some //emphasis// here"},
			out:  []string{"<p>some <i>emphasis</i> here</p>"},
		},

		{
			name: "dangling slashes at end of line pass through",
			in:   []string{"a //"},
			out:  []string{"<p>a //</p>"},
		},

		{
			name: "line of only slashes passes through",
			in:   []string{"//"},
			out:  []string{"<p>//</p>"},
		},

		{
			name: "unclosed italics pass through",
			in:   []string{"//half open"},
			out:  []string{"<p>//half open</p>"},
		},

		{
			name: "url slashes are not italics",
			in:   []string{"see http://example.com/a//b here"},
			out: []string{
				`<p>see <a class="external" href="http://example.com/a//b">http://example.com/a//b</a> here</p>`,
			},
		},

		{
			name: "code spans",
			in:   []string{"run `make all` now"},
			out:  []string{"<p>run <code>make all</code> now</p>"},
		},

		{
			name: "citation links classed by existence",
			oracle: fakeOracle{
				cites: map[string]bool{"smith2020": true},
			},
			in: []string{"[cite:smith2020] and [cite:jones1999]"},
			out: []string{
				`<p><a class="found" href="/bib/smith2020">smith2020</a>` +
					` and <a class="not-found" href="/bib/jones1999">jones1999</a></p>`,
			},
		},

		{
			name: "citation prefix is case insensitive",
			oracle: fakeOracle{
				cites: map[string]bool{"smith2020": true},
			},
			in:  []string{"[CITE:smith2020]"},
			out: []string{`<p><a class="found" href="/bib/smith2020">smith2020</a></p>`},
		},

		{
			name: "wiki links normalize their target",
			oracle: fakeOracle{
				words: map[string]bool{"reading-list": true},
			},
			in: []string{"[Reading List] and [Missing Page]"},
			out: []string{
				`<p><a class="found" href="/wiki/reading-list">Reading List</a>` +
					` and <a class="not-found" href="/wiki/missing-page">Missing Page</a></p>`,
			},
		},

		{
			name: "bare url ends before sentence punctuation",
			in:   []string{"read http://a.io/x, thanks"},
			out: []string{
				`<p>read <a class="external" href="http://a.io/x">http://a.io/x</a>, thanks</p>`,
			},
		},

		{
			name: "bare url ends at closing paren",
			in:   []string{"(see http://a.io)"},
			out: []string{
				`<p>(see <a class="external" href="http://a.io">http://a.io</a>)</p>`,
			},
		},

		{
			name: "bare scheme is not a url",
			in:   []string{"the http:// prefix"},
			out:  []string{"<p>the http:// prefix</p>"},
		},

		{
			name: "abbreviations",
			in:   []string{"apples, oranges, etc. and more, eg, pears"},
			out:  []string{"<p>apples, oranges, <i>etc</i>. and more, <i>eg</i>, pears</p>"},
		},

		{
			name: "arrows",
			in:   []string{"a -> b <=> c"},
			out:  []string{"<p>a &rarr; b &hArr; c</p>"},
		},

		{
			name: "dashes and ranges",
			in:   []string{"wait -- pages 10-12 - done..."},
			out:  []string{"<p>wait &mdash; pages 10&ndash;12 &mdash; done&hellip;</p>"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := wikimark.Renderer{Oracle: tc.oracle}
			out, err := r.Render(tc.in)
			require.NoError(t, err, "unexpected render error")
			assert.Equal(t, tc.out, out, "expected rendered lines")
		})
	}
}

func TestRenderer_Render_syntaxError(t *testing.T) {
	for _, tc := range []struct {
		name       string
		in         []string
		line       int
		text       string
		start, end int
	}{
		{
			name: "indented prose",
			in:   []string{"fine", "  stray text"},
			line: 2,
			text: "  stray text",
			start: 0, end: 2,
		},
		{
			name: "tab indented prose",
			in:   []string{"\tstray"},
			line: 1,
			text: "\tstray",
			start: 0, end: 1,
		},
		{
			name: "indented non-item under a list",
			in:   []string{"* item", "  not an item"},
			line: 2,
			text: "  not an item",
			start: 0, end: 2,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var r wikimark.Renderer
			out, err := r.Render(tc.in)
			require.Error(t, err, "expected a syntax error")
			assert.Nil(t, out, "expected no partial output")

			var se *wikimark.SyntaxError
			require.ErrorAs(t, err, &se, "expected a *SyntaxError")
			assert.Equal(t, "cannot indent text if not followed by a list item", se.Message)
			assert.Equal(t, tc.line, se.Line, "expected line number")
			assert.Equal(t, tc.text, se.Text, "expected offending text")
			assert.Equal(t, tc.start, se.Start, "expected span start")
			assert.Equal(t, tc.end, se.End, "expected span end")
			assert.Equal(t,
				fmt.Sprintf("line %d: cannot indent text if not followed by a list item", tc.line),
				err.Error())
		})
	}
}

func TestNormalize(t *testing.T) {
	for _, tc := range []struct {
		in, out string
	}{
		{"Reading List", "reading-list"},
		{"already-fine", "already-fine"},
		{"Foo_Bar.v2", "foo_bar.v2"},
		{"ns:word", "ns:word"},
		{"what?!", "what"},
		{"C++ Notes", "c-notes"},
		{"", ""},
	} {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.out, wikimark.Normalize(tc.in))
		})
	}
}

func TestState_reuse(t *testing.T) {
	var r wikimark.Renderer
	var st wikimark.State

	out, err := r.RenderWith(&st, []string{"* a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"<ul>", "<li>a</li>", "</ul>"}, out,
		"lists still open at end of input are closed")
	assert.Equal(t, 0, st.Depth(), "state ends with no open lists")

	out, err = r.RenderWith(&st, []string{"plain"})
	require.NoError(t, err)
	assert.Equal(t, []string{"<p>plain</p>"}, out, "state is reusable after a render")
}
