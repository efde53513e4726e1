package wikifs_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclib/distil/internal/doclib"
	"github.com/doclib/distil/internal/vcs"
	"github.com/doclib/distil/internal/wikifs"
)

func newTestStore(t *testing.T) (wikifs.Store, *[]string) {
	t.Helper()
	tree := doclib.Tree{Base: t.TempDir()}
	var calls []string
	st := wikifs.Store{
		Tree: tree,
		Git: vcs.Git{
			Tree: tree,
			Runner: func(_ context.Context, _ string, args ...string) error {
				calls = append(calls, strings.Join(args, " "))
				return nil
			},
		},
		Now: func() time.Time { return time.Unix(1300000000, 0) },
	}
	require.NoError(t, os.MkdirAll(tree.BibDir("smith2020"), 0755))
	return st, &calls
}

func TestStore_notesRoundTrip(t *testing.T) {
	st, calls := newTestStore(t)
	ctx := context.Background()

	notes, err := st.Notes("smith2020")
	require.NoError(t, err)
	assert.Equal(t, "", notes, "missing notes read as empty")

	require.NoError(t, st.UpdateNotes(ctx, "smith2020", "= Thoughts =\n\nGood paper.", "first impressions"))

	notes, err = st.Notes("smith2020")
	require.NoError(t, err)
	assert.Equal(t, "= Thoughts =\n\nGood paper.", notes)

	// created files were added before the commit
	assert.Contains(t, *calls, "add bibs/smith2020/_notes.wiki")
	assert.Contains(t, *calls, "add bibs/smith2020/.notes-change-descrs")
	last := (*calls)[len(*calls)-1]
	assert.Contains(t, last, "commit -m Distil operation: updated notes for cite-key smith2020: first impressions")

	// a second save must not re-add
	before := len(*calls)
	require.NoError(t, st.UpdateNotes(ctx, "smith2020", "Revised.", "tightened up"))
	assert.Equal(t, before+1, len(*calls), "only the commit this time")
}

func TestStore_changeLogFormat(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpdateNotes(ctx, "smith2020", "a", "line one\nline\ttwo"))
	require.NoError(t, st.UpdateNotes(ctx, "smith2020", "b", ""))

	b, err := os.ReadFile(st.Tree.Path(doclib.BibsDir, "smith2020", doclib.NotesChangeLogName))
	require.NoError(t, err)
	lines := strings.Split(string(b), "\n")
	require.Len(t, lines, 5, "two entries of two lines each, plus trailing newline")
	assert.True(t, strings.HasPrefix(lines[0], "1300000000 "), "odd lines are datestamps: %q", lines[0])
	assert.Equal(t, "line one line two", lines[1], "descriptions are collapsed to one line")
	assert.True(t, strings.HasPrefix(lines[2], "1300000000 "))
	assert.Equal(t, "", lines[3], "an empty description still takes its line")
}

func TestStore_updateNotesUnknownCiteKey(t *testing.T) {
	st, _ := newTestStore(t)
	err := st.UpdateNotes(context.Background(), "nobody1999", "text", "descr")
	assert.Error(t, err)
}

func TestStore_wikiPages(t *testing.T) {
	st, calls := newTestStore(t)
	ctx := context.Background()

	assert.False(t, st.PageExists("machine-learning"))
	require.NoError(t, st.CreatePage(ctx, "machine-learning"))
	assert.True(t, st.PageExists("machine-learning"))

	assert.Contains(t, *calls, "add wiki/machine-learning/machine-learning.wiki")
	assert.Contains(t, *calls,
		"commit -m Distil operation: created wiki page 'machine-learning' wiki/machine-learning/machine-learning.wiki")

	err := st.CreatePage(ctx, "machine-learning")
	assert.ErrorIs(t, err, wikifs.ErrPageExists)

	text, err := st.PageText("machine-learning")
	require.NoError(t, err)
	assert.Equal(t, "", text, "a fresh page is empty")

	require.NoError(t, st.UpdatePage(ctx, "machine-learning", "Links: [[parsing]].", "seeded"))
	text, err = st.PageText("machine-learning")
	require.NoError(t, err)
	assert.Equal(t, "Links: [[parsing]].", text)

	require.NoError(t, st.CreatePage(ctx, "parsing"))
	words, err := st.Words()
	require.NoError(t, err)
	assert.Equal(t, []string{"machine-learning", "parsing"}, words)
}

func TestStore_readNormalization(t *testing.T) {
	st, _ := newTestStore(t)
	require.NoError(t, os.WriteFile(st.Tree.NotesFile("smith2020"),
		[]byte("one\r\ntwo\rthree\n\n  \n"), 0644))

	notes, err := st.Notes("smith2020")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree", notes)
}

func TestOracle(t *testing.T) {
	tree := doclib.Tree{Base: t.TempDir()}
	o := wikifs.Oracle{Tree: tree}

	assert.False(t, o.CitationExists("smith2020"))
	assert.False(t, o.WikiWordExists("parsing"))

	require.NoError(t, os.MkdirAll(tree.BibDir("smith2020"), 0755))
	require.NoError(t, os.MkdirAll(tree.WikiPageDir("parsing"), 0755))
	require.NoError(t, os.WriteFile(tree.WikiPageFile("parsing"), nil, 0644))

	assert.True(t, o.CitationExists("smith2020"))
	assert.True(t, o.WikiWordExists("parsing"))

	// a wiki dir without its page file is not a link target
	require.NoError(t, os.MkdirAll(tree.WikiPageDir("draft"), 0755))
	assert.False(t, o.WikiWordExists("draft"))
}
