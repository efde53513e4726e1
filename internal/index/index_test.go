package index_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclib/distil/internal/bibs"
	"github.com/doclib/distil/internal/doclib"
	"github.com/doclib/distil/internal/index"
)

func newTestCache(t *testing.T) (*index.Cache, bibs.Store) {
	t.Helper()
	st := bibs.Store{Tree: doclib.Tree{Base: t.TempDir()}}
	c, err := index.Open(filepath.Join(t.TempDir(), "attrs.db"), st)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, st
}

func writeBib(t *testing.T, st bibs.Store, citeKey, title string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(st.Tree.BibDir(citeKey), 0755))
	content := "@article{" + citeKey + ",\n  title = {" + title + "},\n  year = {2020},\n}\n"
	require.NoError(t, os.WriteFile(st.Tree.BibFile(citeKey), []byte(content), 0644))
}

func TestCache_Attrs(t *testing.T) {
	c, st := newTestCache(t)
	writeBib(t, st, "smith2020", "First Title")

	attrs, err := c.Attrs("smith2020")
	require.NoError(t, err)
	assert.Equal(t, "First Title", attrs.Title)
	assert.Equal(t, "2020", attrs.Year)

	// rewrite the bib but pin the mtime: the cached record must be served
	info, err := os.Stat(st.Tree.BibFile("smith2020"))
	require.NoError(t, err)
	writeBib(t, st, "smith2020", "Hidden Rewrite")
	require.NoError(t, os.Chtimes(st.Tree.BibFile("smith2020"), info.ModTime(), info.ModTime()))

	attrs, err = c.Attrs("smith2020")
	require.NoError(t, err)
	assert.Equal(t, "First Title", attrs.Title, "unchanged mtime should hit the cache")

	// bump the mtime: the record is stale and must be re-scraped
	later := info.ModTime().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(st.Tree.BibFile("smith2020"), later, later))

	attrs, err = c.Attrs("smith2020")
	require.NoError(t, err)
	assert.Equal(t, "Hidden Rewrite", attrs.Title)
}

func TestCache_Invalidate(t *testing.T) {
	c, st := newTestCache(t)
	writeBib(t, st, "smith2020", "First Title")

	_, err := c.Attrs("smith2020")
	require.NoError(t, err)

	info, err := os.Stat(st.Tree.BibFile("smith2020"))
	require.NoError(t, err)
	writeBib(t, st, "smith2020", "Second Title")
	require.NoError(t, os.Chtimes(st.Tree.BibFile("smith2020"), info.ModTime(), info.ModTime()))

	require.NoError(t, c.Invalidate("smith2020"))

	attrs, err := c.Attrs("smith2020")
	require.NoError(t, err)
	assert.Equal(t, "Second Title", attrs.Title, "invalidation forces a re-scrape")
}

func TestCache_missingEntry(t *testing.T) {
	c, _ := newTestCache(t)
	_, err := c.Attrs("nobody1999")
	assert.Error(t, err)
}
