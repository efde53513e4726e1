package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclib/distil/internal/attach"
	"github.com/doclib/distil/internal/bibs"
	"github.com/doclib/distil/internal/cliui"
	"github.com/doclib/distil/internal/doclib"
	"github.com/doclib/distil/internal/tags"
	"github.com/doclib/distil/internal/vcs"
	"github.com/doclib/distil/internal/wikifs"
)

// newTestLibrary builds a library over a temp doclib whose git runner
// records invocations, executing only "mv" so renames work on disk.
func newTestLibrary(t *testing.T) (*library, *[]string) {
	t.Helper()
	tree := doclib.Tree{Base: t.TempDir()}
	var calls []string
	git := vcs.Git{
		Tree: tree,
		Runner: func(_ context.Context, dir string, args ...string) error {
			calls = append(calls, strings.Join(args, " "))
			if args[0] == "mv" {
				return os.Rename(filepath.Join(dir, args[1]), filepath.Join(dir, args[2]))
			}
			return nil
		},
	}
	tagStore := tags.Store{Tree: tree, Git: git}
	now := func() time.Time { return time.Unix(1300000000, 0) }
	lib := &library{
		tree:   tree,
		git:    git,
		tags:   tagStore,
		bibs:   bibs.Store{Tree: tree, Git: git, Tags: tagStore, Now: now},
		wiki:   wikifs.Store{Tree: tree, Git: git, Now: now},
		attach: attach.Store{Tree: tree, Git: git, Now: now},
	}
	require.NoError(t, os.MkdirAll(tree.Bibs(), 0755))
	return lib, &calls
}

func runCommand(t *testing.T, lib *library, args ...string) (string, error) {
	t.Helper()
	var u ui
	u.args = []string{"distil"}
	u.lib = lib
	var buf bytes.Buffer
	err := cliui.ArgsRequest(time.Unix(1300000000, 0), args).Serve(&buf, &u)
	return buf.String(), err
}

func Test_help(t *testing.T) {
	out, err := runCommand(t, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "# Usage")
	assert.Contains(t, out, "> distil [command args...]")
	assert.Contains(t, out, "## Available Commands")
	for _, name := range []string{"serve", "import-bib", "import-attachment", "export-bibs", "rename-bib", "regen-tags", "help"} {
		assert.Contains(t, out, "- "+name, "command %q should be listed", name)
	}

	out, err = runCommand(t, nil, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "> distil help [topic|command]")
	assert.Contains(t, out, "## Available Help Topics")
	assert.Contains(t, out, "- config\n")

	out, err = runCommand(t, nil, "help", "import-bib")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage: import-bib BIB [DOC [ABSTRACT]]")

	out, err = runCommand(t, nil, "help", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "doclib_base")
}

func Test_unrecognizedCommand(t *testing.T) {
	out, err := runCommand(t, nil, "frobnicate")
	require.NoError(t, err)
	assert.Contains(t, out, `unrecognized command "frobnicate"`)
}

const testEntry = `@inproceedings{temp_key,
  author = {Joel Nothman and James R. Curran},
  title = {Transforming Wikipedia into Named Entity Training Data},
  year = {2008},
}
`

func Test_importBib(t *testing.T) {
	lib, _ := newTestLibrary(t)
	inbox := t.TempDir()
	bibPath := filepath.Join(inbox, "fetched.bib")
	require.NoError(t, os.WriteFile(bibPath, []byte(testEntry), 0644))
	docPath := filepath.Join(inbox, "fetched.pdf")
	require.NoError(t, os.WriteFile(docPath, []byte("%PDF-1.4"), 0644))

	out, err := runCommand(t, lib, "import-bib", bibPath, docPath)
	require.NoError(t, err)

	const citeKey = "nothman-curran-2008-transf-wikiped-named"
	assert.Contains(t, out, "stored bib entry "+citeKey)
	assert.True(t, lib.bibs.Exists(citeKey))
	_, err = os.Stat(filepath.Join(lib.tree.BibDir(citeKey), citeKey+".pdf"))
	assert.NoError(t, err)

	_, err = runCommand(t, lib, "import-bib")
	assert.Error(t, err)
}

func Test_exportBibs(t *testing.T) {
	lib, _ := newTestLibrary(t)
	for _, key := range []string{"beta2019", "alpha2020"} {
		require.NoError(t, os.MkdirAll(lib.tree.BibDir(key), 0755))
		require.NoError(t, os.WriteFile(lib.tree.BibFile(key),
			[]byte("@misc{"+key+",\n  title = {T},\n}\n"), 0644))
	}

	out, err := runCommand(t, lib, "export-bibs")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "@misc{alpha2020,"), "entries in cite-key order:\n%s", out)
	assert.Contains(t, out, "@misc{beta2019,")

	path := filepath.Join(t.TempDir(), "all.bib")
	out, err = runCommand(t, lib, "export-bibs", path)
	require.NoError(t, err)
	assert.Contains(t, out, "exported bibliography to "+path)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "@misc{alpha2020,")
}

func Test_renameBib(t *testing.T) {
	lib, _ := newTestLibrary(t)
	inbox := t.TempDir()
	bibPath := filepath.Join(inbox, "a.bib")
	require.NoError(t, os.WriteFile(bibPath, []byte(testEntry), 0644))
	_, err := runCommand(t, lib, "import-bib", bibPath)
	require.NoError(t, err)

	out, err := runCommand(t, lib,
		"rename-bib", "nothman-curran-2008-transf-wikiped-named", "nothman-curran-2008-wikiner")
	require.NoError(t, err)
	assert.Contains(t, out, "renamed cite-key")
	assert.True(t, lib.bibs.Exists("nothman-curran-2008-wikiner"))
	assert.False(t, lib.bibs.Exists("nothman-curran-2008-transf-wikiped-named"))
}

func Test_renameBib_dropsCachedAttrs(t *testing.T) {
	lib, _ := newTestLibrary(t)
	lib.cacheDir = t.TempDir()

	inbox := t.TempDir()
	bibPath := filepath.Join(inbox, "a.bib")
	require.NoError(t, os.WriteFile(bibPath, []byte(testEntry), 0644))
	_, err := runCommand(t, lib, "import-bib", bibPath)
	require.NoError(t, err)
	const oldKey = "nothman-curran-2008-transf-wikiped-named"

	mtime := time.Unix(1300000000, 0)
	require.NoError(t, os.Chtimes(lib.tree.BibFile(oldKey), mtime, mtime))
	cache := openAttrsCache(lib)
	require.NotNil(t, cache)
	attrs, err := cache.Attrs(oldKey)
	require.NoError(t, err)
	require.Equal(t, "Transforming Wikipedia into Named Entity Training Data", attrs.Title)
	require.NoError(t, cache.Close())

	_, err = runCommand(t, lib, "rename-bib", oldKey, "nothman-curran-2008-wikiner")
	require.NoError(t, err)

	// a fresh entry reusing the old key must not see the stale record
	require.NoError(t, os.MkdirAll(lib.tree.BibDir(oldKey), 0755))
	require.NoError(t, os.WriteFile(lib.tree.BibFile(oldKey),
		[]byte("@misc{"+oldKey+",\n  title = {Replacement},\n}\n"), 0644))
	require.NoError(t, os.Chtimes(lib.tree.BibFile(oldKey), mtime, mtime))

	cache = openAttrsCache(lib)
	require.NotNil(t, cache)
	defer cache.Close()
	attrs, err = cache.Attrs(oldKey)
	require.NoError(t, err)
	assert.Equal(t, "Replacement", attrs.Title)
}

func Test_importAttachment(t *testing.T) {
	lib, _ := newTestLibrary(t)
	inbox := t.TempDir()
	src := filepath.Join(inbox, "slides.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4"), 0644))

	out, err := runCommand(t, lib, "import-attachment", src, "talk slides")
	require.NoError(t, err)
	assert.Contains(t, out, "stored attachment in ")

	ids, err := lib.attach.IDs()
	require.NoError(t, err)
	require.Len(t, ids, 1)
	attrs, err := lib.attach.Attrs(ids[0])
	require.NoError(t, err)
	assert.Equal(t, "slides.pdf", attrs.Filename)
	assert.Equal(t, "talk slides", attrs.Descr)
}

func Test_regenTags(t *testing.T) {
	lib, _ := newTestLibrary(t)
	require.NoError(t, os.MkdirAll(lib.tree.BibDir("smith2020"), 0755))
	require.NoError(t, os.WriteFile(lib.tree.TopicTagsFile("smith2020"),
		[]byte("parsing\nsearch\n"), 0644))

	out, err := runCommand(t, lib, "regen-tags")
	require.NoError(t, err)
	assert.Contains(t, out, "regenerated topic-tag index: 2 tags")

	keys, err := lib.tags.CiteKeys("parsing")
	require.NoError(t, err)
	assert.Equal(t, []string{"smith2020"}, keys)
}
