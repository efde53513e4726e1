package vcs_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclib/distil/internal/doclib"
	"github.com/doclib/distil/internal/vcs"
)

type call struct {
	dir  string
	args []string
}

func recordingGit(calls *[]call) vcs.Git {
	return vcs.Git{
		Tree: doclib.Tree{Base: "/lib"},
		Runner: func(_ context.Context, dir string, args ...string) error {
			*calls = append(*calls, call{dir, args})
			return nil
		},
	}
}

func TestGit_pathsMadeRelative(t *testing.T) {
	var calls []call
	g := recordingGit(&calls)
	ctx := context.Background()

	require.NoError(t, g.Add(ctx, "/lib/bibs/smith2020/_topic-tags"))
	require.NoError(t, g.Remove(ctx, "/lib/.topic-tag-index/unused"))
	require.NoError(t, g.Move(ctx, "/lib/bibs/old2020", "/lib/bibs/new2020"))
	require.NoError(t, g.Commit(ctx, "updated topic tags for cite-key smith2020",
		"/lib/bibs/smith2020/_topic-tags", "/lib/.topic-tag-index"))

	require.Len(t, calls, 4)
	assert.Equal(t, call{"/lib", []string{"add", "bibs/smith2020/_topic-tags"}}, calls[0])
	assert.Equal(t, call{"/lib", []string{"rm", ".topic-tag-index/unused"}}, calls[1])
	assert.Equal(t, call{"/lib", []string{"mv", "bibs/old2020", "bibs/new2020"}}, calls[2])
	assert.Equal(t, call{"/lib", []string{
		"commit", "-m", "Distil operation: updated topic tags for cite-key smith2020",
		"bibs/smith2020/_topic-tags", ".topic-tag-index",
	}}, calls[3])
}

func TestGit_newDirCommits(t *testing.T) {
	var calls []call
	g := recordingGit(&calls)
	ctx := context.Background()

	require.NoError(t, g.CommitNewBibDir(ctx, "smith2020"))
	require.NoError(t, g.CommitNewAttachmentDir(ctx, "slides.pdf", "ab12cd34ef56"))

	require.Len(t, calls, 4)
	assert.Equal(t, call{"/lib/bibs", []string{"add", "smith2020"}}, calls[0])
	assert.Equal(t, "/lib/bibs", calls[1].dir)
	assert.Equal(t, "commit", calls[1].args[0])
	assert.Contains(t, calls[1].args[2], "created bib-entry smith2020")
	assert.Equal(t, call{"/lib/attachments", []string{"add", "ab12cd34ef56"}}, calls[2])
	assert.Contains(t, calls[3].args[2], `"slides.pdf"`)
	assert.Contains(t, calls[3].args[2], "ab12cd34ef56")
}

func TestGit_rejectsOutsidePaths(t *testing.T) {
	var calls []call
	g := recordingGit(&calls)
	err := g.Add(context.Background(), "relative/path")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "outside doclib"))
	assert.Empty(t, calls, "expected no command to run")
}
