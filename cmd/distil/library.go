package main

import (
	"os"

	"github.com/doclib/distil/internal/attach"
	"github.com/doclib/distil/internal/bibs"
	"github.com/doclib/distil/internal/doclib"
	"github.com/doclib/distil/internal/tags"
	"github.com/doclib/distil/internal/vcs"
	"github.com/doclib/distil/internal/wikifs"
)

// library bundles every store over one configured doclib. cacheDir locates
// derived data like the attrs cache; empty disables caching.
type library struct {
	config   doclib.Config
	tree     doclib.Tree
	git      vcs.Git
	bibs     bibs.Store
	tags     tags.Store
	wiki     wikifs.Store
	attach   attach.Store
	cacheDir string
}

func openLibrary(config doclib.Config) *library {
	tree := config.Tree()
	git := vcs.Git{Exe: config.Git, Tree: tree}
	tagStore := tags.Store{Tree: tree, Git: git}
	cacheDir, _ := os.UserCacheDir()
	return &library{
		config:   config,
		tree:     tree,
		git:      git,
		tags:     tagStore,
		bibs:     bibs.Store{Tree: tree, Git: git, Tags: tagStore},
		wiki:     wikifs.Store{Tree: tree, Git: git},
		attach:   attach.Store{Tree: tree, Git: git},
		cacheDir: cacheDir,
	}
}

// library returns the doclib, loading configuration on first use so that
// commands like help work without any config file.
func (ctx *app) library() (*library, error) {
	if ctx.lib == nil {
		config, _, err := doclib.LoadConfig()
		if err != nil {
			return nil, err
		}
		ctx.lib = openLibrary(config)
	}
	return ctx.lib, nil
}
