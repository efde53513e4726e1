package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/doclib/distil/internal/attach"
	"github.com/doclib/distil/internal/cliui"
	"github.com/doclib/distil/internal/htpasswd"
	"github.com/doclib/distil/internal/index"
	"github.com/doclib/distil/internal/web"
)

func init() {
	builtinServer("serve", serveWeb,
		"run the doclib web interface",
		`Serves the configured doclib over HTTP on the configured listen
address, with htpasswd-backed login when htpasswd_path is set.`)

	builtinServer("import-bib", importBib,
		"store a new bib entry, with optional document and abstract",
		`Usage: import-bib BIB [DOC [ABSTRACT]]

Moves the given files into a fresh cite-key directory, suggesting the
cite key from the entry's authors, year, and title. DOC must carry a
filename suffix so the stored document can be named for the cite key.`)

	builtinServer("import-attachment", importAttachment,
		"store a new file attachment",
		`Usage: import-attachment FILE [SHORT-DESCR [SOURCE-URL]]

FILE may be an absolute path or glob, an http(s) URL to fetch, or a
bare name looked up in ~/Downloads, ~/Desktop, and ~.`)

	builtinServer("export-bibs", exportBibs,
		"write every stored bib entry as one bibliography",
		`Usage: export-bibs [FILE]

Concatenates every stored bib entry in cite-key order, to FILE or to
standard output.`)

	builtinServer("rename-bib", renameBib,
		"change a cite key and rename its directory",
		`Usage: rename-bib OLD NEW

Renames the cite-key directory and the files within it, rewrites the
entry header, and fixes up the topic-tag index, all in one commit.`)

	builtinServer("regen-tags", regenTags,
		"rebuild the topic-tag index from the bibs tree",
		`Rebuilds the reverse topic-tag index from scratch. Nothing is
committed; review the result and commit it yourself.`)

	builtinHelpTopic("config", textServer(`Distil reads `+"`.distil.yml`"+` from the working directory, its
parents, or your home directory. Keys:

- doclib_base      path of the doclib inside a git working tree (required)
- git_executable   default "git"
- htpasswd_path    web users file; no file means no web login
- cookie_secret    signs web sessions; generated per process when unset
- listen_addr      default ":8888"`))
}

func serveWeb(ctx *app, req *cliui.Request, res *cliui.Response) error {
	lib, err := ctx.library()
	if err != nil {
		return err
	}

	auth := htpasswd.File{}
	if lib.config.Htpasswd != "" {
		if auth, err = htpasswd.Load(lib.config.Htpasswd); err != nil {
			return err
		}
	}

	cache := openAttrsCache(lib)
	if cache != nil {
		defer cache.Close()
	}

	srv := web.New(lib.tree, auth, lib.config.CookieSecret,
		lib.bibs, lib.tags, lib.wiki, lib.attach, cache)

	fmt.Fprintf(res, "serving doclib %s on %s\n", lib.tree.Base, lib.config.Listen)
	if err := res.Flush(); err != nil {
		return err
	}
	return http.ListenAndServe(lib.config.Listen, srv.Handler())
}

// openAttrsCache opens the derived attrs cache, which lives under the
// library's cache dir rather than the doclib. Returns nil when it cannot be
// opened; everything degrades to uncached scraping.
func openAttrsCache(lib *library) *index.Cache {
	if lib.cacheDir == "" {
		return nil
	}
	dir := filepath.Join(lib.cacheDir, "distil")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil
	}
	cache, err := index.Open(filepath.Join(dir, "attrs.db"), lib.bibs)
	if err != nil {
		return nil
	}
	return cache
}

func importBib(ctx *app, req *cliui.Request, res *cliui.Response) error {
	if !req.ScanArg() {
		return errors.New("missing BIB file argument")
	}
	bibPath := req.Arg()
	var docPath, absPath string
	if req.ScanArg() {
		docPath = req.Arg()
	}
	if req.ScanArg() {
		absPath = req.Arg()
	}

	lib, err := ctx.library()
	if err != nil {
		return err
	}
	citeKey, dir, err := lib.bibs.StoreNew(context.Background(), bibPath, docPath, absPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(res, "stored bib entry %s in %s\n", citeKey, dir)
	return nil
}

func importAttachment(ctx *app, req *cliui.Request, res *cliui.Response) error {
	if !req.ScanArg() {
		return errors.New("missing FILE argument")
	}
	name := req.Arg()
	var opt attach.ImportOptions
	if req.ScanArg() {
		opt.ShortDescr = req.Arg()
	}
	if req.ScanArg() {
		opt.SourceURL = req.Arg()
	}

	lib, err := ctx.library()
	if err != nil {
		return err
	}
	id, err := lib.attach.Import(context.Background(), name, opt)
	if err != nil {
		return err
	}
	fmt.Fprintf(res, "stored attachment in %s\n", lib.tree.AttachmentDir(id))
	return nil
}

func exportBibs(ctx *app, req *cliui.Request, res *cliui.Response) error {
	lib, err := ctx.library()
	if err != nil {
		return err
	}
	if req.ScanArg() {
		path := req.Arg()
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := lib.bibs.Export(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(res, "exported bibliography to %s\n", path)
		return nil
	}
	return lib.bibs.Export(res)
}

func renameBib(ctx *app, req *cliui.Request, res *cliui.Response) error {
	if !req.ScanArg() {
		return errors.New("missing OLD cite-key argument")
	}
	oldKey := req.Arg()
	if !req.ScanArg() {
		return errors.New("missing NEW cite-key argument")
	}
	newKey := req.Arg()

	lib, err := ctx.library()
	if err != nil {
		return err
	}
	if err := lib.bibs.Rename(context.Background(), oldKey, newKey); err != nil {
		return err
	}
	// the attrs cache record for the old key is orphaned by the rename
	if cache := openAttrsCache(lib); cache != nil {
		defer cache.Close()
		if err := cache.Invalidate(oldKey); err != nil {
			return err
		}
	}
	fmt.Fprintf(res, "renamed cite-key %s to %s\n", oldKey, newKey)
	return nil
}

func regenTags(ctx *app, req *cliui.Request, res *cliui.Response) error {
	lib, err := ctx.library()
	if err != nil {
		return err
	}
	if err := lib.tags.Regenerate(); err != nil {
		return err
	}
	all, err := lib.tags.All()
	if err != nil {
		return err
	}
	fmt.Fprintf(res, "regenerated topic-tag index: %d tags\n", len(all))
	return nil
}
