/* Package vcs wraps the external git executable that versions a doclib.

Every stored bib entry, wiki page, and attachment lives in a Git working tree;
this package is the only place that shells out. Paths given to it are
absolute and are rewritten relative to the doclib base so that commands run
the same way no matter where the process was started.
*/
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/doclib/distil/internal/doclib"
)

// Git runs a git executable against a doclib working tree.
//
// Runner, when non-nil, intercepts every command instead of executing it;
// tests use this to observe the exact invocations.
type Git struct {
	Exe    string
	Tree   doclib.Tree
	Runner func(ctx context.Context, dir string, args ...string) error
}

func (g Git) exe() string {
	if g.Exe == "" {
		return "git"
	}
	return g.Exe
}

func (g Git) run(ctx context.Context, dir string, args ...string) error {
	if g.Runner != nil {
		return g.Runner(ctx, dir, args...)
	}
	cmd := exec.CommandContext(ctx, g.exe(), args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w: %s",
			g.exe(), strings.Join(args, " "), err, strings.TrimSpace(out.String()))
	}
	return nil
}

func (g Git) rel(path string) (string, error) {
	rel, err := g.Tree.Rel(path)
	if err != nil {
		return "", fmt.Errorf("path %s outside doclib: %w", path, err)
	}
	return rel, nil
}

// Add stages one file, named by absolute path.
func (g Git) Add(ctx context.Context, path string) error {
	rel, err := g.rel(path)
	if err != nil {
		return err
	}
	return g.run(ctx, g.Tree.Base, "add", rel)
}

// Remove removes one tracked file, named by absolute path.
func (g Git) Remove(ctx context.Context, path string) error {
	rel, err := g.rel(path)
	if err != nil {
		return err
	}
	return g.run(ctx, g.Tree.Base, "rm", rel)
}

// Move renames a tracked file or directory, so that history follows it.
func (g Git) Move(ctx context.Context, src, dest string) error {
	relSrc, err := g.rel(src)
	if err != nil {
		return err
	}
	relDest, err := g.rel(dest)
	if err != nil {
		return err
	}
	return g.run(ctx, g.Tree.Base, "mv", relSrc, relDest)
}

// Commit commits the given absolute paths with the given reason.
func (g Git) Commit(ctx context.Context, reason string, paths ...string) error {
	args := []string{"commit", "-m", "Distil operation: " + reason}
	for _, path := range paths {
		rel, err := g.rel(path)
		if err != nil {
			return err
		}
		args = append(args, rel)
	}
	return g.run(ctx, g.Tree.Base, args...)
}

// CommitNewBibDir stages and commits a freshly created cite-key directory.
func (g Git) CommitNewBibDir(ctx context.Context, citeKey string) error {
	dir := g.Tree.Bibs()
	if err := g.run(ctx, dir, "add", citeKey); err != nil {
		return err
	}
	msg := fmt.Sprintf("Distil created bib-entry %s.", citeKey)
	return g.run(ctx, dir, "commit", "-m", msg, citeKey)
}

// CommitNewAttachmentDir stages and commits a freshly created attachment
// directory holding the named file.
func (g Git) CommitNewAttachmentDir(ctx context.Context, fname, dirname string) error {
	dir := g.Tree.Attachments()
	if err := g.run(ctx, dir, "add", dirname); err != nil {
		return err
	}
	msg := fmt.Sprintf("Distil stored file attachment %q in new directory %s.", fname, dirname)
	return g.run(ctx, dir, "commit", "-m", msg, dirname)
}
