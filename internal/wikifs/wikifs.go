/* Package wikifs stores wiki pages and per-cite-key reading notes.

Both kinds of text share one storage discipline: the text file lives next to a
hidden change log whose odd lines are datestamps and even lines are one-line
change descriptions, and every save commits the pair together. Wiki pages
live at wiki/<word>/<word>.wiki; notes live inside the cite-key directory.
*/
package wikifs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/doclib/distil/internal/doclib"
	"github.com/doclib/distil/internal/vcs"
)

// ErrPageExists is returned when creating a wiki page that is already there.
var ErrPageExists = errors.New("wiki page already exists")

// Store reads and updates wiki text within one doclib.
//
// Now, when non-nil, supplies the change-log clock; tests pin it.
type Store struct {
	Tree doclib.Tree
	Git  vcs.Git
	Now  func() time.Time
}

func (st Store) now() time.Time {
	if st.Now != nil {
		return st.Now()
	}
	return time.Now()
}

// Notes returns the reading notes of one cite key, or "" when none have been
// written yet.
func (st Store) Notes(citeKey string) (string, error) {
	return readWikiText(st.Tree.NotesFile(citeKey))
}

// PageText returns the text of one wiki page, or "" when the page file is
// empty or missing.
func (st Store) PageText(word string) (string, error) {
	return readWikiText(st.Tree.WikiPageFile(word))
}

// PageExists reports whether a wiki page has been created.
func (st Store) PageExists(word string) bool {
	_, err := os.Stat(st.Tree.WikiPageFile(word))
	return err == nil
}

// Words returns every created wiki word, sorted.
func (st Store) Words() ([]string, error) {
	entries, err := os.ReadDir(st.Tree.Wiki())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	words := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			words = append(words, e.Name())
		}
	}
	sort.Strings(words)
	return words, nil
}

// CreatePage creates an empty wiki page for word and commits it, making the
// word a valid link target.
func (st Store) CreatePage(ctx context.Context, word string) error {
	path := st.Tree.WikiPageFile(word)
	if st.PageExists(word) {
		return fmt.Errorf("%w: %s", ErrPageExists, word)
	}
	if err := os.MkdirAll(st.Tree.WikiPageDir(word), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		return err
	}
	if err := st.Git.Add(ctx, path); err != nil {
		return err
	}
	return st.Git.Commit(ctx, fmt.Sprintf("created wiki page '%s'", word), path)
}

// UpdateNotes replaces the reading notes of one cite key, logging and
// committing the change.
func (st Store) UpdateNotes(ctx context.Context, citeKey, text, changeDescr string) error {
	dir := st.Tree.BibDir(citeKey)
	return st.updateText(ctx,
		st.Tree.NotesFile(citeKey),
		st.Tree.Path(doclib.BibsDir, citeKey, doclib.NotesChangeLogName),
		text, changeDescr,
		fmt.Sprintf("cite-key %s", citeKey), dir)
}

// UpdatePage replaces the text of one wiki page, logging and committing the
// change. The page must have been created first.
func (st Store) UpdatePage(ctx context.Context, word, text, changeDescr string) error {
	return st.updateText(ctx,
		st.Tree.WikiPageFile(word),
		st.Tree.Path(doclib.WikiDir, word, doclib.WikiChangeLogName),
		text, changeDescr,
		fmt.Sprintf("wiki page '%s'", word), st.Tree.WikiPageDir(word))
}

// updateText writes the text file and appends a datestamp line plus a
// single-line change description to the change log, adding either file to the
// repository if this write created it, then commits the pair.
func (st Store) updateText(ctx context.Context, textPath, logPath, text, changeDescr, what, dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return err
	}

	textExisted := exists(textPath)
	if err := os.WriteFile(textPath, []byte(text+"\n"), 0644); err != nil {
		return err
	}
	if !textExisted {
		if err := st.Git.Add(ctx, textPath); err != nil {
			return err
		}
	}

	// Collapse all whitespace in the description to single spaces: the log
	// format assumes odd lines are datestamps and even lines descriptions,
	// so a stray newline here would corrupt it.
	changeDescr = strings.Join(strings.Fields(changeDescr), " ")

	logExisted := exists(logPath)
	if err := appendLines(logPath, doclib.Datestamp(st.now()), changeDescr); err != nil {
		return err
	}
	if !logExisted {
		if err := st.Git.Add(ctx, logPath); err != nil {
			return err
		}
	}

	return st.Git.Commit(ctx,
		fmt.Sprintf("updated notes for %s: %s", what, changeDescr),
		textPath, logPath)
}

// readWikiText reads stored wiki text for editing or rendering: trailing
// whitespace dropped, line endings normalized to bare newlines, and a missing
// file read as empty.
func readWikiText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	s := strings.TrimRightFunc(string(b), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n"), nil
}

func appendLines(path string, lines ...string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(f, line); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Oracle answers the wiki renderer's link-existence queries against the
// doclib on disk.
type Oracle struct {
	Tree doclib.Tree
}

// CitationExists reports whether a cite-key directory is stored.
func (o Oracle) CitationExists(citeKey string) bool {
	info, err := os.Stat(o.Tree.BibDir(citeKey))
	return err == nil && info.IsDir()
}

// WikiWordExists reports whether a wiki page has been created for word.
func (o Oracle) WikiWordExists(word string) bool {
	_, err := os.Stat(o.Tree.WikiPageFile(word))
	return err == nil
}
