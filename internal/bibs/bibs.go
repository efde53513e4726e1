/* Package bibs stores bib entries and their companion files.

Each entry lives in bibs/<cite-key>/ alongside the document it describes, an
optional abstract, reading notes, and topic tags. The cite key doubles as the
directory name, which makes duplicates visible the moment a second import of
the same paper is attempted.
*/
package bibs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/doclib/distil/internal/doclib"
	"github.com/doclib/distil/internal/tags"
	"github.com/doclib/distil/internal/vcs"
)

var (
	// ErrDuplicateCiteKey is returned when storing or renaming would land on
	// a cite-key directory that already exists.
	ErrDuplicateCiteKey = errors.New("cite-key directory already exists")

	// ErrUnknownCiteKey is returned when an operation names a cite key with
	// no directory behind it.
	ErrUnknownCiteKey = errors.New("unknown cite key")
)

// Store manages the bib entries of one doclib.
//
// Now, when non-nil, supplies the datestamp clock; tests pin it.
type Store struct {
	Tree doclib.Tree
	Git  vcs.Git
	Tags tags.Store
	Now  func() time.Time
}

func (st Store) now() time.Time {
	if st.Now != nil {
		return st.Now()
	}
	return time.Now()
}

// Keys returns every stored cite key, sorted.
func (st Store) Keys() ([]string, error) {
	entries, err := os.ReadDir(st.Tree.Bibs())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			keys = append(keys, e.Name())
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Exists reports whether a cite-key directory exists.
func (st Store) Exists(citeKey string) bool {
	info, err := os.Stat(st.Tree.BibDir(citeKey))
	return err == nil && info.IsDir()
}

// StoreNew imports a bib file, and optionally a document and an abstract,
// into a fresh cite-key directory. The cite key is suggested from the entry's
// authors, year, and title, falling back to whatever key the entry already
// carries. The source files are moved, not copied, and the new directory is
// committed with a starter "new unread" topic tag.
func (st Store) StoreNew(ctx context.Context, bibPath, docPath, abstractPath string) (string, string, error) {
	content, err := os.ReadFile(bibPath)
	if err != nil {
		return "", "", err
	}
	citeKey, err := SuggestCiteKey(string(content))
	if errors.Is(err, ErrCannotSuggest) {
		citeKey, err = EntryKey(string(content))
	}
	if err != nil {
		return "", "", err
	}

	var docSuffix string
	if docPath != "" {
		docSuffix, err = doclib.Suffix(filepath.Base(docPath))
		if err != nil {
			return "", "", err
		}
	}

	dir := st.Tree.BibDir(citeKey)
	if err := os.MkdirAll(st.Tree.Bibs(), 0755); err != nil {
		return "", "", err
	}
	if err := os.Mkdir(dir, 0755); err != nil {
		if os.IsExist(err) {
			return "", "", fmt.Errorf("%w: %s", ErrDuplicateCiteKey, citeKey)
		}
		return "", "", err
	}

	storedBib, err := doclib.MoveAndRename(bibPath, dir, citeKey+".bib")
	if err != nil {
		return "", "", err
	}
	if err := ReplaceCiteKey(storedBib, citeKey); err != nil {
		return "", "", err
	}

	if docPath != "" {
		if _, err := doclib.MoveAndRename(docPath, dir, citeKey+docSuffix); err != nil {
			return "", "", err
		}
	}
	if abstractPath != "" {
		if _, err := doclib.MoveAndRename(abstractPath, dir, doclib.AbstractName); err != nil {
			return "", "", err
		}
	}

	if err := doclib.WriteDateAdded(dir, st.now()); err != nil {
		return "", "", err
	}
	if err := st.Git.CommitNewBibDir(ctx, citeKey); err != nil {
		return "", "", err
	}
	if err := st.Tags.Update(ctx, citeKey, nil, "new unread"); err != nil {
		return "", "", err
	}
	return citeKey, dir, nil
}

// Rename changes oldKey to newKey: the cite-key directory, the bib file and
// its entry header, the stored document, and the topic-tag indices all move
// together in one commit. Everything renamed is assumed to be committed
// already, so the moves go through the version control wrapper.
func (st Store) Rename(ctx context.Context, oldKey, newKey string) error {
	oldDir := st.Tree.BibDir(oldKey)
	newDir := st.Tree.BibDir(newKey)
	if !st.Exists(oldKey) {
		return fmt.Errorf("%w: %s", ErrUnknownCiteKey, oldKey)
	}
	if st.Exists(newKey) {
		return fmt.Errorf("%w: %s", ErrDuplicateCiteKey, newKey)
	}

	if err := st.Git.Move(ctx, oldDir, newDir); err != nil {
		return err
	}
	commitPaths := []string{oldDir, newDir}

	oldBib := filepath.Join(newDir, oldKey+".bib")
	newBib := st.Tree.BibFile(newKey)
	if err := st.Git.Move(ctx, oldBib, newBib); err != nil {
		return err
	}
	if err := ReplaceCiteKey(newBib, newKey); err != nil {
		return err
	}

	// the document, if any, still carries the old key at this point
	attrs, err := st.attrs(newKey, oldKey)
	if err != nil {
		return err
	}
	if attrs.DocName != "" {
		oldDoc := filepath.Join(newDir, attrs.DocName)
		newDoc := filepath.Join(newDir, newKey+attrs.DocSuffix)
		if err := st.Git.Move(ctx, oldDoc, newDoc); err != nil {
			return err
		}
	}

	tagList, err := st.Tags.ForCiteKey(newKey)
	if err != nil {
		return err
	}
	if len(tagList) > 0 {
		if err := st.Tags.Reindex(ctx, oldKey, newKey, tagList); err != nil {
			return err
		}
		commitPaths = append(commitPaths, st.Tree.TagIndex())
	}

	return st.Git.Commit(ctx,
		fmt.Sprintf("renamed cite-key '%s' to '%s'", oldKey, newKey),
		commitPaths...)
}

// DocAttrs describes a stored bib entry and its document, as shown in
// listings.
type DocAttrs struct {
	Title     string
	Year      string
	DocName   string
	DocSuffix string
	DocType   string
	DateAdded time.Time
}

// Attrs scrapes the display attributes of one stored entry. DocName and its
// derived fields are empty when the entry has no stored document.
func (st Store) Attrs(citeKey string) (DocAttrs, error) {
	return st.attrs(citeKey, citeKey)
}

// attrs is Attrs with a separate document-name prefix, for use mid-rename
// when the document still carries the previous cite key.
func (st Store) attrs(citeKey, docPrefix string) (DocAttrs, error) {
	var attrs DocAttrs

	dir := st.Tree.BibDir(citeKey)
	if !st.Exists(citeKey) {
		return attrs, fmt.Errorf("%w: %s", ErrUnknownCiteKey, citeKey)
	}

	content, err := os.ReadFile(st.Tree.BibFile(citeKey))
	if err != nil {
		return attrs, err
	}
	attrs.Title = scrapeField(string(content), "title")
	attrs.Year = scrapeField(string(content), "year")

	// The document's name is known only to begin with the cite key and not
	// end with ".bib", so scan the directory for it.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return attrs, err
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, docPrefix) && !strings.HasSuffix(name, ".bib") {
			attrs.DocName = name
			if suffix, err := doclib.Suffix(name); err == nil {
				attrs.DocSuffix = suffix
				attrs.DocType = strings.ToUpper(suffix[1:])
			}
			break
		}
	}

	if added, err := doclib.ReadDateAdded(dir); err == nil {
		attrs.DateAdded = added
	}
	return attrs, nil
}

// Bib returns the raw bib file contents of one entry.
func (st Store) Bib(citeKey string) (string, error) {
	b, err := os.ReadFile(st.Tree.BibFile(citeKey))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Abstract returns the stored abstract of one entry, or "" when there is
// none.
func (st Store) Abstract(citeKey string) (string, error) {
	b, err := os.ReadFile(st.Tree.AbstractFile(citeKey))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimRight(string(b), "\n"), nil
}

// Export writes every stored bib entry to w, blank-line separated, in cite
// key order, producing one bibliography file for use outside the doclib.
func (st Store) Export(w io.Writer) error {
	keys, err := st.Keys()
	if err != nil {
		return err
	}
	for i, key := range keys {
		content, err := st.Bib(key)
		if err != nil {
			return err
		}
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, strings.TrimRight(content, "\n")+"\n"); err != nil {
			return err
		}
	}
	return nil
}
