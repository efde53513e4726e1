/* Package tags maintains topic tags for stored bib entries.

Each cite-key directory holds a _topic-tags file listing that entry's tags,
and the doclib keeps a reverse index directory with one file per tag listing
the cite keys so tagged. Both sides are plain sorted text files, one item per
line, kept consistent by Update and committed together.
*/
package tags

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/renameio"

	"github.com/doclib/distil/internal/doclib"
	"github.com/doclib/distil/internal/vcs"
	"github.com/doclib/distil/internal/wikimark"
)

// Store reads and updates topic tags within one doclib.
type Store struct {
	Tree doclib.Tree
	Git  vcs.Git
}

// Sanitize canonicalizes one tag, sharing the wiki word normalization so
// that tag names are always safe in URLs and filenames.
func Sanitize(tag string) string { return wikimark.Normalize(tag) }

// SplitNew splits free-form user input into candidate new tags at whitespace
// and commas.
func SplitNew(s string) []string {
	return strings.Fields(strings.ReplaceAll(s, ",", " "))
}

// ForCiteKey returns the sorted tags of one cite key; none if the tags file
// does not exist yet.
func (st Store) ForCiteKey(citeKey string) ([]string, error) {
	return readListFile(st.Tree.TopicTagsFile(citeKey))
}

// CiteKeys returns the sorted cite keys carrying one tag; none if the tag has
// no index file.
func (st Store) CiteKeys(tag string) ([]string, error) {
	return readListFile(st.Tree.TagIndexFile(tag))
}

// All returns every known tag, sorted, by listing the index directory.
func (st Store) All() ([]string, error) {
	entries, err := os.ReadDir(st.Tree.TagIndex())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	all := make([]string, 0, len(entries))
	for _, e := range entries {
		all = append(all, e.Name())
	}
	sort.Strings(all)
	return all, nil
}

// Update sets the tags of citeKey to chosenTags (existing tags, eg from a
// checkbox form) plus whatever newTagsStr names. All tags are sanitized, and
// "new" tags that already exist are folded into the chosen set. An update
// that changes nothing commits nothing; anything else lands in one commit.
func (st Store) Update(ctx context.Context, citeKey string, chosenTags []string, newTagsStr string) error {
	chosen := make(stringSet)
	for _, tag := range chosenTags {
		chosen.add(Sanitize(tag))
	}
	newTags := make(stringSet)
	for _, tag := range SplitNew(newTagsStr) {
		newTags.add(Sanitize(tag))
	}

	all, err := st.All()
	if err != nil {
		return err
	}
	for _, tag := range all {
		if newTags.has(tag) {
			newTags.remove(tag)
			chosen.add(tag)
		}
	}

	prevList, err := st.ForCiteKey(citeKey)
	if err != nil {
		return err
	}
	prev := make(stringSet)
	for _, tag := range prevList {
		prev.add(tag)
	}

	if chosen.equal(prev) && len(newTags) == 0 {
		return nil
	}

	tagsFile := st.Tree.TopicTagsFile(citeKey)
	tagsFileExisted := exists(tagsFile)
	if err := writeListFile(tagsFile, append(chosen.sorted(), newTags.sorted()...)); err != nil {
		return err
	}
	if !tagsFileExisted {
		if err := st.Git.Add(ctx, tagsFile); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(st.Tree.TagIndex(), 0755); err != nil {
		return err
	}
	for _, tag := range prev.minus(chosen).sorted() {
		if err := st.removeFromIndex(ctx, citeKey, tag); err != nil {
			return err
		}
	}
	for _, tag := range chosen.minus(prev).sorted() {
		if err := st.addToIndex(ctx, citeKey, tag); err != nil {
			return err
		}
	}
	for _, tag := range newTags.sorted() {
		if err := st.addToIndex(ctx, citeKey, tag); err != nil {
			return err
		}
	}

	return st.Git.Commit(ctx,
		fmt.Sprintf("updated topic tags for cite-key %s", citeKey),
		tagsFile, st.Tree.TagIndex())
}

// Reindex moves every index entry for the given tags from oldKey to newKey,
// without committing; the caller folds the change into its own commit. Used
// when a cite key is renamed after its tags file has already moved with the
// cite-key directory.
func (st Store) Reindex(ctx context.Context, oldKey, newKey string, tagList []string) error {
	for _, tag := range tagList {
		if err := st.addToIndex(ctx, newKey, tag); err != nil {
			return err
		}
		if err := st.removeFromIndex(ctx, oldKey, tag); err != nil {
			return err
		}
	}
	return nil
}

// Regenerate rebuilds the whole reverse index from the bibs tree, for
// recovery when the index somehow diverges. It touches the repository not at
// all; the operator reviews and commits the result.
func (st Store) Regenerate() error {
	indexDir := st.Tree.TagIndex()
	if err := os.RemoveAll(indexDir); err != nil {
		return err
	}
	if err := os.MkdirAll(indexDir, 0755); err != nil {
		return err
	}

	entries, err := os.ReadDir(st.Tree.Bibs())
	if err != nil {
		return err
	}
	index := make(map[string][]string)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		citeKey := e.Name()
		tags, err := st.ForCiteKey(citeKey)
		if err != nil {
			return err
		}
		for _, tag := range tags {
			index[tag] = append(index[tag], citeKey)
		}
	}

	for tag, citeKeys := range index {
		if err := writeListFile(st.Tree.TagIndexFile(tag), citeKeys); err != nil {
			return err
		}
	}
	return nil
}

func (st Store) removeFromIndex(ctx context.Context, citeKey, tag string) error {
	path := st.Tree.TagIndexFile(tag)
	citeKeys, err := readListFile(path)
	if err != nil {
		return err
	}
	kept := citeKeys[:0]
	for _, ck := range citeKeys {
		if ck != citeKey {
			kept = append(kept, ck)
		}
	}
	if len(kept) == 0 {
		// an empty index file would present an unused tag to the user
		if exists(path) {
			return st.Git.Remove(ctx, path)
		}
		return nil
	}
	return writeListFile(path, kept)
}

func (st Store) addToIndex(ctx context.Context, citeKey, tag string) error {
	path := st.Tree.TagIndexFile(tag)
	existed := exists(path)
	citeKeys, err := readListFile(path)
	if err != nil {
		return err
	}
	for _, ck := range citeKeys {
		if ck == citeKey {
			return nil
		}
	}
	if err := writeListFile(path, append(citeKeys, citeKey)); err != nil {
		return err
	}
	if !existed {
		return st.Git.Add(ctx, path)
	}
	return nil
}

func readListFile(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	items := strings.Fields(string(b))
	sort.Strings(items)
	return items, nil
}

func writeListFile(path string, items []string) error {
	sort.Strings(items)
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(item)
		sb.WriteByte('\n')
	}
	return renameio.WriteFile(path, []byte(sb.String()), 0644)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

type stringSet map[string]struct{}

func (s stringSet) add(v string) {
	if v != "" {
		s[v] = struct{}{}
	}
}
func (s stringSet) remove(v string)   { delete(s, v) }
func (s stringSet) has(v string) bool { _, ok := s[v]; return ok }

func (s stringSet) equal(t stringSet) bool {
	if len(s) != len(t) {
		return false
	}
	for v := range s {
		if !t.has(v) {
			return false
		}
	}
	return true
}

func (s stringSet) minus(t stringSet) stringSet {
	d := make(stringSet)
	for v := range s {
		if !t.has(v) {
			d[v] = struct{}{}
		}
	}
	return d
}

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
