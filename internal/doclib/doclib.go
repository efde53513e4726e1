/* Package doclib defines the layout of a document library and its configuration.

A doclib is a directory, somewhere inside an existing Git repository, holding
every stored bib entry, attached document, wiki page, and generated index.
All other packages address files through a Tree so that the layout is written
down exactly once.
*/
package doclib

import "path/filepath"

// Subdirectories of the doclib base.
const (
	BibsDir        = "bibs"
	AttachmentsDir = "attachments"
	WikiDir        = "wiki"
	TagIndexDir    = ".topic-tag-index"
)

// Well-known file names within those subdirectories.
const (
	AbstractName       = "_abstract.txt"
	NotesName          = "_notes.wiki"
	NotesChangeLogName = ".notes-change-descrs"
	TopicTagsName      = "_topic-tags"
	WikiSuffix         = ".wiki"
	WikiChangeLogName  = ".wiki-text-change-descrs"
	DateAddedName      = ".date-added.txt"
	MetadataName       = ".metadata"
)

// Tree resolves doclib-relative paths against an absolute base directory.
type Tree struct {
	Base string
}

// Path joins the given parts under the doclib base.
func (t Tree) Path(parts ...string) string {
	return filepath.Join(append([]string{t.Base}, parts...)...)
}

// Rel returns the doclib-relative form of an absolute path, as recorded in
// commit messages and handed to the version control wrapper.
func (t Tree) Rel(path string) (string, error) {
	return filepath.Rel(t.Base, filepath.Clean(path))
}

// Bibs returns the directory holding one subdirectory per cite key.
func (t Tree) Bibs() string { return t.Path(BibsDir) }

// BibDir returns the directory for one cite key.
func (t Tree) BibDir(citeKey string) string { return t.Path(BibsDir, citeKey) }

// BibFile returns the bib file within a cite-key directory.
func (t Tree) BibFile(citeKey string) string {
	return t.Path(BibsDir, citeKey, citeKey+".bib")
}

// NotesFile returns the wiki-markup notes file for a cite key.
func (t Tree) NotesFile(citeKey string) string {
	return t.Path(BibsDir, citeKey, NotesName)
}

// AbstractFile returns the abstract file for a cite key.
func (t Tree) AbstractFile(citeKey string) string {
	return t.Path(BibsDir, citeKey, AbstractName)
}

// TopicTagsFile returns the per-cite-key tag list file.
func (t Tree) TopicTagsFile(citeKey string) string {
	return t.Path(BibsDir, citeKey, TopicTagsName)
}

// Wiki returns the directory holding one subdirectory per wiki word.
func (t Tree) Wiki() string { return t.Path(WikiDir) }

// WikiPageDir returns the directory for one wiki word.
func (t Tree) WikiPageDir(word string) string { return t.Path(WikiDir, word) }

// WikiPageFile returns the wiki text file for one wiki word.
func (t Tree) WikiPageFile(word string) string {
	return t.Path(WikiDir, word, word+WikiSuffix)
}

// TagIndex returns the directory holding one reverse-index file per tag.
func (t Tree) TagIndex() string { return t.Path(TagIndexDir) }

// TagIndexFile returns the reverse-index file for one tag.
func (t Tree) TagIndexFile(tag string) string { return t.Path(TagIndexDir, tag) }

// Attachments returns the directory holding one subdirectory per attachment.
func (t Tree) Attachments() string { return t.Path(AttachmentsDir) }

// AttachmentDir returns the directory for one attachment id.
func (t Tree) AttachmentDir(id string) string { return t.Path(AttachmentsDir, id) }
