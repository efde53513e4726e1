/* Package attach stores file attachments that are not tied to a bib entry.

Attachments may share filenames, so each one lives in its own directory named
by a short random id, next to a .metadata file describing it. Imports take a
local path, a glob searched across the usual download locations, or a URL.
*/
package attach

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/doclib/distil/internal/distutil"
	"github.com/doclib/distil/internal/doclib"
	"github.com/doclib/distil/internal/vcs"
)

var (
	// ErrInvalidFilename is returned when a filename is empty once stripped
	// of punctuation and whitespace.
	ErrInvalidFilename = errors.New("invalid filename")

	// ErrFileNotFound is returned when no file matches the import name, in
	// the given directory or across the search locations.
	ErrFileNotFound = errors.New("file not found")

	// ErrCannotFetch is returned when a URL import does not answer 200 OK.
	ErrCannotFetch = errors.New("cannot fetch URL")
)

// searchLocations are tried in order when an import names a file without
// saying where it is.
var searchLocations = []string{"~/Downloads", "~/Desktop", "~"}

// Store manages the attachments of one doclib.
//
// Now, NewID, and Client, when non-nil, override the clock, the directory
// name generator, and the HTTP client; tests pin all three.
type Store struct {
	Tree   doclib.Tree
	Git    vcs.Git
	Now    func() time.Time
	NewID  func() string
	Client *http.Client
}

func (st Store) now() time.Time {
	if st.Now != nil {
		return st.Now()
	}
	return time.Now()
}

func (st Store) newID() string {
	if st.NewID != nil {
		return st.NewID()
	}
	return NewID()
}

func (st Store) client() *http.Client {
	if st.Client != nil {
		return st.Client
	}
	return http.DefaultClient
}

// NewID generates an attachment directory name: the url-safe base64 form of
// a fresh UUID, with the ugly characters dropped, cut to 12 characters.
// Short enough to read aloud, random enough that collisions are retried
// rather than prevented.
func NewID() string {
	u := uuid.New()
	s := base64.RawURLEncoding.EncodeToString(u[:])
	s = strings.NewReplacer("-", "", "_", "").Replace(s)
	if len(s) > 12 {
		s = s[:12]
	}
	return s
}

// ImportOptions modify Import.
type ImportOptions struct {
	Dir        string // look only here instead of the search locations
	NewName    string // store under this name instead of the source's
	ShortDescr string
	SourceURL  string
}

// Import stores a new attachment and returns its directory name. nameOrURL
// is either an http(s) URL to fetch, or a filename (glob patterns allowed)
// found in opt.Dir or, failing that, in the usual download locations. When a
// glob matches several files each one is stored; the last id wins, matching
// the original single-file intent.
func (st Store) Import(ctx context.Context, nameOrURL string, opt ImportOptions) (string, error) {
	if stripToAlnum(nameOrURL) == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, nameOrURL)
	}

	if strings.HasPrefix(nameOrURL, "http://") || strings.HasPrefix(nameOrURL, "https://") {
		return st.importURL(ctx, nameOrURL, opt)
	}

	if filepath.IsAbs(nameOrURL) {
		return st.importGlob(ctx, nameOrURL, opt)
	}

	dirs := []string{opt.Dir}
	if opt.Dir == "" {
		dirs = dirs[:0]
		for _, loc := range searchLocations {
			if dir, err := distutil.ExpandUser(loc); err == nil {
				dirs = append(dirs, dir)
			}
		}
	}
	for _, dir := range dirs {
		id, err := st.importGlob(ctx, filepath.Join(dir, nameOrURL), opt)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrFileNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %q in %s", ErrFileNotFound, nameOrURL, strings.Join(dirs, ", "))
}

// importGlob stores every file matching pattern, returning the last id.
func (st Store) importGlob(ctx context.Context, pattern string, opt ImportOptions) (string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %q", ErrFileNotFound, pattern)
	}
	var id string
	for _, m := range matches {
		id, err = st.storeFile(ctx, m, filepath.Base(m), opt)
		if err != nil {
			return "", err
		}
	}
	return id, nil
}

func (st Store) importURL(ctx context.Context, rawurl string, opt ImportOptions) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return "", err
	}
	resp, err := st.client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w %s: HTTP %d", ErrCannotFetch, rawurl, resp.StatusCode)
	}

	name := rawurl
	if u, err := url.Parse(rawurl); err == nil && u.Path != "" {
		name = u.Path
	}
	if opt.SourceURL == "" {
		opt.SourceURL = rawurl
	}
	return st.store(ctx, resp.Body, path.Base(name), opt)
}

func (st Store) storeFile(ctx context.Context, srcPath, defaultName string, opt ImportOptions) (string, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	id, err := st.store(ctx, f, defaultName, opt)
	if err != nil {
		return "", err
	}
	return id, os.Remove(srcPath)
}

// store copies contents into a fresh uniquely-named directory, writes the
// .metadata file beside it, and commits the new directory.
func (st Store) store(ctx context.Context, contents io.Reader, defaultName string, opt ImportOptions) (string, error) {
	name := defaultName
	if opt.NewName != "" {
		name = sanitizeFilename(opt.NewName)
	}
	// leading dots are reserved for book-keeping files like .metadata
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "", fmt.Errorf("%w: nothing left of the target name", ErrInvalidFilename)
	}

	id, dir, err := st.createUniqueDir()
	if err != nil {
		return "", err
	}

	out, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, contents); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	suffix, err := doclib.SuffixOrEmpty(name)
	if err != nil {
		return "", err
	}
	meta := metadata{
		{"Description", []metadataItem{
			{"short-descr", opt.ShortDescr},
			{"source-url", opt.SourceURL},
		}},
		{"Cache", []metadataItem{
			{"filename", name},
			{"suffix", suffix},
		}},
		{"Creation", []metadataItem{
			{"date-added", doclib.Datestamp(st.now())},
		}},
	}
	if err := meta.writeFile(filepath.Join(dir, doclib.MetadataName)); err != nil {
		return "", err
	}

	if err := st.Git.CommitNewAttachmentDir(ctx, name, id); err != nil {
		return "", err
	}
	return id, nil
}

// createUniqueDir makes a fresh attachment directory, regenerating the name
// on the off chance an id is already taken.
func (st Store) createUniqueDir() (string, string, error) {
	if err := os.MkdirAll(st.Tree.Attachments(), 0755); err != nil {
		return "", "", err
	}
	for {
		id := st.newID()
		dir := st.Tree.AttachmentDir(id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
	}
}

// Attrs describes one stored attachment, as shown in listings.
type Attrs struct {
	ID        string
	Filename  string
	Size      string // human readable
	Descr     string
	SourceURL string
	Suffix    string
	Type      string
	DateAdded time.Time
}

// Attrs reads the metadata of one attachment back out of its directory.
func (st Store) Attrs(id string) (Attrs, error) {
	dir := st.Tree.AttachmentDir(id)
	meta, err := readMetadata(filepath.Join(dir, doclib.MetadataName))
	if err != nil {
		return Attrs{}, err
	}

	attrs := Attrs{
		ID:        id,
		Filename:  meta.get("Cache", "filename"),
		Descr:     meta.get("Description", "short-descr"),
		SourceURL: meta.get("Description", "source-url"),
		Suffix:    meta.get("Cache", "suffix"),
	}
	if attrs.Suffix != "" {
		attrs.Type = strings.ToUpper(attrs.Suffix[1:])
	}
	if info, err := os.Stat(filepath.Join(dir, attrs.Filename)); err == nil {
		attrs.Size = humanSize(info.Size())
	}
	if fields := strings.Fields(meta.get("Creation", "date-added")); len(fields) > 0 {
		var secs int64
		if _, err := fmt.Sscan(fields[0], &secs); err == nil {
			attrs.DateAdded = time.Unix(secs, 0)
		}
	}
	return attrs, nil
}

// IDs returns every attachment directory name, sorted.
func (st Store) IDs() ([]string, error) {
	entries, err := os.ReadDir(st.Tree.Attachments())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// FilePath returns the absolute path of an attachment's stored file.
func (st Store) FilePath(id string) (string, error) {
	attrs, err := st.Attrs(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(st.Tree.AttachmentDir(id), attrs.Filename), nil
}

func humanSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"bytes", "kB", "MB", "GB", "TB"} {
		if size < 1024 {
			return fmt.Sprintf("%3.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%3.1f PB", size)
}

// sanitizeFilename turns a user-chosen name into something safe to store:
// spaces and slashes become hyphens, and all other punctuation except
// "-_.:" is dropped.
func sanitizeFilename(s string) string {
	s = strings.NewReplacer(" ", "-", "/", "-").Replace(s)
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("-_.:", r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func stripToAlnum(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
