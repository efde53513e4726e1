package bibs

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/google/renameio"
)

// ErrInvalidBibFile is returned when a file does not open with a recognizable
// BibTeX entry header.
var ErrInvalidBibFile = errors.New("invalid bib file")

// entryHeader matches the "@type{key," opening of the single entry a stored
// bib file is assumed to contain. Deliberately not a BibTeX parser: only the
// header line is ever rewritten, the body passes through untouched.
var entryHeader = regexp.MustCompile(`^\s*(@[^@{]+\{)\s*([^,\s]+)\s*,`)

// EntryKey returns the cite key named in the entry header of content.
func EntryKey(content string) (string, error) {
	m := entryHeader.FindStringSubmatch(content)
	if m == nil {
		return "", ErrInvalidBibFile
	}
	return m[2], nil
}

// ReplaceCiteKey rewrites the entry header of the bib file at path to use
// newKey, leaving everything else byte-for-byte alone.
func ReplaceCiteKey(path, newKey string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	content := string(b)
	m := entryHeader.FindStringSubmatchIndex(content)
	if m == nil {
		return fmt.Errorf("%w: %s", ErrInvalidBibFile, path)
	}
	// m[2]:m[3] spans "@type{", m[1] is the end of the whole header match
	rewritten := content[:m[3]] + newKey + "," + content[m[1]:]
	return renameio.WriteFile(path, []byte(rewritten), 0644)
}

var fieldStart = func() map[string]*regexp.Regexp {
	starts := make(map[string]*regexp.Regexp)
	for _, name := range []string{"title", "year", "author", "editor"} {
		starts[name] = regexp.MustCompile(`(?im)^\s*` + name + `\s*=\s*`)
	}
	return starts
}()

// scrapeField pulls one field value out of a bib entry without parsing the
// dialect: brace-balanced, quoted, and bare values are understood, inner
// braces are dropped, and runs of whitespace collapse to single spaces.
func scrapeField(content, name string) string {
	re := fieldStart[name]
	if re == nil {
		return ""
	}
	loc := re.FindStringIndex(content)
	if loc == nil {
		return ""
	}
	rest := content[loc[1]:]
	switch {
	case strings.HasPrefix(rest, "{"):
		depth := 0
		for i, c := range rest {
			switch c {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return cleanFieldValue(rest[1:i])
				}
			}
		}
		return ""
	case strings.HasPrefix(rest, `"`):
		if i := strings.IndexByte(rest[1:], '"'); i >= 0 {
			return cleanFieldValue(rest[1 : 1+i])
		}
		return ""
	default:
		i := strings.IndexAny(rest, ",\n")
		if i < 0 {
			i = len(rest)
		}
		return cleanFieldValue(rest[:i])
	}
}

var braceStripper = strings.NewReplacer("{", "", "}", "")

func cleanFieldValue(v string) string {
	return strings.Join(strings.Fields(braceStripper.Replace(v)), " ")
}
