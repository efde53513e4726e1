package doclib

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/renameio"
)

// Datestamp returns the given time as epoch seconds (for easy parsing)
// followed by the human-readable version.
func Datestamp(now time.Time) string {
	return fmt.Sprintf("%d %s", now.Unix(), now.Format(time.ANSIC))
}

// WriteDateAdded records when a bib or attachment directory was created, in a
// well-known file inside it.
func WriteDateAdded(dir string, now time.Time) error {
	path := filepath.Join(dir, DateAddedName)
	return renameio.WriteFile(path, []byte(Datestamp(now)+"\n"), 0644)
}

// ReadDateAdded parses the datestamp file back out of dir.
func ReadDateAdded(dir string) (time.Time, error) {
	b, err := os.ReadFile(filepath.Join(dir, DateAddedName))
	if err != nil {
		return time.Time{}, err
	}
	fields := strings.Fields(string(b))
	if len(fields) == 0 {
		return time.Time{}, fmt.Errorf("empty datestamp file in %s", dir)
	}
	secs, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad datestamp in %s: %w", dir, err)
	}
	return time.Unix(secs, 0), nil
}
