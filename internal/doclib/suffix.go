package doclib

import (
	"errors"
	"fmt"
	"strings"
)

// Suffix errors.
var (
	ErrEmptyFilename = errors.New("empty filename")
	ErrNoSuffix      = errors.New("no filename suffix")
)

// compression suffixes that ride on top of another suffix, so that
// "paper.ps.gz" keeps ".ps.gz" rather than just ".gz"
var compressionSuffixes = map[string]bool{
	"gz":  true,
	"bz2": true,
	"z":   true,
}

// Suffix extracts the suffix of fname, including the preceding period.
// A bare compression suffix counts as no suffix at all: there is no way to
// name a file for its cite key without knowing what is inside the archive.
func Suffix(fname string) (string, error) {
	return suffix(fname, false)
}

// SuffixOrEmpty is Suffix for callers that accept suffix-less filenames.
func SuffixOrEmpty(fname string) (string, error) {
	return suffix(fname, true)
}

func suffix(fname string, allowAbsent bool) (string, error) {
	if fname == "" {
		return "", ErrEmptyFilename
	}
	parts := strings.Split(fname, ".")
	if len(parts) < 2 {
		if allowAbsent {
			return "", nil
		}
		return "", fmt.Errorf("%w on %q", ErrNoSuffix, fname)
	}
	last := parts[len(parts)-1]
	if compressionSuffixes[strings.ToLower(last)] {
		if len(parts) < 3 {
			if allowAbsent {
				return "." + last, nil
			}
			return "", fmt.Errorf("%w on %q", ErrNoSuffix, fname)
		}
		return "." + strings.Join(parts[len(parts)-2:], "."), nil
	}
	return "." + last, nil
}
