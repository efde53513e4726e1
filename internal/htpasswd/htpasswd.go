// Package htpasswd authenticates users against an Apache htpasswd file.
package htpasswd

import (
	"bufio"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"os"
	"strings"
)

const shaPrefix = "{SHA}"

// File is a parsed htpasswd file: username to password hash.
type File map[string]string

// Load reads and parses the htpasswd file at path. Lines without a colon are
// skipped rather than rejected, matching the Apache tools' tolerance.
func Load(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries := make(File)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r\n")
		i := strings.IndexByte(line, ':')
		if i < 0 {
			continue
		}
		entries[line[:i]] = line[i+1:]
	}
	return entries, sc.Err()
}

// Authenticate reports whether the username and password match an entry.
// Only {SHA} (SHA-1) entries are supported; any other hash scheme fails
// authentication rather than erroring, so a mixed file degrades per user.
func (f File) Authenticate(username, password string) bool {
	hash, ok := f[username]
	if !ok || !strings.HasPrefix(hash, shaPrefix) {
		return false
	}
	want := []byte(hash[len(shaPrefix):])
	sum := sha1.Sum([]byte(password))
	got := []byte(base64.StdEncoding.EncodeToString(sum[:]))
	return subtle.ConstantTimeCompare(want, got) == 1
}

// HashPassword produces an htpasswd {SHA} hash for password, as the Apache
// htpasswd utility does with -s.
func HashPassword(password string) string {
	sum := sha1.Sum([]byte(password))
	return shaPrefix + base64.StdEncoding.EncodeToString(sum[:])
}
