package doclib

import (
	"io"
	"os"
	"path/filepath"
)

// MoveAndRename moves src into destDir under destName, returning the new
// path. It is for files that have not yet been committed; committed files
// move through the version control wrapper instead, so that history follows
// the rename.
func MoveAndRename(src, destDir, destName string) (string, error) {
	dest := filepath.Join(destDir, destName)
	if err := os.Rename(src, dest); err == nil {
		return dest, nil
	}
	// probably a cross-device move; copy then remove
	if err := copyFile(src, dest); err != nil {
		return "", err
	}
	return dest, os.Remove(src)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
