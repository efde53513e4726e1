package distutil

import (
	"os"
	"path/filepath"
)

// FindWDFile attempts to find a named file relative to the current working
// directory, checking every parent directory until one is found.
// It returns stat info and an absolute path or an error.
func FindWDFile(name string) (os.FileInfo, string, error) {
	info, err := os.Stat(name)
	if err == nil {
		path, err := filepath.Abs(name)
		return info, path, err
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}

	// TODO should we apply a limit to how far up we'll go?
	for ; len(wd) > 0; wd = filepath.Dir(wd) {
		path := filepath.Join(wd, name)
		if info, err = os.Stat(path); err == nil {
			path, err = filepath.Abs(path)
			return info, path, err
		}
		if wd == filepath.Dir(wd) {
			break
		}
	}

	return nil, "", nil
}

// FindHomeFile looks for a named file in the user's home directory, returning
// stat info and an absolute path when found, or nils like FindWDFile.
func FindHomeFile(name string) (os.FileInfo, string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, "", err
	}
	path := filepath.Join(home, name)
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", nil
	}
	return info, path, nil
}

// ExpandUser resolves a leading "~/" in path against the user's home
// directory, as shells do for configured paths.
func ExpandUser(path string) (string, error) {
	if path == "~" {
		return os.UserHomeDir()
	}
	if len(path) > 1 && path[0] == '~' && (path[1] == '/' || path[1] == filepath.Separator) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}
