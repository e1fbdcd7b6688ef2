package filex

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// EnsureDir creates dirName, relative to the working directory unless it is
// absolute, and returns its absolute path.
func EnsureDir(dirName string) (string, error) {
	dir := dirName
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dirName)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// FileName builds a local name for a delivered file. The extension comes
// from fileRef when it has one, otherwise from format.
func FileName(contentID, format, fileRef string) string {
	ext := path.Ext(strings.SplitN(fileRef, "?", 2)[0])
	if ext == "" && format != "" {
		ext = "." + strings.ToLower(format)
	}
	return sanitize(contentID) + ext
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}

// AtomicFile is written under a temporary name and renamed into place on
// Commit, so a partial transfer never shows up under the final name.
type AtomicFile struct {
	*os.File
	target string
	done   bool
}

func CreateAtomic(target string) (*AtomicFile, error) {
	f, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".part-*")
	if err != nil {
		return nil, fmt.Errorf("create temp for %s: %w", target, err)
	}
	return &AtomicFile{File: f, target: target}, nil
}

func (a *AtomicFile) Commit() error {
	if err := a.File.Sync(); err != nil {
		a.Abort()
		return err
	}
	if err := a.File.Close(); err != nil {
		_ = os.Remove(a.File.Name())
		return err
	}
	a.done = true
	return os.Rename(a.File.Name(), a.target)
}

// Abort drops the temporary file. It is a no-op after Commit.
func (a *AtomicFile) Abort() {
	if a.done {
		return
	}
	a.done = true
	_ = a.File.Close()
	_ = os.Remove(a.File.Name())
}
