package writeback

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	billy "github.com/go-git/go-billy/v5"
)

// WriteFile replaces the file at path with content. Missing parent
// directories are created. The write is atomic: content is written to a temp
// file in the same directory first, then renamed over path.
func WriteFile(fsys billy.Filesystem, path string, content []byte) error {
	dir := filepath.Dir(path)
	if _, err := fsys.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	tmp, err := fsys.TempFile(dir, ".confedit-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = fsys.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = fsys.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("close temp: %w", err)
	}

	// Keep the permissions of the file being replaced; new files get 0644.
	mode := fs.FileMode(0o644)
	if info, err := fsys.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if ch, ok := fsys.(billy.Change); ok {
		_ = ch.Chmod(tmpName, mode) // best-effort permission sync
	}

	if err := fsys.Rename(tmpName, path); err != nil {
		_ = fsys.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("rename temp to %s: %w", path, err)
	}
	return nil
}

// MissingDir returns the parent directory of path and whether it does not
// exist yet, so callers can report the directory WriteFile will create.
func MissingDir(fsys billy.Filesystem, path string) (string, bool) {
	dir := filepath.Dir(path)
	_, err := fsys.Stat(dir)
	return dir, errors.Is(err, fs.ErrNotExist)
}
