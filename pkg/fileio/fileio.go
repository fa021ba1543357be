// Package fileio holds small path-existence and sizing helpers shared by
// the archive-opening entry points, kept separate from the archive package
// itself since they only ever touch the filesystem, never archive bytes.
package fileio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CheckExists returns an error if path does not exist. Used by read-mode
// opens ("r", "r+") before any archive parsing is attempted, so a missing
// file is reported plainly rather than surfacing as a parse failure.
func CheckExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", path)
	}
	return nil
}

// CheckNotExists returns an error if path already exists. Used by
// exclusive-create opens ("x", "x+"), matching os.O_EXCL semantics at the
// path-check layer rather than relying solely on the open syscall.
func CheckNotExists(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	}
	return nil
}

// GetSize returns the byte size of the file at path.
func GetSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.Size(), nil
}

// GetExtension returns the lowercase extension of filename, without the
// leading dot, or "" if it has none.
func GetExtension(filename string) string {
	ext := filepath.Ext(strings.ToLower(filename))
	if ext == "" {
		return ""
	}
	return ext[1:]
}
