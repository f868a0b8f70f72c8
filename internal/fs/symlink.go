package fs

import (
	"fmt"
	"path/filepath"
)

// Canonicalize resolves all symlinks in path and returns the absolute
// resolved path. Fails if any component does not exist.
func Canonicalize(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("canonicalizing %s: %w", path, err)
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return "", fmt.Errorf("absolutizing %s: %w", resolved, err)
	}
	return abs, nil
}
