package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath converts ~ notation to an absolute, cleaned path.
// Example: ~/.zshrc -> /home/you/.zshrc
// Also handles environment variables: $XDG_CONFIG_HOME etc.
func ExpandPath(path string) (string, error) {
	expanded := os.ExpandEnv(path)

	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		expanded = filepath.Join(home, strings.TrimPrefix(expanded, "~"))
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("absolutizing %s: %w", expanded, err)
	}
	return filepath.Clean(abs), nil
}

// NormalizePath converts an absolute path under the home directory to ~
// notation for display. Paths outside home are returned unchanged.
func NormalizePath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+string(filepath.Separator)) {
		return "~" + strings.TrimPrefix(path, home)
	}
	return path
}
