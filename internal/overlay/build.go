package overlay

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/justincordova/dull/internal/config"
	"github.com/justincordova/dull/internal/fs"
	"github.com/justincordova/dull/internal/tx"
)

// Build materializes the virtual overlay for the given links under
// {buildsRoot}/{name} and records the build name in the build file at
// its root. The build runs haphazardly: a failure leaves the partial
// tree in place for inspection and returns the error.
func Build(store *tx.Store, buildsRoot, name, buildFileName string, links []tx.ResolvedLink, verbose bool) (string, error) {
	if name == "" {
		name = fmt.Sprintf("%d", rand.Uint32())
	}
	buildDir := filepath.Join(buildsRoot, name)

	b := tx.NewBuilder()
	if err := tx.CreateLinks(b, buildDir, links); err != nil {
		return "", fmt.Errorf("could not plan the virtual system, possibly conflicting modules: %w", err)
	}
	t, err := b.Build(store, "build")
	if err != nil {
		return "", err
	}
	if err := t.RunHaphazard(verbose); err != nil {
		return "", fmt.Errorf("could not generate the virtual system at %s: %w", buildDir, err)
	}

	abs, err := config.ExpandPath(buildDir)
	if err != nil {
		return "", err
	}
	// A build with no links plans no directories
	if err := fs.EnsureDir(abs); err != nil {
		return "", err
	}
	buildFilePath := filepath.Join(abs, buildFileName)
	if err := os.WriteFile(buildFilePath, []byte(name), 0644); err != nil {
		return "", fmt.Errorf("could not generate the build information at %s: %w", buildFilePath, err)
	}
	return abs, nil
}
