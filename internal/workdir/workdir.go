// Package workdir owns the working-directory anchors the CLI passes
// into the engine: the builds and transactions roots, the state file
// recording the last successful build, and the inter-process lock.
// The engine itself never reads these; they are handed in explicitly.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/justincordova/dull/internal/tx"
)

const (
	buildsDirName       = "builds"
	transactionsDirName = "transactions"
)

// Dir is a dull working directory.
type Dir struct {
	Root      string
	StateFile string
}

// New returns the working directory rooted at root, using the given
// state file name.
func New(root, stateFile string) *Dir {
	return &Dir{Root: root, StateFile: stateFile}
}

// BuildsRoot is the directory overlay builds are materialized under.
func (d *Dir) BuildsRoot() string {
	return filepath.Join(d.Root, buildsDirName)
}

// TxStore is the transaction store anchored in this working directory.
func (d *Dir) TxStore() *tx.Store {
	return tx.NewStore(filepath.Join(d.Root, transactionsDirName))
}

// ReadState returns the absolute path of the last successfully built
// overlay, as recorded by WriteState.
func (d *Dir) ReadState() (string, error) {
	statePath := filepath.Join(d.Root, d.StateFile)
	contents, err := os.ReadFile(statePath)
	if err != nil {
		return "", fmt.Errorf("could not get the state file %s: %w", statePath, err)
	}
	return strings.TrimSpace(string(contents)), nil
}

// WriteState records the given overlay path as the last built one.
func (d *Dir) WriteState(buildPath string) error {
	statePath := filepath.Join(d.Root, d.StateFile)
	if err := os.WriteFile(statePath, []byte(buildPath), 0644); err != nil {
		return fmt.Errorf("could not set the state file %s: %w", statePath, err)
	}
	return nil
}
