// Package overlay implements the virtual system: a directory tree of
// symlinks whose internal structure mirrors the intended absolute
// target layout, plus the deploy and undeploy workflows over it.
package overlay

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/justincordova/dull/internal/config"
	dullfs "github.com/justincordova/dull/internal/fs"
	"github.com/justincordova/dull/internal/tx"
)

// system is the read-only core shared by both lifecycle states.
type system struct {
	name string
	path string
}

// Name returns the build name recorded in the overlay.
func (s *system) Name() string { return s.name }

// Path returns the overlay root.
func (s *system) Path() string { return s.path }

// Undeployable is a freshly-read overlay; its targets' ancestor
// directories may not exist yet. PrepareDeployment is the only way to
// obtain a Deployable, so deploying without preparing cannot compile.
type Undeployable struct {
	system
}

// Deployable is an overlay whose target ancestors have been ensured.
type Deployable struct {
	system
}

// Read loads the overlay rooted at path, taking its name from the
// build file inside it.
func Read(path, buildFileName string) (*Undeployable, error) {
	abs, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	buildFilePath := filepath.Join(abs, buildFileName)
	name, err := os.ReadFile(buildFilePath)
	if err != nil {
		return nil, fmt.Errorf("could not read the build file %s: %w", buildFilePath, err)
	}
	return &Undeployable{system{name: strings.TrimSpace(string(name)), path: abs}}, nil
}

// leaves returns the overlay's symlinks, the unit of deployment.
// Symlinks are never followed during the walk.
func (s *system) leaves() ([]string, error) {
	var leaves []string
	err := filepath.WalkDir(s.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink != 0 {
			leaves = append(leaves, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not walk the overlay %s: %w", s.path, err)
	}
	return leaves, nil
}

// leafTarget decodes the absolute deployment target encoded in the
// leaf's position within the overlay tree.
func (s *system) leafTarget(leaf string) (string, error) {
	rel, err := filepath.Rel(s.path, leaf)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("leaf path %s is malformed", leaf)
	}
	return config.ExpandPath(string(filepath.Separator) + rel)
}

// parseLeaf extracts the canonicalized source (the module file the leaf
// points at) and the absolute deployment target from a leaf.
func (s *system) parseLeaf(leaf string) (source, target string, err error) {
	target, err = s.leafTarget(leaf)
	if err != nil {
		return "", "", err
	}
	source, err = dullfs.Canonicalize(leaf)
	if err != nil {
		return "", "", fmt.Errorf("could not canonicalize the source %s: %w", leaf, err)
	}
	return source, target, nil
}

// PrepareDeployment makes the live filesystem ready for this overlay:
// optionally clears existing targets, then ensures every target's
// ancestor directories. Runs as a required transaction of the workflow
// and transitions the overlay to Deployable.
func (u *Undeployable) PrepareDeployment(proc *tx.Processor, store *tx.Store, clearTargets bool) (*Deployable, error) {
	leaves, err := u.leaves()
	if err != nil {
		return nil, err
	}
	b := tx.NewBuilder()
	for _, leaf := range leaves {
		target, err := u.leafTarget(leaf)
		if err != nil {
			return nil, err
		}
		if clearTargets && dullfs.LExists(target) {
			if err := tx.RemoveAny(b, target); err != nil {
				return nil, err
			}
		}
		if err := tx.EnsureDirs(b, filepath.Dir(target)); err != nil {
			return nil, err
		}
	}
	t, err := b.Build(store, "prepare")
	if err != nil {
		return nil, err
	}
	if err := proc.RunRequired(t); err != nil {
		return nil, err
	}
	return &Deployable{u.system}, nil
}

// SoftDeploy materializes each leaf as a symlink in the live
// filesystem, pointing directly at the module source.
func (d *Deployable) SoftDeploy(proc *tx.Processor, store *tx.Store) error {
	leaves, err := d.leaves()
	if err != nil {
		return err
	}
	b := tx.NewBuilder()
	for _, leaf := range leaves {
		source, target, err := d.parseLeaf(leaf)
		if err != nil {
			return fmt.Errorf("could not parse the leaf %s: %w", leaf, err)
		}
		b.Link(source, target)
	}
	t, err := b.Build(store, "soft-deploy")
	if err != nil {
		return err
	}
	return proc.RunRequired(t)
}

// HardDeploy materializes each leaf's contents as copies. The
// canonicalized source is walked without following symlinks: inner
// symlinks are preserved as symlinks at the mirrored position. Entries
// matching an ignored filename are skipped.
func (d *Deployable) HardDeploy(proc *tx.Processor, store *tx.Store, ignoreFilenames []string) error {
	leaves, err := d.leaves()
	if err != nil {
		return err
	}
	b := tx.NewBuilder()
	for _, leaf := range leaves {
		source, target, err := d.parseLeaf(leaf)
		if err != nil {
			return fmt.Errorf("could not parse the leaf %s: %w", leaf, err)
		}
		err = filepath.WalkDir(source, func(inner string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				return nil
			}
			for _, pattern := range ignoreFilenames {
				if matched, matchErr := filepath.Match(pattern, entry.Name()); matchErr == nil && matched {
					return nil
				}
			}
			innerTarget := target
			if inner != source {
				rel, err := filepath.Rel(source, inner)
				if err != nil {
					return err
				}
				innerTarget = filepath.Join(target, rel)
			}
			if err := tx.EnsureDirs(b, filepath.Dir(innerTarget)); err != nil {
				return err
			}
			b.CopyFile(inner, innerTarget)
			return nil
		})
		if err != nil {
			return fmt.Errorf("could not traverse the source %s: %w", source, err)
		}
	}
	t, err := b.Build(store, "hard-deploy")
	if err != nil {
		return err
	}
	return proc.RunRequired(t)
}

// Undeploy removes the deployed leaves from the live filesystem. Only
// leaves are removed; the directories containing them stay.
func (s *system) Undeploy(proc *tx.Processor, store *tx.Store) error {
	leaves, err := s.leaves()
	if err != nil {
		return err
	}
	b := tx.NewBuilder()
	for _, leaf := range leaves {
		target, err := s.leafTarget(leaf)
		if err != nil {
			return err
		}
		if err := tx.RemoveAny(b, target); err != nil {
			return err
		}
	}
	t, err := b.Build(store, "undeploy")
	if err != nil {
		return err
	}
	return proc.RunRequired(t)
}
