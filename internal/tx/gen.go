package tx

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/justincordova/dull/internal/config"
	dullfs "github.com/justincordova/dull/internal/fs"
)

// ResolvedLink is the intent record consumed from module walking: an
// absolute link source and the absolute path it should be deployed to.
type ResolvedLink struct {
	AbsSource string
	AbsTarget string
}

// NewResolvedLink expands and absolutizes both paths defensively;
// callers are expected to pass canonical paths already.
func NewResolvedLink(source, target string) (ResolvedLink, error) {
	absSource, err := config.ExpandPath(source)
	if err != nil {
		return ResolvedLink{}, fmt.Errorf("could not expand the source path %s: %w", source, err)
	}
	absTarget, err := config.ExpandPath(target)
	if err != nil {
		return ResolvedLink{}, fmt.Errorf("could not expand the target path %s: %w", target, err)
	}
	return ResolvedLink{AbsSource: absSource, AbsTarget: absTarget}, nil
}

// EnsureDirs plans the creation of every ancestor of target (including
// target itself) that neither exists on disk nor is already planned.
func EnsureDirs(b *Builder, target string) error {
	abs, err := config.ExpandPath(target)
	if err != nil {
		return err
	}
	for _, ancestor := range dullfs.Ancestors(abs) {
		if dullfs.LExists(ancestor) || b.WillCreateDir(ancestor) {
			continue
		}
		b.CreateDir(ancestor)
	}
	return nil
}

// RemoveDirAll plans the recursive removal of the directory tree rooted
// at target. Symlinks are never followed; each entry is planned as a
// file or directory removal, and the builder's depth ordering takes
// care of removing contents before their directories.
func RemoveDirAll(b *Builder, target string) error {
	abs, err := config.ExpandPath(target)
	if err != nil {
		return err
	}
	if !dullfs.IsDirNoFollow(abs) {
		return fmt.Errorf("target %s is not a directory", abs)
	}
	return filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			b.RemoveDir(path)
		} else {
			b.RemoveFile(path)
		}
		return nil
	})
}

// RemoveAny plans the removal of whatever is at target: a single file
// or symlink directly, a directory recursively. A symlink to a
// directory only removes the symlink.
func RemoveAny(b *Builder, target string) error {
	abs, err := config.ExpandPath(target)
	if err != nil {
		return err
	}
	if dullfs.IsFileOrSymlink(abs) {
		b.RemoveFile(abs)
		return nil
	}
	return RemoveDirAll(b, abs)
}

// CreateLinks plans the materialization of the virtual overlay: for
// every resolved link, the target's absolute path is re-rooted under
// root (leading separator stripped), the leading directories are
// ensured, and a symlink back to the source is planned.
func CreateLinks(b *Builder, root string, links []ResolvedLink) error {
	for _, link := range links {
		relTarget := strings.TrimPrefix(link.AbsTarget, string(filepath.Separator))
		vpath, err := config.ExpandPath(filepath.Join(root, relTarget))
		if err != nil {
			return err
		}
		if err := EnsureDirs(b, filepath.Dir(vpath)); err != nil {
			return err
		}
		b.Link(link.AbsSource, vpath)
	}
	return nil
}
