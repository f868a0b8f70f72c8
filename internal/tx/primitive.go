// Package tx implements the transactional filesystem engine: reversible
// primitives, a deduplicating plan builder, plan generators, persisted
// transactions, and atomic execution with rollback.
package tx

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/justincordova/dull/internal/fs"
)

// Op identifies a primitive variant. The set is closed; Apply pattern
// matches over it.
type Op int

const (
	OpNop Op = iota
	OpLink
	OpCopyFile
	OpRemoveFile
	OpCreateDir
	OpRemoveDir
)

// Primitive is a single reversible filesystem mutation. Source is only
// meaningful for Link (the symlink destination) and CopyFile (the file
// being copied); Target is the path the primitive acts on.
type Primitive struct {
	Op     Op
	Source string
	Target string
}

// Link creates a symlink at target pointing at original.
func Link(original, target string) Primitive {
	return Primitive{Op: OpLink, Source: original, Target: target}
}

// CopyFile copies the file or symlink at source to target.
func CopyFile(source, target string) Primitive {
	return Primitive{Op: OpCopyFile, Source: source, Target: target}
}

// RemoveFile unlinks the regular file or symlink at target.
func RemoveFile(target string) Primitive {
	return Primitive{Op: OpRemoveFile, Target: target}
}

// CreateDir creates the single directory at target (not its ancestors).
func CreateDir(target string) Primitive {
	return Primitive{Op: OpCreateDir, Target: target}
}

// RemoveDir removes the empty directory at target.
func RemoveDir(target string) Primitive {
	return Primitive{Op: OpRemoveDir, Target: target}
}

// Nop does nothing and inverts to itself.
func Nop() Primitive {
	return Primitive{Op: OpNop}
}

func (p Primitive) String() string {
	switch p.Op {
	case OpLink:
		return fmt.Sprintf("Link %s <= %s", p.Source, p.Target)
	case OpCopyFile:
		return fmt.Sprintf("CopyFile %s => %s", p.Source, p.Target)
	case OpRemoveFile:
		return fmt.Sprintf("RemoveFile %s", p.Target)
	case OpCreateDir:
		return fmt.Sprintf("CreateDir %s", p.Target)
	case OpRemoveDir:
		return fmt.Sprintf("RemoveDir %s", p.Target)
	default:
		return "Nop"
	}
}

// checkAbs rejects relative paths before any filesystem call is made.
func (p Primitive) checkAbs() error {
	if p.Op != OpNop && !filepath.IsAbs(p.Target) {
		return fmt.Errorf("relative target path %q", p.Target)
	}
	if (p.Op == OpLink || p.Op == OpCopyFile) && !filepath.IsAbs(p.Source) {
		return fmt.Errorf("relative source path %q", p.Source)
	}
	return nil
}

// Apply executes the primitive against the live filesystem and returns
// the primitive that undoes it. backupDir is where RemoveFile stashes
// the removed file; with backupDir empty, a removal is non-reversible
// and inverts to Nop.
func (p Primitive) Apply(backupDir string) (Primitive, error) {
	if err := p.checkAbs(); err != nil {
		return Nop(), err
	}
	switch p.Op {
	case OpLink:
		if err := os.Symlink(p.Source, p.Target); err != nil {
			return Nop(), fmt.Errorf("could not link %s to %s: %w", p.Target, p.Source, err)
		}
		return RemoveFile(p.Target), nil

	case OpCopyFile:
		if fs.LExists(p.Target) {
			return Nop(), fmt.Errorf("file at %s already exists", p.Target)
		}
		if err := fs.CopyFileOrSymlink(p.Source, p.Target); err != nil {
			return Nop(), fmt.Errorf("could not copy the file/symlink %s to %s: %w", p.Source, p.Target, err)
		}
		return RemoveFile(p.Target), nil

	case OpRemoveFile:
		undo := Nop()
		if backupDir != "" {
			backup := filepath.Join(backupDir, fmt.Sprintf("%d", rand.Uint32()))
			if err := fs.CopyFileOrSymlink(p.Target, backup); err != nil {
				return Nop(), fmt.Errorf("could not backup %s to %s: %w", p.Target, backup, err)
			}
			undo = CopyFile(backup, p.Target)
		}
		if err := os.Remove(p.Target); err != nil {
			return Nop(), fmt.Errorf("could not remove file %s: %w", p.Target, err)
		}
		return undo, nil

	case OpCreateDir:
		if fs.LExists(p.Target) {
			return Nop(), fmt.Errorf("%s already exists", p.Target)
		}
		if err := os.Mkdir(p.Target, 0755); err != nil {
			return Nop(), fmt.Errorf("could not create %s: %w", p.Target, err)
		}
		return RemoveDir(p.Target), nil

	case OpRemoveDir:
		if !fs.LExists(p.Target) {
			return Nop(), fmt.Errorf("%s doesn't exist", p.Target)
		}
		if err := os.Remove(p.Target); err != nil {
			return Nop(), fmt.Errorf("could not remove %s: %w", p.Target, err)
		}
		return CreateDir(p.Target), nil

	default:
		return Nop(), nil
	}
}

// Reversible reports whether applying the primitive can produce a real
// inverse. Only RemoveFile without a backup directory cannot.
func (p Primitive) Reversible(backupDir string) bool {
	return p.Op != OpRemoveFile || backupDir != ""
}

// The persisted form is externally tagged, one key per variant:
// {"Link":{"original":..,"target":..}}, {"CopyFile":{"source":..,"target":..}},
// {"RemoveFile":[path]}, {"CreateDir":[path]}, {"RemoveDir":[path]}, {"Nop":[]}.

type linkFields struct {
	Original string `json:"original"`
	Target   string `json:"target"`
}

type copyFields struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// MarshalJSON implements the externally-tagged persisted form.
func (p Primitive) MarshalJSON() ([]byte, error) {
	switch p.Op {
	case OpLink:
		return json.Marshal(map[string]linkFields{"Link": {Original: p.Source, Target: p.Target}})
	case OpCopyFile:
		return json.Marshal(map[string]copyFields{"CopyFile": {Source: p.Source, Target: p.Target}})
	case OpRemoveFile:
		return json.Marshal(map[string][]string{"RemoveFile": {p.Target}})
	case OpCreateDir:
		return json.Marshal(map[string][]string{"CreateDir": {p.Target}})
	case OpRemoveDir:
		return json.Marshal(map[string][]string{"RemoveDir": {p.Target}})
	case OpNop:
		return json.Marshal(map[string][]string{"Nop": {}})
	default:
		return nil, fmt.Errorf("unknown primitive op %d", p.Op)
	}
}

// UnmarshalJSON implements the read side of the persisted form.
func (p *Primitive) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if len(tagged) != 1 {
		return fmt.Errorf("expected exactly one variant tag, got %d", len(tagged))
	}
	for tag, raw := range tagged {
		switch tag {
		case "Link":
			var f linkFields
			if err := json.Unmarshal(raw, &f); err != nil {
				return err
			}
			*p = Link(f.Original, f.Target)
		case "CopyFile":
			var f copyFields
			if err := json.Unmarshal(raw, &f); err != nil {
				return err
			}
			*p = CopyFile(f.Source, f.Target)
		case "RemoveFile", "CreateDir", "RemoveDir":
			var paths []string
			if err := json.Unmarshal(raw, &paths); err != nil {
				return err
			}
			if len(paths) != 1 {
				return fmt.Errorf("%s expects exactly one path, got %d", tag, len(paths))
			}
			switch tag {
			case "RemoveFile":
				*p = RemoveFile(paths[0])
			case "CreateDir":
				*p = CreateDir(paths[0])
			case "RemoveDir":
				*p = RemoveDir(paths[0])
			}
		case "Nop":
			*p = Nop()
		default:
			return fmt.Errorf("unknown primitive variant %q", tag)
		}
	}
	return nil
}
