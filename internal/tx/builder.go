package tx

import (
	"fmt"
	"sort"

	"github.com/justincordova/dull/internal/fs"
)

// plannedPrim is a bucket entry: the primitive plus its arrival order,
// used to break depth ties stably.
type plannedPrim struct {
	prim Primitive
	seq  int
}

// Builder accumulates planned primitives keyed by target path. Opposing
// intents on the same path cancel; identical intents deduplicate with
// last-write-wins on the primitive's arguments.
type Builder struct {
	seq           int
	filesToCreate map[string]plannedPrim
	filesToRemove map[string]plannedPrim
	dirsToCreate  map[string]plannedPrim
	dirsToRemove  map[string]plannedPrim
}

// NewBuilder returns an empty plan builder.
func NewBuilder() *Builder {
	return &Builder{
		filesToCreate: map[string]plannedPrim{},
		filesToRemove: map[string]plannedPrim{},
		dirsToCreate:  map[string]plannedPrim{},
		dirsToRemove:  map[string]plannedPrim{},
	}
}

// Push routes a primitive into its bucket, cancelling the opposite
// intent on the same target path. A removal of a path whose creation is
// planned drops both; a creation replaces a planned removal.
func (b *Builder) Push(p Primitive) {
	switch p.Op {
	case OpLink, OpCopyFile:
		delete(b.filesToRemove, p.Target)
		b.insert(b.filesToCreate, p)
	case OpRemoveFile:
		if _, ok := b.filesToCreate[p.Target]; ok {
			delete(b.filesToCreate, p.Target)
			return
		}
		b.insert(b.filesToRemove, p)
	case OpCreateDir:
		delete(b.dirsToRemove, p.Target)
		b.insert(b.dirsToCreate, p)
	case OpRemoveDir:
		if _, ok := b.dirsToCreate[p.Target]; ok {
			delete(b.dirsToCreate, p.Target)
			return
		}
		b.insert(b.dirsToRemove, p)
	case OpNop:
	}
}

// insert replaces the primitive for an already-planned path but keeps
// its original arrival position.
func (b *Builder) insert(bucket map[string]plannedPrim, p Primitive) {
	if prev, ok := bucket[p.Target]; ok {
		bucket[p.Target] = plannedPrim{prim: p, seq: prev.seq}
		return
	}
	bucket[p.Target] = plannedPrim{prim: p, seq: b.seq}
	b.seq++
}

// Link plans a symlink at target pointing at original.
func (b *Builder) Link(original, target string) {
	b.Push(Link(original, target))
}

// CopyFile plans a copy of source to target.
func (b *Builder) CopyFile(source, target string) {
	b.Push(CopyFile(source, target))
}

// RemoveFile plans the removal of the file or symlink at target.
func (b *Builder) RemoveFile(target string) {
	b.Push(RemoveFile(target))
}

// CreateDir plans the creation of the directory at target.
func (b *Builder) CreateDir(target string) {
	b.Push(CreateDir(target))
}

// RemoveDir plans the removal of the directory at target.
func (b *Builder) RemoveDir(target string) {
	b.Push(RemoveDir(target))
}

// WillCreateDir reports whether the current plan creates the directory p.
func (b *Builder) WillCreateDir(p string) bool {
	_, ok := b.dirsToCreate[p]
	return ok
}

// WillCreateFile reports whether the current plan places a file at p.
func (b *Builder) WillCreateFile(p string) bool {
	_, ok := b.filesToCreate[p]
	return ok
}

// WillRemoveFile reports whether the current plan removes the file at p.
func (b *Builder) WillRemoveFile(p string) bool {
	_, ok := b.filesToRemove[p]
	return ok
}

// WillRemoveDir reports whether the current plan removes the directory p.
func (b *Builder) WillRemoveDir(p string) bool {
	_, ok := b.dirsToRemove[p]
	return ok
}

// Len returns the number of planned primitives.
func (b *Builder) Len() int {
	return len(b.filesToCreate) + len(b.filesToRemove) + len(b.dirsToCreate) + len(b.dirsToRemove)
}

// collect flattens a bucket sorted by path depth, breaking ties by
// arrival order.
func collect(bucket map[string]plannedPrim, deepestFirst bool) []Primitive {
	entries := make([]plannedPrim, 0, len(bucket))
	for _, e := range bucket {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := fs.Depth(entries[i].prim.Target), fs.Depth(entries[j].prim.Target)
		if deepestFirst {
			return di > dj
		}
		return di < dj
	})
	prims := make([]Primitive, len(entries))
	for i, e := range entries {
		prims[i] = e.prim
	}
	return prims
}

// Build emits the totally-ordered plan as a persisted transaction:
// directories are created parents-first, files placed shallow-first,
// then files removed deepest-first and directories removed innermost-first.
func (b *Builder) Build(store *Store, name string) (*Transaction, error) {
	primitives := make([]Primitive, 0, b.Len())
	primitives = append(primitives, collect(b.dirsToCreate, false)...)
	primitives = append(primitives, collect(b.filesToCreate, false)...)
	primitives = append(primitives, collect(b.filesToRemove, true)...)
	primitives = append(primitives, collect(b.dirsToRemove, true)...)
	t, err := store.Generate(name, primitives)
	if err != nil {
		return nil, fmt.Errorf("could not build the transaction %q: %w", name, err)
	}
	return t, nil
}
