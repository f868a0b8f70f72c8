package tx

import (
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/justincordova/dull/internal/fs"
)

// genPath draws a short absolute path from a small component alphabet
// so that collisions and prefix relations actually happen.
func genPath(t *rapid.T) string {
	components := rapid.SliceOfN(rapid.SampledFrom([]string{"a", "b", "c", "d"}), 1, 4).Draw(t, "components")
	return "/" + strings.Join(components, "/")
}

// A builder never emits two primitives for the same target path, no
// matter the push sequence.
func TestBuilderSingleIntentPerPath(t *testing.T) {
	store := NewStore(t.TempDir())
	rapid.Check(t, func(rt *rapid.T) {
		b := NewBuilder()
		n := rapid.IntRange(1, 30).Draw(rt, "pushes")
		for i := 0; i < n; i++ {
			path := genPath(rt)
			switch rapid.IntRange(0, 4).Draw(rt, "op") {
			case 0:
				b.Link("/m/src", path)
			case 1:
				b.CopyFile("/m/src", path)
			case 2:
				b.RemoveFile(path)
			case 3:
				b.CreateDir(path)
			case 4:
				b.RemoveDir(path)
			}
		}

		tr, err := b.Build(store, "prop")
		if err != nil {
			rt.Fatalf("Build() error = %v", err)
		}

		fileSeen := map[string]bool{}
		dirSeen := map[string]bool{}
		for _, p := range tr.Primitives {
			seen := fileSeen
			if p.Op == OpCreateDir || p.Op == OpRemoveDir {
				seen = dirSeen
			}
			if seen[p.Target] {
				rt.Fatalf("two primitives emitted for %s", p.Target)
			}
			seen[p.Target] = true
		}
	})
}

// Pushing a primitive and then its opposite leaves no trace of the path.
func TestBuilderCancellationProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		b := NewBuilder()
		path := genPath(rt)
		if rapid.Bool().Draw(rt, "dir") {
			b.CreateDir(path)
			b.RemoveDir(path)
		} else {
			b.Link("/m/src", path)
			b.RemoveFile(path)
		}
		if b.Len() != 0 {
			rt.Fatalf("opposing intents on %s should cancel", path)
		}
	})
}

// In every emitted plan, a directory is created before any directory
// below it and removed after every directory below it.
func TestBuildOrderingLaw(t *testing.T) {
	store := NewStore(t.TempDir())
	rapid.Check(t, func(rt *rapid.T) {
		b := NewBuilder()
		n := rapid.IntRange(1, 30).Draw(rt, "pushes")
		for i := 0; i < n; i++ {
			path := genPath(rt)
			if rapid.Bool().Draw(rt, "create") {
				b.CreateDir(path)
			} else {
				b.RemoveDir(path)
			}
		}

		tr, err := b.Build(store, "law")
		if err != nil {
			rt.Fatalf("Build() error = %v", err)
		}

		isPrefix := func(a, b string) bool {
			return a != b && strings.HasPrefix(b, a+"/")
		}
		for i, p := range tr.Primitives {
			for _, q := range tr.Primitives[i+1:] {
				if p.Op == OpCreateDir && q.Op == OpCreateDir && isPrefix(q.Target, p.Target) {
					rt.Fatalf("CreateDir %s emitted before its ancestor %s", p.Target, q.Target)
				}
				if p.Op == OpRemoveDir && q.Op == OpRemoveDir && isPrefix(p.Target, q.Target) {
					rt.Fatalf("RemoveDir %s emitted before its descendant %s", p.Target, q.Target)
				}
			}
		}

		// Depth ordering also holds bucket-wide
		lastCreateDepth := 0
		for _, p := range tr.Primitives {
			if p.Op != OpCreateDir {
				continue
			}
			d := fs.Depth(p.Target)
			if d < lastCreateDepth {
				rt.Fatalf("CreateDir depths not ascending at %s", p.Target)
			}
			lastCreateDepth = d
		}
	})
}
