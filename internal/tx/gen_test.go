package tx

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDirs(t *testing.T) {
	tempDir := t.TempDir()

	existing := filepath.Join(tempDir, "existing")
	if err := os.Mkdir(existing, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	b := NewBuilder()
	target := filepath.Join(existing, "a", "b", "c")
	if err := EnsureDirs(b, target); err != nil {
		t.Fatalf("EnsureDirs() error = %v", err)
	}

	// Only the missing ancestors are planned; tempDir and existing are on disk
	for _, p := range []string{tempDir, existing} {
		if b.WillCreateDir(p) {
			t.Errorf("existing directory %s should not be planned", p)
		}
	}
	for _, p := range []string{
		filepath.Join(existing, "a"),
		filepath.Join(existing, "a", "b"),
		target,
	} {
		if !b.WillCreateDir(p) {
			t.Errorf("missing directory %s should be planned", p)
		}
	}
}

func TestEnsureDirsSkipsPlanned(t *testing.T) {
	tempDir := t.TempDir()

	b := NewBuilder()
	if err := EnsureDirs(b, filepath.Join(tempDir, "a", "b")); err != nil {
		t.Fatalf("EnsureDirs() error = %v", err)
	}
	planned := b.Len()

	// Re-planning an overlapping subtree adds only the new leaf
	if err := EnsureDirs(b, filepath.Join(tempDir, "a", "b", "c")); err != nil {
		t.Fatalf("EnsureDirs() error = %v", err)
	}
	if b.Len() != planned+1 {
		t.Errorf("Len() = %d, want %d", b.Len(), planned+1)
	}
}

func TestRemoveDirAll(t *testing.T) {
	tempDir := t.TempDir()

	// /t/a/b/{c.txt,d.txt}, /t/e.txt, plus a symlink
	root := filepath.Join(tempDir, "t")
	deep := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(deep, 0755); err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}
	for _, f := range []string{filepath.Join(deep, "c.txt"), filepath.Join(deep, "d.txt"), filepath.Join(root, "e.txt")} {
		if err := os.WriteFile(f, []byte("x"), 0644); err != nil {
			t.Fatalf("failed to create %s: %v", f, err)
		}
	}
	if err := os.Symlink(filepath.Join(root, "e.txt"), filepath.Join(root, "ln")); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	b := NewBuilder()
	if err := RemoveDirAll(b, root); err != nil {
		t.Fatalf("RemoveDirAll() error = %v", err)
	}

	// Files and the symlink are removals; directories are dir removals
	for _, f := range []string{filepath.Join(deep, "c.txt"), filepath.Join(root, "e.txt"), filepath.Join(root, "ln")} {
		if !b.WillRemoveFile(f) {
			t.Errorf("%s should be planned as a file removal", f)
		}
	}
	for _, d := range []string{root, filepath.Join(root, "a"), deep} {
		if !b.WillRemoveDir(d) {
			t.Errorf("%s should be planned as a dir removal", d)
		}
	}
}

func TestRemoveDirAllRejectsFiles(t *testing.T) {
	tempDir := t.TempDir()

	file := filepath.Join(tempDir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := RemoveDirAll(NewBuilder(), file); err == nil {
		t.Error("RemoveDirAll() should reject a file target")
	}

	// A symlink to a directory is not a directory either
	dir := filepath.Join(tempDir, "dir")
	link := filepath.Join(tempDir, "link")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.Symlink(dir, link); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}
	if err := RemoveDirAll(NewBuilder(), link); err == nil {
		t.Error("RemoveDirAll() should reject a symlink target")
	}
}

func TestRemoveAny(t *testing.T) {
	tempDir := t.TempDir()

	file := filepath.Join(tempDir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	dir := filepath.Join(tempDir, "dir")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	inner := filepath.Join(dir, "inner.txt")
	if err := os.WriteFile(inner, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	dirLink := filepath.Join(tempDir, "dirlink")
	if err := os.Symlink(dir, dirLink); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	b := NewBuilder()
	if err := RemoveAny(b, file); err != nil {
		t.Fatalf("RemoveAny() error = %v", err)
	}
	if !b.WillRemoveFile(file) {
		t.Error("file target should plan a file removal")
	}

	b = NewBuilder()
	if err := RemoveAny(b, dir); err != nil {
		t.Fatalf("RemoveAny() error = %v", err)
	}
	if !b.WillRemoveDir(dir) || !b.WillRemoveFile(inner) {
		t.Error("dir target should plan a recursive removal")
	}

	// A symlink to a directory only removes the symlink
	b = NewBuilder()
	if err := RemoveAny(b, dirLink); err != nil {
		t.Fatalf("RemoveAny() error = %v", err)
	}
	if !b.WillRemoveFile(dirLink) {
		t.Error("symlink target should plan a file removal")
	}
	if b.WillRemoveDir(dir) || b.WillRemoveFile(inner) {
		t.Error("symlink target should not descend into the directory")
	}
}

func TestCreateLinks(t *testing.T) {
	tempDir := t.TempDir()
	root := filepath.Join(tempDir, "builds", "b1")

	links := []ResolvedLink{
		{AbsSource: "/m/a/file.txt", AbsTarget: "/home/u/file.txt"},
		{AbsSource: "/m/a/other.txt", AbsTarget: "/home/u/conf/other.txt"},
	}
	b := NewBuilder()
	if err := CreateLinks(b, root, links); err != nil {
		t.Fatalf("CreateLinks() error = %v", err)
	}

	// Targets are re-rooted under the build dir with the leading / stripped
	vpath := filepath.Join(root, "home", "u", "file.txt")
	if !b.WillCreateFile(vpath) {
		t.Errorf("%s should be planned", vpath)
	}
	vpath2 := filepath.Join(root, "home", "u", "conf", "other.txt")
	if !b.WillCreateFile(vpath2) {
		t.Errorf("%s should be planned", vpath2)
	}
	for _, d := range []string{
		root,
		filepath.Join(root, "home"),
		filepath.Join(root, "home", "u"),
		filepath.Join(root, "home", "u", "conf"),
	} {
		if !b.WillCreateDir(d) {
			t.Errorf("ancestor %s should be planned", d)
		}
	}
}

func TestNewResolvedLinkExpands(t *testing.T) {
	link, err := NewResolvedLink("/m//a/../a/file.txt", "/home/u/./file.txt")
	if err != nil {
		t.Fatalf("NewResolvedLink() error = %v", err)
	}
	if link.AbsSource != "/m/a/file.txt" {
		t.Errorf("AbsSource = %s, want /m/a/file.txt", link.AbsSource)
	}
	if link.AbsTarget != "/home/u/file.txt" {
		t.Errorf("AbsTarget = %s, want /home/u/file.txt", link.AbsTarget)
	}
}
