package tx

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGeneratePersists(t *testing.T) {
	store := testStore(t)

	prims := []Primitive{CreateDir("/x"), Link("/m/a", "/x/f")}
	tr, err := store.Generate("deploy", prims)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !strings.HasPrefix(tr.ID, "deploy-") {
		t.Errorf("ID = %q, want a deploy- prefix", tr.ID)
	}
	if tr.BackupDir != filepath.Join(store.Root, tr.ID) {
		t.Errorf("BackupDir = %q, want it under the store root", tr.BackupDir)
	}
	if _, err := os.Stat(tr.BackupDir); err != nil {
		t.Fatalf("backup dir not created: %v", err)
	}

	// The persisted JSON carries the documented fields
	data, err := os.ReadFile(filepath.Join(tr.BackupDir, TxFileName))
	if err != nil {
		t.Fatalf("reading tx file: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("parsing tx file: %v", err)
	}
	for _, key := range []string{"id", "name", "backup_dir", "primitives"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("tx file is missing the %q field", key)
		}
	}
}

func TestGenerateUniqueIDs(t *testing.T) {
	store := testStore(t)

	a, err := store.Generate("same", nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	b, err := store.Generate("same", nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if a.ID == b.ID {
		t.Errorf("two builds share the id %q", a.ID)
	}
}

func TestReadTransaction(t *testing.T) {
	store := testStore(t)

	prims := []Primitive{
		CreateDir("/x"),
		Link("/m/a", "/x/f"),
		CopyFile("/m/b", "/x/g"),
		RemoveFile("/old"),
		RemoveDir("/olddir"),
		Nop(),
	}
	tr, err := store.Generate("roundtrip", prims)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	back, err := ReadTransaction(filepath.Join(tr.BackupDir, TxFileName))
	if err != nil {
		t.Fatalf("ReadTransaction() error = %v", err)
	}
	if back.ID != tr.ID || back.Name != tr.Name || back.BackupDir != tr.BackupDir {
		t.Errorf("read back %+v, want %+v", back, tr)
	}
	if len(back.Primitives) != len(prims) {
		t.Fatalf("read %d primitives, want %d", len(back.Primitives), len(prims))
	}
	for i, p := range back.Primitives {
		if p != prims[i] {
			t.Errorf("primitive %d = %s, want %s", i, p, prims[i])
		}
	}
}

func TestReadTransactionMissing(t *testing.T) {
	if _, err := ReadTransaction(filepath.Join(t.TempDir(), "tx")); err == nil {
		t.Error("ReadTransaction() should fail on a missing file")
	}
}

// A replayed transaction persists its undo next to the original.
func TestReadTransactionReplay(t *testing.T) {
	tempDir := t.TempDir()
	store := testStore(t)

	b := NewBuilder()
	b.CreateDir(filepath.Join(tempDir, "d"))
	tr, err := b.Build(store, "replay")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	replayed, err := ReadTransaction(filepath.Join(tr.BackupDir, TxFileName))
	if err != nil {
		t.Fatalf("ReadTransaction() error = %v", err)
	}
	result := replayed.RunAtomic(false)
	if !result.IsSuccess() {
		t.Fatalf("replay failed: %v", result.TxErr)
	}
	undo, _ := result.AsTx()
	if filepath.Dir(undo.BackupDir) != store.Root {
		t.Errorf("replay undo persisted at %s, want it under %s", undo.BackupDir, store.Root)
	}
}

func TestStoreList(t *testing.T) {
	store := testStore(t)

	if txs, err := store.List(); err != nil || len(txs) != 0 {
		t.Fatalf("List() on empty store = %v, %v", txs, err)
	}

	if _, err := store.Generate("one", nil); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if _, err := store.Generate("two", []Primitive{CreateDir("/x")}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	txs, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(txs) != 2 {
		t.Errorf("List() returned %d transactions, want 2", len(txs))
	}
}

func TestStoreListMissingRoot(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nonexistent"))
	txs, err := store.List()
	if err != nil || txs != nil {
		t.Errorf("List() on a missing root = %v, %v; want nil, nil", txs, err)
	}
}
