package tx

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
)

// TxFileName is the name of the serialized transaction inside its
// backup directory.
const TxFileName = "tx"

// Store anchors transaction persistence to a directory. The engine
// holds no global state; the CLI passes in the working-directory store.
type Store struct {
	Root string
}

// NewStore returns a store rooted at the given directory, typically
// {cwd}/transactions.
func NewStore(root string) *Store {
	return &Store{Root: root}
}

// Transaction is an immutable, named, persisted list of ordered
// primitives with an associated backup directory.
type Transaction struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	BackupDir  string      `json:"backup_dir"`
	Primitives []Primitive `json:"primitives"`

	store *Store
}

// Generate creates the transaction's backup directory under the store
// root, persists the transaction as JSON inside it, and returns the
// value. The id is the name suffixed with a random token so repeated
// builds of the same plan never collide.
func (s *Store) Generate(name string, primitives []Primitive) (*Transaction, error) {
	id := fmt.Sprintf("%s-%d", name, rand.Uint32())
	backupDir := filepath.Join(s.Root, id)
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create the backup directory %s: %w", backupDir, err)
	}
	if primitives == nil {
		primitives = []Primitive{}
	}
	t := &Transaction{
		ID:         id,
		Name:       name,
		BackupDir:  backupDir,
		Primitives: primitives,
		store:      s,
	}
	if err := t.persist(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Transaction) persist() error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("could not serialize transaction %s: %w", t.ID, err)
	}
	txPath := filepath.Join(t.BackupDir, TxFileName)
	if err := os.WriteFile(txPath, data, 0644); err != nil {
		return fmt.Errorf("could not write transaction file %s: %w", txPath, err)
	}
	return nil
}

// ReadTransaction deserializes a transaction from its persisted file.
// The store is inferred from the recorded backup directory, so a replay
// persists its undo next to the original.
func ReadTransaction(path string) (*Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read transaction file %s: %w", path, err)
	}
	var t Transaction
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("could not parse transaction file %s: %w", path, err)
	}
	t.store = NewStore(filepath.Dir(t.BackupDir))
	return &t, nil
}

// List returns every transaction persisted under the store root,
// ordered by id. Directories without a readable tx file are skipped.
func (s *Store) List() ([]*Transaction, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading transaction store %s: %w", s.Root, err)
	}
	var txs []*Transaction
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		t, err := ReadTransaction(filepath.Join(s.Root, entry.Name(), TxFileName))
		if err != nil {
			continue
		}
		txs = append(txs, t)
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].ID < txs[j].ID })
	return txs, nil
}

// BackupFileCount counts the backup files retained in the transaction's
// directory, excluding the serialized transaction itself.
func (t *Transaction) BackupFileCount() int {
	entries, err := os.ReadDir(t.BackupDir)
	if err != nil {
		return 0
	}
	count := 0
	for _, entry := range entries {
		if entry.Name() != TxFileName {
			count++
		}
	}
	return count
}
