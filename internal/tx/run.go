package tx

import (
	"fmt"
	"os"

	"github.com/justincordova/dull/internal/report"
)

// runSequentially applies the given primitives in order. When inv is
// non-nil, every returned inverse is prepended to it so the collected
// list stays in rollback order.
func runSequentially(primitives []Primitive, inv *[]Primitive, backupDir string, icon string) error {
	for _, p := range primitives {
		if icon != "" {
			report.Step(icon, p.String())
		}
		pInv, err := p.Apply(backupDir)
		if err != nil {
			return err
		}
		if inv != nil {
			*inv = append([]Primitive{pInv}, *inv...)
		}
	}
	return nil
}

// RunHaphazard applies the primitives in order with no backup and no
// inverse tracking, stopping at the first error.
func (t *Transaction) RunHaphazard(verbose bool) error {
	icon := ""
	if verbose {
		report.Header("Running filesystem modifications (%s)", t.Name)
		icon = "."
	}
	if err := runSequentially(t.Primitives, nil, "", icon); err != nil {
		report.Failure("execution failed")
		return err
	}
	if verbose {
		report.Success("execution succeeded")
	}
	return nil
}

// RunAtomic applies the primitives in order against the transaction's
// backup directory. On success the collected inverses are re-planned
// into a fresh, persisted undo transaction. On failure the inverses of
// the applied prefix run in reverse; if that restores the prior state
// the result is a recoverable failure and the backup directory is
// removed, otherwise the failure is fatal and the backups are retained
// for manual recovery.
func (t *Transaction) RunAtomic(verbose bool) *Result {
	icon := ""
	if verbose {
		report.Header("Running transaction (%s)", t.Name)
		icon = "→"
	}
	// Rejections before any primitive runs have nothing to roll back.
	if t.BackupDir == "" {
		return &Result{name: t.Name, TxErr: fmt.Errorf("transaction %s has no backup directory", t.ID)}
	}
	for _, p := range t.Primitives {
		if !p.Reversible(t.BackupDir) {
			return &Result{name: t.Name, TxErr: fmt.Errorf("non-reversible primitive in atomic transaction: %s", p)}
		}
	}
	if err := os.MkdirAll(t.BackupDir, 0755); err != nil {
		return &Result{name: t.Name, TxErr: fmt.Errorf("could not create the backup directory: %w", err)}
	}

	var inv []Primitive
	txErr := runSequentially(t.Primitives, &inv, t.BackupDir, icon)

	var undo *Transaction
	if txErr == nil {
		// Re-plan the inverses through a fresh builder so the undo plan
		// is itself bucketed and depth-ordered.
		b := NewBuilder()
		for _, p := range inv {
			b.Push(p)
		}
		undo, txErr = b.Build(t.store, "Undo"+t.Name)
	}

	if txErr == nil {
		if verbose {
			report.Success("transaction succeeded")
		}
		return success(t.Name, undo)
	}

	report.Failure("transaction failed, trying to roll back")
	rbIcon := ""
	if verbose {
		rbIcon = "←"
	}
	if rbErr := runSequentially(inv, nil, "", rbIcon); rbErr != nil {
		report.Failure("transaction rollback failed")
		report.Warn("backed up files remain at %s", t.BackupDir)
		return fatal(t.Name, txErr, rbErr)
	}
	report.Success("transaction rollback succeeded")
	// The inverses were executed; the retained backups serve no further
	// purpose.
	_ = os.RemoveAll(t.BackupDir)
	return failure(t.Name, txErr)
}
