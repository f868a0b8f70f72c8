package tx

import (
	"fmt"

	"github.com/justincordova/dull/internal/report"
)

// Result is the outcome of an atomic run: success with a concrete undo
// transaction, a recoverable failure whose rollback restored the prior
// state, or a fatal failure where the rollback itself failed.
type Result struct {
	name string

	// Undo is the persisted inverse transaction; non-nil only on success.
	Undo *Transaction
	// TxErr is the primitive failure that stopped the run.
	TxErr error
	// RbErr is the rollback failure; non-nil means the filesystem is in
	// an indeterminate state and the backup directory was retained.
	RbErr error

	rolledBack bool
}

func success(name string, undo *Transaction) *Result {
	return &Result{name: name, Undo: undo}
}

func failure(name string, txErr error) *Result {
	return &Result{name: name, TxErr: txErr, rolledBack: true}
}

func fatal(name string, txErr, rbErr error) *Result {
	return &Result{name: name, TxErr: txErr, RbErr: rbErr, rolledBack: true}
}

// IsSuccess reports whether every primitive applied.
func (r *Result) IsSuccess() bool {
	return r.TxErr == nil
}

// IsFatal reports whether the rollback failed too.
func (r *Result) IsFatal() bool {
	return r.RbErr != nil
}

// AsTx returns the undo transaction, or the transaction error when the
// run did not succeed.
func (r *Result) AsTx() (*Transaction, error) {
	if r.TxErr != nil {
		return nil, fmt.Errorf("transaction failed: %w", r.TxErr)
	}
	return r.Undo, nil
}

// Report prints the structured outcome of the run.
func (r *Result) Report() {
	report.TxReport(r.name, r.TxErr, r.RbErr, r.rolledBack)
}
