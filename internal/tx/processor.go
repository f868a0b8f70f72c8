package tx

import (
	"errors"
	"fmt"

	"github.com/justincordova/dull/internal/report"
)

// FatalError reports that the filesystem could not be restored
// automatically. The retained backup directory is advertised for
// manual recovery.
type FatalError struct {
	TxErr     error
	RbErr     error
	BackupDir string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal failure: filesystem could not be restored (backups at %s): %v; rollback: %v",
		e.BackupDir, e.TxErr, e.RbErr)
}

// IsFatal reports whether err carries a fatal, non-recoverable failure.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// Processor runs a sequence of atomic transactions as one workflow,
// holding the growing history of their inverses so a required step's
// failure can unwind everything committed before it.
type Processor struct {
	name      string
	verbose   bool
	processed []*Transaction
}

// NewProcessor returns a processor for the named workflow.
func NewProcessor(name string, verbose bool) *Processor {
	return &Processor{name: name, verbose: verbose}
}

// RunOptional runs the transaction atomically. Its failure does not
// affect the transactions already committed; the undo of a successful
// run is pushed onto the history. A fatal failure is returned as a
// *FatalError and ends the workflow unconditionally.
func (pr *Processor) RunOptional(t *Transaction) error {
	result := t.RunAtomic(pr.verbose)
	if !result.IsSuccess() {
		result.Report()
	}
	if result.IsFatal() {
		return &FatalError{TxErr: result.TxErr, RbErr: result.RbErr, BackupDir: t.BackupDir}
	}
	undo, err := result.AsTx()
	if err != nil {
		return err
	}
	pr.processed = append(pr.processed, undo)
	return nil
}

// RunRequired runs the transaction atomically; on a recoverable failure
// every previously-committed transaction of this workflow is unwound in
// reverse before the error is returned.
func (pr *Processor) RunRequired(t *Transaction) error {
	err := pr.RunOptional(t)
	if err == nil {
		return nil
	}
	if IsFatal(err) {
		return err
	}
	report.Header("Rolling %s back due to error", pr.name)
	if rbErr := pr.rollback(); rbErr != nil {
		return rbErr
	}
	return err
}

// rollback drains the history in reverse, running each undo
// transaction without backups. Any failure here is fatal: the workflow
// state can no longer be restored automatically.
func (pr *Processor) rollback() error {
	for i := len(pr.processed) - 1; i >= 0; i-- {
		undo := pr.processed[i]
		if err := undo.RunHaphazard(pr.verbose); err != nil {
			pr.processed = pr.processed[:i]
			return &FatalError{
				TxErr:     fmt.Errorf("could not undo the previous transaction %s: %w", undo.ID, err),
				RbErr:     err,
				BackupDir: undo.BackupDir,
			}
		}
	}
	pr.processed = nil
	return nil
}

// Processed returns the number of committed transactions held for
// workflow-level rollback.
func (pr *Processor) Processed() int {
	return len(pr.processed)
}
