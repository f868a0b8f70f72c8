package main

import (
	"github.com/spf13/cobra"

	"github.com/justincordova/dull/internal/report"
	"github.com/justincordova/dull/internal/tx"
)

var runTxCmd = &cobra.Command{
	Use:   "run-transaction [tx-file]",
	Short: "Replay a persisted transaction",
	Long: `Run-transaction reads a serialized transaction and executes it.
This is the manual driver for undo transactions left behind by earlier
runs and for post-mortem replays.

Examples:
  dull run-transaction transactions/Undosoft-deploy-123456/tx
  dull run-transaction transactions/build-42/tx --haphazard`,
	Args: cobra.ExactArgs(1),
	RunE: runRunTx,
}

func init() {
	runTxCmd.Flags().Bool("haphazard", false, "Run without backups, stopping at the first error")
	rootCmd.AddCommand(runTxCmd)
}

func runRunTx(cmd *cobra.Command, args []string) error {
	haphazard, _ := cmd.Flags().GetBool("haphazard")

	t, err := tx.ReadTransaction(args[0])
	if err != nil {
		return err
	}

	if haphazard {
		if err := t.RunHaphazard(verbose); err != nil {
			return err
		}
		report.Success("executed %s", t.ID)
		return nil
	}

	result := t.RunAtomic(verbose)
	result.Report()
	if result.IsFatal() {
		return &tx.FatalError{TxErr: result.TxErr, RbErr: result.RbErr, BackupDir: t.BackupDir}
	}
	_, err = result.AsTx()
	return err
}
