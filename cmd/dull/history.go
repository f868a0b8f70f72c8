package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the persisted transactions",
	Long: `History lists every transaction persisted under transactions/,
including the undo transactions of successful runs and the retained
backups of fatal failures.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	wd, err := workDir(cfg)
	if err != nil {
		return err
	}

	txs, err := wd.TxStore().List()
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Println("No persisted transactions.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Primitives", "Backup Files"})
	for _, t := range txs {
		table.Append([]string{
			t.ID,
			t.Name,
			strconv.Itoa(len(t.Primitives)),
			strconv.Itoa(t.BackupFileCount()),
		})
	}
	table.Render()
	return nil
}
