package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justincordova/dull/internal/overlay"
	"github.com/justincordova/dull/internal/report"
	"github.com/justincordova/dull/internal/tx"
)

var undeployCmd = &cobra.Command{
	Use:   "undeploy",
	Short: "Remove the deployed leaves from the filesystem",
	Long: `Undeploy removes every installed leaf of the overlay. Only the
leaves go; the directories containing them are left in place.

Examples:
  dull undeploy                     # Undeploy the last build
  dull undeploy --build builds/laptop`,
	Args: cobra.NoArgs,
	RunE: runUndeploy,
}

func init() {
	undeployCmd.Flags().String("build", "", "Overlay to undeploy (defaults to the last build)")
	rootCmd.AddCommand(undeployCmd)
}

func runUndeploy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	wd, err := workDir(cfg)
	if err != nil {
		return err
	}
	if err := wd.AcquireLock(); err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	defer wd.ReleaseLock()

	buildPath, err := resolveBuild(cmd, wd)
	if err != nil {
		return err
	}
	sys, err := overlay.Read(buildPath, cfg.Global.BuildFile)
	if err != nil {
		return err
	}

	proc := tx.NewProcessor("undeploy", verbose)
	if err := sys.Undeploy(proc, wd.TxStore()); err != nil {
		return err
	}
	report.Success("undeployed %s", sys.Name())
	return nil
}
