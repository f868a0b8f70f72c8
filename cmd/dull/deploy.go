package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justincordova/dull/internal/overlay"
	"github.com/justincordova/dull/internal/report"
	"github.com/justincordova/dull/internal/tx"
	"github.com/justincordova/dull/internal/workdir"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Install the built virtual system into the filesystem",
	Long: `Deploy reads the last built overlay (or the one named by --build),
ensures the target directories exist, then installs every leaf.

A soft deploy links targets back to the module sources; a hard deploy
copies their contents instead. The phases run as one workflow: if a
required step fails, everything committed before it is unwound.

Examples:
  dull deploy                 # Soft-deploy the last build
  dull deploy --hard          # Copy contents instead of linking
  dull deploy --clear         # Remove existing targets first
  dull deploy --build builds/laptop`,
	Args: cobra.NoArgs,
	RunE: runDeploy,
}

func init() {
	deployCmd.Flags().Bool("hard", false, "Copy file contents instead of symlinking")
	deployCmd.Flags().Bool("clear", false, "Remove existing targets before deploying")
	deployCmd.Flags().String("build", "", "Overlay to deploy (defaults to the last build)")
	rootCmd.AddCommand(deployCmd)
}

// resolveBuild returns the overlay path named by the flag, falling back
// to the recorded state.
func resolveBuild(cmd *cobra.Command, wd *workdir.Dir) (string, error) {
	buildPath, _ := cmd.Flags().GetString("build")
	if buildPath != "" {
		return buildPath, nil
	}
	buildPath, err := wd.ReadState()
	if err != nil {
		return "", fmt.Errorf("no build to deploy, run 'dull build' first: %w", err)
	}
	return buildPath, nil
}

func runDeploy(cmd *cobra.Command, args []string) error {
	hard, _ := cmd.Flags().GetBool("hard")
	clear, _ := cmd.Flags().GetBool("clear")

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
	undeployable, err := overlay.Read(buildPath, cfg.Global.BuildFile)
	if err != nil {
		return err
	}

	store := wd.TxStore()
	proc := tx.NewProcessor("deploy", verbose)
	deployable, err := undeployable.PrepareDeployment(proc, store, clear)
	if err != nil {
		return err
	}
	if hard {
		err = deployable.HardDeploy(proc, store, cfg.IgnoreFilenames())
	} else {
		err = deployable.SoftDeploy(proc, store)
	}
	if err != nil {
		return err
	}
	report.Success("deployed %s", undeployable.Name())
	return nil
}
