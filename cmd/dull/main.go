package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/justincordova/dull/internal/config"
	"github.com/justincordova/dull/internal/tx"
	"github.com/justincordova/dull/internal/workdir"
)

var (
	version = "0.1.0"

	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dull",
	Short: "A transactional dotfiles deployment tool",
	Long: `Dull composes declared module trees into a virtual system of
symlinks, then installs that overlay into the filesystem by re-linking
(soft deploy) or copying contents (hard deploy).

Every mutation runs as a transaction: a failed deployment rolls the
filesystem back to its prior state, and successful runs leave behind a
persisted undo transaction.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "dull.toml", "Config file declaring the modules")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print each primitive as it is applied")
}

// loadConfig reads the configuration named by the --config flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nCreate a dull.toml declaring your modules first", err)
	}
	return cfg, nil
}

// workDir anchors builds, transactions, the state file and the lock in
// the current working directory.
func workDir(cfg *config.Config) (*workdir.Dir, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	return workdir.New(cwd, cfg.Global.StateFile), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if tx.IsFatal(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
