package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justincordova/dull/internal/module"
	"github.com/justincordova/dull/internal/overlay"
	"github.com/justincordova/dull/internal/report"
	"github.com/justincordova/dull/internal/tx"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compose the declared modules into a virtual system",
	Long: `Build walks every module declared in the config, resolves its link
intents, and materializes them as a symlink tree under builds/.

The resulting overlay mirrors the intended absolute target layout; the
path of the last successful build is recorded in the state file.

Examples:
  dull build                 # Build under a random name
  dull build --name laptop   # Build under builds/laptop`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("name", "", "Name of the build (random if omitted)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")

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

	var links []tx.ResolvedLink
	for _, moduleConfig := range cfg.Module {
		parsed, err := module.NewParser(moduleConfig, cfg).Parse()
		if err != nil {
			return fmt.Errorf("parsing module %s: %w", moduleConfig.Source, err)
		}
		emplaced, err := parsed.Emplace(moduleConfig.Target)
		if err != nil {
			return fmt.Errorf("emplacing module %s: %w", moduleConfig.Source, err)
		}
		links = append(links, emplaced...)
	}
	if verbose {
		for _, link := range links {
			fmt.Printf("%s => %s\n", link.AbsTarget, link.AbsSource)
		}
	}

	buildPath, err := overlay.Build(wd.TxStore(), wd.BuildsRoot(), name, cfg.Global.BuildFile, links, verbose)
	if err != nil {
		return err
	}
	if err := wd.WriteState(buildPath); err != nil {
		return err
	}
	report.Success("built the virtual system at %s", buildPath)
	return nil
}
