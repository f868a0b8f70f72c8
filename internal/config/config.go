package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// Default names of the special files dull leaves in the trees it manages.
const (
	DefaultBuildFile     = ".dull-build"
	DefaultStateFile     = ".dull-state"
	DefaultLinkThisFile  = ".dull-linkthis"
	DefaultLinkTheseFile = ".dull-linkthese"
)

// ModuleConfig declares a single module: a source subtree and the
// target directory its contents should be mapped under.
type ModuleConfig struct {
	Source    string   `mapstructure:"source"`
	Target    string   `mapstructure:"target"`
	LinkThis  []string `mapstructure:"linkthis"`
	LinkThese []string `mapstructure:"linkthese"`
}

// GlobalConfig holds the settings shared by every module.
type GlobalConfig struct {
	BuildFile      string   `mapstructure:"build_file"`
	StateFile      string   `mapstructure:"state_file"`
	LinkThisFile   string   `mapstructure:"linkthis_file"`
	LinkTheseFile  string   `mapstructure:"linkthese_file"`
	IgnorePatterns []string `mapstructure:"ignore_patterns"`
}

// IncludeConfig points at another config file whose modules are merged in.
type IncludeConfig struct {
	Path string `mapstructure:"path"`
}

// Config represents a dull configuration file
type Config struct {
	Include []IncludeConfig `mapstructure:"include"`
	Global  GlobalConfig    `mapstructure:"global"`
	Module  []ModuleConfig  `mapstructure:"module"`
}

// IgnoreFilenames returns the filenames that module walks must skip:
// the directive files plus any configured ignore patterns.
func (c *Config) IgnoreFilenames() []string {
	names := []string{c.Global.LinkThisFile, c.Global.LinkTheseFile}
	return append(names, c.Global.IgnorePatterns...)
}

// Load reads the config file at the given path and resolves its
// includes recursively. Included modules come before the including
// file's own modules; a broken include is skipped with a warning.
func Load(path string) (*Config, error) {
	return load(path, map[string]bool{})
}

func load(path string, visited map[string]bool) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolutizing config path: %w", err)
	}
	if visited[abs] {
		return nil, fmt.Errorf("config include cycle at %s", abs)
	}
	visited[abs] = true

	v := viper.New()
	v.SetConfigFile(abs)
	v.SetDefault("global.build_file", DefaultBuildFile)
	v.SetDefault("global.state_file", DefaultStateFile)
	v.SetDefault("global.linkthis_file", DefaultLinkThisFile)
	v.SetDefault("global.linkthese_file", DefaultLinkTheseFile)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", abs, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", abs, err)
	}

	// Resolve includes relative to the including file.
	var merged []ModuleConfig
	for _, inc := range cfg.Include {
		incPath := inc.Path
		if !filepath.IsAbs(incPath) {
			incPath = filepath.Join(filepath.Dir(abs), incPath)
		}
		included, err := load(incPath, visited)
		if err != nil {
			fmt.Printf("skipping include %s: %v\n", incPath, err)
			continue
		}
		merged = append(merged, included.Module...)
	}
	cfg.Module = append(merged, cfg.Module...)

	return &cfg, nil
}
