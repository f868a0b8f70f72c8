// Package module walks user-declared source trees and emits the link
// intents that feed the overlay build.
package module

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/justincordova/dull/internal/config"
	"github.com/justincordova/dull/internal/fs"
	"github.com/justincordova/dull/internal/tx"
)

// Module is a parsed source subtree: its root and the paths that should
// be linked into the target layout.
type Module struct {
	Path    string
	Sources []string
}

// directives marks directories whose traversal deviates from plain
// recursion: linkthis directories are linked whole, linkthese
// directories link each immediate child.
type directives struct {
	linkThis  map[string]bool
	linkThese map[string]bool
}

// Parser walks one module according to its config and the global
// directive filenames.
type Parser struct {
	moduleConfig config.ModuleConfig
	global       config.GlobalConfig
	ignore       []string
}

// NewParser returns a parser for the given module.
func NewParser(moduleConfig config.ModuleConfig, cfg *config.Config) *Parser {
	return &Parser{
		moduleConfig: moduleConfig,
		global:       cfg.Global,
		ignore:       cfg.IgnoreFilenames(),
	}
}

// Parse walks the module source tree and collects the paths to link.
func (p *Parser) Parse() (*Module, error) {
	source, err := config.ExpandPath(p.moduleConfig.Source)
	if err != nil {
		return nil, err
	}
	if !fs.IsDirNoFollow(source) {
		return nil, fmt.Errorf("module path %s is not a directory", source)
	}

	dirs, err := p.collectDirectives(source)
	if err != nil {
		return nil, err
	}

	var collected []string
	frontier := []string{source}
	for len(frontier) > 0 {
		curr := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		switch {
		case p.ignored(curr):
			continue
		case fs.IsFileOrSymlink(curr):
			collected = append(collected, curr)
		case dirs.linkThis[curr]:
			collected = append(collected, curr)
		default:
			children, err := p.children(curr)
			if err != nil {
				fmt.Printf("skipping due to error: %v\n", err)
				continue
			}
			if dirs.linkThese[curr] {
				collected = append(collected, children...)
				continue
			}
			for _, child := range children {
				if fs.IsDirNoFollow(child) {
					frontier = append(frontier, child)
				} else {
					collected = append(collected, child)
				}
			}
		}
	}

	return &Module{Path: source, Sources: collected}, nil
}

// collectDirectives gathers directives from marker files found in the
// tree and from the module configuration.
func (p *Parser) collectDirectives(source string) (directives, error) {
	dirs := directives{linkThis: map[string]bool{}, linkThese: map[string]bool{}}
	err := filepath.WalkDir(source, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		switch d.Name() {
		case p.global.LinkThisFile:
			dirs.linkThis[filepath.Dir(path)] = true
		case p.global.LinkTheseFile:
			dirs.linkThese[filepath.Dir(path)] = true
		}
		return nil
	})
	if err != nil {
		return dirs, fmt.Errorf("could not read the directives of %s: %w", source, err)
	}
	for _, rel := range p.moduleConfig.LinkThis {
		dirs.linkThis[p.resolveDirective(source, rel)] = true
	}
	for _, rel := range p.moduleConfig.LinkThese {
		dirs.linkThese[p.resolveDirective(source, rel)] = true
	}
	return dirs, nil
}

func (p *Parser) resolveDirective(source, path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(source, path)
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// children lists the directory's entries, skipping ignored filenames.
func (p *Parser) children(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not read the directory contents %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		child := filepath.Join(dir, entry.Name())
		if !p.ignored(child) {
			paths = append(paths, child)
		}
	}
	return paths, nil
}

// ignored matches the path's base name against the directive filenames
// and configured ignore patterns.
func (p *Parser) ignored(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range p.ignore {
		if pattern == base {
			return true
		}
		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}

// Emplace maps the module's collected sources to resolved links under
// the given target directory, preserving each source's position
// relative to the module root.
func (m *Module) Emplace(target string) ([]tx.ResolvedLink, error) {
	var links []tx.ResolvedLink
	for _, source := range m.Sources {
		rel := strings.TrimPrefix(source, m.Path)
		link, err := tx.NewResolvedLink(source, filepath.Join(target, rel))
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, nil
}
