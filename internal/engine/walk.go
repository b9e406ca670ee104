package engine

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"jsvet/internal/config"
	"jsvet/internal/logging"
)

// hiddenDirs decides which dot-directories a walk descends into. Hidden
// directories are skipped by default; a few conventional ones carry
// lintable scripts and are allowed through.
var hiddenDirs = map[string]bool{
	".github":    true,
	".vscode":    true,
	".storybook": true,
	".jsvet":     false, // internal state, always skip
	".git":       false, // always skip
}

// skipDir applies the hidden-directory policy and the ignore list to a
// directory below the walk root.
func skipDir(cfg *config.Config, root, path, name string) bool {
	if strings.HasPrefix(name, ".") {
		allow, known := hiddenDirs[name]
		return !known || !allow
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return cfg.IsIgnored(rel)
}

// ResolveTargets expands the command-line paths into the list of files
// to lint. Files named explicitly must exist and carry a configured
// extension; directories are walked recursively, honoring the ignore
// list and the hidden-directory policy. The result is deduplicated and
// sorted.
func ResolveTargets(cfg *config.Config, paths []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	seen := make(map[string]bool)
	var targets []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			targets = append(targets, path)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat target %s: %w", p, err)
		}

		if !info.IsDir() {
			if !cfg.MatchesExtension(p) {
				return nil, fmt.Errorf("%s: extension not in configured set %v", p, cfg.Extensions)
			}
			add(filepath.Clean(p))
			continue
		}

		if err := walkDir(cfg, p, add); err != nil {
			return nil, err
		}
	}

	sort.Strings(targets)
	logging.Scan("resolved %d target(s) from %d path argument(s)", len(targets), len(paths))
	return targets, nil
}

// walkDir collects lintable files under root.
func walkDir(cfg *config.Config, root string, add func(string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if skipDir(cfg, root, path, d.Name()) {
				logging.ScanDebug("skipping directory %s", path)
				return filepath.SkipDir
			}
			return nil
		}

		if !cfg.MatchesExtension(path) {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		if cfg.IsIgnored(rel) {
			return nil
		}

		add(path)
		return nil
	})
}

// WatchableDir reports whether a directory with this base name should
// be watched when it appears under an already-watched tree.
func WatchableDir(cfg *config.Config, name string) bool {
	if strings.HasPrefix(name, ".") {
		allow, known := hiddenDirs[name]
		return known && allow
	}
	return !cfg.IsIgnored(name)
}

// WatchDirs returns root and every descendant directory a filesystem
// watcher should monitor, under the same policy the lint walk uses.
func WatchDirs(cfg *config.Config, root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(cfg, root, path, d.Name()) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dirs, nil
}
