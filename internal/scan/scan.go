package scan

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// DefaultExcludeDirs are directory names never descended into.
var DefaultExcludeDirs = []string{
	".git", ".svn", ".hg", ".idea", ".vscode", ".metadata", ".settings",
	"__pycache__", ".pytest_cache", ".mypy_cache", ".ruff_cache", ".tox",
	".venv", "venv", "node_modules", ".next", ".nuxt", ".svelte-kit",
	"dist", "build", "out", "target", "logs", "tmp", "temp",
}

// FileVisit carries per-entry metadata to user callbacks.
type FileVisit struct {
	// Repo-relative path using forward slashes (e.g., "src/app.go").
	Path string
	// Absolute filesystem path.
	AbsPath string
	// Lowercased extension (e.g., ".go", ".md"); empty for no-ext files.
	Ext string
	// File size in bytes; 0 when stat fails.
	Size int64
}

// VisitFunc is invoked for every regular file that survives directory
// exclusion. Returning an error stops the walk.
type VisitFunc func(f FileVisit) error

// Walk visits files under root in lexical order, skipping excluded
// directories and dot-entries.
func Walk(root string, excludeDirs []string, cb VisitFunc) error {
	skip := make(map[string]bool, len(excludeDirs))
	for _, d := range excludeDirs {
		skip[d] = true
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped, the root itself is not
			if path == root {
				return err
			}
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (skip[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		var size int64
		if fi, e := d.Info(); e == nil {
			size = fi.Size()
		}
		return cb(FileVisit{
			Path:    filepath.ToSlash(rel),
			AbsPath: path,
			Ext:     strings.ToLower(filepath.Ext(name)),
			Size:    size,
		})
	})
}
