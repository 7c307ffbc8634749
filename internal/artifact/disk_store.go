package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiskStore persists artifacts under a local root directory by scope/path.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Put writes through a temp file and rename so a crash never leaves a
// half-written checkpoint behind.
func (s *DiskStore) Put(_ context.Context, scope, path string, content []byte) error {
	fullPath, err := s.pathFor(scope, path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), fullPath)
}

func (s *DiskStore) Get(_ context.Context, scope, path string) ([]byte, error) {
	fullPath, err := s.pathFor(scope, path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return b, err
}

// GetURL returns a file:// location for the artifact.
func (s *DiskStore) GetURL(_ context.Context, scope, path string) (string, error) {
	fullPath, err := s.pathFor(scope, path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(fullPath)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}

func (s *DiskStore) List(_ context.Context, scope string) ([]string, error) {
	scopeRoot, err := s.scopeRoot(scope)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, 32)
	walkErr := filepath.WalkDir(scopeRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(scopeRoot, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if walkErr != nil {
		if os.IsNotExist(walkErr) {
			return []string{}, nil
		}
		return nil, walkErr
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *DiskStore) scopeRoot(scope string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("store is nil")
	}
	scope, _, err := validateKey(scope, "_")
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, scope), nil
}

func (s *DiskStore) pathFor(scope, path string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("store is nil")
	}
	scope, path, err := validateKey(scope, path)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, scope, filepath.FromSlash(path)), nil
}
