package artifact

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Store persists analysis artifacts. scope groups the artifacts of one
// repository analysis (its repo_analysis_id); path is a slash-separated key
// inside the scope.
type Store interface {
	Put(ctx context.Context, scope, path string, content []byte) error
	Get(ctx context.Context, scope, path string) ([]byte, error)
	List(ctx context.Context, scope string) ([]string, error)
	// GetURL returns a shareable location, or "" when the backend has none.
	GetURL(ctx context.Context, scope, path string) (string, error)
}

var ErrNotFound = errors.New("artifact not found")

func validateKey(scope, path string) (string, string, error) {
	scope = strings.TrimSpace(scope)
	path = strings.TrimSpace(path)
	if scope == "" {
		return "", "", fmt.Errorf("scope is required")
	}
	if strings.Contains(scope, "..") || strings.ContainsAny(scope, `/\`) || filepath.IsAbs(scope) {
		return "", "", fmt.Errorf("invalid scope: %s", scope)
	}
	if path == "" {
		return "", "", fmt.Errorf("path is required")
	}
	if hasParentSegment(path) || filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return "", "", fmt.Errorf("invalid path: %s", path)
	}
	return scope, path, nil
}

func hasParentSegment(path string) bool {
	for _, seg := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}

func objectKey(scope, path string) string {
	return strings.TrimSpace(scope) + "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
}
