package scan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"repodigest/internal/types"
)

// Selector picks the files of a repository that are sent to the summarizer.
type Selector struct {
	Profile     Profile
	ExcludeDirs []string
	// MaxFileBytes skips larger files; 0 disables the limit.
	MaxFileBytes int64
}

// NewSelector builds a selector for the named profile with the default
// exclusion list.
func NewSelector(profile string, maxFileBytes int64) (*Selector, error) {
	p, err := LookupProfile(profile)
	if err != nil {
		return nil, err
	}
	return &Selector{Profile: p, ExcludeDirs: DefaultExcludeDirs, MaxFileBytes: maxFileBytes}, nil
}

// Select walks root and returns the selected files in lexical path order.
func (s *Selector) Select(ctx context.Context, root string) ([]types.FileRecord, error) {
	if fi, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("repository root: %w", err)
	} else if !fi.IsDir() {
		return nil, fmt.Errorf("repository root %s is not a directory", root)
	}

	var (
		out         []types.FileRecord
		readmeSeen  bool
		appConfSeen bool
		skipped     int
	)
	err := Walk(root, s.ExcludeDirs, func(f FileVisit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.MaxFileBytes > 0 && f.Size > s.MaxFileBytes {
			skipped++
			return nil
		}
		base := f.Path[strings.LastIndex(f.Path, "/")+1:]

		pinned := false
		if s.Profile.KeepReadme && strings.EqualFold(base, "readme.md") {
			if readmeSeen {
				return nil
			}
			readmeSeen, pinned = true, true
		}
		if s.Profile.KeepAppConfig && base == "application.yml" {
			if appConfSeen {
				return nil
			}
			appConfSeen, pinned = true, true
		}

		var role Role
		if !pinned {
			if !s.Profile.allowsExt(f.Ext) {
				return nil
			}
			if len(s.Profile.RoleDirs) > 0 {
				r, ok := s.Profile.roleOf(f.Path)
				if !ok {
					return nil
				}
				role = r
			}
		}

		b, err := os.ReadFile(f.AbsPath)
		if err != nil {
			skipped++
			return nil
		}
		content := toValidUTF8(b)
		if role != "" && !s.Profile.keep(role, content) {
			return nil
		}
		out = append(out, types.FileRecord{Path: f.Path, Content: content, Size: f.Size})
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "file selection finished", "profile", s.Profile.Name, "selected", len(out), "skipped", skipped)
	return out, nil
}

// toValidUTF8 drops undecodable bytes, like reading with errors="ignore".
func toValidUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "")
}
