package scan

import (
	"fmt"
	"sort"
	"strings"
)

// Role classifies a file by the directory it lives in.
type Role string

const (
	RoleController Role = "controller"
	RoleService    Role = "service"
	RoleRepository Role = "repository"
)

// Profile describes which files of a repository are worth summarizing.
// A profile without RoleDirs keeps every file with an allowed extension.
type Profile struct {
	Name       string
	Extensions []string
	// RoleDirs maps a directory name to the role of files below it.
	RoleDirs           map[string]Role
	ServiceKeywords    []string
	RepositoryKeywords []string
	MinServiceLines    int
	// Always keep the first README.md and application.yml found.
	KeepReadme    bool
	KeepAppConfig bool
	// SnippetHead and SnippetTail are the characters of each file sent to the
	// model when the pipeline config leaves them at 0.
	SnippetHead int
	SnippetTail int
}

var profiles = map[string]Profile{
	"generic": {
		Name:        "generic",
		Extensions:  []string{".py", ".js", ".ts", ".sql", ".yml", ".yaml", ".md", ".java"},
		SnippetHead: 1500,
		SnippetTail: 1500,
	},
	"spring": {
		Name:       "spring",
		Extensions: []string{".java"},
		RoleDirs: map[string]Role{
			"controller": RoleController,
			"service":    RoleService,
			"repository": RoleRepository,
		},
		ServiceKeywords: []string{
			"@Transactional", "if (", "for (", "while (", "try {", "catch (",
			"throw new", "validate", "check", "Event", "publish",
		},
		RepositoryKeywords: []string{"@Query", "nativeQuery", "join", "fetch", "existsBy", "findBy", "countBy"},
		MinServiceLines:    40,
		KeepReadme:         true,
		KeepAppConfig:      true,
		SnippetHead:        800,
		SnippetTail:        800,
	},
	"fastapi": {
		Name:       "fastapi",
		Extensions: []string{".py"},
		RoleDirs: map[string]Role{
			"routers":  RoleController,
			"router":   RoleController,
			"api":      RoleController,
			"services": RoleService,
			"service":  RoleService,
			"crud":     RoleService,
			"db":       RoleRepository,
			"models":   RoleRepository,
			"schemas":  RoleRepository,
		},
		ServiceKeywords: []string{
			"Depends(", "def ", "async def", "if ", "for ", "while ", "try:",
			"except", "raise ", "validate", "process", "logic",
		},
		RepositoryKeywords: []string{
			"select(", "insert(", "update(", "delete(", "join(", "where(",
			"session.execute", "db.query", "await session", "commit()",
		},
		MinServiceLines: 40,
		KeepReadme:      true,
		KeepAppConfig:   true,
		SnippetHead:     800,
		SnippetTail:     800,
	},
	"django": {
		Name:       "django",
		Extensions: []string{".py"},
		RoleDirs: map[string]Role{
			"views":        RoleController,
			"serializers":  RoleController,
			"services":     RoleService,
			"models":       RoleRepository,
			"repositories": RoleRepository,
		},
		ServiceKeywords: []string{
			"def ", "class ", "if ", "for ", "try:", "except", "raise ", "validate", "process",
		},
		RepositoryKeywords: []string{
			".objects.filter", ".objects.get", ".objects.create", ".objects.update",
			".objects.exclude", ".objects.annotate", ".objects.aggregate",
			"select_related", "prefetch_related",
		},
		MinServiceLines: 40,
		KeepReadme:      true,
		KeepAppConfig:   true,
		SnippetHead:     800,
		SnippetTail:     800,
	},
}

// LookupProfile returns the named selection profile. The empty name selects
// "generic".
func LookupProfile(name string) (Profile, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "generic"
	}
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown selection profile %q (known: %s)", name, strings.Join(ProfileNames(), ", "))
	}
	return p, nil
}

// ProfileNames lists the registered profiles in sorted order.
func ProfileNames() []string {
	out := make([]string, 0, len(profiles))
	for k := range profiles {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// roleOf returns the role of the deepest directory of path listed in
// RoleDirs.
func (p Profile) roleOf(path string) (Role, bool) {
	parts := strings.Split(path, "/")
	for i := len(parts) - 2; i >= 0; i-- {
		if r, ok := p.RoleDirs[parts[i]]; ok {
			return r, true
		}
	}
	return "", false
}

func (p Profile) allowsExt(ext string) bool {
	for _, e := range p.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// keep applies the keyword and volume heuristics for role-based profiles.
func (p Profile) keep(role Role, content string) bool {
	switch role {
	case RoleService:
		return containsAny(content, p.ServiceKeywords) && strings.Count(content, "\n") >= p.MinServiceLines
	case RoleRepository:
		return containsAny(content, p.RepositoryKeywords)
	default:
		return true
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
