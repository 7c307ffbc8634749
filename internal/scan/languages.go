package scan

import (
	"path"
	"sort"
	"strings"

	"repodigest/internal/types"
)

var extLanguage = map[string]string{
	".py":    "Python",
	".js":    "JavaScript",
	".jsx":   "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".java":  "Java",
	".kt":    "Kotlin",
	".go":    "Go",
	".rb":    "Ruby",
	".rs":    "Rust",
	".cs":    "C#",
	".cpp":   "C++",
	".c":     "C",
	".php":   "PHP",
	".swift": "Swift",
	".sql":   "SQL",
}

// LanguageOf maps a lowercased extension to a programming language name.
// Markup and config files have no language.
func LanguageOf(ext string) (string, bool) {
	l, ok := extLanguage[ext]
	return l, ok
}

// RankLanguages returns the languages of files ordered by total bytes,
// largest first; ties are broken by name.
func RankLanguages(files []types.FileRecord) []string {
	bytes := map[string]int64{}
	for _, f := range files {
		if l, ok := LanguageOf(strings.ToLower(path.Ext(f.Path))); ok {
			n := f.Size
			if n == 0 {
				n = int64(len(f.Content))
			}
			bytes[l] += n
		}
	}
	out := make([]string, 0, len(bytes))
	for l := range bytes {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if bytes[out[i]] != bytes[out[j]] {
			return bytes[out[i]] > bytes[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
