// Package commits loads exported commit history and reduces it to the sample
// sent to the commit-style prompt.
package commits

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"repodigest/internal/types"
)

// Load reads a commit metadata file.
func Load(path string) (types.CommitMetadata, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return types.CommitMetadata{}, fmt.Errorf("read commit metadata: %w", err)
	}
	var meta types.CommitMetadata
	if err := json.Unmarshal(b, &meta); err != nil {
		return types.CommitMetadata{}, fmt.Errorf("parse commit metadata %s: %w", path, err)
	}
	return meta, nil
}

// Sample keeps every message when there are at most max of them. Otherwise it
// keeps the first max/2 and the last max-max/2, so the result never exceeds
// max. Authors are unique and sorted.
func Sample(meta types.CommitMetadata, max int) types.CommitSample {
	total := meta.TotalCommits
	if total == 0 {
		total = len(meta.Commits)
	}
	return types.CommitSample{
		TotalCommits:   total,
		Authors:        authors(meta.Commits),
		SampleMessages: sampleMessages(meta.Commits, max),
	}
}

func authors(commits []types.Commit) []string {
	seen := make(map[string]struct{}, len(commits))
	out := make([]string, 0, len(commits))
	for _, c := range commits {
		name := strings.TrimSpace(c.AuthorName)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func sampleMessages(commits []types.Commit, max int) []string {
	if max < 0 {
		max = 0
	}
	msgs := make([]string, 0, len(commits))
	for _, c := range commits {
		msgs = append(msgs, c.Message)
	}
	if len(msgs) <= max {
		return msgs
	}
	head := max / 2
	tail := max - head
	out := make([]string, 0, max)
	out = append(out, msgs[:head]...)
	out = append(out, msgs[len(msgs)-tail:]...)
	return out
}
