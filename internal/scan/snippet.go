package scan

// TruncationMarker separates head and tail of a truncated snippet.
const TruncationMarker = "\n\n# --- truncated ---\n\n"

// MakeSnippet keeps content that fits in head+tail characters unchanged;
// longer content is reduced to its first head and last tail characters joined
// by TruncationMarker. Characters are runes, so multi-byte text is never split.
func MakeSnippet(content string, head, tail int) string {
	if head < 0 {
		head = 0
	}
	if tail < 0 {
		tail = 0
	}
	// fast path: byte length bounds rune count
	if len(content) <= head+tail {
		return content
	}
	runes := []rune(content)
	if len(runes) <= head+tail {
		return content
	}
	return string(runes[:head]) + TruncationMarker + string(runes[len(runes)-tail:])
}
