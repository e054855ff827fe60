package filter

import "strings"

// Match returns every keyword found in the combined title and content text,
// matched case-insensitively as a substring. The result preserves the
// caller-supplied keyword order. An empty keyword set matches nothing, which
// the engine treats as "keep everything".
func Match(keywords []string, title, content string) []string {
	matched := []string{}
	if len(keywords) == 0 {
		return matched
	}

	haystack := strings.ToLower(title + " " + content)
	for _, kw := range keywords {
		needle := strings.ToLower(strings.TrimSpace(kw))
		if needle == "" {
			continue
		}
		if strings.Contains(haystack, needle) {
			matched = append(matched, kw)
		}
	}
	return matched
}
