package domain

import (
	"strings"
	"time"
)

// Tag is a content label with a popularity counter.
//
// UsageCount counts how many questions ever introduced the tag. It is
// incremented once per question that newly attaches the tag and never
// decremented when the tag is removed again: the counter is a monotonic
// popularity signal, not a live reference count.
type Tag struct {
	ID         int64
	Name       string
	UsageCount int64
	CreatedAt  time.Time
}

// NormalizeTagName lowercases and trims a raw tag name.
// Tag uniqueness is defined over the normalized form.
func NormalizeTagName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizeTagSet normalizes a list of raw tag names and drops
// duplicates while preserving first-seen order.
func NormalizeTagSet(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		name := NormalizeTagName(r)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
