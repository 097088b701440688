// Package strings holds small helpers for comma-separated settings.
package strings

import (
	"strings"
)

// Fields splits a comma-separated value, trimming each entry and dropping
// empties. Repeats are kept.
func Fields(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// SplitList is Fields with repeats dropped. Order is preserved.
//
//	SplitList(" a, b,,a ") // []string{"a", "b"}
func SplitList(s string) []string {
	fields := Fields(s)
	if fields == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
