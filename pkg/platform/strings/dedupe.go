// Package strings provides string slice helpers.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each element and drops empties and repeats, keeping the
// first occurrence's position. Device token lists go through this before fan-out.
//
//	DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "}) // [foo bar]
func DedupeAndTrim(values []string) []string {
	return dedupe(values, strings.TrimSpace)
}

func dedupe(values []string, normalize func(string) string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		n := normalize(v)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
