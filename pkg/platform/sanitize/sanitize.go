// Package sanitize strips markup from user-supplied free text before it is stored
// or pushed to devices.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text removes all HTML, unescapes entities and trims. The result is truncated to
// maxRunes when maxRunes > 0.
func Text(s string, maxRunes int) string {
	out := strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
	if maxRunes > 0 {
		if r := []rune(out); len(r) > maxRunes {
			out = strings.TrimSpace(string(r[:maxRunes]))
		}
	}
	return out
}
