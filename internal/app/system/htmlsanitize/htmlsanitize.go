// Package htmlsanitize strips markup from user-supplied free text before it
// is stored.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every tag. Content of script and style elements is dropped.
var strict = bluemonday.StrictPolicy()

// PlainText returns s with all HTML removed and surrounding space trimmed.
// Entities are decoded so "Rao &amp; Sons" is stored as "Rao & Sons".
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

