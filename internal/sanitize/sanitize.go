// Package sanitize strips markup from user-entered text before it is stored
// or copied into notifications.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()
	ugc    = bluemonday.UGCPolicy()
)

// Text removes every tag and returns plain, trimmed text.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// RichText keeps the safe formatting subset used by task descriptions.
func RichText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(ugc.Sanitize(s))
}

// List applies Text to every element and drops the ones left empty.
func List(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if v := Text(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}
