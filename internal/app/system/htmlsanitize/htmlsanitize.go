// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize cleans user-supplied text before it is stored.
// Notice bodies may carry formatting HTML; everything else (club and event
// descriptions, bios) is stored as plain text.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// Sanitize keeps safe formatting HTML (paragraphs, emphasis, lists, links,
// tables, images) and removes scripts, event handlers and unsafe URLs.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(ugc.Sanitize(s))
}

// maxDecodePasses bounds how many layers of entity encoding PlainText
// peels off before giving up and returning escaped text.
const maxDecodePasses = 8

// PlainText strips all markup and returns readable text. Entities are
// decoded so "Q&A" round-trips unchanged, and decoding repeats until the
// text is stable, so "&lt;script&gt;" cannot come back out as a tag.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	for i := 0; i < maxDecodePasses; i++ {
		next := html.UnescapeString(strict.Sanitize(s))
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
	return strings.TrimSpace(strict.Sanitize(s))
}
