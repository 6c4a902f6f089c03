// Package normalize cleans raw extracted text and canonicalizes dates.
// Both functions are total: they never fail, whatever the input.
package normalize

import (
	"regexp"
	"strings"
)

var (
	reTrailingWS = regexp.MustCompile(`[ \t]+\n`)
	reBlankLines = regexp.MustCompile(`\n{3,}`)
	dashReplacer = strings.NewReplacer("—", "-", "–", "-")
)

// Text reduces OCR/line noise in raw extracted text. Idempotent.
//
// Rules, in order: drop carriage returns, strip trailing spaces and tabs
// before newlines, collapse runs of 3+ newlines to a single blank line,
// replace em/en dashes with a plain hyphen, trim the whole string.
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r", "")
	s = reTrailingWS.ReplaceAllString(s, "\n")
	s = reBlankLines.ReplaceAllString(s, "\n\n")
	s = dashReplacer.Replace(s)
	return strings.TrimSpace(s)
}
