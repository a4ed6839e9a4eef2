package parser

import (
	"regexp"
	"strings"
)

var (
	disallowedChars = regexp.MustCompile(`[^\w\s.,;:!?$%()&/'"-]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
	punctRuns       = regexp.MustCompile(`([.,;:!?])[.,;:!?]+`)
)

// Normalize collapses whitespace runs to single spaces, strips characters
// outside a conservative allow-list, and collapses repeated punctuation.
// The result is the canonical text that digests and word counts are
// computed over.
func Normalize(text string) string {
	text = disallowedChars.ReplaceAllString(text, " ")
	text = punctRuns.ReplaceAllString(text, "$1")
	text = whitespaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
