package safety

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxLength is the length Sanitize truncates to.
const DefaultMaxLength = 500

var (
	tagPattern    = regexp.MustCompile(`<[^>]*>`)
	schemePattern = regexp.MustCompile(`(?i)(?:javascript|vbscript|data)\s*:`)
	spacePattern  = regexp.MustCompile(`\s+`)
)

// Sanitize prepares untrusted text for echoing or storage: it strips
// tag-like substrings and script schemes, collapses whitespace and truncates
// to DefaultMaxLength runes with a trailing ellipsis.
func Sanitize(input string) string {
	return SanitizeN(input, DefaultMaxLength)
}

// SanitizeN is Sanitize with an explicit rune limit. A limit <= 0 disables
// truncation.
func SanitizeN(input string, maxLen int) string {
	s := tagPattern.ReplaceAllString(input, "")
	s = schemePattern.ReplaceAllString(s, "")
	s = strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))

	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		runes := []rune(s)
		s = string(runes[:maxLen]) + "..."
	}
	return s
}
