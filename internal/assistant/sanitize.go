package assistant

import (
	"regexp"
	"strings"
)

const maxInputLength = 2000

var injectionPattern = regexp.MustCompile(`(?i)` + strings.Join([]string{
	regexp.QuoteMeta("ignore previous instructions"),
	regexp.QuoteMeta("forget all previous"),
	regexp.QuoteMeta("new instructions:"),
	regexp.QuoteMeta("system:"),
	regexp.QuoteMeta("assistant:"),
	regexp.QuoteMeta("you are now"),
	regexp.QuoteMeta("pretend you are"),
	regexp.QuoteMeta("act as if"),
}, "|"))

// SanitizeInput redacts prompt-injection phrases from user supplied text and caps its length.
func SanitizeInput(input string) string {
	return Sanitize(input, maxInputLength)
}

// Sanitize is SanitizeInput with a caller chosen byte limit.
func Sanitize(input string, limit int) string {
	sanitized := injectionPattern.ReplaceAllString(strings.TrimSpace(input), "[redacted]")
	if limit > 0 && len(sanitized) > limit {
		sanitized = truncateUTF8(sanitized, limit) + "..."
	}
	return sanitized
}

// truncateUTF8 cuts s at the last rune boundary not past limit.
func truncateUTF8(s string, limit int) string {
	cut := 0
	for i := range s {
		if i > limit {
			break
		}
		cut = i
	}
	return s[:cut]
}
