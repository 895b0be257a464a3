package utils

import (
	"strings"
	"unicode/utf8"
)

// CountWords returns the number of whitespace-delimited tokens in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// Truncate shortens s to at most max runes, ending with an ellipsis when it was cut.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max <= 3 {
		return string(runes[:max])
	}
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}

// IsBlank reports whether s contains only whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
