// Package utils holds small helpers shared across codeer packages that do
// not warrant a package of their own.
package utils

import "unicode/utf8"

// Truncate is a simple string truncate that appends an ellipsis when s is
// longer than maxLen runes.
func Truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return TruncateRunes(s, maxLen) + "..."
}

// TruncateRunes cuts s to at most maxLen runes without splitting a multi-byte
// character.
func TruncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	count := 0
	for i := range s {
		if count == maxLen {
			return s[:i]
		}
		count++
	}
	return s
}
