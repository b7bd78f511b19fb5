// Package utils provides shared helpers for text and logging.
package utils

// Truncate returns s cut to at most maxLen runes, with "..." appended if
// anything was cut. If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
