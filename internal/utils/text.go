package utils

import "strings"

// Excerpt collapses whitespace and cuts s to at most n runes, adding "…" when cut.
func Excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}
