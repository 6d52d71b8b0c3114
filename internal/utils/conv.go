package utils

import (
	"strconv"
)

// StringToInt converts string to int, returns 0 if error
func StringToInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

// ClampInt parses s and clamps it to [1, max], using def when s is empty or invalid.
func ClampInt(s string, def, max int) int {
	n := StringToInt(s)
	if n <= 0 {
		n = def
	}
	if n > max {
		n = max
	}
	return n
}
