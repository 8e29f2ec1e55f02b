package webcmp

import (
	"strconv"
	"strings"
)

// ParseString accepts any attribute value as is.
func ParseString(s string) (string, bool) {
	return s, true
}

// ParseInt parses a base-10 integer, ignoring surrounding whitespace.
func ParseInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil
}

// ParseFloat parses a 64-bit float.
func ParseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

// ParseBool follows the HTML boolean attribute convention: an empty value or
// the attribute's presence means true, and "false"/"0"/"off" mean false.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "true", "1", "on", "yes":
		return true, true
	case "false", "0", "off", "no":
		return false, true
	}
	return false, false
}
