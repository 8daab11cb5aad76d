package util

import "strings"

// ShaPrefixMatch reports whether one commit SHA is a prefix of the other.
// Callers on either side of the match may only carry a short SHA.
func ShaPrefixMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}
