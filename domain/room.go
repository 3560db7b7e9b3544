package domain

import "strings"

// NormalizeName trims surrounding blanks from user and room names.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}
