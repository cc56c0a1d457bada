package match

import (
	"regexp"
	"strings"
)

// Collapses every non-alphanumeric run so "Spider-Man: No Way Home" and
// "spider man no way home" compare equal.
var nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize lowercases a title and collapses all non-alphanumeric runs to
// single spaces. Used for every text comparison in scoring.
func Normalize(value string) string {
	value = strings.ToLower(value)
	value = nonAlphanumericRegex.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

// Tokenize splits a normalized title into its word tokens.
func Tokenize(value string) []string {
	return strings.Fields(Normalize(value))
}
