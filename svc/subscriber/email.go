package subscriber

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// emailPattern is deliberately loose: one "@" and a dot somewhere after it.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var maskPattern = regexp.MustCompile(`(.{2}).*(@.*)`)

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// ValidEmail reports whether an already normalized address passes the shape check.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// MaskEmail keeps the first two characters and the domain: "jo***@example.com".
// Addresses too short to mask are returned unchanged.
func MaskEmail(email string) string {
	return maskPattern.ReplaceAllString(email, "$1***$2")
}
