// Package normalize provides helper functions for consistent string normalization
// across the application. Use these helpers instead of scattered strings.ToLower
// and strings.TrimSpace calls to ensure consistent behavior.
package normalize

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// Email normalizes an email address by trimming whitespace and converting to lowercase.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name normalizes a display name by trimming and collapsing inner whitespace.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Phone trims a phone number. Formatting is left to the client.
func Phone(s string) string {
	return strings.TrimSpace(s)
}

// QueryParam normalizes a query parameter by trimming whitespace.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slug turns a title into a URL slug. Non-ASCII text is transliterated
// ("Café Über" → "cafe-uber"), and every run of other characters becomes
// a single hyphen.
func Slug(s string) string {
	s = strings.ToLower(unidecode.Unidecode(s))
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
