// Package validation holds the input checks shared by the services: URL and
// email format rules, URL normalization and form-struct validation.
package validation

import (
	"net/url"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IsValidURL reports whether raw parses as a URI with both a scheme and a
// host. Parse failures count as invalid.
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// IsValidEmail checks the local@domain.tld shape only. No DNS lookup.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NormalizeURL prefixes https:// unless raw already starts with http:// or
// https://. Normalizing twice is a no-op.
func NormalizeURL(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
