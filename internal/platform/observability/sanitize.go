package observability

import (
	"strings"
	"unicode"
)

const maxFieldRunes = 256

// scrub strips control characters so attacker-supplied values cannot
// inject log lines, then caps the rune count.
func scrub(value string, limit int) string {
	if limit <= 0 {
		limit = maxFieldRunes
	}
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, value)
	runes := []rune(cleaned)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return cleaned
}

// SanitizeRoute bounds a route pattern before it reaches logs or span attributes.
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return scrub(route, 180)
}

// SanitizeMethod bounds an HTTP method string.
func SanitizeMethod(method string) string {
	return scrub(method, 10)
}

// SanitizeUserID caps identifiers so a malformed token cannot flood log fields.
func SanitizeUserID(uid string) string {
	if uid == "" {
		return ""
	}
	return scrub(uid, 64)
}
