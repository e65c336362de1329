// Package slug derives the canonical, URL-safe identifier of an event from its title.
package slug

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	disallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace = regexp.MustCompile(`\s+`)
	hyphens    = regexp.MustCompile(`-+`)
)

// Derive returns the slug for title: lower-cased, stripped of everything but ASCII
// letters, digits, whitespace and hyphens, with whitespace runs turned into a single
// hyphen and no leading or trailing hyphen.
//
// Derive may return "" (e.g. for "!!!"); callers must reject that.
func Derive(title string) string {
	s := strings.TrimSpace(strings.ToLower(strings.Map(asciiSpace, title)))
	s = disallowed.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = hyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// asciiSpace folds every Unicode space (NBSP, em space, \v, BOM, ...) to ' ' so the
// ASCII-only patterns above treat it as a word break instead of stripping it.
func asciiSpace(r rune) rune {
	if unicode.IsSpace(r) || unicode.Is(unicode.Zs, r) || r == '\uFEFF' {
		return ' '
	}
	return r
}

// Normalize prepares a slug received from a caller for lookup.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
