// Package slug turns display names into URL slugs for categories and genres.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength matches the width of the slug columns.
const MaxLength = 50

var (
	nonSlug     = regexp.MustCompile(`[^a-z0-9_-]+`)
	dashes      = regexp.MustCompile(`-{2,}`)
	validSlug   = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	removeMarks = transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
)

// From converts an arbitrary name into an ASCII slug no longer than MaxLength.
// Names without any ASCII letters or digits yield "".
func From(name string) string {
	s, _, err := transform.String(removeMarks, name)
	if err != nil {
		s = name
	}
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '-'
		}
		return r
	}, s)
	s = nonSlug.ReplaceAllString(s, "-")
	s = dashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxLength {
		s = strings.TrimRight(s[:MaxLength], "-")
	}
	return s
}

// Valid reports whether s is an acceptable client-supplied slug.
func Valid(s string) bool {
	return len(s) <= MaxLength && validSlug.MatchString(s)
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
