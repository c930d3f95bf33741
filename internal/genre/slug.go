// Package genre holds genre slug rules and the default genre set.
package genre

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

var lower = cases.Lower(language.Und)

// Slugify lower-cases a genre name and replaces each whitespace run with a hyphen.
// "Science Fiction" -> "science-fiction"; "Sci-Fi / Fantasy" -> "sci-fi-/-fantasy".
// Punctuation is kept so that distinct names keep distinct slugs.
func Slugify(name string) string {
	s := norm.NFKC.String(strings.TrimSpace(name))
	s = lower.String(s)
	return whitespaceRun.ReplaceAllString(s, "-")
}
