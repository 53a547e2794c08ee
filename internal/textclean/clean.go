// Package textclean reduces scraped page text to plain alphanumeric words.
package textclean

import (
	"regexp"
	"strings"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*?>`)
	urlPattern        = regexp.MustCompile(`https?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)
	disallowedPattern = regexp.MustCompile(`[^a-zA-Z0-9 ]`)
)

// Clean strips HTML tags, URLs and every character outside [A-Za-z0-9 ],
// then collapses whitespace into single spaces.
//
// The result only contains letters, digits and single inner spaces, so
// Clean(Clean(s)) == Clean(s).
func Clean(raw string) string {
	if raw == "" {
		return ""
	}

	text := tagPattern.ReplaceAllString(raw, "")
	text = urlPattern.ReplaceAllString(text, "")
	text = disallowedPattern.ReplaceAllString(text, "")

	return strings.Join(strings.Fields(text), " ")
}
