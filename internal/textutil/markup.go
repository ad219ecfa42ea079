package textutil

import (
	"html"
	"regexp"
	"strings"
)

var (
	lineBreakPattern  = regexp.MustCompile(`(?i)<br\s*/?>`)
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	blankLinesPattern = regexp.MustCompile(`\n{3,}`)
)

// StripMarkup converts an HTML fragment into plain text. Line breaks survive
// as newlines; every other tag is dropped and entities are unescaped.
func StripMarkup(value string) string {
	if value == "" {
		return ""
	}
	value = lineBreakPattern.ReplaceAllString(value, "\n")
	value = tagPattern.ReplaceAllString(value, "")
	value = html.UnescapeString(value)
	value = strings.ReplaceAll(value, "\r\n", "\n")

	lines := strings.Split(value, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	value = strings.Join(lines, "\n")
	value = blankLinesPattern.ReplaceAllString(value, "\n\n")
	return strings.TrimSpace(value)
}
