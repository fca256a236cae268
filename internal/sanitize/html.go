package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes all HTML tags and attributes.
var StrictPolicy = bluemonday.StrictPolicy()

// Text strips all HTML tags and returns plain text.
// Use for: event names, venues, summaries, profile fields.
func Text(input string) string {
	return StrictPolicy.Sanitize(input)
}

// Field strips HTML, decodes the entities bluemonday escapes, and trims
// surrounding whitespace. Stored values are plain text; encoding is the
// client's job.
func Field(input string) string {
	return strings.TrimSpace(html.UnescapeString(Text(input)))
}

// TextSlice sanitizes each string in a slice, removing all HTML.
func TextSlice(inputs []string) []string {
	if inputs == nil {
		return nil
	}
	sanitized := make([]string, len(inputs))
	for i, input := range inputs {
		sanitized[i] = Text(input)
	}
	return sanitized
}
