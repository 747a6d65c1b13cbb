package utils

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes every tag; used for text coming back from remote services
var StrictPolicy = bluemonday.StrictPolicy()

// StripHTML removes all HTML tags and decodes entities so the result reads as plain text
func StripHTML(s string) string {
	return html.UnescapeString(StrictPolicy.Sanitize(s))
}
