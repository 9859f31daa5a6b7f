package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Names are plain text; strip all markup.
var sanitizer = bluemonday.StrictPolicy()

// SanitizeName cleans a user supplied display name.
func SanitizeName(input string) string {
	return strings.TrimSpace(sanitizer.Sanitize(input))
}
