// Package locales holds the translation files for status lines and page labels.
package locales

import "embed"

//go:embed active.*.toml
var FS embed.FS
