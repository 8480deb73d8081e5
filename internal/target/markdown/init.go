// Package markdown implements the target.Codec for the README-style
// document: one table per category under a "## <display name>" heading.
// It automatically registers itself with the codec registry on import.
//
// The codec owns exactly the table byte ranges. Intro text between a
// heading and its table, prose after a table, and every section without
// a recognizable table are preserved untouched. Parsing decodes cells
// back to field values (bold titles, [Link](url) cells, stars badges)
// so that a regenerated document parses back to the records it was
// rendered from.
//
// Usage:
//
//	import _ "github.com/awesomelab/awesync/internal/target/markdown" // Auto-registers via init()
//
//	codec, err := target.New(target.FormatMarkdown)
package markdown

import "github.com/awesomelab/awesync/internal/target"

// init registers the Markdown codec with the registry.
// This is called automatically when the package is imported.
func init() {
	target.Register(target.FormatMarkdown, New)
}
