// Package html implements the target.Codec for the web page: the
// embedded "const projectData = {...};" object literal plus the
// statistics fragments derived from it (stat cards, navigation counts,
// section counts, the chart series, and the trailing stats object).
// It automatically registers itself with the codec registry on import.
//
// The codec owns exactly the object literal's byte range. The literal
// is decoded leniently (single or double quotes, unquoted keys,
// trailing commas) because the page is hand-edited, and regenerated
// deterministically so the same snapshot always produces the same
// bytes. Statistics fragments are rewritten in place by pattern; a
// missing fragment is a warning, never a failure.
//
// Usage:
//
//	import _ "github.com/awesomelab/awesync/internal/target/html" // Auto-registers via init()
//
//	codec, err := target.New(target.FormatHTML)
package html

import "github.com/awesomelab/awesync/internal/target"

// init registers the HTML codec with the registry.
// This is called automatically when the package is imported.
func init() {
	target.Register(target.FormatHTML, New)
}
