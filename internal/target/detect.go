package target

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DetectFormat maps a target path to its format by file extension.
// ".md" and ".markdown" are Markdown; ".html" and ".htm" are HTML.
// Anything else returns ErrUnknownFormat.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".html", ".htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// ParseFormat converts a user-supplied format name ("markdown",
// "html") to a Format. Returns ErrUnknownFormat for anything else.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}
