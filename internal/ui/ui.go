// Package ui provides the terminal styling for command output.
//
// Output degrades cleanly: color is enabled only when stdout is an
// interactive terminal, and the profile follows the terminal's
// advertised capabilities, so piped and redirected output stays plain.
package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Semantic colors, shared with the published page's palette.
var (
	successColor = lipgloss.Color("#8BC34A")
	errorColor   = lipgloss.Color("#e53935")
	warningColor = lipgloss.Color("#FFC107")
	infoColor    = lipgloss.Color("#2196F3")
	mutedColor   = lipgloss.Color("#8a8f98")
	accentColor  = lipgloss.Color("#4db6ac")
)

// Styles holds the styled components for command output.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Bold     lipgloss.Style
	Muted    lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	DiffAdd    lipgloss.Style
	DiffRemove lipgloss.Style
	DiffMeta   lipgloss.Style

	Badge lipgloss.Style
}

// NewStyles creates the style set. Rendering honors the color profile
// configured on lipgloss; see Init.
func NewStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true),

		Bold: lipgloss.NewStyle().
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(mutedColor),

		Success: lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(warningColor).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(infoColor),

		DiffAdd: lipgloss.NewStyle().
			Foreground(successColor),

		DiffRemove: lipgloss.NewStyle().
			Foreground(errorColor),

		DiffMeta: lipgloss.NewStyle().
			Foreground(infoColor).
			Bold(true),

		Badge: lipgloss.NewStyle().
			Background(accentColor).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true),
	}
}

// Init configures the global color profile for the process and returns
// the style set. Non-terminal stdout disables color entirely; terminals
// get the profile termenv detects from the environment (which honors
// NO_COLOR and CLICOLOR).
func Init() Styles {
	if !IsTerminal(os.Stdout) {
		lipgloss.SetColorProfile(termenv.Ascii)
	} else {
		lipgloss.SetColorProfile(termenv.EnvColorProfile())
	}
	return NewStyles()
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Mark returns a styled status mark: a green check or a red cross.
func (s Styles) Mark(ok bool) string {
	if ok {
		return s.Success.Render("✓")
	}
	return s.Error.Render("✗")
}

// ColorizeDiff styles a unified diff line by line. Hunk headers and
// file labels render as metadata, additions green, removals red.
func (s Styles) ColorizeDiff(diff string) string {
	if diff == "" {
		return diff
	}
	lines := strings.Split(diff, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), strings.HasPrefix(line, "@@"):
			lines[i] = s.DiffMeta.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = s.DiffAdd.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = s.DiffRemove.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
