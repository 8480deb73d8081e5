package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func TestColorizeDiff_PlainProfilePassesThrough(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	s := NewStyles()

	diff := "--- a\n+++ b\n@@ -1,1 +1,1 @@\n-old\n+new\n context\n"
	if got := s.ColorizeDiff(diff); got != diff {
		t.Errorf("plain profile altered the diff:\n%q", got)
	}
}

func TestColorizeDiff_ClassifiesLines(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI256)
	defer lipgloss.SetColorProfile(termenv.Ascii)
	s := NewStyles()

	got := s.ColorizeDiff("+++ b\n+added\n unchanged\n")
	lines := strings.Split(got, "\n")

	if lines[0] == "+++ b" {
		t.Error("file label not styled")
	}
	if lines[1] == "+added" {
		t.Error("added line not styled")
	}
	if lines[2] != " unchanged" {
		t.Errorf("context line altered: %q", lines[2])
	}
}

func TestMark(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	s := NewStyles()

	if got := s.Mark(true); got != "✓" {
		t.Errorf("Mark(true) = %q", got)
	}
	if got := s.Mark(false); got != "✗" {
		t.Errorf("Mark(false) = %q", got)
	}
}

func TestColorizeDiff_EmptyInput(t *testing.T) {
	s := NewStyles()
	if got := s.ColorizeDiff(""); got != "" {
		t.Errorf("ColorizeDiff(\"\") = %q", got)
	}
}
