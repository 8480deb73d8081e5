// Package textdiff computes line-oriented diffs between two versions of a
// target document and renders them in unified format.
//
// The syncer uses it for dry runs (show what a sync would change without
// writing) and the diff command uses it to preview regeneration. Diffs are
// computed with the sergi/go-diff engine in line mode, then grouped into
// hunks with three lines of context, matching the layout produced by
// "diff -u".
package textdiff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is the number of unchanged lines kept around each change.
const contextLines = 3

// Kind classifies a single diff line.
type Kind int

const (
	Context Kind = iota // line present in both versions
	Removed             // line only in the old version
	Added               // line only in the new version
)

// Line is one line of a hunk. OldNum and NewNum are 1-based line numbers
// in the old and new documents; a number is zero when the line does not
// exist on that side.
type Line struct {
	Kind   Kind
	OldNum int
	NewNum int
	Text   string
}

// Hunk is a contiguous group of changes with surrounding context,
// equivalent to one "@@" section of a unified diff.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []Line
}

// Compute diffs two documents and returns the resulting hunks. It returns
// nil when the documents are identical.
func Compute(oldText, newText string) []Hunk {
	if oldText == newText {
		return nil
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0

	// Reduce to line tokens before diffing so edits align on line
	// boundaries instead of arbitrary character runs.
	a, b, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	return groupHunks(diffsToLines(diffs), contextLines)
}

// Unified renders the diff between two documents as a unified diff with
// "---"/"+++" file headers. It returns the empty string when the documents
// are identical.
func Unified(oldLabel, newLabel, oldText, newText string) string {
	hunks := Compute(oldText, newText)
	if len(hunks) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", oldLabel, newLabel)
	for _, h := range hunks {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldLines, h.NewStart, h.NewLines)
		for _, line := range h.Lines {
			sb.WriteByte(marker(line.Kind))
			sb.WriteString(line.Text)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Stats reports the total number of added and removed lines across hunks.
func Stats(hunks []Hunk) (added, removed int) {
	for _, h := range hunks {
		for _, line := range h.Lines {
			switch line.Kind {
			case Added:
				added++
			case Removed:
				removed++
			}
		}
	}
	return added, removed
}

func marker(k Kind) byte {
	switch k {
	case Removed:
		return '-'
	case Added:
		return '+'
	default:
		return ' '
	}
}

// diffsToLines flattens line-mode diffs into per-line entries with 1-based
// line numbers on each side.
func diffsToLines(diffs []diffmatchpatch.Diff) []Line {
	var out []Line
	oldNum, newNum := 0, 0

	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		lines := strings.Split(d.Text, "\n")
		// A trailing newline yields one empty trailing element; it is a
		// line terminator, not an extra line.
		if lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
		for _, text := range lines {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				oldNum++
				newNum++
				out = append(out, Line{Kind: Context, OldNum: oldNum, NewNum: newNum, Text: text})
			case diffmatchpatch.DiffDelete:
				oldNum++
				out = append(out, Line{Kind: Removed, OldNum: oldNum, Text: text})
			case diffmatchpatch.DiffInsert:
				newNum++
				out = append(out, Line{Kind: Added, NewNum: newNum, Text: text})
			}
		}
	}
	return out
}

// groupHunks splits the flat line list into hunks. Changes separated by at
// most 2*context unchanged lines share a hunk.
func groupHunks(lines []Line, context int) []Hunk {
	var changes []int
	for i, line := range lines {
		if line.Kind != Context {
			changes = append(changes, i)
		}
	}
	if len(changes) == 0 {
		return nil
	}

	var hunks []Hunk
	runStart, runEnd := changes[0], changes[0]
	flush := func() {
		lo := max(runStart-context, 0)
		hi := min(runEnd+context+1, len(lines))
		hunks = append(hunks, makeHunk(lines[lo:hi]))
	}
	for _, c := range changes[1:] {
		if c-runEnd <= 2*context {
			runEnd = c
			continue
		}
		flush()
		runStart, runEnd = c, c
	}
	flush()
	return hunks
}

func makeHunk(lines []Line) Hunk {
	h := Hunk{Lines: lines}
	for _, line := range lines {
		if line.Kind != Added {
			if h.OldLines == 0 {
				h.OldStart = line.OldNum
			}
			h.OldLines++
		}
		if line.Kind != Removed {
			if h.NewLines == 0 {
				h.NewStart = line.NewNum
			}
			h.NewLines++
		}
	}
	return h
}
