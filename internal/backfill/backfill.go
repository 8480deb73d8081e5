// Package backfill copies presentation-only fields from a rendered
// Markdown target back into the canonical source.
//
// Star badges and team-website links are routinely edited straight in
// the README by contributors who never touch the source file. Backfill
// reverses that drift: it parses the README tables and copies the
// selected fields into source records with the same identity key.
// Values only flow when the README actually has one, so a backfill can
// never clear a source field; without Overwrite it only fills empty
// ones.
package backfill

import (
	"fmt"

	"github.com/awesomelab/awesync/internal/record"
	"github.com/awesomelab/awesync/internal/target/markdown"
)

// Options selects the fields to pull back and the replace policy.
// Selecting neither field backfills both.
type Options struct {
	// Stars copies GitHub star badge values.
	Stars bool

	// Websites copies team website URLs.
	Websites bool

	// Overwrite replaces differing source values instead of only
	// filling empty ones.
	Overwrite bool
}

// Result summarizes one backfill pass.
type Result struct {
	// Matched counts parsed records with a source counterpart.
	Matched int

	// Stars and Websites count values copied per field.
	Stars    int
	Websites int

	// Unmatched lists parsed titles that have no source counterpart,
	// as "title (category)".
	Unmatched []string
}

// Changed reports whether the pass copied anything.
func (r *Result) Changed() bool {
	return r.Stars > 0 || r.Websites > 0
}

// Summary renders a one-line account of the pass.
func (r *Result) Summary() string {
	return fmt.Sprintf("%d matched, %d star badge(s) and %d website(s) backfilled, %d unmatched",
		r.Matched, r.Stars, r.Websites, len(r.Unmatched))
}

// Apply parses the Markdown document and copies the selected fields
// into snap, matching records by identity key within each category.
// Parse warnings are passed through. Categories present only in the
// document are reported per record in Result.Unmatched, not treated as
// errors; the document is not authoritative for membership.
func Apply(snap *record.Snapshot, doc []byte, opts Options) (*Result, []string, error) {
	if !opts.Stars && !opts.Websites {
		opts.Stars = true
		opts.Websites = true
	}

	parsed, warnings, err := markdown.New().Parse(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("parse markdown: %w", err)
	}

	res := &Result{}
	for _, cat := range parsed.Categories() {
		recs := snap.Records(cat)
		work := make([]record.Record, len(recs))
		copy(work, recs)

		index := make(map[record.Key]int, len(work))
		for i, r := range work {
			index[r.Key()] = i
		}

		changed := false
		for _, pr := range parsed.Records(cat) {
			i, ok := index[pr.Key()]
			if !ok {
				res.Unmatched = append(res.Unmatched, fmt.Sprintf("%s (%s)", pr.Title, cat))
				continue
			}
			res.Matched++
			if opts.Stars && copyValue(&work[i].GitHubStars, pr.GitHubStars, opts.Overwrite) {
				res.Stars++
				changed = true
			}
			if opts.Websites && copyValue(&work[i].TeamWebsite, pr.TeamWebsite, opts.Overwrite) {
				res.Websites++
				changed = true
			}
		}
		if changed {
			snap.Set(cat, work)
		}
	}
	return res, warnings, nil
}

// copyValue moves src into dst under the fill policy. Empty sources
// never copy; equal values never count as a copy.
func copyValue(dst *string, src string, overwrite bool) bool {
	if src == "" || *dst == src {
		return false
	}
	if *dst != "" && !overwrite {
		return false
	}
	*dst = src
	return true
}
