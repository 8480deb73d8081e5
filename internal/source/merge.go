package source

import (
	"errors"
	"fmt"

	"github.com/awesomelab/awesync/internal/record"
)

// Merge validates recs and appends them to the snapshot's category,
// creating the category when it does not exist yet. Records are
// appended in the order given; nothing is written to disk.
//
// A record that collides with an existing entry (same identity key in
// the same category) is rejected with an error naming the title, so
// editing surfaces cannot silently duplicate an entry.
func Merge(snap *record.Snapshot, category string, recs ...record.Record) error {
	if category == "" {
		return fmt.Errorf("merge: empty category key")
	}
	existing := make(map[record.Key]bool, snap.Count(category))
	for _, r := range snap.Records(category) {
		existing[r.Key()] = true
	}
	for i, r := range recs {
		if err := r.Validate(); err != nil {
			var verr *record.ValidationError
			if errors.As(err, &verr) {
				verr.Category = category
				verr.Index = snap.Count(category) + i
			}
			return err
		}
		if existing[r.Key()] {
			return fmt.Errorf("merge: %q (%s) already exists in category %q", r.Title, r.Year, category)
		}
		existing[r.Key()] = true
	}
	snap.Append(category, recs...)
	return nil
}
