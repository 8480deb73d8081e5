package record

// Snapshot is an ordered mapping from category key to records. Category
// order and record order are preserved exactly as loaded or parsed, so
// that regenerating a target does not reshuffle entries a maintainer
// ordered by hand.
//
// A snapshot taken from the canonical source is treated as immutable for
// the duration of a sync run; mutation methods exist for the editing
// surfaces (add, stage promote, backfill) that prepare a new source
// state before a run.
type Snapshot struct {
	keys    []string
	records map[string][]Record
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{records: make(map[string][]Record)}
}

// Append adds records to the end of a category, creating the category
// (at the end of the key order) on first use.
func (s *Snapshot) Append(category string, recs ...Record) {
	if s.records == nil {
		s.records = make(map[string][]Record)
	}
	if _, ok := s.records[category]; !ok {
		s.keys = append(s.keys, category)
	}
	s.records[category] = append(s.records[category], recs...)
}

// Set replaces a category's records, creating the category on first use.
// An existing category keeps its position in the key order.
func (s *Snapshot) Set(category string, recs []Record) {
	if s.records == nil {
		s.records = make(map[string][]Record)
	}
	if _, ok := s.records[category]; !ok {
		s.keys = append(s.keys, category)
	}
	s.records[category] = recs
}

// Has reports whether the category exists, even if empty.
func (s *Snapshot) Has(category string) bool {
	_, ok := s.records[category]
	return ok
}

// Records returns the category's records in order. The returned slice is
// the snapshot's own; callers must not modify it.
func (s *Snapshot) Records(category string) []Record {
	return s.records[category]
}

// Categories returns the category keys in insertion order.
func (s *Snapshot) Categories() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// CanonicalCategories returns the snapshot's categories in deterministic
// rendering order: known categories first in schema order, then unknown
// categories in insertion order. Renderers iterate this so regeneration
// from the same snapshot is byte-identical.
func (s *Snapshot) CanonicalCategories() []string {
	var out []string
	for _, key := range categoryOrder {
		if s.Has(key) {
			out = append(out, key)
		}
	}
	for _, key := range s.keys {
		if !IsKnownCategory(key) {
			out = append(out, key)
		}
	}
	return out
}

// Count returns the number of records in a category.
func (s *Snapshot) Count(category string) int {
	return len(s.records[category])
}

// Total returns the number of records across all categories, including
// unknown ones.
func (s *Snapshot) Total() int {
	n := 0
	for _, recs := range s.records {
		n += len(recs)
	}
	return n
}

// Len returns the number of categories.
func (s *Snapshot) Len() int {
	return len(s.keys)
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	c := NewSnapshot()
	for _, key := range s.keys {
		recs := make([]Record, len(s.records[key]))
		copy(recs, s.records[key])
		c.Set(key, recs)
	}
	return c
}
