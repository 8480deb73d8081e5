// Package changeset computes record-level differences between two
// snapshots, typically the canonical source against what a target
// document currently shows. Records are matched by identity key
// (case-insensitive title plus year) and compared field-by-field in
// normalized form, so formatting noise never counts as a change.
package changeset

import (
	"fmt"

	"github.com/awesomelab/awesync/internal/record"
)

// FieldChange is one field-level difference on a matched record.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// RecordChange is a matched record whose fields differ. Record holds the
// new (source) form.
type RecordChange struct {
	Record record.Record
	Fields []FieldChange
}

// CategoryChanges collects the differences within one category.
type CategoryChanges struct {
	Category string
	Added    []record.Record
	Removed  []record.Record
	Modified []RecordChange
}

// ChangeSet is the full difference between two snapshots. Only
// categories with at least one difference appear.
type ChangeSet struct {
	Categories []CategoryChanges
}

// Diff compares old (what the target shows) against new (what the
// source says) and returns the differences. Category order follows the
// new snapshot, with old-only categories appended after.
func Diff(old, new *record.Snapshot) *ChangeSet {
	cs := &ChangeSet{}
	for _, cat := range unionCategories(old, new) {
		if cc := diffCategory(cat, old.Records(cat), new.Records(cat)); cc != nil {
			cs.Categories = append(cs.Categories, *cc)
		}
	}
	return cs
}

// Empty reports whether the two snapshots matched exactly.
func (cs *ChangeSet) Empty() bool {
	return len(cs.Categories) == 0
}

// Added returns the total number of added records.
func (cs *ChangeSet) Added() int {
	n := 0
	for _, cc := range cs.Categories {
		n += len(cc.Added)
	}
	return n
}

// Removed returns the total number of removed records.
func (cs *ChangeSet) Removed() int {
	n := 0
	for _, cc := range cs.Categories {
		n += len(cc.Removed)
	}
	return n
}

// Modified returns the total number of modified records.
func (cs *ChangeSet) Modified() int {
	n := 0
	for _, cc := range cs.Categories {
		n += len(cc.Modified)
	}
	return n
}

// Summary renders a one-line count of the differences, e.g.
// "2 added, 1 removed, 3 modified".
func (cs *ChangeSet) Summary() string {
	if cs.Empty() {
		return "no changes"
	}
	return fmt.Sprintf("%d added, %d removed, %d modified", cs.Added(), cs.Removed(), cs.Modified())
}

func unionCategories(old, new *record.Snapshot) []string {
	seen := make(map[string]bool)
	var cats []string
	for _, c := range new.Categories() {
		cats = append(cats, c)
		seen[c] = true
	}
	for _, c := range old.Categories() {
		if !seen[c] {
			cats = append(cats, c)
			seen[c] = true
		}
	}
	return cats
}

func diffCategory(cat string, oldRecs, newRecs []record.Record) *CategoryChanges {
	oldByKey := keyMap(oldRecs)
	newByKey := keyMap(newRecs)

	cc := &CategoryChanges{Category: cat}

	seen := make(map[record.Key]bool, len(newRecs))
	for _, r := range newRecs {
		k := r.Key()
		if seen[k] {
			continue
		}
		seen[k] = true

		oldNorm, ok := oldByKey[k]
		if !ok {
			cc.Added = append(cc.Added, r)
			continue
		}
		if fields := fieldChanges(oldNorm, newByKey[k]); len(fields) > 0 {
			cc.Modified = append(cc.Modified, RecordChange{Record: r, Fields: fields})
		}
	}

	seen = make(map[record.Key]bool, len(oldRecs))
	for _, r := range oldRecs {
		k := r.Key()
		if seen[k] {
			continue
		}
		seen[k] = true

		if _, ok := newByKey[k]; !ok {
			cc.Removed = append(cc.Removed, r)
		}
	}

	if len(cc.Added)+len(cc.Removed)+len(cc.Modified) == 0 {
		return nil
	}
	return cc
}

// keyMap indexes normalized records by identity key. When a key repeats,
// the later record wins, matching the loader's dedupe rule.
func keyMap(recs []record.Record) map[record.Key]record.Record {
	m := make(map[record.Key]record.Record, len(recs))
	for _, r := range recs {
		m[r.Key()] = r.Normalized()
	}
	return m
}

func fieldChanges(old, new record.Record) []FieldChange {
	if old == new {
		return nil
	}
	var changes []FieldChange
	for _, key := range record.FieldOrder() {
		if old.Field(key) != new.Field(key) {
			changes = append(changes, FieldChange{Field: key, Old: old.Field(key), New: new.Field(key)})
		}
	}
	return changes
}
