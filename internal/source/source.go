// Package source reads and writes the canonical source file that feeds
// every synchronization target.
//
// The canonical format is a JSON object mapping category keys to arrays
// of records, written with 4-space indentation. YAML files with the same
// shape are accepted on load and written back as YAML. Category order in
// the file is preserved in both directions so that a load/save round
// trip leaves the file byte-identical.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/awesomelab/awesync/internal/record"
)

// ParseError wraps a failure to read or decode the source file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Load reads the source file at path into a snapshot. Format is chosen
// by extension: .yaml/.yml parse as YAML, everything else as JSON.
//
// Records missing a required field abort the load with a
// *record.ValidationError carrying the record's position. Recoverable
// irregularities (duplicate identity keys, duplicate category keys) are
// repaired and reported as warnings.
func Load(path string) (*record.Snapshot, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &ParseError{Path: path, Err: err}
	}

	var (
		snap     *record.Snapshot
		warnings []string
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		snap, warnings, err = decodeYAML(data)
	default:
		snap, warnings, err = decodeJSON(data)
	}
	if err != nil {
		return nil, nil, &ParseError{Path: path, Err: err}
	}

	if err := validateRecords(snap); err != nil {
		return nil, warnings, err
	}
	warnings = append(warnings, dedupeRecords(snap)...)

	return snap, warnings, nil
}

// LoadOrInit behaves like Load, except that a missing file yields an
// empty snapshot pre-seeded with the known categories instead of an
// error. Commands that append records use this so they work against a
// source file that does not exist yet.
func LoadOrInit(path string) (*record.Snapshot, []string, error) {
	snap, warnings, err := Load(path)
	if err == nil {
		return snap, warnings, nil
	}

	var perr *ParseError
	if errors.As(err, &perr) && os.IsNotExist(perr.Err) {
		snap = record.NewSnapshot()
		for _, cat := range record.KnownCategories() {
			snap.Set(cat, nil)
		}
		return snap, nil, nil
	}
	return nil, warnings, err
}

// decodeJSON parses a JSON category object, preserving the order of
// category keys as written. The stock map decoding would sort them.
func decodeJSON(data []byte) (*record.Snapshot, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("top-level value must be an object of categories")
	}

	snap := record.NewSnapshot()
	var warnings []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected key token %v", keyTok)
		}

		var recs []record.Record
		if err := dec.Decode(&recs); err != nil {
			return nil, nil, fmt.Errorf("category %q: %w", key, err)
		}

		if snap.Has(key) {
			warnings = append(warnings, fmt.Sprintf("duplicate category %q in source, later entry wins", key))
		}
		snap.Set(key, recs)
	}

	// Consume the closing brace so trailing garbage surfaces as an error
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}

	return snap, warnings, nil
}

// decodeYAML parses a YAML mapping of categories through the node API,
// which keeps the author's key order.
func decodeYAML(data []byte) (*record.Snapshot, []string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, err
	}
	if len(doc.Content) == 0 {
		return record.NewSnapshot(), nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("top-level value must be a mapping of categories")
	}

	snap := record.NewSnapshot()
	var warnings []string
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode := root.Content[i]
		valNode := root.Content[i+1]
		key := keyNode.Value

		var recs []record.Record
		if err := valNode.Decode(&recs); err != nil {
			return nil, nil, fmt.Errorf("category %q: %w", key, err)
		}

		if snap.Has(key) {
			warnings = append(warnings, fmt.Sprintf("duplicate category %q in source, later entry wins", key))
		}
		snap.Set(key, recs)
	}

	return snap, warnings, nil
}

// validateRecords checks required fields across the whole snapshot and
// fails on the first invalid record, with its position filled in.
func validateRecords(snap *record.Snapshot) error {
	for _, cat := range snap.Categories() {
		for i, r := range snap.Records(cat) {
			if err := r.Validate(); err != nil {
				var verr *record.ValidationError
				if errors.As(err, &verr) {
					verr.Category = cat
					verr.Index = i
				}
				return err
			}
		}
	}
	return nil
}

// dedupeRecords drops records whose identity key reappears later in the
// same category, keeping the last occurrence. Each drop is reported as
// a warning.
func dedupeRecords(snap *record.Snapshot) []string {
	var warnings []string
	for _, cat := range snap.Categories() {
		recs := snap.Records(cat)

		lastIndex := make(map[record.Key]int, len(recs))
		for i, r := range recs {
			lastIndex[r.Key()] = i
		}
		if len(lastIndex) == len(recs) {
			continue
		}

		kept := make([]record.Record, 0, len(lastIndex))
		for i, r := range recs {
			if lastIndex[r.Key()] != i {
				warnings = append(warnings, fmt.Sprintf(
					"category %q: duplicate entry %q (%s), keeping the last occurrence",
					cat, strings.TrimSpace(r.Title), strings.TrimSpace(r.Year)))
				continue
			}
			kept = append(kept, r)
		}
		snap.Set(cat, kept)
	}
	return warnings
}
