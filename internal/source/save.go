package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/awesomelab/awesync/internal/record"
	"github.com/awesomelab/awesync/internal/safewrite"
)

// SaveOptions configures Save.
type SaveOptions struct {
	Backup bool // Snapshot an existing file before replacing it
}

// Save writes the snapshot back to path in the canonical layout for the
// path's format. An existing file is replaced atomically, optionally
// after a timestamped backup; a missing file is created. Returns the
// backup path, if one was made.
func Save(path string, snap *record.Snapshot, opts SaveOptions) (string, error) {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = EncodeYAML(snap)
	default:
		data = EncodeJSON(snap)
	}
	if err != nil {
		return "", err
	}

	if _, statErr := os.Stat(path); statErr == nil {
		var backupPath string
		if opts.Backup {
			backupPath, err = safewrite.Backup(path)
			if err != nil {
				return "", err
			}
		}
		if _, err := safewrite.Write(path, data, safewrite.Options{}); err != nil {
			return backupPath, err
		}
		return backupPath, nil
	} else if !os.IsNotExist(statErr) {
		return "", fmt.Errorf("stat %s: %w", path, statErr)
	}

	// New file: no backup possible, still write atomically
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}
	return "", nil
}

// EncodeJSON renders the snapshot as the canonical JSON source form:
// 4-space indentation, categories in snapshot order, every record
// carrying all ten fields in canonical order. Non-ASCII text is written
// as-is, not \u-escaped.
func EncodeJSON(snap *record.Snapshot) []byte {
	var buf bytes.Buffer
	buf.WriteString("{")

	cats := snap.Categories()
	for ci, cat := range cats {
		if ci > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n    ")
		buf.WriteString(quoteJSON(cat))
		buf.WriteString(": ")

		recs := snap.Records(cat)
		if len(recs) == 0 {
			buf.WriteString("[]")
			continue
		}

		buf.WriteString("[")
		for ri, r := range recs {
			if ri > 0 {
				buf.WriteString(",")
			}
			buf.WriteString("\n        {")
			for fi, key := range record.FieldOrder() {
				if fi > 0 {
					buf.WriteString(",")
				}
				buf.WriteString("\n            ")
				buf.WriteString(quoteJSON(key))
				buf.WriteString(": ")
				buf.WriteString(quoteJSON(r.Field(key)))
			}
			buf.WriteString("\n        }")
		}
		buf.WriteString("\n    ]")
	}

	if len(cats) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}")
	return buf.Bytes()
}

// EncodeYAML renders the snapshot as a YAML mapping in snapshot order.
func EncodeYAML(snap *record.Snapshot) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, cat := range snap.Categories() {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: cat}

		var valNode yaml.Node
		recs := snap.Records(cat)
		if recs == nil {
			recs = []record.Record{}
		}
		if err := valNode.Encode(recs); err != nil {
			return nil, fmt.Errorf("category %q: %w", cat, err)
		}
		root.Content = append(root.Content, keyNode, &valNode)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// quoteJSON renders s as a JSON string without HTML escaping, matching
// how the source file stores URLs (& stays &, not \u0026).
func quoteJSON(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a plain string cannot fail
	_ = enc.Encode(s)
	return strings.TrimRight(buf.String(), "\n")
}
