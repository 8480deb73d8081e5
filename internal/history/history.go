// Package history records synchronization runs in an append-only JSONL
// log, one entry per target per run. The log backs the "awesync log"
// command and gives daemon runs an audit trail that survives restarts.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultFileName is the log file name inside the project data directory.
const DefaultFileName = "history.jsonl"

// Entry is one recorded synchronization of one target.
type Entry struct {
	Time       time.Time `json:"time"`
	Target     string    `json:"target"`
	Format     string    `json:"format"`
	Changed    bool      `json:"changed"`
	DryRun     bool      `json:"dry_run,omitempty"`
	BackupPath string    `json:"backup_path,omitempty"`
	Warnings   int       `json:"warnings,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// Log is an append-only JSONL file. The zero value is not usable; create
// one with Open. Appends are serialized by an internal mutex so a daemon
// and a foreground command in the same process never interleave lines.
type Log struct {
	path string
	mu   sync.Mutex
}

// Open returns a log backed by the file at path. The file and its parent
// directory are created on first append, not here.
func Open(path string) *Log {
	return &Log{path: path}
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Append writes one entry to the end of the log.
func (l *Log) Append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	return nil
}

// Recent returns log entries in chronological order, filtered to those at
// or after since (zero time means no filter) and truncated to the last
// limit entries (limit <= 0 means no truncation). A missing log file
// yields an empty slice.
func (l *Log) Recent(limit int, since time.Time) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open history log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			// A crash mid-append can truncate the final line; tolerate
			// that one case and fail on corruption anywhere else.
			if !scanner.Scan() {
				break
			}
			return nil, fmt.Errorf("invalid history entry at line %d: %w", lineNum, err)
		}
		if !since.IsZero() && e.Time.Before(since) {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history log: %w", err)
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}
