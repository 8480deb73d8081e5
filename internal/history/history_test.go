package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAppendAndRecent(t *testing.T) {
	log := Open(filepath.Join(t.TempDir(), "data", "history.jsonl"))

	e1 := Entry{
		Time:       time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Target:     "README.md",
		Format:     "markdown",
		Changed:    true,
		BackupPath: "README.md.20250301_100000.bak",
		Warnings:   2,
		DurationMS: 12,
	}
	e2 := Entry{
		Time:       time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC),
		Target:     "index.html",
		Format:     "html",
		DurationMS: 30,
	}
	if err := log.Append(e1); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := log.Append(e2); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err := log.Recent(0, time.Time{})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Target != "README.md" || entries[1].Target != "index.html" {
		t.Errorf("entries out of order: %+v", entries)
	}
	if entries[0].BackupPath != e1.BackupPath || entries[0].Warnings != 2 || !entries[0].Changed {
		t.Errorf("entry fields did not round-trip: %+v", entries[0])
	}
}

func TestRecent_LimitAndSince(t *testing.T) {
	log := Open(filepath.Join(t.TempDir(), "history.jsonl"))
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := log.Append(Entry{Time: base.AddDate(0, 0, i), Target: "README.md"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	entries, err := log.Recent(2, time.Time{})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("limit: expected 2 entries, got %d", len(entries))
	}
	if !entries[1].Time.Equal(base.AddDate(0, 0, 4)) {
		t.Errorf("limit did not keep the newest entries: %v", entries[1].Time)
	}

	entries, err = log.Recent(0, base.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("since: expected 2 entries, got %d", len(entries))
	}
}

func TestRecent_MissingFile(t *testing.T) {
	log := Open(filepath.Join(t.TempDir(), "nope.jsonl"))
	entries, err := log.Recent(10, time.Time{})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if entries != nil {
		t.Errorf("expected no entries, got %+v", entries)
	}
}

func TestRecent_ToleratesTruncatedFinalLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	log := Open(path)
	if err := log.Append(Entry{Target: "README.md"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	// Simulate a crash mid-append.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(`{"time":"2025-03-01T`); err != nil {
		t.Fatal(err)
	}
	f.Close()

	entries, err := log.Recent(0, time.Time{})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].Target != "README.md" {
		t.Errorf("expected the intact entry, got %+v", entries)
	}
}

func TestRecent_FailsOnCorruptionMidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	if err := os.WriteFile(path, []byte("not json\n{\"target\":\"README.md\"}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path).Recent(0, time.Time{})
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Errorf("expected line-numbered error, got %v", err)
	}
}
