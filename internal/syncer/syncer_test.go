package syncer

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/awesomelab/awesync/internal/history"
	"github.com/awesomelab/awesync/internal/record"
	"github.com/awesomelab/awesync/internal/target"

	_ "github.com/awesomelab/awesync/internal/target/html"
	_ "github.com/awesomelab/awesync/internal/target/markdown"
)

const readmeDoc = `# Awesome Bio AI

## Reviews

| Year | Title | Team | Team Website | Affiliation | Domain | Venue | Paper/ Source | Code/Product |
| -----| ------| -----| -------------| ------------| -------| ------| --------------| -------------|
| 2024 | **A survey** | Lab |  | MIT | survey | arXiv |  |  |
`

const htmlDoc = `<html><script>
        const projectData = {
        "reviews": [
            {
                "year": "2024",
                "title": "A survey",
                "team": "Lab",
                "team website": "",
                "affiliation": "MIT",
                "domain": "survey",
                "venue": "arXiv",
                "paperUrl": "",
                "codeUrl": "",
                "githubStars": ""
            }
        ]
    };
</script></html>
`

func quietEngine() *Engine {
	return New(Config{Logger: log.New(io.Discard, "", 0)})
}

// snapshotInSync mirrors the records the fixtures already show.
func snapshotInSync() *record.Snapshot {
	snap := record.NewSnapshot()
	snap.Append("reviews", record.Record{
		Year: "2024", Title: "A survey", Team: "Lab",
		Affiliation: "MIT", Domain: "survey", Venue: "arXiv",
	})
	return snap
}

// snapshotChanged adds one more record on top of the fixtures.
func snapshotChanged() *record.Snapshot {
	snap := snapshotInSync()
	snap.Append("reviews", record.Record{
		Year: "2025", Title: "Fresh Survey", Team: "New Lab",
		Affiliation: "ETH", Domain: "survey", Venue: "bioRxiv",
	})
	return snap
}

func writeTarget(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func backups(t *testing.T, path string) []string {
	t.Helper()
	matches, err := filepath.Glob(path + ".*.bak")
	if err != nil {
		t.Fatal(err)
	}
	return matches
}

func TestSynchronize_WritesChangedTarget(t *testing.T) {
	path := writeTarget(t, "README.md", readmeDoc)

	res, err := quietEngine().Synchronize(snapshotChanged(), path, target.FormatMarkdown, Options{})
	if err != nil {
		t.Fatalf("Synchronize: %v", err)
	}
	if !res.Changed {
		t.Error("expected Changed=true")
	}
	if res.BackupPath == "" {
		t.Error("expected a backup to be created")
	}
	if got := backups(t, path); len(got) != 1 {
		t.Errorf("expected 1 backup file, got %v", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "**Fresh Survey**") {
		t.Error("new record not written to target")
	}
	if res.Changes.Added() != 1 {
		t.Errorf("unexpected change summary: %s", res.Changes.Summary())
	}

	backup, err := os.ReadFile(res.BackupPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(backup) != readmeDoc {
		t.Error("backup does not hold the pre-write contents")
	}
}

func TestSynchronize_NoOpWhenCurrent(t *testing.T) {
	path := writeTarget(t, "README.md", readmeDoc)

	res, err := quietEngine().Synchronize(snapshotInSync(), path, target.FormatMarkdown, Options{})
	if err != nil {
		t.Fatalf("Synchronize: %v", err)
	}
	if res.Changed {
		t.Error("expected Changed=false")
	}
	if got := backups(t, path); len(got) != 0 {
		t.Errorf("no-op run created backups: %v", got)
	}
	data, _ := os.ReadFile(path)
	if string(data) != readmeDoc {
		t.Error("no-op run modified the target")
	}
}

func TestSynchronize_DryRunNeverWrites(t *testing.T) {
	path := writeTarget(t, "README.md", readmeDoc)

	res, err := quietEngine().Synchronize(snapshotChanged(), path, target.FormatMarkdown, Options{DryRun: true})
	if err != nil {
		t.Fatalf("Synchronize: %v", err)
	}
	if !res.Changed {
		t.Error("expected Changed=true on dry run with differences")
	}
	if res.Diff == "" || !strings.Contains(res.Diff, "+| 2025 |") {
		t.Errorf("expected a unified diff with the added row, got:\n%s", res.Diff)
	}
	if res.BackupPath != "" {
		t.Error("dry run reported a backup")
	}
	if got := backups(t, path); len(got) != 0 {
		t.Errorf("dry run created backups: %v", got)
	}
	data, _ := os.ReadFile(path)
	if string(data) != readmeDoc {
		t.Error("dry run modified the target")
	}
}

func TestSynchronize_ForceRewritesCurrentTarget(t *testing.T) {
	path := writeTarget(t, "README.md", readmeDoc)

	res, err := quietEngine().Synchronize(snapshotInSync(), path, target.FormatMarkdown, Options{Force: true})
	if err != nil {
		t.Fatalf("Synchronize: %v", err)
	}
	if !res.Changed {
		t.Error("expected forced run to rewrite")
	}
	if got := backups(t, path); len(got) != 1 {
		t.Errorf("expected 1 backup, got %v", got)
	}
}

func TestSynchronize_SkipBackup(t *testing.T) {
	path := writeTarget(t, "README.md", readmeDoc)

	res, err := quietEngine().Synchronize(snapshotChanged(), path, target.FormatMarkdown, Options{SkipBackup: true})
	if err != nil {
		t.Fatalf("Synchronize: %v", err)
	}
	if !res.Changed {
		t.Error("expected Changed=true")
	}
	if res.BackupPath != "" || len(backups(t, path)) != 0 {
		t.Error("backup created despite SkipBackup")
	}
}

func TestSynchronize_HTMLTarget(t *testing.T) {
	path := writeTarget(t, "index.html", htmlDoc)

	res, err := quietEngine().Synchronize(snapshotChanged(), path, target.FormatHTML, Options{})
	if err != nil {
		t.Fatalf("Synchronize: %v", err)
	}
	if !res.Changed {
		t.Error("expected Changed=true")
	}
	// The fixture has the literal but no statistics fragments; every
	// missing fragment must surface as a warning.
	if len(res.Warnings) == 0 {
		t.Error("expected missing-fragment warnings")
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"title": "Fresh Survey"`) {
		t.Error("new record not written to HTML target")
	}
}

func TestSynchronize_ErrorClassification(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing target", func(t *testing.T) {
		_, err := quietEngine().Synchronize(snapshotInSync(), filepath.Join(dir, "absent.md"), target.FormatMarkdown, Options{})
		if !IsIOError(err) {
			t.Errorf("expected IO error, got %v", err)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := quietEngine().Synchronize(snapshotInSync(), filepath.Join(dir, "absent.md"), target.Format("pdf"), Options{})
		if !IsTargetFormatError(err) {
			t.Errorf("expected target format error, got %v", err)
		}
	})

	t.Run("html without anchor", func(t *testing.T) {
		path := writeTarget(t, "broken.html", "<html><body>no data here</body></html>")
		_, err := quietEngine().Synchronize(snapshotInSync(), path, target.FormatHTML, Options{})
		if !IsTargetFormatError(err) {
			t.Errorf("expected target format error, got %v", err)
		}
	})
}

func TestRunner_RecordsHistory(t *testing.T) {
	mdPath := writeTarget(t, "README.md", readmeDoc)
	htmlPath := writeTarget(t, "index.html", htmlDoc)
	histLog := history.Open(filepath.Join(t.TempDir(), "history.jsonl"))

	runner := NewRunner(RunnerConfig{
		Synchronizer: quietEngine(),
		History:      histLog,
		Logger:       log.New(io.Discard, "", 0),
	})

	results, err := runner.Run(snapshotChanged(), []Target{
		{Path: mdPath, Format: target.FormatMarkdown},
		{Path: htmlPath, Format: target.FormatHTML},
	}, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	entries, err := histLog.Recent(0, time.Time{})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(entries))
	}
	if entries[0].Target != mdPath || entries[0].Format != "markdown" || !entries[0].Changed {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Target != htmlPath || entries[1].Format != "html" {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
}

func TestRunner_ContinuesPastFailedTarget(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.md")
	htmlPath := writeTarget(t, "index.html", htmlDoc)
	histLog := history.Open(filepath.Join(t.TempDir(), "history.jsonl"))

	runner := NewRunner(RunnerConfig{
		Synchronizer: quietEngine(),
		History:      histLog,
		Logger:       log.New(io.Discard, "", 0),
	})

	results, err := runner.Run(snapshotChanged(), []Target{
		{Path: missing, Format: target.FormatMarkdown},
		{Path: htmlPath, Format: target.FormatHTML},
	}, Options{})
	if err == nil {
		t.Fatal("expected an error for the missing target")
	}
	if !IsIOError(err) {
		t.Errorf("joined error lost its classification: %v", err)
	}
	if len(results) != 1 || results[0].Target != htmlPath {
		t.Errorf("expected the surviving target's result, got %+v", results)
	}

	entries, err := histLog.Recent(0, time.Time{})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(entries))
	}
	if entries[0].Error == "" {
		t.Error("failed run not recorded with its error")
	}
	if entries[1].Error != "" {
		t.Error("successful run recorded with an error")
	}
}
