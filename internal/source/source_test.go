package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/awesomelab/awesync/internal/record"
)

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write source file: %v", err)
	}
	return path
}

func TestLoad_JSON(t *testing.T) {
	path := writeSource(t, "records.json", `{
    "reviews": [
        {
            "year": "2024",
            "title": "A Survey",
            "team": "Lab X",
            "team website": "https://lab.example",
            "affiliation": "Uni X",
            "domain": "Genomics",
            "venue": "Nature",
            "paperUrl": "https://doi.org/10.1/x",
            "codeUrl": "https://github.com/lab/survey",
            "githubStars": "https://img.shields.io/github/stars/lab/survey"
        }
    ],
    "ai-agents": [],
    "community": [
        {"year": "2023", "title": "Forum Post"}
    ]
}`)

	snap, warnings, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}

	// Category order follows the file, not the schema
	wantCats := []string{"reviews", "ai-agents", "community"}
	if diff := cmp.Diff(wantCats, snap.Categories()); diff != "" {
		t.Errorf("category order mismatch (-want +got):\n%s", diff)
	}

	recs := snap.Records("reviews")
	if len(recs) != 1 {
		t.Fatalf("expected 1 review, got %d", len(recs))
	}
	want := record.Record{
		Year:        "2024",
		Title:       "A Survey",
		Team:        "Lab X",
		TeamWebsite: "https://lab.example",
		Affiliation: "Uni X",
		Domain:      "Genomics",
		Venue:       "Nature",
		PaperURL:    "https://doi.org/10.1/x",
		CodeURL:     "https://github.com/lab/survey",
		GitHubStars: "https://img.shields.io/github/stars/lab/survey",
	}
	if diff := cmp.Diff(want, recs[0]); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}

	// Empty category is preserved
	if !snap.Has("ai-agents") {
		t.Error("expected empty category to be preserved")
	}
	if snap.Count("ai-agents") != 0 {
		t.Errorf("expected empty category, got %d records", snap.Count("ai-agents"))
	}
}

func TestLoad_DuplicateIdentity(t *testing.T) {
	path := writeSource(t, "records.json", `{
    "ai-agents": [
        {"year": "2024", "title": "AgentX", "team": "old team"},
        {"year": "2024", "title": "Other"},
        {"year": "2024", "title": "agentx ", "team": "new team"}
    ]
}`)

	snap, warnings, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// The earlier AgentX is dropped, the later one (same key after
	// normalization) survives in its own position
	recs := snap.Records("ai-agents")
	if len(recs) != 2 {
		t.Fatalf("expected 2 records after dedupe, got %d", len(recs))
	}
	if recs[0].Title != "Other" {
		t.Errorf("expected Other first, got %q", recs[0].Title)
	}
	if recs[1].Team != "new team" {
		t.Errorf("expected later duplicate to win, got team %q", recs[1].Team)
	}

	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
	if !strings.Contains(warnings[0], "duplicate entry") {
		t.Errorf("unexpected warning: %s", warnings[0])
	}
}

func TestLoad_DuplicateCategory(t *testing.T) {
	path := writeSource(t, "records.json", `{
    "reviews": [{"year": "2023", "title": "First"}],
    "reviews": [{"year": "2024", "title": "Second"}]
}`)

	snap, warnings, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	recs := snap.Records("reviews")
	if len(recs) != 1 || recs[0].Title != "Second" {
		t.Errorf("expected later category entry to win, got %+v", recs)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "duplicate category") {
		t.Errorf("expected duplicate category warning, got %v", warnings)
	}
}

func TestLoad_ValidationError(t *testing.T) {
	path := writeSource(t, "records.json", `{
    "benchmarks": [
        {"year": "2024", "title": "Good"},
        {"year": "2024", "title": ""}
    ]
}`)

	_, _, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr *record.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *record.ValidationError, got %T: %v", err, err)
	}
	if verr.Category != "benchmarks" || verr.Index != 1 || verr.Field != "title" {
		t.Errorf("unexpected position: %+v", verr)
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := writeSource(t, "records.json", `{"ai-agents": [`)

	_, _, err := Load(path)
	if err == nil {
		t.Fatal("expected parse error")
	}

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if perr.Path != path {
		t.Errorf("expected path %s in error, got %s", path, perr.Path)
	}
}

func TestLoad_TopLevelArray(t *testing.T) {
	path := writeSource(t, "records.json", `[{"year": "2024", "title": "X"}]`)

	_, _, err := Load(path)
	if err == nil {
		t.Fatal("expected parse error for top-level array")
	}
	if !strings.Contains(err.Error(), "object of categories") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if !os.IsNotExist(perr.Err) {
		t.Errorf("expected wrapped not-exist error, got %v", perr.Err)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeSource(t, "records.yaml", `reviews:
  - year: "2024"
    title: A Survey
    team website: https://lab.example
ai-agents: []
`)

	snap, warnings, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}

	wantCats := []string{"reviews", "ai-agents"}
	if diff := cmp.Diff(wantCats, snap.Categories()); diff != "" {
		t.Errorf("category order mismatch (-want +got):\n%s", diff)
	}

	recs := snap.Records("reviews")
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].TeamWebsite != "https://lab.example" {
		t.Errorf("expected team website to parse, got %q", recs[0].TeamWebsite)
	}
}

func TestLoadOrInit_MissingFile(t *testing.T) {
	snap, warnings, err := LoadOrInit(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadOrInit failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}

	if diff := cmp.Diff(record.KnownCategories(), snap.Categories()); diff != "" {
		t.Errorf("expected known-category skeleton (-want +got):\n%s", diff)
	}
	if snap.Total() != 0 {
		t.Errorf("expected empty skeleton, got %d records", snap.Total())
	}
}

func TestLoadOrInit_ExistingFile(t *testing.T) {
	path := writeSource(t, "records.json", `{"reviews": [{"year": "2024", "title": "X"}]}`)

	snap, _, err := LoadOrInit(path)
	if err != nil {
		t.Fatalf("LoadOrInit failed: %v", err)
	}
	if snap.Total() != 1 {
		t.Errorf("expected existing file contents, got %d records", snap.Total())
	}
}
