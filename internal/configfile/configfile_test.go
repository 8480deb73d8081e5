package configfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_OverridesDefaultsOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
min_version = "0.2.0"

[paths]
source = "data/projects.json"

[sync]
backup = false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MinVersion != "0.2.0" {
		t.Errorf("MinVersion = %q", cfg.MinVersion)
	}
	if cfg.Paths.Source != "data/projects.json" {
		t.Errorf("Paths.Source = %q", cfg.Paths.Source)
	}
	if cfg.Sync.Backup {
		t.Error("Sync.Backup not overridden to false")
	}
	// Keys absent from the file keep their defaults.
	if cfg.Paths.Readme != "README.md" || cfg.Paths.HTML != "docs/index.html" {
		t.Errorf("path defaults lost: %+v", cfg.Paths)
	}
	if cfg.Preview.Port != 8080 {
		t.Errorf("Preview.Port = %d", cfg.Preview.Port)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "paths = not toml at all [")

	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestDiscover_FindsFileInAncestor(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `[preview]`+"\n"+`port = 9000`+"\n")
	nested := filepath.Join(root, "docs", "assets")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	proj, err := Discover(nested)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if proj.Root != root {
		t.Errorf("Root = %q, want %q", proj.Root, root)
	}
	if proj.ConfigPath != filepath.Join(root, FileName) {
		t.Errorf("ConfigPath = %q", proj.ConfigPath)
	}
	if proj.Config.Preview.Port != 9000 {
		t.Errorf("Preview.Port = %d", proj.Config.Preview.Port)
	}
}

func TestDiscover_NearestFileWins(t *testing.T) {
	outer := t.TempDir()
	writeConfig(t, outer, `min_version = "9.9.9"`+"\n")
	inner := filepath.Join(outer, "sub")
	if err := os.MkdirAll(inner, 0755); err != nil {
		t.Fatal(err)
	}
	writeConfig(t, inner, `min_version = "0.1.0"`+"\n")

	proj, err := Discover(inner)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if proj.Root != inner {
		t.Errorf("Root = %q, want nearest %q", proj.Root, inner)
	}
	if proj.Config.MinVersion != "0.1.0" {
		t.Errorf("MinVersion = %q", proj.Config.MinVersion)
	}
}

func TestDiscover_NoFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()

	proj, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if proj.ConfigPath != "" {
		t.Errorf("ConfigPath = %q, want empty", proj.ConfigPath)
	}
	if proj.Root != dir {
		t.Errorf("Root = %q, want starting directory %q", proj.Root, dir)
	}
	if diff := cmp.Diff(Default(), proj.Config); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestProject_PathResolution(t *testing.T) {
	proj := &Project{Root: "/work/list", Config: Default()}

	if got := proj.SourcePath(); got != filepath.Join("/work/list", "projects.json") {
		t.Errorf("SourcePath = %q", got)
	}
	if got := proj.HTMLPath(); got != filepath.Join("/work/list", "docs", "index.html") {
		t.Errorf("HTMLPath = %q", got)
	}

	proj.Config.Paths.Readme = "/elsewhere/README.md"
	if got := proj.ReadmePath(); got != "/elsewhere/README.md" {
		t.Errorf("absolute path rewritten: %q", got)
	}

	if got := proj.DataDir(); got != filepath.Join("/work/list", DataDirName) {
		t.Errorf("DataDir = %q", got)
	}
}

func TestEnsureDataDir(t *testing.T) {
	proj := &Project{Root: t.TempDir(), Config: Default()}

	dir, err := proj.EnsureDataDir()
	if err != nil {
		t.Fatalf("EnsureDataDir: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("data directory not created: %v", err)
	}
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		name       string
		minVersion string
		binary     string
		wantErr    bool
	}{
		{"no gate", "", "v0.0.1", false},
		{"exact match", "v1.2.0", "v1.2.0", false},
		{"newer binary", "v1.2.0", "v1.3.0", false},
		{"older binary", "v1.2.0", "v1.1.9", true},
		{"unprefixed versions", "1.2.0", "1.2.3", false},
		{"dev build bypasses", "v1.2.0", "dev", false},
		{"invalid gate", "banana", "v1.0.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.MinVersion = tt.minVersion
			err := cfg.CheckVersion(tt.binary)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckVersion(%q) with gate %q: err = %v, wantErr %v",
					tt.binary, tt.minVersion, err, tt.wantErr)
			}
		})
	}
}

func TestCheckVersion_ErrorNamesBothVersions(t *testing.T) {
	cfg := Default()
	cfg.MinVersion = "2.0.0"
	err := cfg.CheckVersion("v1.4.0")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "v2.0.0") || !strings.Contains(err.Error(), "v1.4.0") {
		t.Errorf("error omits version detail: %v", err)
	}
}
