// Package configfile locates and loads the per-project configuration
// file. A project is any directory tree with a .awesync.toml at its
// root; the file pins the source and target paths so commands can run
// from any subdirectory, and optionally gates the minimum binary
// version allowed to rewrite the project.
//
// Projects also own a data directory (.awesync/) next to the
// configuration file. Run history and the staging database live there.
package configfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/semver"
)

const (
	// FileName is the configuration file searched for during discovery.
	FileName = ".awesync.toml"

	// DataDirName is the project data directory created alongside the
	// configuration file.
	DataDirName = ".awesync"
)

// Config is the decoded .awesync.toml. Missing keys keep their
// Default() values.
type Config struct {
	// MinVersion, when set, is the lowest binary version permitted to
	// operate on this project, compared as a semantic version.
	MinVersion string `toml:"min_version"`

	Paths   PathsConfig   `toml:"paths"`
	Sync    SyncConfig    `toml:"sync"`
	Preview PreviewConfig `toml:"preview"`
}

// PathsConfig names the project files, relative to the project root
// unless absolute.
type PathsConfig struct {
	Source string `toml:"source"`
	Readme string `toml:"readme"`
	HTML   string `toml:"html"`
}

// SyncConfig holds synchronization defaults.
type SyncConfig struct {
	Backup bool `toml:"backup"`
}

// PreviewConfig holds preview server defaults.
type PreviewConfig struct {
	Port int `toml:"port"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Source: "projects.json",
			Readme: "README.md",
			HTML:   "docs/index.html",
		},
		Sync:    SyncConfig{Backup: true},
		Preview: PreviewConfig{Port: 8080},
	}
}

// Project ties a loaded configuration to the directory it governs.
type Project struct {
	// Root is the directory holding the configuration file, or the
	// starting directory when discovery found none.
	Root string

	// ConfigPath is the file the configuration was loaded from, empty
	// when defaults are in effect.
	ConfigPath string

	Config *Config
}

// Discover walks up from dir looking for a configuration file.
//
// The first directory containing .awesync.toml becomes the project
// root. When the walk reaches the filesystem root without a hit, the
// starting directory becomes the root with Default() in effect;
// callers that require an explicit file can test ConfigPath.
func Discover(dir string) (*Project, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	current := absDir
	for {
		path := filepath.Join(current, FileName)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			cfg, err := Load(path)
			if err != nil {
				return nil, err
			}
			return &Project{Root: current, ConfigPath: path, Config: cfg}, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return &Project{Root: absDir, Config: Default()}, nil
		}
		current = parent
	}
}

// Load reads one configuration file and decodes it over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// SourcePath returns the canonical source file path, resolved against
// the project root.
func (p *Project) SourcePath() string { return p.resolve(p.Config.Paths.Source) }

// ReadmePath returns the Markdown target path, resolved against the
// project root.
func (p *Project) ReadmePath() string { return p.resolve(p.Config.Paths.Readme) }

// HTMLPath returns the HTML target path, resolved against the project
// root.
func (p *Project) HTMLPath() string { return p.resolve(p.Config.Paths.HTML) }

// DataDir returns the project data directory path. The directory is
// not created; see EnsureDataDir.
func (p *Project) DataDir() string {
	return filepath.Join(p.Root, DataDirName)
}

// EnsureDataDir creates the data directory if needed and returns it.
func (p *Project) EnsureDataDir() (string, error) {
	dir := p.DataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dir, nil
}

func (p *Project) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Root, path)
}

// CheckVersion enforces the min_version gate against the running
// binary's version. Versions are accepted with or without a leading
// "v". A running version that is not a valid semantic version (dev
// builds) is never gated.
func (c *Config) CheckVersion(binaryVersion string) error {
	if c.MinVersion == "" {
		return nil
	}
	min := canonicalVersion(c.MinVersion)
	if !semver.IsValid(min) {
		return fmt.Errorf("invalid min_version %q in configuration", c.MinVersion)
	}
	cur := canonicalVersion(binaryVersion)
	if !semver.IsValid(cur) {
		return nil
	}
	if semver.Compare(cur, min) < 0 {
		return fmt.Errorf("project requires awesync %s or newer, this binary is %s", min, cur)
	}
	return nil
}

func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return v
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
