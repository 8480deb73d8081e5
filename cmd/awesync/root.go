package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/awesomelab/awesync/internal/configfile"
	"github.com/awesomelab/awesync/internal/history"
	"github.com/awesomelab/awesync/internal/record"
	"github.com/awesomelab/awesync/internal/source"
	"github.com/awesomelab/awesync/internal/staging"
	"github.com/awesomelab/awesync/internal/syncer"
	"github.com/awesomelab/awesync/internal/target"
	"github.com/awesomelab/awesync/internal/ui"

	_ "github.com/awesomelab/awesync/internal/target/html"
	_ "github.com/awesomelab/awesync/internal/target/markdown"
)

// version is stamped at build time via -ldflags "-X main.version=v1.2.3".
var version = "dev"

// styles is configured once in Execute and shared by every command.
var styles ui.Styles

var rootCmd = &cobra.Command{
	Use:   "awesync",
	Short: "Keep awesome-list documents in sync with their canonical source",
	Long: `awesync keeps a curated project list consistent across three files:
a canonical JSON (or YAML) source, a README with per-category Markdown
tables, and an HTML page embedding the same data as a JavaScript object.

The source file is the single source of truth. Targets are regenerated
from it; surrounding prose, layout, and unrelated markup stay untouched
byte for byte, and every rewrite leaves a timestamped .bak sibling unless
backups are disabled.

Configuration lives in .awesync.toml, discovered in the working directory
or any ancestor. Flags override AWESYNC_* environment variables, which
override the configuration file.`,
}

// Execute runs the CLI.
func Execute() {
	styles = ui.Init()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "sync", Title: "Synchronization Commands:"},
		&cobra.Group{ID: "records", Title: "Record Commands:"},
	)

	rootCmd.PersistentFlags().String("source", "", "Canonical source file (overrides config)")
	rootCmd.PersistentFlags().String("readme", "", "Markdown target file (overrides config)")
	rootCmd.PersistentFlags().String("html", "", "HTML target file (overrides config)")

	viper.SetEnvPrefix("AWESYNC")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("source", rootCmd.PersistentFlags().Lookup("source"))
	_ = viper.BindPFlag("readme", rootCmd.PersistentFlags().Lookup("readme"))
	_ = viper.BindPFlag("html", rootCmd.PersistentFlags().Lookup("html"))
}

// mustProject locates the project configuration from the working
// directory and enforces its min_version gate.
func mustProject() *configfile.Project {
	project, err := configfile.Discover(".")
	if err != nil {
		fail(err)
	}
	if err := project.Config.CheckVersion(version); err != nil {
		fail(err)
	}
	return project
}

// sourcePath resolves the source file: flag, then AWESYNC_SOURCE, then
// the project configuration.
func sourcePath(p *configfile.Project) string {
	if v := viper.GetString("source"); v != "" {
		return v
	}
	return p.SourcePath()
}

func readmePath(p *configfile.Project) string {
	if v := viper.GetString("readme"); v != "" {
		return v
	}
	return p.ReadmePath()
}

func htmlPath(p *configfile.Project) string {
	if v := viper.GetString("html"); v != "" {
		return v
	}
	return p.HTMLPath()
}

// syncTargets maps a --target selector onto the configured target files.
func syncTargets(p *configfile.Project, which string) ([]syncer.Target, error) {
	switch which {
	case "readme":
		return []syncer.Target{{Path: readmePath(p), Format: target.FormatMarkdown}}, nil
	case "html":
		return []syncer.Target{{Path: htmlPath(p), Format: target.FormatHTML}}, nil
	case "", "all":
		return []syncer.Target{
			{Path: readmePath(p), Format: target.FormatMarkdown},
			{Path: htmlPath(p), Format: target.FormatHTML},
		}, nil
	}
	return nil, fmt.Errorf("unknown target %q (expected readme, html, or all)", which)
}

// openHistory returns the run log inside the project data directory.
func openHistory(p *configfile.Project) *history.Log {
	return history.Open(filepath.Join(p.DataDir(), history.DefaultFileName))
}

// openStaging opens the staging store inside the project data directory.
func openStaging(p *configfile.Project) *staging.Store {
	if _, err := p.EnsureDataDir(); err != nil {
		fail(err)
	}
	store, err := staging.Open(filepath.Join(p.DataDir(), staging.DefaultFileName))
	if err != nil {
		fail(err)
	}
	return store
}

// loadSource reads the source snapshot, printing loader warnings.
func loadSource(path string) *record.Snapshot {
	snap, warnings, err := source.Load(path)
	if err != nil {
		fail(err)
	}
	printWarnings(warnings)
	return snap
}

func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Printf("%s %s\n", styles.Warning.Render("⚠"), w)
	}
}

// fail prints a classified error and exits with the matching status:
// 2 validation, 3 parse, 4 target format, 5 io, 1 anything else.
func fail(err error) {
	label, code := "Error", 1
	switch {
	case syncer.IsValidationError(err):
		label, code = "Validation error", 2
	case syncer.IsParseError(err):
		label, code = "Parse error", 3
	case syncer.IsTargetFormatError(err):
		label, code = "Target format error", 4
	case syncer.IsIOError(err):
		label, code = "IO error", 5
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", styles.Error.Render(label), err)
	os.Exit(code)
}

// parseSince turns a --since value into a cutoff time. RFC 3339 and
// YYYY-MM-DD forms parse directly; anything else goes through the
// natural-language parser ("yesterday", "2 weeks ago").
func parseSince(expr string) (time.Time, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, expr); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", expr); err == nil {
		return t, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	r, err := w.Parse(expr, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time expression %q: %w", expr, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("could not understand time expression %q", expr)
	}
	return r.Time, nil
}
