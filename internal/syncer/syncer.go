// Package syncer orchestrates synchronization runs: load a target
// document, parse it with the codec registered for its format, compare
// the parsed records against the canonical snapshot, and rewrite the
// document when they differ.
//
// # Architecture
//
// The engine is written once against the target.Codec capability and
// never inspects format-specific structure itself. A run is synchronous
// and touches the filesystem at most twice: one read of the target and,
// when changes exist, one safe write (backup + temp file + rename). Dry
// runs perform the read and the comparison but never write; they report
// a unified diff instead.
//
// # Usage
//
//	eng := syncer.New(syncer.Config{})
//	res, err := eng.Synchronize(snap, "README.md", target.FormatMarkdown, syncer.Options{})
//	if err != nil {
//	    // classify with syncer.IsParseError, syncer.IsIOError, ...
//	}
//	if res.Changed {
//	    fmt.Println(res.Changes.Summary())
//	}
package syncer

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"github.com/awesomelab/awesync/internal/changeset"
	"github.com/awesomelab/awesync/internal/record"
	"github.com/awesomelab/awesync/internal/safewrite"
	"github.com/awesomelab/awesync/internal/target"
	"github.com/awesomelab/awesync/internal/textdiff"
)

// Synchronizer is the contract collaborators program against. The CLI,
// the watch daemon, and the preview server all drive syncs through it.
type Synchronizer interface {
	// Synchronize brings the target document at targetPath in line with
	// the snapshot. It returns a result describing what happened; a nil
	// error with Changed=false means the target was already current.
	Synchronize(snap *record.Snapshot, targetPath string, format target.Format, opts Options) (*SyncResult, error)
}

// Options controls a single synchronization.
type Options struct {
	Force      bool // Rewrite the target even when no changes are detected
	SkipBackup bool // Do not snapshot the target before replacing it
	DryRun     bool // Compute and report changes without writing anything
}

// SyncResult reports the outcome of synchronizing one target.
type SyncResult struct {
	Target     string               // Path of the target document
	Format     target.Format        // Codec format used
	Changed    bool                 // Whether the document was (or would be) rewritten
	BackupPath string               // Backup created before the write, empty if none
	Warnings   []string             // Non-fatal conditions, never silently dropped
	Changes    *changeset.ChangeSet // Structural comparison of target vs source
	Diff       string               // Unified diff of the rewrite, dry runs only
}

// Config configures an Engine.
type Config struct {
	// Logger for run progress. If nil, a default logger writing to
	// stderr is used.
	Logger *log.Logger
}

// Engine is the standard Synchronizer implementation.
type Engine struct {
	logger *log.Logger
}

// New creates an Engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[syncer] ", log.LstdFlags)
	}
	return &Engine{logger: logger}
}

// Synchronize implements the Synchronizer contract.
//
// Flow: read target -> codec.Parse -> changeset.Diff -> stop with
// Changed=false when the diff is empty and Force is off -> codec.Apply
// to regenerate the document -> safe write (or diff report on dry run).
func (e *Engine) Synchronize(snap *record.Snapshot, targetPath string, format target.Format, opts Options) (*SyncResult, error) {
	codec, err := target.New(format)
	if err != nil {
		return nil, err
	}

	doc, err := os.ReadFile(targetPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", safewrite.ErrTargetMissing, targetPath)
		}
		return nil, fmt.Errorf("failed to read target %s: %w", targetPath, err)
	}

	res := &SyncResult{Target: targetPath, Format: format}

	parsed, warnings, err := codec.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", targetPath, err)
	}
	res.Warnings = append(res.Warnings, warnings...)

	res.Changes = changeset.Diff(parsed, snap)
	if res.Changes.Empty() && !opts.Force {
		e.logger.Printf("%s is up to date", targetPath)
		return res, nil
	}

	updated, applyWarnings, err := codec.Apply(doc, snap)
	if err != nil {
		return nil, fmt.Errorf("apply %s: %w", targetPath, err)
	}
	res.Warnings = append(res.Warnings, applyWarnings...)

	// A detected change can still regenerate to identical bytes, for
	// example when the difference lives in a field the format does not
	// render. Identical bytes mean no write unless forced.
	if bytes.Equal(updated, doc) && !opts.Force {
		e.logger.Printf("%s is up to date", targetPath)
		return res, nil
	}

	if opts.DryRun {
		res.Changed = !bytes.Equal(updated, doc)
		if res.Changed {
			res.Diff = textdiff.Unified(
				targetPath+" (on disk)",
				targetPath+" (regenerated)",
				string(doc), string(updated))
		}
		e.logger.Printf("dry run: %s would have %s", targetPath, res.Changes.Summary())
		return res, nil
	}

	wres, err := safewrite.Write(targetPath, updated, safewrite.Options{Backup: !opts.SkipBackup})
	if err != nil {
		return nil, err
	}
	res.BackupPath = wres.BackupPath
	res.Changed = true

	e.logger.Printf("synchronized %s (%s): %s", targetPath, format, res.Changes.Summary())
	if len(res.Warnings) > 0 {
		e.logger.Printf("%s: %d warning(s)", targetPath, len(res.Warnings))
	}
	return res, nil
}
