package syncer

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/awesomelab/awesync/internal/history"
	"github.com/awesomelab/awesync/internal/record"
	"github.com/awesomelab/awesync/internal/target"
)

// Target pairs a document path with its codec format.
type Target struct {
	Path   string
	Format target.Format
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	// Synchronizer to drive. If nil, a default Engine is used.
	Synchronizer Synchronizer

	// History receives one entry per target per run. If nil, runs are
	// not recorded.
	History *history.Log

	// Logger for run progress. If nil, a default logger writing to
	// stderr is used.
	Logger *log.Logger
}

// Runner synchronizes a set of targets against one source snapshot,
// sequentially and in order. The snapshot is loaded once by the caller
// and shared across targets, so every target sees the same source state
// even if the source file changes mid-run.
type Runner struct {
	sync    Synchronizer
	history *history.Log
	logger  *log.Logger
}

// NewRunner creates a Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[syncer] ", log.LstdFlags)
	}
	s := cfg.Synchronizer
	if s == nil {
		s = New(Config{Logger: logger})
	}
	return &Runner{sync: s, history: cfg.History, logger: logger}
}

// Run synchronizes every target. A failure on one target is recorded and
// does not stop the remaining targets; the errors are joined and returned
// alongside the results of the targets that completed.
func (r *Runner) Run(snap *record.Snapshot, targets []Target, opts Options) ([]*SyncResult, error) {
	var results []*SyncResult
	var errs []error

	for _, t := range targets {
		start := time.Now()
		res, err := r.sync.Synchronize(snap, t.Path, t.Format, opts)
		r.record(t, res, opts, err, time.Since(start))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Path, err))
			continue
		}
		results = append(results, res)
	}

	return results, errors.Join(errs...)
}

func (r *Runner) record(t Target, res *SyncResult, opts Options, runErr error, elapsed time.Duration) {
	if r.history == nil {
		return
	}
	e := history.Entry{
		Time:       time.Now(),
		Target:     t.Path,
		Format:     t.Format.String(),
		DryRun:     opts.DryRun,
		DurationMS: elapsed.Milliseconds(),
	}
	if res != nil {
		e.Changed = res.Changed
		e.BackupPath = res.BackupPath
		e.Warnings = len(res.Warnings)
	}
	if runErr != nil {
		e.Error = runErr.Error()
	}
	if err := r.history.Append(e); err != nil {
		r.logger.Printf("warning: failed to record run history: %v", err)
	}
}
