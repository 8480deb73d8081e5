// Package daemon provides the watch loop behind `awesync watch`: it
// re-synchronizes targets whenever the canonical source changes on
// disk.
//
// The daemon watches the source file's directory rather than the file
// itself, because editors and the safe writer replace files by renaming
// a temp file over them, which would orphan a watch on the old inode.
// Events are debounced so a burst of saves collapses into one run.
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ResyncFunc runs one synchronization pass. The daemon calls it once at
// startup, after each debounced source change, and on the periodic
// interval when one is configured. A returned error is logged and
// watching continues.
type ResyncFunc func(ctx context.Context) error

// Config holds configuration for the daemon.
type Config struct {
	// DebounceInterval is how long a change must sit quiet before a
	// re-sync runs. Rapid successive saves batch into one run.
	DebounceInterval time.Duration

	// ResyncInterval, when positive, forces a periodic re-sync even
	// without source changes, catching edits the watcher missed.
	ResyncInterval time.Duration

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 500 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[watch] ", log.LstdFlags),
	}
}

// Daemon watches the source file and schedules re-sync runs.
type Daemon struct {
	sourcePath string
	resync     ResyncFunc
	config     *Config

	watcher   *fsnotify.Watcher
	pendingMu sync.Mutex
	pending   bool
	changedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Daemon watching sourcePath with default configuration.
// Use Start() to begin watching.
func New(sourcePath string, resync ResyncFunc) (*Daemon, error) {
	return NewWithConfig(sourcePath, resync, DefaultConfig())
}

// NewWithConfig creates a daemon with custom configuration.
func NewWithConfig(sourcePath string, resync ResyncFunc, config *Config) (*Daemon, error) {
	if sourcePath == "" {
		return nil, fmt.Errorf("sourcePath cannot be empty")
	}
	if resync == nil {
		return nil, fmt.Errorf("resync callback cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[watch] ", log.LstdFlags)
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = 500 * time.Millisecond
	}

	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		sourcePath: abs,
		resync:     resync,
		config:     config,
		watcher:    watcher,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Start begins watching. It runs one synchronization pass up front so
// the targets are current from the moment the daemon is alive, then
// blocks until ctx is cancelled or Stop is called. A failed Start
// closes the watcher; construct a new daemon to retry.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Printf("watching %s", d.sourcePath)

	if err := d.resync(ctx); err != nil {
		d.close()
		return fmt.Errorf("initial sync failed: %w", err)
	}

	if err := d.watcher.Add(filepath.Dir(d.sourcePath)); err != nil {
		d.close()
		return fmt.Errorf("failed to watch source directory: %w", err)
	}

	d.wg.Add(2)
	go d.watchFileEvents()
	go d.processChanges()

	if d.config.ResyncInterval > 0 {
		d.wg.Add(1)
		go d.periodicResync()
	}

	select {
	case <-ctx.Done():
		d.config.Logger.Println("shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.close()
	d.wg.Wait()
	d.config.Logger.Println("stopped")
	return nil
}

// close cancels the daemon context and releases the watcher. Safe to
// call more than once; fsnotify treats a second Close as a no-op.
func (d *Daemon) close() {
	d.cancel()
	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("error closing watcher: %v", err)
	}
}

// watchFileEvents filters filesystem events down to the source file and
// marks it changed.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			// Renames and removes matter too: atomic saves replace
			// the file rather than writing it in place.
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != d.sourcePath {
				continue
			}
			d.config.Logger.Printf("source event: %s %s", event.Op, event.Name)
			d.markChanged()

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("watcher error: %v", err)
		}
	}
}

func (d *Daemon) markChanged() {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	d.pending = true
	d.changedAt = time.Now()
}

// processChanges runs the re-sync once a pending change has sat quiet
// for the debounce interval.
func (d *Daemon) processChanges() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			if !d.takePending() {
				continue
			}
			d.config.Logger.Println("source changed, re-synchronizing")
			if err := d.resync(d.ctx); err != nil {
				d.config.Logger.Printf("re-sync failed: %v", err)
			}
		}
	}
}

// takePending claims the pending change if it has settled. A change
// younger than the debounce interval stays queued for the next tick.
func (d *Daemon) takePending() bool {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()

	if !d.pending || time.Since(d.changedAt) < d.config.DebounceInterval {
		return false
	}
	d.pending = false
	return true
}

func (d *Daemon) periodicResync() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.ResyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.config.Logger.Println("interval re-sync")
			if err := d.resync(d.ctx); err != nil {
				d.config.Logger.Printf("re-sync failed: %v", err)
			}
		}
	}
}
