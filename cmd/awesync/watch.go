package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/awesomelab/awesync/internal/daemon"
	"github.com/awesomelab/awesync/internal/logging"
	"github.com/awesomelab/awesync/internal/source"
	"github.com/awesomelab/awesync/internal/syncer"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	GroupID: "sync",
	Short:   "Watch the source and re-sync targets on change",
	Long: `Run a foreground daemon that re-synchronizes every configured target
whenever the source file changes.

Changes are debounced so editors that save in bursts trigger one run.
An optional interval forces periodic re-syncs even without changes,
and --log-file adds a size-rotated log next to the stderr output.

Every run is recorded in the project history (see "awesync log").

Example usage:
  awesync watch                        # Re-sync on source change
  awesync watch --interval 10m        # Also re-sync every 10 minutes
  awesync watch --log-file watch.log  # Keep a rotating log file`,
	Run: func(cmd *cobra.Command, args []string) {
		interval, _ := cmd.Flags().GetDuration("interval")
		debounce, _ := cmd.Flags().GetDuration("debounce")
		logFile, _ := cmd.Flags().GetString("log-file")

		project := mustProject()
		srcPath := sourcePath(project)

		targets, err := syncTargets(project, "all")
		if err != nil {
			fail(err)
		}

		logger := logging.New("watch")
		if logFile != "" {
			var closer io.Closer
			logger, closer = logging.NewTee("watch", logFile)
			defer closer.Close()
		}

		runner := syncer.NewRunner(syncer.RunnerConfig{
			History: openHistory(project),
			Logger:  logger,
		})

		opts := syncer.Options{SkipBackup: !project.Config.Sync.Backup}
		resync := func(ctx context.Context) error {
			snap, warnings, err := source.Load(srcPath)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				logger.Printf("warning: %s", w)
			}
			_, err = runner.Run(snap, targets, opts)
			return err
		}

		cfg := daemon.DefaultConfig()
		cfg.Logger = logger
		cfg.ResyncInterval = interval
		if debounce > 0 {
			cfg.DebounceInterval = debounce
		}

		d, err := daemon.NewWithConfig(srcPath, resync, cfg)
		if err != nil {
			fail(err)
		}

		fmt.Printf("Source: %s\n", srcPath)
		for _, t := range targets {
			fmt.Printf("Target: %s (%s)\n", t.Path, t.Format)
		}
		fmt.Printf("\nPress Ctrl+C to stop\n\n")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		// Start blocks until the context is cancelled
		if err := d.Start(ctx); err != nil {
			fail(err)
		}
	},
}

func init() {
	watchCmd.Flags().Duration("interval", 0, "Also re-sync on this interval (0 = disabled)")
	watchCmd.Flags().Duration("debounce", 500*time.Millisecond, "Quiet period before reacting to a change")
	watchCmd.Flags().String("log-file", "", "Also log to a size-rotated file at this path")

	rootCmd.AddCommand(watchCmd)
}
