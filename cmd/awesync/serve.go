package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/awesomelab/awesync/internal/daemon"
	"github.com/awesomelab/awesync/internal/logging"
	"github.com/awesomelab/awesync/internal/preview"
	"github.com/awesomelab/awesync/internal/source"
	"github.com/awesomelab/awesync/internal/syncer"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "sync",
	Short:   "Watch the source and preview the HTML page with live reload",
	Long: `Combine the watch daemon with a local preview server.

The server serves the directory containing the HTML target and injects
a live-reload script into every HTML page it serves. After each re-sync
that changes a target, connected browsers refresh themselves over the
WebSocket at /ws. A /health endpoint reports server status.

Example usage:
  awesync serve               # Port from config, default 8080
  awesync serve --port 3000`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")
		interval, _ := cmd.Flags().GetDuration("interval")

		project := mustProject()
		srcPath := sourcePath(project)

		targets, err := syncTargets(project, "all")
		if err != nil {
			fail(err)
		}

		if port == 0 {
			port = project.Config.Preview.Port
		}
		if port == 0 {
			port = 8080
		}

		logger := logging.New("serve")

		server, err := preview.NewServer(filepath.Dir(htmlPath(project)), &preview.Config{
			Port:   port,
			Logger: logger,
		})
		if err != nil {
			fail(err)
		}

		runner := syncer.NewRunner(syncer.RunnerConfig{
			History: openHistory(project),
			Logger:  logger,
		})

		opts := syncer.Options{SkipBackup: !project.Config.Sync.Backup}
		resync := func(ctx context.Context) error {
			start := time.Now()
			snap, warnings, err := source.Load(srcPath)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				logger.Printf("warning: %s", w)
			}
			results, err := runner.Run(snap, targets, opts)
			if err != nil {
				return err
			}
			changed := 0
			for _, res := range results {
				if res.Changed {
					changed++
				}
			}
			server.NotifySync(len(results), changed, time.Since(start))
			return nil
		}

		cfg := daemon.DefaultConfig()
		cfg.Logger = logger
		cfg.ResyncInterval = interval

		d, err := daemon.NewWithConfig(srcPath, resync, cfg)
		if err != nil {
			fail(err)
		}

		if err := server.Start(); err != nil {
			fail(err)
		}

		fmt.Printf("Preview server: http://localhost:%d\n", port)
		fmt.Printf("WebSocket endpoint: ws://localhost:%d/ws\n", port)
		fmt.Printf("Health check: http://localhost:%d/health\n", port)
		fmt.Printf("Watching %s\n", srcPath)
		fmt.Printf("\nPress Ctrl+C to stop\n\n")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := d.Start(ctx); err != nil {
			_ = server.Stop()
			fail(err)
		}

		fmt.Println("\nShutting down preview server...")
		if err := server.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (default: config, then 8080)")
	serveCmd.Flags().Duration("interval", 0, "Also re-sync on this interval (0 = disabled)")

	rootCmd.AddCommand(serveCmd)
}
