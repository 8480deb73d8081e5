package main

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/awesomelab/awesync/internal/configfile"
	"github.com/awesomelab/awesync/internal/record"
	"github.com/awesomelab/awesync/internal/syncer"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Synchronize targets with the canonical source",
	Long: `Regenerate the configured targets from the canonical source file.

Each target is parsed, compared against the source, and rewritten only
when records actually differ. Rewrites replace the managed regions of
the document (category tables in the README, the projectData block and
statistics fragments in the HTML page); everything else is preserved
byte for byte. A timestamped .bak sibling is written before each
rewrite unless backups are off.

Example usage:
  awesync sync                       # Sync README and HTML page
  awesync sync --target readme       # Sync only the README
  awesync sync --dry-run             # Show what would change
  awesync sync --force --no-backup   # Rewrite unconditionally, no backup

Exit status: 0 on success, 2 validation error, 3 parse error,
4 target format error, 5 io error.`,
	Run: func(cmd *cobra.Command, args []string) {
		which, _ := cmd.Flags().GetString("target")
		force, _ := cmd.Flags().GetBool("force")
		noBackup, _ := cmd.Flags().GetBool("no-backup")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		project := mustProject()
		snap := loadSource(sourcePath(project))

		targets, err := syncTargets(project, which)
		if err != nil {
			fail(err)
		}

		runner := syncer.NewRunner(syncer.RunnerConfig{
			History: openHistory(project),
			Logger:  log.New(io.Discard, "", 0),
		})

		opts := syncer.Options{
			Force:      force,
			SkipBackup: noBackup || !project.Config.Sync.Backup,
			DryRun:     dryRun,
		}

		results, err := runner.Run(snap, targets, opts)
		printResults(results)
		if err != nil {
			fail(err)
		}
	},
}

// printResults renders one line per synchronized target, plus dry-run
// diffs and any warnings collected along the way.
func printResults(results []*syncer.SyncResult) {
	for _, res := range results {
		name := fmt.Sprintf("%s (%s)", res.Target, res.Format)
		switch {
		case res.Changed && res.Diff != "":
			fmt.Printf("%s %s would change: %s\n", styles.Info.Render("~"), name, res.Changes.Summary())
			fmt.Println(styles.ColorizeDiff(res.Diff))
		case res.Changed:
			fmt.Printf("%s %s: %s\n", styles.Mark(true), name, res.Changes.Summary())
			if res.BackupPath != "" {
				fmt.Printf("  %s\n", styles.Muted.Render("backup: "+res.BackupPath))
			}
		default:
			fmt.Printf("%s %s is up to date\n", styles.Mark(true), name)
		}
		for _, w := range res.Warnings {
			fmt.Printf("  %s %s\n", styles.Warning.Render("⚠"), w)
		}
	}
}

// runFullSync synchronizes all configured targets against the snapshot.
// Used by commands that modify the source and were asked to sync after.
func runFullSync(project *configfile.Project, snap *record.Snapshot) {
	targets, err := syncTargets(project, "all")
	if err != nil {
		fail(err)
	}
	runner := syncer.NewRunner(syncer.RunnerConfig{
		History: openHistory(project),
		Logger:  log.New(io.Discard, "", 0),
	})
	results, err := runner.Run(snap, targets, syncer.Options{
		SkipBackup: !project.Config.Sync.Backup,
	})
	printResults(results)
	if err != nil {
		fail(err)
	}
}

func init() {
	syncCmd.Flags().StringP("target", "t", "all", "Which target to sync: readme, html, or all")
	syncCmd.Flags().Bool("force", false, "Rewrite targets even when nothing changed")
	syncCmd.Flags().Bool("no-backup", false, "Skip the .bak snapshot before rewriting")
	syncCmd.Flags().Bool("dry-run", false, "Report changes without writing anything")

	rootCmd.AddCommand(syncCmd)
}
