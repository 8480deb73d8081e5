package main

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/awesomelab/awesync/internal/syncer"
)

var diffCmd = &cobra.Command{
	Use:     "diff",
	GroupID: "sync",
	Short:   "Show what a sync would change, without writing",
	Long: `Compare every configured target against the canonical source and print
a unified diff of the rewrite each one would receive.

The command never writes: no target files, no backups, no run history.

Example usage:
  awesync diff                 # Diff README and HTML page
  awesync diff --target html   # Diff only the HTML page`,
	Run: func(cmd *cobra.Command, args []string) {
		which, _ := cmd.Flags().GetString("target")

		project := mustProject()
		snap := loadSource(sourcePath(project))

		targets, err := syncTargets(project, which)
		if err != nil {
			fail(err)
		}

		runner := syncer.NewRunner(syncer.RunnerConfig{
			Logger: log.New(io.Discard, "", 0),
		})

		results, err := runner.Run(snap, targets, syncer.Options{DryRun: true})

		changed := 0
		for _, res := range results {
			for _, w := range res.Warnings {
				fmt.Printf("%s %s: %s\n", styles.Warning.Render("⚠"), res.Target, w)
			}
			if !res.Changed {
				continue
			}
			changed++
			fmt.Printf("%s %s (%s): %s\n", styles.Info.Render("~"), res.Target, res.Format, res.Changes.Summary())
			fmt.Println(styles.ColorizeDiff(res.Diff))
		}

		if err != nil {
			fail(err)
		}
		if changed == 0 {
			fmt.Printf("%s all targets are up to date\n", styles.Mark(true))
		}
	},
}

func init() {
	diffCmd.Flags().StringP("target", "t", "all", "Which target to diff: readme, html, or all")

	rootCmd.AddCommand(diffCmd)
}
