package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent synchronization runs",
	Long: `Print the project's synchronization history, oldest first.

Every sync, watch-daemon run, and promotion-triggered sync appends one
entry per target to .awesync/history.jsonl; dry runs are marked as such.

Example usage:
  awesync log                     # Last 20 runs
  awesync log --limit 5
  awesync log --since "yesterday"`,
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		sinceExpr, _ := cmd.Flags().GetString("since")

		project := mustProject()

		since, err := parseSince(sinceExpr)
		if err != nil {
			fail(err)
		}

		entries, err := openHistory(project).Recent(limit, since)
		if err != nil {
			fail(err)
		}

		if len(entries) == 0 {
			fmt.Println("No recorded runs.")
			return
		}

		for _, e := range entries {
			status := "unchanged"
			if e.Changed {
				status = styles.Info.Render("updated")
			}
			if e.DryRun {
				status += styles.Muted.Render(" (dry run)")
			}

			line := fmt.Sprintf("%s %s  %s (%s) %s in %dms",
				styles.Mark(e.Error == ""),
				e.Time.Local().Format("2006-01-02 15:04:05"),
				e.Target, e.Format, status, e.DurationMS)
			if e.Warnings > 0 {
				line += styles.Warning.Render(fmt.Sprintf("  %d warning(s)", e.Warnings))
			}
			fmt.Println(line)

			if e.Error != "" {
				fmt.Printf("      %s\n", styles.Error.Render(e.Error))
			}
		}
	},
}

func init() {
	logCmd.Flags().IntP("limit", "n", 20, "Show at most N entries (0 = no limit)")
	logCmd.Flags().String("since", "", `Only show runs at or after, e.g. "2 days ago"`)

	rootCmd.AddCommand(logCmd)
}
