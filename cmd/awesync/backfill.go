package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/awesomelab/awesync/internal/backfill"
	"github.com/awesomelab/awesync/internal/source"
)

var backfillCmd = &cobra.Command{
	Use:     "backfill",
	GroupID: "records",
	Short:   "Pull README-only values back into the source",
	Long: `Extract GitHub stars badges and team-website links from the README
tables and copy them into the matching source records.

This reverses the usual data flow for the two fields that tend to be
edited in the README directly. Records are matched by title and year;
only empty source fields are filled unless --overwrite is given, and a
non-empty source value is never cleared.

Example usage:
  awesync backfill                     # Fill empty stars and websites
  awesync backfill --stars             # Only stars badges
  awesync backfill --overwrite         # Replace differing values too
  awesync backfill --output out.json   # Write elsewhere, keep source`,
	Run: func(cmd *cobra.Command, args []string) {
		stars, _ := cmd.Flags().GetBool("stars")
		websites, _ := cmd.Flags().GetBool("websites")
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		output, _ := cmd.Flags().GetString("output")

		project := mustProject()
		srcPath := sourcePath(project)
		snap := loadSource(srcPath)

		readme := readmePath(project)
		doc, err := os.ReadFile(readme)
		if err != nil {
			fail(fmt.Errorf("read %s: %w", readme, err))
		}

		res, warnings, err := backfill.Apply(snap, doc, backfill.Options{
			Stars:     stars,
			Websites:  websites,
			Overwrite: overwrite,
		})
		if err != nil {
			fail(err)
		}
		printWarnings(warnings)

		for _, miss := range res.Unmatched {
			fmt.Printf("%s no source match for %s\n", styles.Warning.Render("⚠"), miss)
		}

		outPath := output
		if outPath == "" {
			outPath = srcPath
		}

		if !res.Changed() && outPath == srcPath {
			fmt.Printf("%s %s\n", styles.Mark(true), res.Summary())
			return
		}

		backupPath, err := source.Save(outPath, snap, source.SaveOptions{Backup: project.Config.Sync.Backup})
		if err != nil {
			fail(err)
		}

		fmt.Printf("%s %s\n", styles.Mark(true), res.Summary())
		fmt.Printf("  %s\n", styles.Muted.Render("wrote "+outPath))
		if backupPath != "" {
			fmt.Printf("  %s\n", styles.Muted.Render("backup: "+backupPath))
		}
	},
}

func init() {
	backfillCmd.Flags().Bool("stars", false, "Backfill GitHub stars badges (default: both fields)")
	backfillCmd.Flags().Bool("websites", false, "Backfill team website links (default: both fields)")
	backfillCmd.Flags().Bool("overwrite", false, "Replace source values that differ from the README")
	backfillCmd.Flags().StringP("output", "o", "", "Write the result to this path instead of the source")

	rootCmd.AddCommand(backfillCmd)
}
