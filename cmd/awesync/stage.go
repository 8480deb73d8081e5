package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/awesomelab/awesync/internal/record"
	"github.com/awesomelab/awesync/internal/source"
	"github.com/awesomelab/awesync/internal/staging"
)

var stageCmd = &cobra.Command{
	Use:     "stage",
	GroupID: "records",
	Short:   "Manage the staging store for externally produced records",
	Long: `Hold candidate records in a local SQLite store until a curator promotes
them into the canonical source.

External pipelines (paper scrapers, retrieval agents) stage their
findings with "stage add"; "stage list" reviews them; "stage promote"
validates, merges them into the source file, and marks the rows
promoted. Promoted rows stay in the store as an audit trail.

The store lives at .awesync/stage.db next to the configuration file.`,
}

var stageAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Stage a candidate record",
	Long: `Stage one record for later promotion. Year, title, and category are
required; the remaining fields mirror the source file schema.

Example usage:
  awesync stage add --category ai-agents --year 2025 \
      --title "CellVoyager" --team "Comp Bio Lab" \
      --code https://github.com/example/cellvoyager \
      --origin biorxiv-scraper`,
	Run: func(cmd *cobra.Command, args []string) {
		project := mustProject()

		category, _ := cmd.Flags().GetString("category")
		origin, _ := cmd.Flags().GetString("origin")

		var rec record.Record
		rec.Year, _ = cmd.Flags().GetString("year")
		rec.Title, _ = cmd.Flags().GetString("title")
		rec.Team, _ = cmd.Flags().GetString("team")
		rec.TeamWebsite, _ = cmd.Flags().GetString("website")
		rec.Affiliation, _ = cmd.Flags().GetString("affiliation")
		rec.Domain, _ = cmd.Flags().GetString("domain")
		rec.Venue, _ = cmd.Flags().GetString("venue")
		rec.PaperURL, _ = cmd.Flags().GetString("paper")
		rec.CodeURL, _ = cmd.Flags().GetString("code")
		rec.GitHubStars, _ = cmd.Flags().GetString("stars")

		store := openStaging(project)
		defer store.Close()

		entry, err := store.Add(context.Background(), category, rec, origin)
		if err != nil {
			fail(err)
		}

		fmt.Printf("%s staged #%d: %q in %s\n", styles.Mark(true), entry.ID, rec.Title, category)
	},
}

var stageListCmd = &cobra.Command{
	Use:   "list",
	Short: "List staged records",
	Long: `List staged records, pending ones by default.

Example usage:
  awesync stage list                      # Pending records
  awesync stage list --all                # Including promoted
  awesync stage list --category ai-agents
  awesync stage list --since "2 weeks ago"`,
	Run: func(cmd *cobra.Command, args []string) {
		project := mustProject()

		category, _ := cmd.Flags().GetString("category")
		sinceExpr, _ := cmd.Flags().GetString("since")
		all, _ := cmd.Flags().GetBool("all")
		limit, _ := cmd.Flags().GetInt("limit")

		since, err := parseSince(sinceExpr)
		if err != nil {
			fail(err)
		}

		store := openStaging(project)
		defer store.Close()

		entries, err := store.List(context.Background(), staging.ListOptions{
			Category:        category,
			Since:           since,
			IncludePromoted: all,
			Limit:           limit,
		})
		if err != nil {
			fail(err)
		}

		if len(entries) == 0 {
			fmt.Println("No staged records.")
			return
		}

		for _, e := range entries {
			status := styles.Muted.Render("pending ")
			if e.Promoted() {
				status = styles.Success.Render("promoted")
			}
			line := fmt.Sprintf("#%-4d %s  %-14s %s  %s",
				e.ID, status, e.Category, e.Record.Year, styles.Bold.Render(e.Record.Title))
			fmt.Println(line)

			detail := "staged " + e.StagedAt.Local().Format("2006-01-02 15:04")
			if e.Origin != "" {
				detail += ", origin " + e.Origin
			}
			if e.Promoted() {
				detail += ", promoted " + e.PromotedAt.Local().Format("2006-01-02 15:04")
			}
			fmt.Printf("      %s\n", styles.Muted.Render(detail))
		}
	},
}

var stagePromoteCmd = &cobra.Command{
	Use:   "promote [id...]",
	Short: "Merge staged records into the source",
	Long: `Validate staged records, merge them into the canonical source file,
and mark the rows promoted.

Promotion is all or nothing: when any selected record fails validation
or collides with an existing source entry, neither the source nor the
store changes.

Example usage:
  awesync stage promote 3 7            # Promote two records by id
  awesync stage promote --since "yesterday"
  awesync stage promote 3 --sync       # Synchronize targets afterwards`,
	Run: func(cmd *cobra.Command, args []string) {
		project := mustProject()

		sinceExpr, _ := cmd.Flags().GetString("since")
		runSync, _ := cmd.Flags().GetBool("sync")

		ids, err := parseIDs(args)
		if err != nil {
			fail(err)
		}

		store := openStaging(project)
		defer store.Close()

		ctx := context.Background()

		if sinceExpr != "" {
			if len(ids) > 0 {
				fail(fmt.Errorf("pass entry ids or --since, not both"))
			}
			since, err := parseSince(sinceExpr)
			if err != nil {
				fail(err)
			}
			pending, err := store.List(ctx, staging.ListOptions{Since: since})
			if err != nil {
				fail(err)
			}
			for _, e := range pending {
				ids = append(ids, e.ID)
			}
		}

		if len(ids) == 0 {
			fmt.Println("Nothing to promote.")
			return
		}

		srcPath := sourcePath(project)
		snap, warnings, err := source.LoadOrInit(srcPath)
		if err != nil {
			fail(err)
		}
		printWarnings(warnings)

		entries, err := store.Promote(ctx, snap, ids)
		if err != nil {
			fail(err)
		}

		backupPath, err := source.Save(srcPath, snap, source.SaveOptions{Backup: project.Config.Sync.Backup})
		if err != nil {
			fail(err)
		}

		// The source write is the commit point. A failure stamping the
		// rows leaves them pending, which re-promotes as a harmless
		// duplicate error rather than losing data.
		if _, err := store.MarkPromoted(ctx, ids, time.Now()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: source updated, but marking rows promoted failed: %v\n", err)
		}

		fmt.Printf("%s promoted %d record(s) into %s\n", styles.Mark(true), len(entries), srcPath)
		for _, e := range entries {
			fmt.Printf("  #%d %q -> %s\n", e.ID, e.Record.Title, e.Category)
		}
		if backupPath != "" {
			fmt.Printf("  %s\n", styles.Muted.Render("backup: "+backupPath))
		}

		if runSync {
			runFullSync(project, snap)
		}
	},
}

var stageRmCmd = &cobra.Command{
	Use:   "rm <id...>",
	Short: "Remove staged records",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		project := mustProject()

		ids, err := parseIDs(args)
		if err != nil {
			fail(err)
		}

		store := openStaging(project)
		defer store.Close()

		n, err := store.Remove(context.Background(), ids)
		if err != nil {
			fail(err)
		}

		fmt.Printf("%s removed %d record(s)\n", styles.Mark(true), n)
	},
}

func parseIDs(args []string) ([]int64, error) {
	var ids []int64
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid entry id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func init() {
	stageAddCmd.Flags().StringP("category", "c", "", "Category key (required)")
	stageAddCmd.Flags().String("year", "", "Publication year (required)")
	stageAddCmd.Flags().String("title", "", "Project or paper title (required)")
	stageAddCmd.Flags().String("team", "", "Team name")
	stageAddCmd.Flags().String("website", "", "Team website URL")
	stageAddCmd.Flags().String("affiliation", "", "Team affiliation")
	stageAddCmd.Flags().String("domain", "", "Application domain")
	stageAddCmd.Flags().String("venue", "", "Publication venue")
	stageAddCmd.Flags().String("paper", "", "Paper URL")
	stageAddCmd.Flags().String("code", "", "Code repository URL")
	stageAddCmd.Flags().String("stars", "", "GitHub stars badge URL or owner/repo")
	stageAddCmd.Flags().String("origin", "", "Where this record came from, e.g. a pipeline name")
	_ = stageAddCmd.MarkFlagRequired("category")
	_ = stageAddCmd.MarkFlagRequired("year")
	_ = stageAddCmd.MarkFlagRequired("title")

	stageListCmd.Flags().StringP("category", "c", "", "Only show one category")
	stageListCmd.Flags().String("since", "", `Only show records staged at or after, e.g. "yesterday"`)
	stageListCmd.Flags().Bool("all", false, "Include promoted records")
	stageListCmd.Flags().Int("limit", 0, "Show at most N records (0 = no limit)")

	stagePromoteCmd.Flags().String("since", "", `Promote all pending records staged at or after, e.g. "yesterday"`)
	stagePromoteCmd.Flags().Bool("sync", false, "Synchronize targets after promoting")

	stageCmd.AddCommand(stageAddCmd)
	stageCmd.AddCommand(stageListCmd)
	stageCmd.AddCommand(stagePromoteCmd)
	stageCmd.AddCommand(stageRmCmd)
	rootCmd.AddCommand(stageCmd)
}
