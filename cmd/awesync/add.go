package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/awesomelab/awesync/internal/record"
	"github.com/awesomelab/awesync/internal/source"
)

var addCmd = &cobra.Command{
	Use:     "add",
	GroupID: "records",
	Short:   "Add a record to the source interactively",
	Long: `Prompt for a new project/paper record and append it to the canonical
source file. Year and title are required; everything else is optional.

When the GitHub stars badge is left empty and the code URL points at a
github.com repository, the badge is derived from the repository's
owner/repo path automatically.

The source file is written through the usual safety path: a timestamped
.bak sibling first (unless backups are off), then an atomic replace.

Example usage:
  awesync add                          # Prompt for category and fields
  awesync add --category ai-agents     # Skip the category prompt
  awesync add --sync                   # Synchronize targets afterwards`,
	Run: func(cmd *cobra.Command, args []string) {
		category, _ := cmd.Flags().GetString("category")
		runSync, _ := cmd.Flags().GetBool("sync")

		project := mustProject()
		srcPath := sourcePath(project)

		snap, warnings, err := source.LoadOrInit(srcPath)
		if err != nil {
			fail(err)
		}
		printWarnings(warnings)

		var rec record.Record
		var identity []huh.Field

		if category == "" {
			var options []huh.Option[string]
			for _, cat := range snap.CanonicalCategories() {
				options = append(options, huh.NewOption(record.DisplayName(cat), cat))
			}
			identity = append(identity, huh.NewSelect[string]().
				Title("Category").
				Options(options...).
				Value(&category))
		}

		identity = append(identity,
			huh.NewInput().Title("Year").Placeholder("2025").
				Validate(requireValue("year")).Value(&rec.Year),
			huh.NewInput().Title("Title").
				Validate(requireValue("title")).Value(&rec.Title),
		)

		details := huh.NewGroup(
			huh.NewInput().Title("Team").Value(&rec.Team),
			huh.NewInput().Title("Team website").Placeholder("https://...").Value(&rec.TeamWebsite),
			huh.NewInput().Title("Affiliation").Value(&rec.Affiliation),
			huh.NewInput().Title("Domain").Value(&rec.Domain),
			huh.NewInput().Title("Venue").Value(&rec.Venue),
		)

		links := huh.NewGroup(
			huh.NewInput().Title("Paper URL").Value(&rec.PaperURL),
			huh.NewInput().Title("Code URL").Placeholder("https://github.com/owner/repo").Value(&rec.CodeURL),
			huh.NewInput().Title("GitHub stars badge").
				Description("Leave empty to derive from a github.com code URL").
				Value(&rec.GitHubStars),
		)

		form := huh.NewForm(huh.NewGroup(identity...), details, links)
		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Println("Cancelled.")
				return
			}
			fail(err)
		}

		derived := strings.TrimSpace(rec.GitHubStars) == "" && rec.StarsBadgeURL() != ""
		rec = rec.Normalized()

		if err := source.Merge(snap, category, rec); err != nil {
			fail(err)
		}

		backupPath, err := source.Save(srcPath, snap, source.SaveOptions{Backup: project.Config.Sync.Backup})
		if err != nil {
			fail(err)
		}

		fmt.Printf("%s added %q to %s\n", styles.Mark(true), rec.Title, record.DisplayName(category))
		if derived {
			fmt.Printf("  %s\n", styles.Muted.Render("stars badge derived from code URL"))
		}
		if backupPath != "" {
			fmt.Printf("  %s\n", styles.Muted.Render("backup: "+backupPath))
		}

		if runSync {
			runFullSync(project, snap)
		}
	},
}

func requireValue(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func init() {
	addCmd.Flags().StringP("category", "c", "", "Category key, e.g. ai-agents (skips the prompt)")
	addCmd.Flags().Bool("sync", false, "Synchronize targets after adding")

	rootCmd.AddCommand(addCmd)
}
