package cmd

import (
	"fmt"
	"io"

	"github.com/inovacc/reposync/internal/model"
	"github.com/spf13/cobra"
)

var reposCmd = &cobra.Command{
	Use:     "repos",
	Aliases: []string{"repositories"},
	Short:   "List stored repositories",
	Long: `List stored repositories sorted by name, optionally limited to one
project.

Examples:
  reposync repos
  reposync repos --project Backend
  reposync repos --output json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		project, _ := cmd.Flags().GetString("project")
		output, _ := cmd.Flags().GetString("output")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		s, err := openStore(cfg)
		if err != nil {
			return err
		}

		defer func() { _ = s.Close() }()

		repos, err := s.ListRepositories(cmd.Context(), project)
		if err != nil {
			return schemaHint(err)
		}

		out := cmd.OutOrStdout()

		if output == "json" {
			if repos == nil {
				repos = []model.Repository{}
			}

			return writeJSON(out, repos)
		}

		if len(repos) == 0 {
			if project != "" {
				_, _ = fmt.Fprintf(out, "No repositories stored for project %q.\n", project)
			} else {
				_, _ = fmt.Fprintln(out, "No repositories stored.")
			}

			return nil
		}

		printReposTable(out, repos)

		return nil
	},
}

func printReposTable(w io.Writer, repos []model.Repository) {
	names := make([]string, 0, len(repos))
	for _, r := range repos {
		names = append(names, r.Name)
	}

	nameWidth := columnWidth("NAME", names, 40)

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s\n",
		headerStyle.Render(padRight("NAME", nameWidth)),
		headerStyle.Render(padRight("VISIBILITY", 10)),
		headerStyle.Render(padRight("STARS", 7)),
		headerStyle.Render(padRight("FORKS", 7)),
		headerStyle.Render(padRight("UPDATED", 10)),
		headerStyle.Render("URL"),
	)

	for _, r := range repos {
		visibility := okStyle.Render(padRight(string(r.Visibility), 10))
		if r.Visibility == model.VisibilityPrivate {
			visibility = warnStyle.Render(padRight(string(r.Visibility), 10))
		}

		_, _ = fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s\n",
			padRight(truncateString(r.Name, nameWidth), nameWidth),
			visibility,
			countStyle.Render(padRight(fmt.Sprintf("%d", r.Stars), 7)),
			countStyle.Render(padRight(fmt.Sprintf("%d", r.Forks), 7)),
			padRight(r.UpdatedAt.Format("2006-01-02"), 10),
			dimStyle.Render(r.URL),
		)
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Total: %d repositories\n", len(repos))
}

func init() {
	rootCmd.AddCommand(reposCmd)

	reposCmd.Flags().StringP("project", "p", "", "Only list repositories assigned to this project")
	reposCmd.Flags().StringP("output", "o", "table", "Output format: table or json")
}
