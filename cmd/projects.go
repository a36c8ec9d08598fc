package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/inovacc/reposync/internal/model"
	"github.com/inovacc/reposync/internal/store"
	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List stored projects with their repository counts",
	Long: `List every stored project, sorted by name, with the number of
repositories assigned to it.

Examples:
  reposync projects
  reposync projects --output json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
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

		projects, err := s.ListProjects(cmd.Context())
		if err != nil {
			return schemaHint(err)
		}

		out := cmd.OutOrStdout()

		if output == "json" {
			if projects == nil {
				projects = []model.ProjectSummary{}
			}

			return writeJSON(out, projects)
		}

		if len(projects) == 0 {
			_, _ = fmt.Fprintln(out, "No projects stored.")
			_, _ = fmt.Fprintln(out, "Import them with: reposync sync")

			return nil
		}

		printProjectsTable(out, projects)

		return nil
	},
}

func printProjectsTable(w io.Writer, projects []model.ProjectSummary) {
	names := make([]string, 0, len(projects))
	for _, p := range projects {
		names = append(names, p.Name)
	}

	nameWidth := columnWidth("PROJECT", names, 30)

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n",
		headerStyle.Render(padRight("PROJECT", nameWidth)),
		headerStyle.Render(padRight("REPOS", 7)),
		headerStyle.Render("DESCRIPTION"),
	)

	total := 0

	for _, p := range projects {
		total += p.RepositoryCount

		_, _ = fmt.Fprintf(w, "%s  %s  %s\n",
			padRight(truncateString(p.Name, nameWidth), nameWidth),
			countStyle.Render(padRight(fmt.Sprintf("%d", p.RepositoryCount), 7)),
			dimStyle.Render(truncateString(p.Description, 60)),
		)
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Total: %d projects, %d repositories\n", len(projects), total)
}

// schemaHint points the user at sync when nothing has been stored yet.
func schemaHint(err error) error {
	if errors.Is(err, store.ErrSchemaNotReady) {
		return fmt.Errorf("%w (run 'reposync sync' first)", err)
	}

	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(projectsCmd)

	projectsCmd.Flags().StringP("output", "o", "table", "Output format: table or json")
}
