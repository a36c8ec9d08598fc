package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/inovacc/reposync/internal/core"
	"github.com/inovacc/reposync/internal/logging"
	"github.com/inovacc/reposync/internal/model"
	"github.com/inovacc/reposync/internal/rules"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the project assignment rules",
	Long: `Commands for inspecting the keyword rules that assign repositories
to projects.

Available Commands:
  check     Validate the rule file and print the rules in evaluation order
  test      Show which project a repository name would be assigned to`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the rule file and print the rules in evaluation order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger, closer, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}

		defer func() { _ = closer.Close() }()

		loaded, err := rules.NewLoader(cfg.Rules.Path, logger).Load()
		if err != nil {
			return err
		}

		printRules(cmd.OutOrStdout(), cfg.Rules.Path, loaded)

		return nil
	},
}

var rulesTestCmd = &cobra.Command{
	Use:   "test <repository-name>...",
	Short: "Show which project a repository name would be assigned to",
	Long: `Evaluate the assignment rules against one or more repository names
using the projects currently stored. Nothing is written.

Examples:
  reposync rules test user-api frontend-app
  reposync rules test django-admin`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger, closer, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}

		defer func() { _ = closer.Close() }()

		loaded, err := rules.NewLoader(cfg.Rules.Path, logger).Load()
		if err != nil {
			return err
		}

		s, err := openStore(cfg)
		if err != nil {
			return err
		}

		defer func() { _ = s.Close() }()

		ctx := cmd.Context()
		names := make(map[int64]string)

		var lookupErr error

		lookup := func(name string) (int64, bool) {
			id, ok, err := s.ProjectIDByName(ctx, name)
			if err != nil {
				if lookupErr == nil {
					lookupErr = err
				}

				return 0, false
			}

			if ok {
				names[id] = name
			}

			return id, ok
		}

		assigner := core.NewAssigner(logging.Discard())
		out := cmd.OutOrStdout()
		width := columnWidth("REPOSITORY", args, 40)

		_, _ = fmt.Fprintf(out, "%s  %s\n",
			headerStyle.Render(padRight("REPOSITORY", width)),
			headerStyle.Render("PROJECT"),
		)

		for _, repo := range args {
			id, ok := assigner.Assign(repo, loaded, cfg.DefaultProject.Name, lookup)
			if lookupErr != nil {
				return schemaHint(lookupErr)
			}

			project := errStyle.Render("unassigned (default project missing)")
			if ok {
				project = okStyle.Render(names[id])
			}

			_, _ = fmt.Fprintf(out, "%s  %s\n", padRight(truncateString(repo, width), width), project)
		}

		return nil
	},
}

func printRules(w io.Writer, path string, loaded []model.Rule) {
	_, _ = fmt.Fprintf(w, "%s: %d rules\n", path, len(loaded))

	if len(loaded) == 0 {
		_, _ = fmt.Fprintln(w, warnStyle.Render("No rules: every repository goes to the default project."))
		return
	}

	_, _ = fmt.Fprintln(w)

	for i, rule := range loaded {
		keywords := dimStyle.Render("(no keywords, never matches)")
		if len(rule.Keywords) > 0 {
			keywords = strings.Join(rule.Keywords, ", ")
		}

		_, _ = fmt.Fprintf(w, "%s  %s  %s\n",
			countStyle.Render(padRight(fmt.Sprintf("%d.", i+1), 4)),
			headerStyle.Render(rule.ProjectName),
			keywords,
		)
	}
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesCheckCmd)
	rulesCmd.AddCommand(rulesTestCmd)
}
