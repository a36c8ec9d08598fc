package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/inovacc/reposync/internal/auth"
	"github.com/inovacc/reposync/internal/catalog"
	"github.com/inovacc/reposync/internal/core"
	"github.com/inovacc/reposync/internal/remote"
	"github.com/inovacc/reposync/internal/rules"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch organization repositories and assign them to projects",
	Long: `Run one synchronization pass.

This command will:
  1. Create the storage schema if it does not exist
  2. Load the keyword assignment rules
  3. Import the project catalog (CSV first, JSON second)
  4. Ensure the default project exists
  5. Fetch every repository of the organization named in the catalog
  6. Assign each repository to a project and store it

Authentication:
  Token is automatically detected from (in order):
  - --token flag
  - GITHUB_TOKEN environment variable
  - GH_TOKEN environment variable
  - GITHUB_TOKEN in the .env file of the data directory
  - github.token in reposync.toml
  - gh CLI (if authenticated via 'gh auth login')

Exit status is 0 when the run completes, or when the organization has no
repositories, and 1 when the run aborts.

Examples:
  # Sync the organization named in the catalog
  reposync sync

  # Sync another organization using the same catalog and rules
  reposync sync --org my-other-org

  # Use the bolt backend and JSON logs
  reposync sync --backend bolt --json

  # Machine-readable summary
  reposync sync --summary json`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, _ []string) error {
	token, _ := cmd.Flags().GetString("token")
	org, _ := cmd.Flags().GetString("org")
	summaryFormat, _ := cmd.Flags().GetString("summary")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")

	if summaryFormat != "table" && summaryFormat != "json" {
		return &configError{err: fmt.Errorf("summary must be table or json, got %q", summaryFormat)}
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("max-retries") {
		if maxRetries < 0 || maxRetries > 20 {
			return &configError{err: fmt.Errorf("max-retries must be between 0 and 20")}
		}

		cfg.GitHub.MaxRetries = maxRetries
	}

	logger, closer, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	defer func() { _ = closer.Close() }()

	tokenResult, err := auth.ResolveGitHubToken(auth.GitHubOptions{
		Flag:        token,
		DotEnv:      cfg.DotEnv,
		ConfigToken: cfg.GitHub.Token,
		Host:        cfg.GitHub.Host,
	})
	if err != nil {
		return &configError{err: err}
	}

	logger.Debug("token resolved",
		slog.String("source", string(tokenResult.Source)),
		slog.String("name", tokenResult.Name),
	)

	fetcher, err := remote.NewFetcher(remote.Options{
		Token:             tokenResult.Token,
		Host:              cfg.GitHub.Host,
		RequestTimeout:    cfg.GitHub.RequestTimeout.Duration,
		MaxRetries:        cfg.GitHub.MaxRetries,
		RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
		Logger:            logger,
	})
	if err != nil {
		return &configError{err: err}
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}

	defer func() {
		if err := s.Close(); err != nil {
			logger.Warn("failed to close store", slog.String("error", err.Error()))
		}
	}()

	syncer := core.NewSyncer(core.SyncOptions{
		Store:                     s,
		Rules:                     rules.NewLoader(cfg.Rules.Path, logger),
		Catalog:                   catalog.NewImporter(cfg.Catalog.CSVPath, cfg.Catalog.JSONPath, logger),
		Source:                    fetcher,
		DefaultProject:            cfg.DefaultProject.Name,
		DefaultProjectDescription: cfg.DefaultProject.Description,
		Organization:              org,
		Logger:                    logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result, runErr := syncer.Run(ctx)

	out := cmd.OutOrStdout()

	if summaryFormat == "json" {
		if err := printSyncJSON(out, result, runErr); err != nil {
			return err
		}
	} else {
		printSyncSummary(out, result, runErr)
	}

	if errors.Is(runErr, core.ErrNoRepositories) {
		return nil
	}

	return runErr
}

func printSyncSummary(w io.Writer, result *core.SyncResult, runErr error) {
	if result == nil {
		return
	}

	_, _ = fmt.Fprintln(w)

	status := okStyle.Render("done")

	switch {
	case errors.Is(runErr, core.ErrNoRepositories):
		status = warnStyle.Render("no repositories")
	case runErr != nil:
		status = errStyle.Render("aborted")
	}

	rows := []struct {
		label string
		value string
	}{
		{"Run", dimStyle.Render(result.RunID)},
		{"Organization", result.Organization},
		{"Catalog", result.CatalogSource},
		{"Status", status},
		{"Duration", result.Duration.Round(time.Millisecond).String()},
		{"Rules", fmt.Sprintf("%d", result.RulesLoaded)},
		{"Projects imported", fmt.Sprintf("%d (%d new, %d failed)", result.ProjectsImported, result.ProjectsCreated, result.ProjectsFailed)},
		{"Repositories fetched", countStyle.Render(fmt.Sprintf("%d", result.RepositoriesFetched))},
		{"Inserted", okStyle.Render(fmt.Sprintf("%d", result.Inserted))},
		{"Updated", countStyle.Render(fmt.Sprintf("%d", result.Updated))},
		{"Skipped (invalid)", fmt.Sprintf("%d", result.Skipped)},
		{"Dropped (unassigned)", fmt.Sprintf("%d", result.Dropped)},
		{"Failed (storage)", fmt.Sprintf("%d", result.Failed)},
	}

	for _, row := range rows {
		if row.value == "" {
			continue
		}

		_, _ = fmt.Fprintf(w, "%s  %s\n", headerStyle.Render(padRight(row.label, 20)), row.value)
	}

	if result.Dropped > 0 || result.Failed > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, warnStyle.Render("Some repositories were not stored; see the log for details."))
	}
}

type syncSummary struct {
	*core.SyncResult

	Error string `json:"error,omitempty"`
}

func printSyncJSON(w io.Writer, result *core.SyncResult, runErr error) error {
	if result == nil {
		return nil
	}

	summary := syncSummary{SyncResult: result}
	if runErr != nil {
		summary.Error = runErr.Error()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().String("token", "", "GitHub personal access token (overrides GITHUB_TOKEN env var)")
	syncCmd.Flags().String("org", "", "Organization to sync (overrides the catalog)")
	syncCmd.Flags().Int("max-retries", 3, "Max GitHub API retry attempts per page (0-20, overrides config)")
	syncCmd.Flags().String("summary", "table", "Summary format: table or json")
}
