package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/inovacc/reposync/internal/application"
	"github.com/inovacc/reposync/internal/core"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   application.AppName,
	Short: "Synchronize GitHub organization repositories into project buckets",
	Long: `Reposync is a command-line tool that keeps a local catalog of the
repositories of a GitHub organization.

Each run imports the project catalog, fetches every repository of the
organization and assigns it to a project using ordered keyword rules.
Repositories that match no rule land in the default project.

Files are read from the data directory unless overridden in reposync.toml:
  projects.csv or projects.json        project catalog and organization
  project_assignment_rules.yaml        keyword rules
  .env                                 GITHUB_TOKEN and REPOSYNC_* overrides`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a non-zero status when a
// command fails.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// GetRootCmd returns the root command for introspection purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// exitCode maps an error to the process status: 1 for an aborted sync or
// any other failure, 2 for configuration problems detected before a run.
func exitCode(err error) int {
	var syncErr *core.SyncError
	if errors.As(err, &syncErr) {
		return 1
	}

	var cfgErr *configError
	if errors.As(err, &cfgErr) {
		return 2
	}

	return 1
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to reposync.toml (default: <data_dir>/reposync.toml)")
	rootCmd.PersistentFlags().String("backend", "", "Storage backend: sqlite or bolt (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error, critical (overrides config)")
	rootCmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
}
