package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/inovacc/reposync/internal/config"
	"github.com/inovacc/reposync/internal/logging"
	"github.com/inovacc/reposync/internal/store"
	"github.com/inovacc/reposync/internal/store/backend"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	countStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// configError marks failures that happen before any work starts.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }

func (e *configError) Unwrap() error { return e.err }

// loadConfig reads the configuration and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	backendName, _ := cmd.Flags().GetString("backend")
	logLevel, _ := cmd.Flags().GetString("log-level")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, &configError{err: err}
	}

	if backendName != "" && backendName != cfg.Database.Backend {
		cfg.Database.Backend = backendName
		cfg.Database.Path = ""
		cfg.FillPaths()
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, &configError{err: err}
	}

	return cfg, nil
}

// newLogger builds the logger for a command from config and flags.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, io.Closer, error) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return logging.New(logging.Options{
		Level:  cfg.Log.Level,
		JSON:   jsonOutput || cfg.Log.Format == "json",
		File:   cfg.Log.File,
		Stderr: cmd.ErrOrStderr(),
	})
}

// openStore opens the configured backend.
func openStore(cfg *config.Config) (store.Store, error) {
	s, err := backend.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Database.Backend, err)
	}

	return s, nil
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}

	return s + strings.Repeat(" ", length-len(s))
}

// truncateString truncates a string to the specified length with ellipsis
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	if maxLen <= 3 {
		return s[:maxLen]
	}

	return s[:maxLen-3] + "..."
}

// columnWidth returns the widest of header and values, capped at limit.
func columnWidth(header string, values []string, limit int) int {
	width := len(header)

	for _, v := range values {
		if len(v) > width {
			width = len(v)
		}
	}

	return min(width, limit)
}
