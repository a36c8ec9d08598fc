// Package config loads reposync configuration from a TOML file, a dotenv
// file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/inovacc/reposync/internal/application"
)

const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"

	DefaultProjectName        = "Misc"
	DefaultProjectDescription = "Repositories not matched to a specific project."
)

// Duration is a time.Duration that decodes from TOML strings such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}

	d.Duration = parsed

	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// CatalogConfig points at the project catalog files. CSV wins when both exist.
type CatalogConfig struct {
	CSVPath  string `toml:"csv_path"`
	JSONPath string `toml:"json_path"`
}

// RulesConfig points at the YAML assignment rules.
type RulesConfig struct {
	Path string `toml:"path"`
}

// DefaultProjectConfig is the fallback project.
type DefaultProjectConfig struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

// GitHubConfig holds API access settings.
type GitHubConfig struct {
	Token             string   `toml:"token"`
	Host              string   `toml:"host"`
	RequestTimeout    Duration `toml:"request_timeout"`
	MaxRetries        int      `toml:"max_retries"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// Config holds all reposync configuration.
type Config struct {
	DataDir        string               `toml:"data_dir"`
	Database       DatabaseConfig       `toml:"database"`
	Catalog        CatalogConfig        `toml:"catalog"`
	Rules          RulesConfig          `toml:"rules"`
	DefaultProject DefaultProjectConfig `toml:"default_project"`
	GitHub         GitHubConfig         `toml:"github"`
	Log            LogConfig            `toml:"log"`

	dotenv map[string]string
}

// Default returns a configuration rooted at dataDir.
func Default(dataDir string) *Config {
	return &Config{
		DataDir: dataDir,
		Database: DatabaseConfig{
			Backend: BackendSQLite,
		},
		DefaultProject: DefaultProjectConfig{
			Name:        DefaultProjectName,
			Description: DefaultProjectDescription,
		},
		GitHub: GitHubConfig{
			Host:              "github.com",
			RequestTimeout:    Duration{30 * time.Second},
			MaxRetries:        3,
			RequestsPerSecond: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration. An empty path means <data_dir>/reposync.toml;
// a missing file yields defaults. Precedence, highest first: process
// environment, <data_dir>/.env, TOML file, defaults.
func Load(path string) (*Config, error) {
	dataDir := os.Getenv("REPOSYNC_DATA_DIR")
	if dataDir == "" {
		dir, err := application.GetApplicationDirectory()
		if err != nil {
			return nil, err
		}

		dataDir = dir
	}

	cfg := Default(dataDir)

	if path == "" {
		path = filepath.Join(dataDir, application.ConfigFileName)
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decoding config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	dotenv, err := LoadDotEnv(filepath.Join(cfg.DataDir, application.EnvFileName))
	if err != nil {
		return nil, err
	}

	cfg.dotenv = dotenv

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	cfg.FillPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Getenv returns the process environment value for key, falling back to the
// dotenv file.
func (c *Config) Getenv(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return c.dotenv[key]
}

// DotEnv returns the value of key from the dotenv file only.
func (c *Config) DotEnv(key string) string {
	return c.dotenv[key]
}

func (c *Config) applyEnvOverrides() error {
	if v := c.Getenv("REPOSYNC_DB_BACKEND"); v != "" {
		c.Database.Backend = v
	}

	if v := c.Getenv("REPOSYNC_DB_PATH"); v != "" {
		c.Database.Path = v
	}

	if v := c.Getenv("REPOSYNC_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	if v := c.Getenv("REPOSYNC_DEFAULT_PROJECT"); v != "" {
		c.DefaultProject.Name = v
	}

	if v := c.Getenv("REPOSYNC_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REPOSYNC_MAX_RETRIES: %w", err)
		}

		c.GitHub.MaxRetries = n
	}

	return nil
}

// FillPaths sets unset file locations to their defaults under DataDir.
func (c *Config) FillPaths() {
	if c.Database.Path == "" {
		name := "reposync.db"
		if c.Database.Backend == BackendBolt {
			name = "reposync.bolt"
		}

		c.Database.Path = filepath.Join(c.DataDir, name)
	}

	if c.Catalog.CSVPath == "" {
		c.Catalog.CSVPath = filepath.Join(c.DataDir, "projects.csv")
	}

	if c.Catalog.JSONPath == "" {
		c.Catalog.JSONPath = filepath.Join(c.DataDir, "projects.json")
	}

	if c.Rules.Path == "" {
		c.Rules.Path = filepath.Join(c.DataDir, "project_assignment_rules.yaml")
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Database.Backend {
	case BackendSQLite, BackendBolt:
	default:
		return fmt.Errorf("unsupported database backend: %s", c.Database.Backend)
	}

	if c.DefaultProject.Name == "" {
		return errors.New("default project name must not be empty")
	}

	if c.GitHub.MaxRetries < 0 || c.GitHub.MaxRetries > 20 {
		return errors.New("github.max_retries must be between 0 and 20")
	}

	if c.GitHub.RequestTimeout.Duration <= 0 {
		return errors.New("github.request_timeout must be positive")
	}

	if c.GitHub.RequestsPerSecond < 0 {
		return errors.New("github.requests_per_second must not be negative")
	}

	return nil
}
