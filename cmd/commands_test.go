package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/inovacc/reposync/internal/model"
	"github.com/inovacc/reposync/internal/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRules = `rules:
  - project_name: API
    keywords: [api, service]
  - project_name: Ghost
    keywords: [ghost]
`

// setupDataDir points reposync at a fresh data directory holding a rule file
// and a SQLite database with the API and Misc projects.
func setupDataDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	for _, key := range []string{"REPOSYNC_DB_BACKEND", "REPOSYNC_DB_PATH", "REPOSYNC_LOG_LEVEL", "REPOSYNC_DEFAULT_PROJECT", "REPOSYNC_MAX_RETRIES"} {
		t.Setenv(key, "")
	}

	t.Setenv("REPOSYNC_DATA_DIR", dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "project_assignment_rules.yaml"), []byte(testRules), 0o600))

	s, err := sqlite.New(filepath.Join(dir, "reposync.db"))
	require.NoError(t, err)

	defer func() { _ = s.Close() }()

	ctx := context.Background()
	require.NoError(t, s.EnsureSchema(ctx))

	apiID, _, err := s.UpsertProject(ctx, "API", "Backend services")
	require.NoError(t, err)

	_, _, err = s.UpsertProject(ctx, "Misc", "")
	require.NoError(t, err)

	_, err = s.UpsertRepository(ctx, &model.Repository{
		RemoteID:   10,
		Name:       "user-api",
		Visibility: model.VisibilityPublic,
		URL:        "https://github.com/acme/user-api",
		Stars:      3,
		ProjectID:  apiID,
	})
	require.NoError(t, err)

	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()

	return out.String(), err
}

func TestProjectsCommand_JSON(t *testing.T) {
	setupDataDir(t)

	out, err := execute(t, "projects", "--output", "json", "--backend", "sqlite")
	require.NoError(t, err)

	var projects []model.ProjectSummary
	require.NoError(t, json.Unmarshal([]byte(out), &projects))
	require.Len(t, projects, 2)

	assert.Equal(t, "API", projects[0].Name)
	assert.Equal(t, 1, projects[0].RepositoryCount)
	assert.Equal(t, "Misc", projects[1].Name)
	assert.Equal(t, 0, projects[1].RepositoryCount)
}

func TestReposCommand_FilterByProject(t *testing.T) {
	setupDataDir(t)

	out, err := execute(t, "repos", "--project", "API", "--output", "json", "--backend", "sqlite")
	require.NoError(t, err)

	var repos []model.Repository
	require.NoError(t, json.Unmarshal([]byte(out), &repos))
	require.Len(t, repos, 1)
	assert.Equal(t, int64(10), repos[0].RemoteID)

	out, err = execute(t, "repos", "--project", "Misc", "--output", "table", "--backend", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, `No repositories stored for project "Misc"`)
}

func TestRulesCheckCommand(t *testing.T) {
	setupDataDir(t)

	out, err := execute(t, "rules", "check", "--backend", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, "2 rules")
	assert.Contains(t, out, "api, service")
}

func TestRulesTestCommand(t *testing.T) {
	setupDataDir(t)

	out, err := execute(t, "rules", "test", "user-api", "frontend-app", "ghost-tool", "--backend", "sqlite")
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace([]byte(out)), []byte("\n"))
	require.Len(t, lines, 4)
	assert.Contains(t, string(lines[1]), "API")
	assert.Contains(t, string(lines[2]), "Misc")
	assert.Contains(t, string(lines[3]), "Misc", "unknown rule project falls back to the default")
}

func TestRulesCheckCommand_MissingFile(t *testing.T) {
	dir := setupDataDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "project_assignment_rules.yaml")))

	_, err := execute(t, "rules", "check", "--backend", "sqlite")
	require.Error(t, err)
}

func TestConfigShowCommand_MasksToken(t *testing.T) {
	dir := setupDataDir(t)

	config := "[github]\ntoken = \"ghp_supersecretvalue\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reposync.toml"), []byte(config), 0o600))

	out, err := execute(t, "config", "show", "--backend", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, "ghp_****")
	assert.NotContains(t, out, "supersecret")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "reposync version")
}
