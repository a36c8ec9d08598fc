package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/inovacc/reposync/internal/catalog"
	"github.com/inovacc/reposync/internal/logging"
	"github.com/inovacc/reposync/internal/model"
	"github.com/inovacc/reposync/internal/store"
	"github.com/inovacc/reposync/internal/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRules struct {
	rules []model.Rule
	err   error
}

func (s staticRules) Load() ([]model.Rule, error) { return s.rules, s.err }

type staticCatalog struct {
	cat *catalog.Catalog
	err error
}

func (s staticCatalog) Import() (*catalog.Catalog, error) { return s.cat, s.err }

type staticSource struct {
	repos  []model.RemoteRepository
	err    error
	gotOrg string
}

func (s *staticSource) ListOrgRepositories(_ context.Context, org string) ([]model.RemoteRepository, error) {
	s.gotOrg = org
	return s.repos, s.err
}

// failingStore rejects repository writes for selected remote ids.
type failingStore struct {
	store.Store
	failIDs map[int64]bool
}

func (f *failingStore) UpsertRepository(ctx context.Context, repo *model.Repository) (bool, error) {
	if f.failIDs[repo.RemoteID] {
		return false, errors.New("disk full")
	}

	return f.Store.UpsertRepository(ctx, repo)
}

func remoteRepo(id int64, name string) model.RemoteRepository {
	created := time.Date(2021, 5, 6, 7, 8, 9, 0, time.UTC)

	return model.RemoteRepository{
		ID:              id,
		Name:            name,
		Private:         id%2 == 0,
		CreatedAt:       created,
		UpdatedAt:       created.Add(24 * time.Hour),
		StargazersCount: int(id),
		ForksCount:      1,
		HTMLURL:         "https://github.com/acme/" + name,
	}
}

func newSQLiteStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.New(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func apiCatalog() staticCatalog {
	return staticCatalog{cat: &catalog.Catalog{
		Source:       catalog.SourceCSV,
		Path:         "projects.csv",
		Organization: "acme",
		Entries: []model.CatalogEntry{
			{Name: "API", Description: "Backend services", Organization: "acme"},
		},
	}}
}

func baseOptions(s store.Store, source *staticSource) SyncOptions {
	return SyncOptions{
		Store:                     s,
		Rules:                     staticRules{rules: []model.Rule{{ProjectName: "API", Keywords: []string{"api", "service"}}}},
		Catalog:                   apiCatalog(),
		Source:                    source,
		DefaultProject:            "Misc",
		DefaultProjectDescription: "Everything else",
		Logger:                    logging.Discard(),
	}
}

func projectOf(t *testing.T, s store.Store, remoteID int64) string {
	t.Helper()

	ctx := context.Background()

	repo, err := s.GetRepository(ctx, remoteID)
	require.NoError(t, err)
	require.NotNil(t, repo, "repository %d not stored", remoteID)

	projects, err := s.ListProjects(ctx)
	require.NoError(t, err)

	for _, p := range projects {
		if p.ID == repo.ProjectID {
			return p.Name
		}
	}

	t.Fatalf("project %d not found", repo.ProjectID)

	return ""
}

func TestSyncer_AssignsByRulesAndDefault(t *testing.T) {
	s := newSQLiteStore(t)
	source := &staticSource{repos: []model.RemoteRepository{
		remoteRepo(1, "user-api"),
		remoteRepo(2, "frontend-app"),
	}}

	result, err := NewSyncer(baseOptions(s, source)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, "done", result.StateName)
	assert.Equal(t, "acme", result.Organization)
	assert.Equal(t, "acme", source.gotOrg)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 1, result.RulesLoaded)
	assert.Equal(t, 1, result.ProjectsImported)
	assert.Equal(t, 2, result.RepositoriesFetched)
	assert.Equal(t, 2, result.Inserted)
	assert.Zero(t, result.Updated)

	assert.Equal(t, "API", projectOf(t, s, 1))
	assert.Equal(t, "Misc", projectOf(t, s, 2))
}

func TestSyncer_SecondRunUpdatesInPlace(t *testing.T) {
	s := newSQLiteStore(t)
	source := &staticSource{repos: []model.RemoteRepository{remoteRepo(1, "user-api")}}
	syncer := NewSyncer(baseOptions(s, source))

	_, err := syncer.Run(context.Background())
	require.NoError(t, err)

	source.repos[0].StargazersCount = 500
	source.repos[0].ForksCount = 40

	result, err := syncer.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Inserted)
	assert.Equal(t, 1, result.Updated)
	assert.Zero(t, result.ProjectsCreated, "catalog projects already exist")

	repos, err := s.ListRepositories(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, 500, repos[0].Stars)
	assert.Equal(t, 40, repos[0].Forks)
}

func TestSyncer_UnknownRuleProjectFallsBackToDefault(t *testing.T) {
	s := newSQLiteStore(t)
	source := &staticSource{repos: []model.RemoteRepository{remoteRepo(7, "ghost-tool")}}

	opts := baseOptions(s, source)
	opts.Rules = staticRules{rules: []model.Rule{{ProjectName: "Ghost", Keywords: []string{"ghost"}}}}

	result, err := NewSyncer(opts).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Zero(t, result.Dropped)
	assert.Equal(t, "Misc", projectOf(t, s, 7))
}

func TestSyncer_EmptyRulesUseDefault(t *testing.T) {
	s := newSQLiteStore(t)
	source := &staticSource{repos: []model.RemoteRepository{
		remoteRepo(1, "user-api"),
		remoteRepo(2, "payments-service"),
	}}

	opts := baseOptions(s, source)
	opts.Rules = staticRules{rules: []model.Rule{}}

	result, err := NewSyncer(opts).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, "Misc", projectOf(t, s, 1))
	assert.Equal(t, "Misc", projectOf(t, s, 2))
}

func TestSyncer_SkipsInvalidRecords(t *testing.T) {
	s := newSQLiteStore(t)

	broken := remoteRepo(3, "no-url")
	broken.HTMLURL = ""

	source := &staticSource{repos: []model.RemoteRepository{remoteRepo(1, "user-api"), broken}}

	result, err := NewSyncer(baseOptions(s, source)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Skipped)

	got, err := s.GetRepository(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSyncer_StorageFailureContinuesBatch(t *testing.T) {
	base := newSQLiteStore(t)
	s := &failingStore{Store: base, failIDs: map[int64]bool{1: true}}
	source := &staticSource{repos: []model.RemoteRepository{
		remoteRepo(1, "user-api"),
		remoteRepo(2, "frontend-app"),
	}}

	result, err := NewSyncer(baseOptions(s, source)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, "Misc", projectOf(t, base, 2))
}

func TestSyncer_URLConflictIsCountedAsFailure(t *testing.T) {
	s := newSQLiteStore(t)

	dup := remoteRepo(2, "user-api-copy")
	dup.HTMLURL = "https://github.com/acme/user-api"

	source := &staticSource{repos: []model.RemoteRepository{remoteRepo(1, "user-api"), dup}}

	result, err := NewSyncer(baseOptions(s, source)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Failed)
}

func TestSyncer_UnassignableRepositoryIsDroppedAsCritical(t *testing.T) {
	s := newSQLiteStore(t)
	source := &staticSource{repos: []model.RemoteRepository{remoteRepo(1, "user-api")}}

	var buf bytes.Buffer

	logger, closer, err := logging.New(logging.Options{Level: "info", JSON: true, Stderr: &buf})
	require.NoError(t, err)

	defer func() { _ = closer.Close() }()

	opts := baseOptions(s, source)
	opts.Logger = logger

	syncer := NewSyncer(opts)

	// With an empty store neither a rule project nor the default resolves.
	require.NoError(t, s.EnsureSchema(context.Background()))

	result := &SyncResult{}
	err = syncer.reconcile(context.Background(), logger, source.repos, nil, result)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Dropped)
	assert.Zero(t, result.Inserted)

	var found bool

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &record))

		if record["level"] == "CRITICAL" {
			found = true

			assert.Equal(t, true, record["critical"])
			assert.Equal(t, "user-api", record["repository"])
		}
	}

	assert.True(t, found, "expected a CRITICAL record, got:\n%s", buf.String())
}

func TestSyncer_Aborts(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(opts *SyncOptions, source *staticSource)
		wantErr   error
		wantState State
	}{
		{
			name: "rules missing",
			mutate: func(opts *SyncOptions, _ *staticSource) {
				opts.Rules = staticRules{err: errors.New("rules file missing")}
			},
			wantState: StateSchemaReady,
		},
		{
			name: "no catalog",
			mutate: func(opts *SyncOptions, _ *staticSource) {
				opts.Catalog = staticCatalog{err: catalog.ErrNoCatalog}
			},
			wantErr:   catalog.ErrNoCatalog,
			wantState: StateRulesLoaded,
		},
		{
			name: "missing organization",
			mutate: func(opts *SyncOptions, _ *staticSource) {
				cat := apiCatalog()
				cat.cat.Organization = ""
				opts.Catalog = cat
			},
			wantErr:   ErrMissingOrganization,
			wantState: StateRulesLoaded,
		},
		{
			name: "fetch failure",
			mutate: func(_ *SyncOptions, source *staticSource) {
				source.err = errors.New("network unreachable")
			},
			wantState: StateDefaultProjectEnsured,
		},
		{
			name: "empty organization",
			mutate: func(_ *SyncOptions, source *staticSource) {
				source.repos = nil
			},
			wantErr:   ErrNoRepositories,
			wantState: StateDefaultProjectEnsured,
		},
		{
			name: "no default project",
			mutate: func(opts *SyncOptions, _ *staticSource) {
				opts.DefaultProject = ""
			},
			wantErr:   ErrDefaultProjectUnset,
			wantState: StateInit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSQLiteStore(t)
			source := &staticSource{repos: []model.RemoteRepository{remoteRepo(1, "user-api")}}
			opts := baseOptions(s, source)
			tt.mutate(&opts, source)

			result, err := NewSyncer(opts).Run(context.Background())
			require.Error(t, err)
			require.NotNil(t, result)

			var syncErr *SyncError
			require.ErrorAs(t, err, &syncErr)
			assert.Equal(t, tt.wantState, syncErr.State)
			assert.Equal(t, StateAborted, result.State)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			repos, listErr := s.ListRepositories(context.Background(), "")
			if listErr == nil {
				assert.Empty(t, repos, "an aborted run must not store repositories")
			}
		})
	}
}

func TestSyncer_OrganizationOverride(t *testing.T) {
	s := newSQLiteStore(t)
	source := &staticSource{repos: []model.RemoteRepository{remoteRepo(1, "user-api")}}

	opts := baseOptions(s, source)
	opts.Organization = "other-org"

	result, err := NewSyncer(opts).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "other-org", result.Organization)
	assert.Equal(t, "other-org", source.gotOrg)
}

func TestSyncer_CanceledDuringReconcile(t *testing.T) {
	s := newSQLiteStore(t)
	require.NoError(t, s.EnsureSchema(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	syncer := NewSyncer(baseOptions(s, &staticSource{}))

	err := syncer.reconcile(ctx, logging.Discard(), []model.RemoteRepository{remoteRepo(1, "user-api")}, nil, &SyncResult{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "schema_ready", StateSchemaReady.String())
	assert.Equal(t, "aborted", StateAborted.String())
	assert.Equal(t, "unknown", State(99).String())
}

func TestSyncError(t *testing.T) {
	inner := errors.New("boom")
	err := &SyncError{State: StateRulesLoaded, Err: inner}

	assert.Equal(t, "sync aborted in state rules_loaded: boom", err.Error())
	assert.ErrorIs(t, err, inner)
}
