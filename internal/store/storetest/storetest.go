// Package storetest holds a conformance suite shared by every store backend.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/inovacc/reposync/internal/model"
	"github.com/inovacc/reposync/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store whose schema has not been created.
// The factory is responsible for registering cleanup with t.
type Factory func(t *testing.T) store.Store

// Run executes the conformance suite against the backend built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	cases := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"EnsureSchemaIsIdempotent", testEnsureSchemaIsIdempotent},
		{"UpsertProjectIsIdempotent", testUpsertProjectIsIdempotent},
		{"UpsertProjectRejectsEmptyName", testUpsertProjectRejectsEmptyName},
		{"ProjectIDByName", testProjectIDByName},
		{"UpsertRepositoryInsertsThenUpdates", testUpsertRepositoryInsertsThenUpdates},
		{"UpsertRepositoryMovesProject", testUpsertRepositoryMovesProject},
		{"UpsertRepositoryURLConflict", testUpsertRepositoryURLConflict},
		{"UpsertRepositoryMissingProject", testUpsertRepositoryMissingProject},
		{"UpsertRepositoryRejectsInvalid", testUpsertRepositoryRejectsInvalid},
		{"GetRepositoryMissing", testGetRepositoryMissing},
		{"ListProjectsCountsRepositories", testListProjectsCountsRepositories},
		{"ListRepositoriesFiltersByProject", testListRepositoriesFiltersByProject},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(t)
			require.NoError(t, s.EnsureSchema(context.Background()))
			tc.fn(t, s)
		})
	}
}

func sampleRepository(remoteID, projectID int64, name string) *model.Repository {
	created := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)

	return &model.Repository{
		RemoteID:   remoteID,
		Name:       name,
		Visibility: model.VisibilityPublic,
		CreatedAt:  created,
		UpdatedAt:  created.Add(48 * time.Hour),
		Stars:      7,
		Forks:      2,
		URL:        "https://github.com/acme/" + name,
		ProjectID:  projectID,
	}
}

func mustProject(t *testing.T, s store.Store, name string) int64 {
	t.Helper()

	id, _, err := s.UpsertProject(context.Background(), name, name+" description")
	require.NoError(t, err)

	return id
}

func testEnsureSchemaIsIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()

	id := mustProject(t, s, "Backend")

	require.NoError(t, s.EnsureSchema(ctx))
	require.NoError(t, s.EnsureSchema(ctx))

	got, ok, err := s.ProjectIDByName(ctx, "Backend")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, got, "existing data must survive EnsureSchema")
	assert.NoError(t, s.Ping(ctx))
}

func testUpsertProjectIsIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()

	first, created, err := s.UpsertProject(ctx, "Backend", "APIs")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Positive(t, first)

	second, created, err := s.UpsertProject(ctx, "Backend", "a different description")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, second)

	projects, err := s.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "APIs", projects[0].Description, "existing description is kept")
}

func testUpsertProjectRejectsEmptyName(t *testing.T, s store.Store) {
	_, _, err := s.UpsertProject(context.Background(), "", "nothing")
	assert.ErrorIs(t, err, store.ErrEmptyProjectName)
}

func testProjectIDByName(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, ok, err := s.ProjectIDByName(ctx, "Nope")
	require.NoError(t, err)
	assert.False(t, ok)

	id := mustProject(t, s, "Frontend")

	got, ok, err := s.ProjectIDByName(ctx, "Frontend")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok, err = s.ProjectIDByName(ctx, "frontend")
	require.NoError(t, err)
	assert.False(t, ok, "project names are case-sensitive")
}

func testUpsertRepositoryInsertsThenUpdates(t *testing.T, s store.Store) {
	ctx := context.Background()
	projectID := mustProject(t, s, "Backend")

	repo := sampleRepository(1001, projectID, "api-gateway")

	created, err := s.UpsertRepository(ctx, repo)
	require.NoError(t, err)
	assert.True(t, created)

	repo.Name = "api-gateway-v2"
	repo.URL = "https://github.com/acme/api-gateway-v2"
	repo.Visibility = model.VisibilityPrivate
	repo.Stars = 99
	repo.Forks = 12
	repo.UpdatedAt = repo.UpdatedAt.Add(time.Hour)

	created, err = s.UpsertRepository(ctx, repo)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := s.GetRepository(ctx, 1001)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "api-gateway-v2", got.Name)
	assert.Equal(t, "https://github.com/acme/api-gateway-v2", got.URL)
	assert.Equal(t, model.VisibilityPrivate, got.Visibility)
	assert.Equal(t, 99, got.Stars)
	assert.Equal(t, 12, got.Forks)
	assert.True(t, repo.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, repo.UpdatedAt.Equal(got.UpdatedAt))

	all, err := s.ListRepositories(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1, "upsert keys on remote id")

	// The old URL is free again after the rename.
	other := sampleRepository(1002, projectID, "api-gateway")
	_, err = s.UpsertRepository(ctx, other)
	assert.NoError(t, err)
}

func testUpsertRepositoryMovesProject(t *testing.T, s store.Store) {
	ctx := context.Background()
	backend := mustProject(t, s, "Backend")
	misc := mustProject(t, s, "Misc")

	repo := sampleRepository(2001, misc, "worker")
	_, err := s.UpsertRepository(ctx, repo)
	require.NoError(t, err)

	repo.ProjectID = backend
	_, err = s.UpsertRepository(ctx, repo)
	require.NoError(t, err)

	got, err := s.GetRepository(ctx, 2001)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, backend, got.ProjectID)

	inMisc, err := s.ListRepositories(ctx, "Misc")
	require.NoError(t, err)
	assert.Empty(t, inMisc)
}

func testUpsertRepositoryURLConflict(t *testing.T, s store.Store) {
	ctx := context.Background()
	projectID := mustProject(t, s, "Backend")

	_, err := s.UpsertRepository(ctx, sampleRepository(3001, projectID, "shared"))
	require.NoError(t, err)

	clash := sampleRepository(3002, projectID, "shared")
	_, err = s.UpsertRepository(ctx, clash)
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrURLConflict), "got %v", err)

	got, err := s.GetRepository(ctx, 3002)
	require.NoError(t, err)
	assert.Nil(t, got, "rejected write must leave no row")
}

func testUpsertRepositoryMissingProject(t *testing.T, s store.Store) {
	_, err := s.UpsertRepository(context.Background(), sampleRepository(4001, 4242, "orphan"))
	assert.ErrorIs(t, err, store.ErrProjectNotFound)
}

func testUpsertRepositoryRejectsInvalid(t *testing.T, s store.Store) {
	projectID := mustProject(t, s, "Backend")

	repo := sampleRepository(5001, projectID, "bad")
	repo.URL = ""

	_, err := s.UpsertRepository(context.Background(), repo)
	assert.ErrorIs(t, err, model.ErrMissingURL)
}

func testGetRepositoryMissing(t *testing.T, s store.Store) {
	got, err := s.GetRepository(context.Background(), 123456)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testListProjectsCountsRepositories(t *testing.T, s store.Store) {
	ctx := context.Background()
	backend := mustProject(t, s, "Backend")
	_ = mustProject(t, s, "Analytics")

	for i, name := range []string{"svc-a", "svc-b"} {
		_, err := s.UpsertRepository(ctx, sampleRepository(int64(6000+i), backend, name))
		require.NoError(t, err)
	}

	projects, err := s.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)

	assert.Equal(t, "Analytics", projects[0].Name)
	assert.Equal(t, 0, projects[0].RepositoryCount)
	assert.Equal(t, "Backend", projects[1].Name)
	assert.Equal(t, 2, projects[1].RepositoryCount)
}

func testListRepositoriesFiltersByProject(t *testing.T, s store.Store) {
	ctx := context.Background()
	backend := mustProject(t, s, "Backend")
	frontend := mustProject(t, s, "Frontend")

	_, err := s.UpsertRepository(ctx, sampleRepository(7001, frontend, "web-ui"))
	require.NoError(t, err)
	_, err = s.UpsertRepository(ctx, sampleRepository(7002, backend, "billing"))
	require.NoError(t, err)
	_, err = s.UpsertRepository(ctx, sampleRepository(7003, backend, "auth"))
	require.NoError(t, err)

	repos, err := s.ListRepositories(ctx, "Backend")
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "auth", repos[0].Name)
	assert.Equal(t, "billing", repos[1].Name)

	all, err := s.ListRepositories(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := s.ListRepositories(ctx, "Unknown")
	require.NoError(t, err)
	assert.Empty(t, none)
}
