package store

import (
	"context"
	"errors"

	"github.com/inovacc/reposync/internal/model"
)

var (
	// ErrURLConflict is returned when a repository URL is already stored
	// under a different remote id.
	ErrURLConflict = errors.New("repository url already used by another remote id")

	// ErrProjectNotFound is returned when a repository references a project
	// id that does not exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrEmptyProjectName is returned by UpsertProject for an empty name.
	ErrEmptyProjectName = errors.New("project name must not be empty")

	// ErrSchemaNotReady is returned when an operation runs before EnsureSchema.
	ErrSchemaNotReady = errors.New("storage schema not initialized")
)

// ProjectStore is the project resource of the storage gateway.
type ProjectStore interface {
	// UpsertProject inserts the project if no project with this name exists
	// and returns its id. An existing project is returned unchanged; its
	// description is never overwritten.
	UpsertProject(ctx context.Context, name, description string) (id int64, created bool, err error)

	// ProjectIDByName returns the id of the named project.
	ProjectIDByName(ctx context.Context, name string) (id int64, found bool, err error)

	// ListProjects returns every project ordered by name with its
	// repository count.
	ListProjects(ctx context.Context) ([]model.ProjectSummary, error)
}

// RepositoryStore is the repository resource of the storage gateway.
type RepositoryStore interface {
	// UpsertRepository inserts the repository or overwrites every mutable
	// field of the row with the same RemoteID.
	UpsertRepository(ctx context.Context, repo *model.Repository) (created bool, err error)

	// GetRepository returns the repository with remoteID, or nil if absent.
	GetRepository(ctx context.Context, remoteID int64) (*model.Repository, error)

	// ListRepositories returns repositories ordered by name. An empty
	// projectName lists all of them.
	ListRepositories(ctx context.Context, projectName string) ([]model.Repository, error)
}

// Store defines the storage operations used by the sync pipeline.
type Store interface {
	ProjectStore
	RepositoryStore

	// EnsureSchema creates missing storage structures. It never drops data.
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
