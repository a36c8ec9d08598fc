package model

import "time"

// RemoteRepository is a repository record as returned by the remote source,
// before normalization.
type RemoteRepository struct {
	ID              int64
	Name            string
	Private         bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StargazersCount int
	ForksCount      int
	HTMLURL         string
}

// Normalize converts the remote record into a Repository without a project.
func (r RemoteRepository) Normalize() Repository {
	return Repository{
		RemoteID:   r.ID,
		Name:       r.Name,
		Visibility: VisibilityFromPrivate(r.Private),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
		Stars:      r.StargazersCount,
		Forks:      r.ForksCount,
		URL:        r.HTMLURL,
	}
}
