package model

import (
	"errors"
	"fmt"
	"time"
)

// Visibility is the remote visibility of a repository.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// VisibilityFromPrivate maps the remote private flag to a Visibility.
func VisibilityFromPrivate(private bool) Visibility {
	if private {
		return VisibilityPrivate
	}

	return VisibilityPublic
}

// ParseVisibility parses a stored visibility value.
func ParseVisibility(s string) (Visibility, error) {
	switch Visibility(s) {
	case VisibilityPublic, VisibilityPrivate:
		return Visibility(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidVisibility, s)
	}
}

// Repository is the stored, latest-state view of a remote repository.
type Repository struct {
	// RemoteID is the stable identifier assigned by GitHub, used as upsert key
	RemoteID int64 `json:"remote_id"`

	// Name is the repository name without the owner prefix
	Name string `json:"name"`

	// Visibility is public or private
	Visibility Visibility `json:"visibility"`

	// CreatedAt and UpdatedAt are the remote timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Stars int `json:"stars"`
	Forks int `json:"forks"`

	// URL is the web URL of the repository, unique across rows
	URL string `json:"url"`

	// ProjectID references the project the repository was assigned to
	ProjectID int64 `json:"project_id"`
}

var (
	ErrMissingRemoteID = errors.New("repository has no remote id")
	ErrMissingName     = errors.New("repository has no name")
	ErrMissingURL      = errors.New("repository has no url")
	ErrNegativeCount   = errors.New("repository has a negative star or fork count")

	ErrInvalidVisibility = errors.New("unknown visibility")
)

// Validate checks the fields every stored repository must carry.
// ProjectID is not checked here; it is set after assignment.
func (r *Repository) Validate() error {
	switch {
	case r.RemoteID <= 0:
		return ErrMissingRemoteID
	case r.Name == "":
		return ErrMissingName
	case r.URL == "":
		return ErrMissingURL
	case r.Stars < 0 || r.Forks < 0:
		return ErrNegativeCount
	}

	if _, err := ParseVisibility(string(r.Visibility)); err != nil {
		return err
	}

	return nil
}
