package core

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingOrganization is returned when the catalog names no organization.
	ErrMissingOrganization = errors.New("project catalog does not name an organization")

	// ErrNoRepositories is returned when the organization has no repositories.
	ErrNoRepositories = errors.New("organization has no repositories")

	// ErrDefaultProjectUnset is returned when the default project name is empty.
	ErrDefaultProjectUnset = errors.New("default project name is empty")
)

// SyncError reports the state a run aborted in and the cause.
type SyncError struct {
	State State
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync aborted in state %s: %v", e.State, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
