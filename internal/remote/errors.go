package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when GitHub rejects the token.
	ErrUnauthorized = errors.New("github rejected the credentials")

	// ErrOrgNotFound is returned when the organization does not exist or is
	// not visible to the token.
	ErrOrgNotFound = errors.New("organization not found")
)

// NetworkError wraps a fetch that still failed after every retry.
type NetworkError struct {
	Operation string
	Err       error
	Attempts  int
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v",
		e.Operation, e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
