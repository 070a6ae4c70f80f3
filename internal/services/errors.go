package services

import (
	"errors"
	"fmt"
)

// LoadFailedMessage is recorded in the state when the initial fetch fails.
const LoadFailedMessage = "Failed to load data"

var (
	// ErrInvalid wraps every validation failure; the cause stays reachable
	// through errors.Is / errors.As.
	ErrInvalid = errors.New("invalid input")
)

// MutationError reports a remote write that did not go through. Local state
// is left as it was.
type MutationError struct {
	Op  string
	Err error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalid, err)
}
