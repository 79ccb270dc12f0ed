package swipe

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCandidateSet = errors.New("invalid candidate set")
	ErrSessionClosed       = errors.New("session closed")
	ErrNotAMember          = errors.New("not a household member")
	ErrUnknownCandidate    = errors.New("unknown candidate")
	ErrInvalidDirection    = errors.New("invalid vote direction")
	ErrInvalidDate         = errors.New("invalid session date")
	ErrNotFound            = errors.New("session not found")
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// ProviderError wraps a failed call into a membership, recipe or session
// store. It matches ErrProviderUnavailable; callers may retry.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderUnavailable
}

func providerErr(op string, err error) error {
	return &ProviderError{Op: op, Err: err}
}
