// Package common defines shared sentinel errors used across the storage,
// timer, and sync layers of FocusKeeper. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrStorage  = errors.New("storage failure")

	// Remote store errors. ErrRemoteUnavailable covers offline operation and
	// credential-acquisition failures; the sync engine degrades to a no-op on
	// it rather than surfacing it. ErrRemoteConflict marks a duplicate-key
	// rejection from the remote store and is recovered automatically.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	ErrRemoteConflict    = errors.New("remote duplicate key")

	// Auth errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
)

// WrapStorage tags err with ErrStorage so callers can match local I/O
// failures with errors.Is while keeping the underlying error for logs.
func WrapStorage(action string, err error) error {
	return fmt.Errorf("%s: %w: %w", action, ErrStorage, err)
}

