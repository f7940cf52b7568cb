package history

import "errors"

// Sentinel errors for history operations.
var (
	// ErrNotFound is returned when a session has no stored turns.
	ErrNotFound = errors.New("session not found")

	// ErrConflict is returned when a concurrent append claimed the same
	// turn positions. The caller may reload and retry.
	ErrConflict = errors.New("concurrent append to session")
)
