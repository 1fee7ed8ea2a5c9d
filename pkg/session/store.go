package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store.Get for unknown session ids.
var ErrNotFound = errors.New("session not found")

// Store is the persistence abstraction for session records. No business
// rules: create/read/update/delete plus listing, with single-row atomicity
// only. Implementations must be safe for concurrent use.
type Store interface {
	// Create persists a new session record.
	Create(ctx context.Context, s *Session) error

	// Get returns the session with the given id, or ErrNotFound.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Update persists changes to an existing session record.
	Update(ctx context.Context, s *Session) error

	// Delete removes the session with the given id. Deleting an unknown id
	// is not an error.
	Delete(ctx context.Context, sessionID string) error

	// ListByUser returns all sessions owned by a user, most recently used
	// first.
	ListByUser(ctx context.Context, userID int64) ([]*Session, error)

	// DeleteExpired removes every session last used before the cutoff and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
