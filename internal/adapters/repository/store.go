// Package repository holds the live playback sessions.
package repository

import (
	"context"
	"time"

	"github.com/okian/signconnect/internal/domain/session"
)

// Store provides access to live sessions. Removing a session from the
// store always closes it.
type Store interface {
	// Create adds s. Returns ErrCapacity when the store is full and
	// ErrExists when the id is taken.
	Create(ctx context.Context, s *session.Session) error

	// Get returns the session with id or ErrNotFound.
	Get(ctx context.Context, id string) (*session.Session, error)

	// Delete removes and closes the session with id or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Count returns the number of live sessions.
	Count(ctx context.Context) int

	// Sweep removes and closes sessions last used before idleBefore and
	// returns their ids. Sessions with an attached subscriber are kept.
	Sweep(ctx context.Context, idleBefore time.Time) []string

	// Close stops background work and closes every session.
	Close() error
}
