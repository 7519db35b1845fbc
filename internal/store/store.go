// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/akoreshkov/retell-skill/internal/domain"
)

// UpdateFunc is invoked with the current session, or nil when no session
// exists for the requested ID. Returning a non-nil session persists it;
// returning nil leaves the store untouched. Returning an error aborts the
// surrounding transaction.
type UpdateFunc func(sess *domain.Session) (*domain.Session, error)

// Repository defines the interface for persisting skill sessions.
type Repository interface {
	// UpdateSession runs fn within a single transaction: one read of the
	// session row, at most one write of whatever fn returns. The
	// transaction commits on success and rolls back on any error.
	UpdateSession(ctx context.Context, sessionID string, fn UpdateFunc) error

	// ResetSession clears the stored original text and returns the session
	// to its initial state. It reports whether a session existed; it never
	// creates one.
	ResetSession(ctx context.Context, sessionID string) (bool, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
