// Package ledger persists issued refresh tokens so rotation can revoke the
// consumed token and reuse of an already-rotated token is detectable.
package ledger

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by FindByToken when no record matches the token string.
var ErrNotFound = errors.New("refresh token not found")

// RefreshToken is the persisted record of an issued refresh token. The raw token
// string doubles as the lookup key and carries a unique constraint in storage.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// Repo manages server-side refresh token records.
type Repo interface {
	// Create stores a new refresh token record and returns its ID.
	Create(ctx context.Context, userID, token string, expiresAt time.Time) (string, error)

	// FindByToken looks up a record by its raw token string.
	// Returns ErrNotFound when the token is absent.
	FindByToken(ctx context.Context, token string) (*RefreshToken, error)

	// Revoke sets the revoked flag on a record. Revoking an already-revoked or
	// unknown ID is a no-op, not an error.
	Revoke(ctx context.Context, id string) error
}
