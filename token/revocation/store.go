// Package revocation tracks blacklisted token IDs. Entries live exactly as long
// as the token they revoke, so the store is self-cleaning and never needs an
// explicit delete.
package revocation

import (
	"context"
	"time"
)

// Store is the key-value revocation blacklist consulted on every access token
// verification. Implementations must be safe for concurrent use; atomic per-key
// set/get is sufficient since entries are write-once until TTL expiry.
type Store interface {
	// Blacklist marks a token ID as revoked for the remaining lifetime of that token.
	Blacklist(ctx context.Context, jti string, ttl time.Duration) error

	// IsBlacklisted reports whether a token ID is currently revoked.
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}
