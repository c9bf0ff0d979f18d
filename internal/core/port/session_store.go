package port

import (
	"context"
	"time"
)

// SessionStore tracks live refresh-token identifiers. A refresh token is
// valid only while its jti is present here; deleting the entry revokes it.
type SessionStore interface {
	// Put records jti -> userID with the remaining refresh-token lifetime.
	Put(ctx context.Context, jti, userID string, ttl time.Duration) error

	// Get returns the owning user id, or repository.ErrNotFound when the
	// entry is absent or has expired.
	Get(ctx context.Context, jti string) (string, error)

	// Delete removes the entry. Removing a missing entry is not an error.
	Delete(ctx context.Context, jti string) error

	// Claim atomically fetches and deletes the entry. Rotation must use
	// Claim rather than Get+Delete so that two concurrent refreshes with
	// the same token cannot both pass the presence check.
	Claim(ctx context.Context, jti string) (string, error)
}
