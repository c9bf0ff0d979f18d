package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/stanokariz/peaceverse/internal/core/port"
	"github.com/stanokariz/peaceverse/internal/repository"
)

const defaultSessionPrefix = "session"

// SessionRepository tracks live refresh-token jtis in Redis. Each entry maps
// jti -> user id and expires together with the refresh token itself.
type SessionRepository struct {
	client *red.Client
	prefix string
}

// NewSessionRepository wires a Redis client into a session repository.
func NewSessionRepository(client *red.Client, keyPrefix string) *SessionRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultSessionPrefix
	}

	return &SessionRepository{client: client, prefix: prefix}
}

// Put records the jti with a TTL matching the refresh-token lifetime.
func (r *SessionRepository) Put(ctx context.Context, jti, userID string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	key := r.key(jti)
	if key == "" {
		return errors.New("jti must not be empty")
	}

	if err := r.client.Set(ctx, key, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}

	return nil
}

// Get returns the owning user id for a live session.
func (r *SessionRepository) Get(ctx context.Context, jti string) (string, error) {
	key := r.key(jti)
	if key == "" {
		return "", errors.New("jti must not be empty")
	}

	userID, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("redis get session: %w", err)
	}

	return userID, nil
}

// Delete revokes the session. Deleting an absent entry is a no-op.
func (r *SessionRepository) Delete(ctx context.Context, jti string) error {
	key := r.key(jti)
	if key == "" {
		return errors.New("jti must not be empty")
	}

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}

	return nil
}

// Claim atomically fetches and revokes the session via GETDEL. Out of any
// number of concurrent claims for the same jti exactly one succeeds.
func (r *SessionRepository) Claim(ctx context.Context, jti string) (string, error) {
	key := r.key(jti)
	if key == "" {
		return "", errors.New("jti must not be empty")
	}

	userID, err := r.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("redis getdel session: %w", err)
	}

	return userID, nil
}

func (r *SessionRepository) key(jti string) string {
	trimmed := strings.TrimSpace(jti)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", r.prefix, trimmed)
}

var _ port.SessionStore = (*SessionRepository)(nil)
