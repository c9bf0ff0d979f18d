package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"

	"github.com/stanokariz/peaceverse/internal/repository"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func TestSessionRepository_PutAndGet(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewSessionRepository(client, "session")

	ctx := context.Background()
	ttl := 168 * time.Hour

	if err := repo.Put(ctx, "jti-123", "user-1", ttl); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	userID, err := repo.Get(ctx, "jti-123")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %s", userID)
	}

	remaining := server.TTL("session:jti-123")
	if remaining <= 0 || remaining > ttl {
		t.Fatalf("expected ttl within (0, %v], got %v", ttl, remaining)
	}
}

func TestSessionRepository_GetMiss(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewSessionRepository(client, "session")

	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_GetExpired(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewSessionRepository(client, "session")

	ctx := context.Background()
	if err := repo.Put(ctx, "jti-exp", "user-1", time.Minute); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	server.FastForward(2 * time.Minute)

	if _, err := repo.Get(ctx, "jti-exp"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestSessionRepository_Delete(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewSessionRepository(client, "session")

	ctx := context.Background()
	if err := repo.Put(ctx, "jti-del", "user-1", time.Minute); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	if err := repo.Delete(ctx, "jti-del"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := repo.Get(ctx, "jti-del"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting a missing entry is not an error.
	if err := repo.Delete(ctx, "jti-del"); err != nil {
		t.Fatalf("Delete of missing entry returned error: %v", err)
	}
}

func TestSessionRepository_ClaimIsSingleUse(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewSessionRepository(client, "session")

	ctx := context.Background()
	if err := repo.Put(ctx, "jti-claim", "user-1", time.Minute); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	userID, err := repo.Claim(ctx, "jti-claim")
	if err != nil {
		t.Fatalf("first Claim returned error: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %s", userID)
	}

	if _, err := repo.Claim(ctx, "jti-claim"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second claim, got %v", err)
	}
}

func TestSessionRepository_InvalidInput(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewSessionRepository(client, "session")

	ctx := context.Background()

	if err := repo.Put(ctx, "", "user-1", time.Minute); err == nil {
		t.Fatalf("expected error for empty jti")
	}
	if err := repo.Put(ctx, "jti", "user-1", 0); err == nil {
		t.Fatalf("expected error for non-positive ttl")
	}
	if _, err := repo.Get(ctx, ""); err == nil {
		t.Fatalf("expected error for empty jti in Get")
	}
	if _, err := repo.Claim(ctx, ""); err == nil {
		t.Fatalf("expected error for empty jti in Claim")
	}
}
