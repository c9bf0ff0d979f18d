package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stanokariz/peaceverse/internal/repository"
)

func TestStatsCacheRepository_RoundTrip(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewStatsCacheRepository(client, "site:stats")

	ctx := context.Background()

	if _, err := repo.GetSnapshot(ctx); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on cold cache, got %v", err)
	}

	payload := []byte(`{"totalUsers":10}`)
	if err := repo.PutSnapshot(ctx, payload, time.Minute); err != nil {
		t.Fatalf("PutSnapshot returned error: %v", err)
	}

	got, err := repo.GetSnapshot(ctx)
	if err != nil {
		t.Fatalf("GetSnapshot returned error: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("expected %s, got %s", payload, got)
	}

	server.FastForward(2 * time.Minute)

	if _, err := repo.GetSnapshot(ctx); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestStatsCacheRepository_InvalidTTL(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewStatsCacheRepository(client, "site:stats")

	if err := repo.PutSnapshot(context.Background(), []byte("{}"), 0); err == nil {
		t.Fatalf("expected error for non-positive ttl")
	}
}
