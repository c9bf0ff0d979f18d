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

const defaultStatsCacheKey = "site:stats"

// StatsCacheRepository caches the serialized site-stats snapshot.
type StatsCacheRepository struct {
	client *red.Client
	key    string
}

func NewStatsCacheRepository(client *red.Client, key string) *StatsCacheRepository {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		trimmed = defaultStatsCacheKey
	}

	return &StatsCacheRepository{client: client, key: trimmed}
}

func (r *StatsCacheRepository) GetSnapshot(ctx context.Context) ([]byte, error) {
	payload, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis get stats cache: %w", err)
	}

	return payload, nil
}

func (r *StatsCacheRepository) PutSnapshot(ctx context.Context, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	if err := r.client.Set(ctx, r.key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set stats cache: %w", err)
	}

	return nil
}

var _ port.StatsCache = (*StatsCacheRepository)(nil)
