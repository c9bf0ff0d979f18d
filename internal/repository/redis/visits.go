package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"
)

const defaultVisitsPrefix = "site"

// VisitRepository keeps site visit counters in Redis. A total counter grows
// forever while per-day counters expire after a week.
type VisitRepository struct {
	client *red.Client
	prefix string
}

func NewVisitRepository(client *red.Client, keyPrefix string) *VisitRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultVisitsPrefix
	}

	return &VisitRepository{client: client, prefix: prefix}
}

// RecordVisit bumps the total, current-day, and per-page counters.
func (r *VisitRepository) RecordVisit(ctx context.Context, page string, at time.Time) error {
	dayKey := r.dayKey(at)

	pipe := r.client.TxPipeline()
	pipe.Incr(ctx, r.totalKey())
	pipe.Incr(ctx, dayKey)
	pipe.Expire(ctx, dayKey, 7*24*time.Hour)

	if page = sanitizePage(page); page != "" {
		pageKey := fmt.Sprintf("%s:page:%s:visits", r.prefix, page)
		pageDayKey := fmt.Sprintf("%s:%s", pageKey, at.UTC().Format("2006-01-02"))
		pipe.Incr(ctx, pageKey)
		pipe.Incr(ctx, pageDayKey)
		pipe.Expire(ctx, pageDayKey, 7*24*time.Hour)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis record visit: %w", err)
	}

	return nil
}

// sanitizePage flattens a URL path into a key-safe segment.
func sanitizePage(page string) string {
	replacer := strings.NewReplacer("/", "_", "?", "_", "&", "_", "=", "_")
	return strings.Trim(replacer.Replace(page), "_")
}

// TotalVisits returns the all-time visit count.
func (r *VisitRepository) TotalVisits(ctx context.Context) (int64, error) {
	return r.counter(ctx, r.totalKey())
}

// VisitsOn returns the visit count for the day containing the given time.
func (r *VisitRepository) VisitsOn(ctx context.Context, day time.Time) (int64, error) {
	return r.counter(ctx, r.dayKey(day))
}

func (r *VisitRepository) counter(ctx context.Context, key string) (int64, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get counter: %w", err)
	}

	count, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse counter: %w", err)
	}

	return count, nil
}

func (r *VisitRepository) totalKey() string {
	return fmt.Sprintf("%s:visits:total", r.prefix)
}

func (r *VisitRepository) dayKey(at time.Time) string {
	return fmt.Sprintf("%s:visits:%s", r.prefix, at.UTC().Format("2006-01-02"))
}
