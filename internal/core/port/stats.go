package port

import (
	"context"
	"time"
)

// VisitCounter tracks site visits, in aggregate and per page.
type VisitCounter interface {
	RecordVisit(ctx context.Context, page string, at time.Time) error
	TotalVisits(ctx context.Context) (int64, error)
	VisitsOn(ctx context.Context, day time.Time) (int64, error)
}

// StatsCache holds a serialized site-stats snapshot for a short TTL so the
// admin dashboard does not hit postgres on every poll.
type StatsCache interface {
	// GetSnapshot returns the cached payload, or repository.ErrNotFound
	// when the cache is cold.
	GetSnapshot(ctx context.Context) ([]byte, error)
	PutSnapshot(ctx context.Context, payload []byte, ttl time.Duration) error
}
