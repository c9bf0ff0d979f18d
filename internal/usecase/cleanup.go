package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stanokariz/peaceverse/internal/core/port"
	"github.com/stanokariz/peaceverse/internal/infra/logger"
)

// CleanupService periodically removes accounts that never verified either
// contact channel within the retention window.
type CleanupService struct {
	users     port.UserRepository
	interval  time.Duration
	retention time.Duration
	batchSize int
	now       func() time.Time
}

func NewCleanupService(users port.UserRepository, interval, retention time.Duration, batchSize int) *CleanupService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if retention <= 0 {
		retention = 30 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	return &CleanupService{
		users:     users,
		interval:  interval,
		retention: retention,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *CleanupService) WithClock(now func() time.Time) *CleanupService {
	s.now = now
	return s
}

// Run sweeps on a ticker until the context is cancelled.
func (s *CleanupService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log := logger.WithContext(ctx)
	log.Info("unverified-account sweep started",
		zap.Duration("interval", s.interval),
		zap.Duration("retention", s.retention),
	)

	for {
		select {
		case <-ctx.Done():
			log.Info("unverified-account sweep stopped")
			return
		case <-ticker.C:
			deleted, err := s.Sweep(ctx)
			if err != nil {
				log.Warn("unverified-account sweep failed", zap.Error(err))
				continue
			}
			if deleted > 0 {
				log.Info("removed unverified accounts", zap.Int64("count", deleted))
			}
		}
	}
}

// Sweep runs one pass and reports how many accounts were removed.
func (s *CleanupService) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.retention)

	stale, err := s.users.ListUnverifiedBefore(ctx, cutoff, s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list unverified users: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(stale))
	for _, u := range stale {
		ids = append(ids, u.ID)
	}

	deleted, err := s.users.DeleteMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete unverified users: %w", err)
	}

	return deleted, nil
}
