package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stanokariz/peaceverse/internal/core/port"
	"github.com/stanokariz/peaceverse/internal/infra/logger"
	"github.com/stanokariz/peaceverse/internal/repository"
)

const statsCacheTTL = 60 * time.Second

// SiteStats is the admin dashboard snapshot.
type SiteStats struct {
	TotalUsers    int64 `json:"totalUsers"`
	NewUsersToday int64 `json:"newUsersToday"`
	ActiveUsers   int64 `json:"activeUsers"`
	VerifiedUsers int64 `json:"verifiedUsers"`
	UsersLast24h  int64 `json:"usersLast24h"`
	TotalVisits   int64 `json:"totalVisits"`
	VisitsToday   int64 `json:"visitsToday"`
}

// StatsService aggregates user counts and visit counters, with a short
// redis-backed cache in front of postgres.
type StatsService struct {
	users  port.UserRepository
	visits port.VisitCounter
	cache  port.StatsCache
	now    func() time.Time
}

func NewStatsService(users port.UserRepository, visits port.VisitCounter, cache port.StatsCache) *StatsService {
	return &StatsService{users: users, visits: visits, cache: cache, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *StatsService) WithClock(now func() time.Time) *StatsService {
	s.now = now
	return s
}

// Snapshot returns the current site stats, serving from cache when warm.
func (s *StatsService) Snapshot(ctx context.Context) (SiteStats, error) {
	if payload, err := s.cache.GetSnapshot(ctx); err == nil {
		var cached SiteStats
		if err := json.Unmarshal(payload, &cached); err == nil {
			return cached, nil
		}
		logger.WithContext(ctx).Warn("discarding malformed stats cache entry")
	} else if !errors.Is(err, repository.ErrNotFound) {
		logger.WithContext(ctx).Warn("stats cache read failed", zap.Error(err))
	}

	now := s.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	userStats, err := s.users.CountStats(ctx, now.Add(-24*time.Hour), startOfDay)
	if err != nil {
		return SiteStats{}, fmt.Errorf("count user stats: %w", err)
	}

	totalVisits, err := s.visits.TotalVisits(ctx)
	if err != nil {
		return SiteStats{}, fmt.Errorf("total visits: %w", err)
	}
	visitsToday, err := s.visits.VisitsOn(ctx, now)
	if err != nil {
		return SiteStats{}, fmt.Errorf("visits today: %w", err)
	}

	stats := SiteStats{
		TotalUsers:    userStats.TotalUsers,
		NewUsersToday: userStats.NewUsersToday,
		ActiveUsers:   userStats.ActiveUsers,
		VerifiedUsers: userStats.VerifiedUsers,
		UsersLast24h:  userStats.UsersLast24h,
		TotalVisits:   totalVisits,
		VisitsToday:   visitsToday,
	}

	if payload, err := json.Marshal(stats); err == nil {
		if err := s.cache.PutSnapshot(ctx, payload, statsCacheTTL); err != nil {
			logger.WithContext(ctx).Warn("stats cache write failed", zap.Error(err))
		}
	}

	return stats, nil
}
