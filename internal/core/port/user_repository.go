package port

import (
	"context"
	"time"

	"github.com/stanokariz/peaceverse/internal/core/domain"
)

// UserRepository abstracts the persistent credential store.
// Implementations return repository.ErrNotFound for missing records and
// repository.ErrDuplicateEmail when the unique email constraint is violated.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Save(ctx context.Context, user domain.User) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)

	// ListUnverifiedBefore returns accounts whose email and phone are both
	// unverified and that were created before the cutoff. Fed to the sweep.
	ListUnverifiedBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.User, error)

	List(ctx context.Context, offset, limit int) ([]domain.User, error)
	CountStats(ctx context.Context, since24h, sinceToday time.Time) (UserStats, error)
}

// UserStats aggregates account counters for the admin dashboard.
type UserStats struct {
	TotalUsers    int64
	NewUsersToday int64
	ActiveUsers   int64
	VerifiedUsers int64
	UsersLast24h  int64
}
