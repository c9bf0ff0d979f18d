package port

import (
	"context"

	"github.com/stanokariz/peaceverse/internal/core/domain"
)

// IncidentRepository persists citizen incident reports.
type IncidentRepository interface {
	Create(ctx context.Context, incident domain.Incident) error
	FindByID(ctx context.Context, id string) (*domain.Incident, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Incident, error)
	List(ctx context.Context, offset, limit int) ([]domain.Incident, error)
	MarkVerified(ctx context.Context, id, verifiedBy string) error
}

// PeaceStoryRepository persists peace stories.
type PeaceStoryRepository interface {
	Create(ctx context.Context, story domain.PeaceStory) error
	ListByUser(ctx context.Context, userID string) ([]domain.PeaceStory, error)
	List(ctx context.Context, offset, limit int) ([]domain.PeaceStory, error)
}
