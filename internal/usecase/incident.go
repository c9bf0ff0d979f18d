package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"

	"github.com/stanokariz/peaceverse/internal/core/domain"
	"github.com/stanokariz/peaceverse/internal/core/port"
	"github.com/stanokariz/peaceverse/internal/repository"
)

var (
	// ErrIncidentNotFound indicates no report matches the identifier.
	ErrIncidentNotFound = errors.New("incident not found")
	// ErrInvalidIncident indicates a report failed validation.
	ErrInvalidIncident = errors.New("invalid incident")
)

// ReportInput carries a new incident report.
type ReportInput struct {
	Title       string
	Description string
	Category    domain.IncidentCategory
	Severity    domain.IncidentSeverity
	City        string
	Country     string
	Lat         float64
	Lng         float64
}

// StoryInput carries a new peace story.
type StoryInput struct {
	Title   string
	Message string
	City    string
	Country string
	Lat     float64
	Lng     float64
}

// IncidentService covers citizen reports and peace stories.
type IncidentService struct {
	incidents port.IncidentRepository
	stories   port.PeaceStoryRepository
	now       func() time.Time
}

func NewIncidentService(incidents port.IncidentRepository, stories port.PeaceStoryRepository) *IncidentService {
	return &IncidentService{incidents: incidents, stories: stories, now: time.Now}
}

// Report files a new incident on behalf of the authenticated user.
func (s *IncidentService) Report(ctx context.Context, userID string, input ReportInput) (domain.Incident, error) {
	if input.Title == "" || input.Description == "" {
		return domain.Incident{}, fmt.Errorf("%w: title and description are required", ErrInvalidIncident)
	}
	if !domain.ValidCategory(input.Category) {
		return domain.Incident{}, fmt.Errorf("%w: unknown category %q", ErrInvalidIncident, input.Category)
	}
	if !domain.ValidSeverity(input.Severity) {
		return domain.Incident{}, fmt.Errorf("%w: unknown severity %q", ErrInvalidIncident, input.Severity)
	}

	now := s.now().UTC()
	incident := domain.Incident{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Severity:    input.Severity,
		City:        input.City,
		Country:     input.Country,
		Lat:         input.Lat,
		Lng:         input.Lng,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.incidents.Create(ctx, incident); err != nil {
		return domain.Incident{}, fmt.Errorf("create incident: %w", err)
	}
	return incident, nil
}

// Get loads one incident.
func (s *IncidentService) Get(ctx context.Context, id string) (domain.Incident, error) {
	incident, err := s.incidents.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Incident{}, ErrIncidentNotFound
		}
		return domain.Incident{}, fmt.Errorf("lookup incident: %w", err)
	}
	return *incident, nil
}

// ListMine returns the caller's own reports.
func (s *IncidentService) ListMine(ctx context.Context, userID string) ([]domain.Incident, error) {
	incidents, err := s.incidents.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	return incidents, nil
}

// List returns a page of reports, newest first.
func (s *IncidentService) List(ctx context.Context, offset, limit int) ([]domain.Incident, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	incidents, err := s.incidents.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	return incidents, nil
}

// Verify records an editor or admin vouching for a report.
func (s *IncidentService) Verify(ctx context.Context, id, verifierID string) error {
	if err := s.incidents.MarkVerified(ctx, id, verifierID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrIncidentNotFound
		}
		return fmt.Errorf("verify incident: %w", err)
	}
	return nil
}

// ShareStory files a new peace story.
func (s *IncidentService) ShareStory(ctx context.Context, userID string, input StoryInput) (domain.PeaceStory, error) {
	if input.Title == "" || input.Message == "" {
		return domain.PeaceStory{}, fmt.Errorf("%w: title and message are required", ErrInvalidIncident)
	}

	now := s.now().UTC()
	story := domain.PeaceStory{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     input.Title,
		Message:   input.Message,
		City:      input.City,
		Country:   input.Country,
		Lat:       input.Lat,
		Lng:       input.Lng,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.stories.Create(ctx, story); err != nil {
		return domain.PeaceStory{}, fmt.Errorf("create story: %w", err)
	}
	return story, nil
}

// ListStories returns a page of peace stories, newest first.
func (s *IncidentService) ListStories(ctx context.Context, offset, limit int) ([]domain.PeaceStory, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	stories, err := s.stories.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	return stories, nil
}
