package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stanokariz/peaceverse/internal/core/domain"
	"github.com/stanokariz/peaceverse/internal/repository"
)

type fakeIncidentRepo struct {
	mu        sync.Mutex
	incidents map[string]domain.Incident
}

func newFakeIncidentRepo() *fakeIncidentRepo {
	return &fakeIncidentRepo{incidents: make(map[string]domain.Incident)}
}

func (r *fakeIncidentRepo) Create(ctx context.Context, incident domain.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.incidents[incident.ID] = incident
	return nil
}

func (r *fakeIncidentRepo) FindByID(ctx context.Context, id string) (*domain.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	incident, ok := r.incidents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &incident, nil
}

func (r *fakeIncidentRepo) ListByUser(ctx context.Context, userID string) ([]domain.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Incident
	for _, incident := range r.incidents {
		if incident.UserID == userID {
			out = append(out, incident)
		}
	}
	return out, nil
}

func (r *fakeIncidentRepo) List(ctx context.Context, offset, limit int) ([]domain.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Incident, 0, len(r.incidents))
	for _, incident := range r.incidents {
		out = append(out, incident)
	}
	return out, nil
}

func (r *fakeIncidentRepo) MarkVerified(ctx context.Context, id, verifiedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	incident, ok := r.incidents[id]
	if !ok {
		return repository.ErrNotFound
	}
	incident.IsVerified = true
	incident.VerifiedBy = &verifiedBy
	r.incidents[id] = incident
	return nil
}

type fakeStoryRepo struct {
	mu      sync.Mutex
	stories map[string]domain.PeaceStory
}

func newFakeStoryRepo() *fakeStoryRepo {
	return &fakeStoryRepo{stories: make(map[string]domain.PeaceStory)}
}

func (r *fakeStoryRepo) Create(ctx context.Context, story domain.PeaceStory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stories[story.ID] = story
	return nil
}

func (r *fakeStoryRepo) ListByUser(ctx context.Context, userID string) ([]domain.PeaceStory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PeaceStory
	for _, story := range r.stories {
		if story.UserID == userID {
			out = append(out, story)
		}
	}
	return out, nil
}

func (r *fakeStoryRepo) List(ctx context.Context, offset, limit int) ([]domain.PeaceStory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.PeaceStory, 0, len(r.stories))
	for _, story := range r.stories {
		out = append(out, story)
	}
	return out, nil
}

func newIncidentService() (*IncidentService, *fakeIncidentRepo, *fakeStoryRepo) {
	incidents := newFakeIncidentRepo()
	stories := newFakeStoryRepo()
	return NewIncidentService(incidents, stories), incidents, stories
}

func TestReportCreatesIncident(t *testing.T) {
	svc, repo, _ := newIncidentService()
	ctx := context.Background()

	incident, err := svc.Report(ctx, "user-1", ReportInput{
		Title:       "Road blockade",
		Description: "Main road blocked near the market",
		Category:    domain.CategoryTension,
		Severity:    domain.SeverityHigh,
		City:        "Nakuru",
		Country:     "Kenya",
		Lat:         -0.3031,
		Lng:         36.0800,
	})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if incident.ID == "" {
		t.Fatal("expected generated incident ID")
	}
	if incident.IsVerified {
		t.Fatal("new report must start unverified")
	}

	stored, err := repo.FindByID(ctx, incident.ID)
	if err != nil {
		t.Fatalf("find stored incident: %v", err)
	}
	if stored.UserID != "user-1" {
		t.Fatalf("expected reporter user-1, got %q", stored.UserID)
	}
}

func TestReportValidatesInput(t *testing.T) {
	svc, _, _ := newIncidentService()
	ctx := context.Background()

	cases := []struct {
		name  string
		input ReportInput
	}{
		{"missing title", ReportInput{Description: "d", Category: domain.CategoryTension, Severity: domain.SeverityLow}},
		{"missing description", ReportInput{Title: "t", Category: domain.CategoryTension, Severity: domain.SeverityLow}},
		{"unknown category", ReportInput{Title: "t", Description: "d", Category: "weather", Severity: domain.SeverityLow}},
		{"unknown severity", ReportInput{Title: "t", Description: "d", Category: domain.CategoryTension, Severity: "catastrophic"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Report(ctx, "user-1", tc.input); !errors.Is(err, ErrInvalidIncident) {
				t.Fatalf("expected ErrInvalidIncident, got %v", err)
			}
		})
	}
}

func TestVerifyMarksIncident(t *testing.T) {
	svc, _, _ := newIncidentService()
	ctx := context.Background()

	incident, err := svc.Report(ctx, "user-1", ReportInput{
		Title:       "Looting reported",
		Description: "Shops broken into overnight",
		Category:    domain.CategoryViolence,
		Severity:    domain.SeverityCritical,
	})
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	if err := svc.Verify(ctx, incident.ID, "editor-1"); err != nil {
		t.Fatalf("verify: %v", err)
	}

	verified, err := svc.Get(ctx, incident.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !verified.IsVerified {
		t.Fatal("expected incident to be verified")
	}
	if verified.VerifiedBy == nil || *verified.VerifiedBy != "editor-1" {
		t.Fatalf("expected verifier editor-1, got %v", verified.VerifiedBy)
	}
}

func TestVerifyUnknownIncident(t *testing.T) {
	svc, _, _ := newIncidentService()

	if err := svc.Verify(context.Background(), "nope", "editor-1"); !errors.Is(err, ErrIncidentNotFound) {
		t.Fatalf("expected ErrIncidentNotFound, got %v", err)
	}
}

func TestGetUnknownIncident(t *testing.T) {
	svc, _, _ := newIncidentService()

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrIncidentNotFound) {
		t.Fatalf("expected ErrIncidentNotFound, got %v", err)
	}
}

func TestShareStory(t *testing.T) {
	svc, _, stories := newIncidentService()
	ctx := context.Background()

	story, err := svc.ShareStory(ctx, "user-2", StoryInput{
		Title:   "Community dialogue",
		Message: "Elders and youth met to resolve the land dispute peacefully",
		City:    "Eldoret",
		Country: "Kenya",
	})
	if err != nil {
		t.Fatalf("share story: %v", err)
	}
	if story.ID == "" {
		t.Fatal("expected generated story ID")
	}

	mine, err := stories.ListByUser(ctx, "user-2")
	if err != nil {
		t.Fatalf("list stories: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("expected 1 story, got %d", len(mine))
	}

	if _, err := svc.ShareStory(ctx, "user-2", StoryInput{Title: "no message"}); !errors.Is(err, ErrInvalidIncident) {
		t.Fatalf("expected ErrInvalidIncident for missing message, got %v", err)
	}
}
