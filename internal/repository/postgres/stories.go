package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stanokariz/peaceverse/internal/core/domain"
	"github.com/stanokariz/peaceverse/internal/core/port"
)

var storyColumns = []string{
	"id",
	"user_id",
	"title",
	"message",
	"city",
	"country",
	"lat",
	"lng",
	"created_at",
	"updated_at",
}

// PeaceStoryRepository implements port.PeaceStoryRepository using PostgreSQL.
type PeaceStoryRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

func NewPeaceStoryRepository(exec pgExecutor) *PeaceStoryRepository {
	repo := &PeaceStoryRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

func (r *PeaceStoryRepository) Create(ctx context.Context, story domain.PeaceStory) error {
	query := r.builder.Insert("peace_stories").
		Columns(storyColumns...).
		Values(
			story.ID,
			story.UserID,
			story.Title,
			story.Message,
			story.City,
			story.Country,
			story.Lat,
			story.Lng,
			story.CreatedAt,
			story.UpdatedAt,
		)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert story sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert story: %w", err)
	}

	return nil
}

func (r *PeaceStoryRepository) ListByUser(ctx context.Context, userID string) ([]domain.PeaceStory, error) {
	query := r.builder.
		Select(storyColumns...).
		From("peace_stories").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC")

	return r.listQuery(ctx, query)
}

func (r *PeaceStoryRepository) List(ctx context.Context, offset, limit int) ([]domain.PeaceStory, error) {
	query := r.builder.
		Select(storyColumns...).
		From("peace_stories").
		OrderBy("created_at DESC")
	if offset > 0 {
		query = query.Offset(uint64(offset))
	}
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	return r.listQuery(ctx, query)
}

func (r *PeaceStoryRepository) listQuery(ctx context.Context, query squirrel.SelectBuilder) ([]domain.PeaceStory, error) {
	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select stories sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select stories: %w", err)
	}
	defer rows.Close()

	var stories []domain.PeaceStory
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, *story)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stories: %w", err)
	}

	return stories, nil
}

func scanStory(row pgx.Row) (*domain.PeaceStory, error) {
	var story domain.PeaceStory

	if err := row.Scan(
		&story.ID,
		&story.UserID,
		&story.Title,
		&story.Message,
		&story.City,
		&story.Country,
		&story.Lat,
		&story.Lng,
		&story.CreatedAt,
		&story.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &story, nil
}

var _ port.PeaceStoryRepository = (*PeaceStoryRepository)(nil)
