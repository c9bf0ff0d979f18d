package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stanokariz/peaceverse/internal/core/domain"
	"github.com/stanokariz/peaceverse/internal/core/port"
	"github.com/stanokariz/peaceverse/internal/repository"
)

var incidentColumns = []string{
	"id",
	"user_id",
	"title",
	"description",
	"category",
	"severity",
	"city",
	"country",
	"lat",
	"lng",
	"is_verified",
	"verified_by",
	"created_at",
	"updated_at",
}

// IncidentRepository implements port.IncidentRepository using PostgreSQL.
type IncidentRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

func NewIncidentRepository(exec pgExecutor) *IncidentRepository {
	repo := &IncidentRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

func (r *IncidentRepository) Create(ctx context.Context, incident domain.Incident) error {
	query := r.builder.Insert("incidents").
		Columns(incidentColumns...).
		Values(
			incident.ID,
			incident.UserID,
			incident.Title,
			incident.Description,
			incident.Category,
			incident.Severity,
			incident.City,
			incident.Country,
			incident.Lat,
			incident.Lng,
			incident.IsVerified,
			incident.VerifiedBy,
			incident.CreatedAt,
			incident.UpdatedAt,
		)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert incident sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}

	return nil
}

func (r *IncidentRepository) FindByID(ctx context.Context, id string) (*domain.Incident, error) {
	stmt, args, err := r.builder.
		Select(incidentColumns...).
		From("incidents").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select incident sql: %w", err)
	}

	incident, err := scanIncident(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan incident: %w", err)
	}

	return incident, nil
}

func (r *IncidentRepository) ListByUser(ctx context.Context, userID string) ([]domain.Incident, error) {
	query := r.builder.
		Select(incidentColumns...).
		From("incidents").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC")

	return r.listQuery(ctx, query)
}

func (r *IncidentRepository) List(ctx context.Context, offset, limit int) ([]domain.Incident, error) {
	query := r.builder.
		Select(incidentColumns...).
		From("incidents").
		OrderBy("created_at DESC")
	if offset > 0 {
		query = query.Offset(uint64(offset))
	}
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	return r.listQuery(ctx, query)
}

// MarkVerified records an editor or admin vouching for a report.
func (r *IncidentRepository) MarkVerified(ctx context.Context, id, verifiedBy string) error {
	query := r.builder.Update("incidents").
		Set("is_verified", true).
		Set("verified_by", verifiedBy).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id})

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build verify incident sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("verify incident: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *IncidentRepository) listQuery(ctx context.Context, query squirrel.SelectBuilder) ([]domain.Incident, error) {
	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select incidents sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select incidents: %w", err)
	}
	defer rows.Close()

	var incidents []domain.Incident
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		incidents = append(incidents, *incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}

	return incidents, nil
}

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var incident domain.Incident

	if err := row.Scan(
		&incident.ID,
		&incident.UserID,
		&incident.Title,
		&incident.Description,
		&incident.Category,
		&incident.Severity,
		&incident.City,
		&incident.Country,
		&incident.Lat,
		&incident.Lng,
		&incident.IsVerified,
		&incident.VerifiedBy,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &incident, nil
}

var _ port.IncidentRepository = (*IncidentRepository)(nil)
