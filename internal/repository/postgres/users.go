package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stanokariz/peaceverse/internal/core/domain"
	"github.com/stanokariz/peaceverse/internal/core/port"
	"github.com/stanokariz/peaceverse/internal/repository"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolationCode = "23505"

var userColumns = []string{
	"id",
	"email",
	"phone_number",
	"password_hash",
	"role",
	"is_active",
	"is_email_verified",
	"is_phone_verified",
	"email_otp",
	"email_otp_expiry",
	"phone_otp",
	"phone_otp_expiry",
	"is_logged_in",
	"last_login",
	"created_at",
	"updated_at",
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewUserRepository(exec pgExecutor) *UserRepository {
	repo := &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	if tx == nil {
		return r
	}
	return &UserRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new user row. A unique-constraint violation on email is
// reported as repository.ErrDuplicateEmail.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	query := r.builder.Insert("web_users").
		Columns(userColumns...).
		Values(
			user.ID,
			user.Email,
			user.PhoneNumber,
			user.PasswordHash,
			user.Role,
			user.IsActive,
			user.IsEmailVerified,
			user.IsPhoneVerified,
			user.EmailOTP,
			user.EmailOTPExpiry,
			user.PhoneOTP,
			user.PhoneOTPExpiry,
			user.IsLoggedIn,
			user.LastLogin,
			user.CreatedAt,
			user.UpdatedAt,
		)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail retrieves a user by normalized email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, squirrel.Eq{"email": email})
}

// FindByID retrieves a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id})
}

func (r *UserRepository) findOne(ctx context.Context, where squirrel.Eq) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("web_users").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return user, nil
}

// Save persists the full mutable state of an existing user.
func (r *UserRepository) Save(ctx context.Context, user domain.User) error {
	query := r.builder.Update("web_users").
		Set("email", user.Email).
		Set("phone_number", user.PhoneNumber).
		Set("password_hash", user.PasswordHash).
		Set("role", user.Role).
		Set("is_active", user.IsActive).
		Set("is_email_verified", user.IsEmailVerified).
		Set("is_phone_verified", user.IsPhoneVerified).
		Set("email_otp", user.EmailOTP).
		Set("email_otp_expiry", user.EmailOTPExpiry).
		Set("phone_otp", user.PhoneOTP).
		Set("phone_otp_expiry", user.PhoneOTPExpiry).
		Set("is_logged_in", user.IsLoggedIn).
		Set("last_login", user.LastLogin).
		Set("updated_at", user.UpdatedAt).
		Where(squirrel.Eq{"id": user.ID})

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build update user sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeleteMany removes the given users and reports how many rows went away.
func (r *UserRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	stmt, args, err := r.builder.
		Delete("web_users").
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete users sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete users: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ListUnverifiedBefore returns accounts created before the cutoff that never
// verified either contact channel.
func (r *UserRepository) ListUnverifiedBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.User, error) {
	query := r.builder.
		Select(userColumns...).
		From("web_users").
		Where(squirrel.Eq{"is_email_verified": false, "is_phone_verified": false}).
		Where(squirrel.Lt{"created_at": cutoff}).
		OrderBy("created_at ASC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	return r.list(ctx, query)
}

// List returns a page of users ordered by creation time, newest first.
func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]domain.User, error) {
	query := r.builder.
		Select(userColumns...).
		From("web_users").
		OrderBy("created_at DESC")
	if offset > 0 {
		query = query.Offset(uint64(offset))
	}
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	return r.list(ctx, query)
}

func (r *UserRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]domain.User, error) {
	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select users sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// CountStats computes the aggregate counters for the admin dashboard in a
// single round trip.
func (r *UserRepository) CountStats(ctx context.Context, since24h, sinceToday time.Time) (port.UserStats, error) {
	stmt, args, err := r.builder.
		Select("count(*)").
		Column(squirrel.Expr("count(*) FILTER (WHERE created_at >= ?)", sinceToday)).
		Column(squirrel.Expr("count(*) FILTER (WHERE is_logged_in)")).
		Column(squirrel.Expr("count(*) FILTER (WHERE is_email_verified AND is_phone_verified)")).
		Column(squirrel.Expr("count(*) FILTER (WHERE last_login >= ?)", since24h)).
		From("web_users").
		ToSql()
	if err != nil {
		return port.UserStats{}, fmt.Errorf("build stats sql: %w", err)
	}

	var stats port.UserStats
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&stats.TotalUsers,
		&stats.NewUsersToday,
		&stats.ActiveUsers,
		&stats.VerifiedUsers,
		&stats.UsersLast24h,
	); err != nil {
		return port.UserStats{}, fmt.Errorf("scan stats: %w", err)
	}

	return stats, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user           domain.User
		role           string
		emailOTP       sql.NullString
		emailOTPExpiry *time.Time
		phoneOTP       sql.NullString
		phoneOTPExpiry *time.Time
		lastLogin      *time.Time
	)

	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PhoneNumber,
		&user.PasswordHash,
		&role,
		&user.IsActive,
		&user.IsEmailVerified,
		&user.IsPhoneVerified,
		&emailOTP,
		&emailOTPExpiry,
		&phoneOTP,
		&phoneOTPExpiry,
		&user.IsLoggedIn,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	user.Role = domain.Role(role)
	if emailOTP.Valid {
		user.EmailOTP = &emailOTP.String
	}
	user.EmailOTPExpiry = emailOTPExpiry
	if phoneOTP.Valid {
		user.PhoneOTP = &phoneOTP.String
	}
	user.PhoneOTPExpiry = phoneOTPExpiry
	user.LastLogin = lastLogin

	return &user, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
