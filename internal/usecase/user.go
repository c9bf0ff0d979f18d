package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stanokariz/peaceverse/internal/core/domain"
	"github.com/stanokariz/peaceverse/internal/core/port"
	"github.com/stanokariz/peaceverse/internal/repository"
)

// ErrAdminImmutable indicates an attempt to modify or delete an admin account.
var ErrAdminImmutable = errors.New("admin accounts cannot be modified")

// UserService covers admin-facing user management.
type UserService struct {
	users port.UserRepository
	now   func() time.Time
}

func NewUserService(users port.UserRepository) *UserService {
	return &UserService{users: users, now: time.Now}
}

// List returns a page of sanitized users.
func (s *UserService) List(ctx context.Context, offset, limit int) ([]domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.users.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	sanitized := make([]domain.User, 0, len(users))
	for _, u := range users {
		sanitized = append(sanitized, u.Sanitized())
	}
	return sanitized, nil
}

// UpdateRole changes a user's role. Admin accounts are immutable.
func (s *UserService) UpdateRole(ctx context.Context, targetID string, role domain.Role) (domain.User, error) {
	user, err := s.load(ctx, targetID)
	if err != nil {
		return domain.User{}, err
	}
	if user.Role == domain.RoleAdmin {
		return domain.User{}, ErrAdminImmutable
	}

	user.Role = role
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Save(ctx, *user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user.Sanitized(), nil
}

// SetActive toggles an account on or off. Admin accounts are immutable.
func (s *UserService) SetActive(ctx context.Context, targetID string, active bool) (domain.User, error) {
	user, err := s.load(ctx, targetID)
	if err != nil {
		return domain.User{}, err
	}
	if user.Role == domain.RoleAdmin {
		return domain.User{}, ErrAdminImmutable
	}

	user.IsActive = active
	if !active {
		user.IsLoggedIn = false
	}
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Save(ctx, *user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user.Sanitized(), nil
}

// Delete removes a non-admin account.
func (s *UserService) Delete(ctx context.Context, targetID string) error {
	user, err := s.load(ctx, targetID)
	if err != nil {
		return err
	}
	if user.Role == domain.RoleAdmin {
		return ErrAdminImmutable
	}

	if _, err := s.users.DeleteMany(ctx, []string{user.ID}); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *UserService) load(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}
