package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stanokariz/peaceverse/internal/core/domain"
	"github.com/stanokariz/peaceverse/internal/core/port"
	"github.com/stanokariz/peaceverse/internal/infra/security"
	"github.com/stanokariz/peaceverse/internal/repository"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := u
	return &copied, nil
}

func (r *fakeUserRepo) Save(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) DeleteMany(_ context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for _, id := range ids {
		if _, ok := r.users[id]; ok {
			delete(r.users, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeUserRepo) ListUnverifiedBefore(_ context.Context, cutoff time.Time, limit int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stale []domain.User
	for _, u := range r.users {
		if !u.IsEmailVerified && !u.IsPhoneVerified && u.CreatedAt.Before(cutoff) {
			stale = append(stale, u)
			if limit > 0 && len(stale) >= limit {
				break
			}
		}
	}
	return stale, nil
}

func (r *fakeUserRepo) List(_ context.Context, offset, limit int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.User
	for _, u := range r.users {
		all = append(all, u)
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeUserRepo) CountStats(_ context.Context, since24h, sinceToday time.Time) (port.UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stats port.UserStats
	for _, u := range r.users {
		stats.TotalUsers++
		if u.CreatedAt.After(sinceToday) || u.CreatedAt.Equal(sinceToday) {
			stats.NewUsersToday++
		}
		if u.IsLoggedIn {
			stats.ActiveUsers++
		}
		if u.IsVerified() {
			stats.VerifiedUsers++
		}
		if u.CreatedAt.After(since24h) || u.CreatedAt.Equal(since24h) {
			stats.UsersLast24h++
		}
	}
	return stats, nil
}

type sessionEntry struct {
	userID    string
	expiresAt time.Time
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]sessionEntry
	now      func() time.Time
}

func newFakeSessionStore(now func() time.Time) *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]sessionEntry), now: now}
}

func (s *fakeSessionStore) Put(_ context.Context, jti, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[jti] = sessionEntry{userID: userID, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *fakeSessionStore) Get(_ context.Context, jti string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[jti]
	if !ok || s.now().After(entry.expiresAt) {
		return "", repository.ErrNotFound
	}
	return entry.userID, nil
}

func (s *fakeSessionStore) Delete(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, jti)
	return nil
}

func (s *fakeSessionStore) Claim(_ context.Context, jti string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[jti]
	if !ok || s.now().After(entry.expiresAt) {
		return "", repository.ErrNotFound
	}
	delete(s.sessions, jti)
	return entry.userID, nil
}

type fakeDispatcher struct {
	mu         sync.Mutex
	emailCodes map[string]string
	smsCodes   map[string]string
	fail       bool
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{
		emailCodes: make(map[string]string),
		smsCodes:   make(map[string]string),
	}
}

func (d *fakeDispatcher) SendEmailOTP(_ context.Context, address, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return context.DeadlineExceeded
	}
	d.emailCodes[address] = code
	return nil
}

func (d *fakeDispatcher) SendSMSOTP(_ context.Context, phoneNumber, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return context.DeadlineExceeded
	}
	d.smsCodes[phoneNumber] = code
	return nil
}

// testClock is a settable time source shared by a service under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type authFixture struct {
	auth     *AuthService
	reset    *PasswordResetService
	users    *fakeUserRepo
	sessions *fakeSessionStore
	dispatch *fakeDispatcher
	tokens   *security.TokenManager
	clock    *testClock
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	clock := newTestClock()

	accessKeys, err := security.NewKeyring("access-secret-for-tests", 5)
	if err != nil {
		t.Fatalf("NewKeyring: %v", err)
	}
	refreshKeys, err := security.NewKeyring("refresh-secret-for-tests", 5)
	if err != nil {
		t.Fatalf("NewKeyring: %v", err)
	}

	tokens := security.NewTokenManager(accessKeys, refreshKeys, 15*time.Minute, 168*time.Hour, "peaceverse").
		WithClock(clock.Now)

	users := newFakeUserRepo()
	sessions := newFakeSessionStore(clock.Now)
	dispatch := newFakeDispatcher()
	passwords := security.NewPasswordValidator(security.MinLengthRule(6))

	auth := NewAuthService(users, sessions, tokens, dispatch, dispatch, passwords, 5*time.Minute).
		WithClock(clock.Now)
	reset := NewPasswordResetService(users, dispatch, passwords, 5*time.Minute, auth).
		WithClock(clock.Now)

	return &authFixture{
		auth:     auth,
		reset:    reset,
		users:    users,
		sessions: sessions,
		dispatch: dispatch,
		tokens:   tokens,
		clock:    clock,
	}
}

// signupVerified walks an account through signup and both verifications.
func (f *authFixture) signupVerified(t *testing.T, email, phone, password string) domain.User {
	t.Helper()

	result, err := f.auth.Signup(context.Background(), SignupInput{
		Email:       email,
		PhoneNumber: phone,
		Password:    password,
	})
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}

	if err := f.auth.VerifyEmailOTP(context.Background(), email, f.dispatch.emailCodes[email]); err != nil {
		t.Fatalf("VerifyEmailOTP returned error: %v", err)
	}
	if err := f.auth.VerifyPhoneOTP(context.Background(), email, f.dispatch.smsCodes[phone]); err != nil {
		t.Fatalf("VerifyPhoneOTP returned error: %v", err)
	}

	return result.User
}
