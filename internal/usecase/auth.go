package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stanokariz/peaceverse/internal/core/domain"
	"github.com/stanokariz/peaceverse/internal/core/port"
	"github.com/stanokariz/peaceverse/internal/infra/logger"
	"github.com/stanokariz/peaceverse/internal/infra/security"
	"github.com/stanokariz/peaceverse/internal/repository"
)

var (
	// ErrEmailAlreadyRegistered indicates the email is already taken.
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	// ErrUserNotFound indicates no account matches the identifier.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials indicates the email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidOrExpiredOTP indicates a wrong, expired or absent one-time code.
	ErrInvalidOrExpiredOTP = errors.New("invalid or expired otp")
	// ErrNotVerified indicates login before both channels were verified.
	ErrNotVerified = errors.New("account not verified")
	// ErrInactiveAccount indicates the account has been deactivated.
	ErrInactiveAccount = errors.New("account is not active")
	// ErrAlreadyVerified indicates a resend request for a verified channel.
	ErrAlreadyVerified = errors.New("account already verified")
	// ErrRefreshRevoked indicates a well-formed refresh token whose session
	// entry is gone: already rotated, logged out, or never issued.
	ErrRefreshRevoked = errors.New("refresh token revoked")
)

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// SignupInput carries the fields required to open an account.
type SignupInput struct {
	Email       string
	PhoneNumber string
	Password    string
}

// SignupResult reports the created account and a strength hint for the UI.
type SignupResult struct {
	User             domain.User
	PasswordStrength int
}

// OTPChannel selects which contact channel a resend targets.
type OTPChannel string

const (
	ChannelEmail OTPChannel = "email"
	ChannelPhone OTPChannel = "phone"
)

// AuthService coordinates signup, verification, login and the refresh loop.
type AuthService struct {
	users     port.UserRepository
	sessions  port.SessionStore
	tokens    *security.TokenManager
	mailer    port.OTPMailer
	sms       port.OTPSMSSender
	passwords *security.PasswordValidator
	otpTTL    time.Duration
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	users port.UserRepository,
	sessions port.SessionStore,
	tokens *security.TokenManager,
	mailer port.OTPMailer,
	sms port.OTPSMSSender,
	passwords *security.PasswordValidator,
	otpTTL time.Duration,
) *AuthService {
	if otpTTL <= 0 {
		otpTTL = 5 * time.Minute
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		tokens:    tokens,
		mailer:    mailer,
		sms:       sms,
		passwords: passwords,
		otpTTL:    otpTTL,
		now:       time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Signup creates an unverified account and dispatches one-time codes to both
// contact channels. Dispatch failures do not roll the account back; the
// client can request a resend.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (SignupResult, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" {
		return SignupResult{}, fmt.Errorf("email is required")
	}
	if input.PhoneNumber == "" {
		return SignupResult{}, fmt.Errorf("phone number is required")
	}
	if err := s.passwords.Validate(input.Password); err != nil {
		return SignupResult{}, err
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return SignupResult{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PhoneNumber:  input.PhoneNumber,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	emailCode, err := security.GenerateOTP()
	if err != nil {
		return SignupResult{}, fmt.Errorf("generate email otp: %w", err)
	}
	phoneCode, err := security.GenerateOTP()
	if err != nil {
		return SignupResult{}, fmt.Errorf("generate phone otp: %w", err)
	}
	user.SetEmailOTP(emailCode, now.Add(s.otpTTL))
	user.SetPhoneOTP(phoneCode, now.Add(s.otpTTL))

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return SignupResult{}, ErrEmailAlreadyRegistered
		}
		return SignupResult{}, fmt.Errorf("create user: %w", err)
	}

	s.dispatchOTP(ctx, user, emailCode, phoneCode)

	return SignupResult{
		User:             user.Sanitized(),
		PasswordStrength: security.PasswordStrength(input.Password, email),
	}, nil
}

func (s *AuthService) dispatchOTP(ctx context.Context, user domain.User, emailCode, phoneCode string) {
	log := logger.WithContext(ctx)

	if emailCode != "" {
		if err := s.mailer.SendEmailOTP(ctx, user.Email, emailCode); err != nil {
			log.Warn("email otp dispatch failed",
				zap.String("email", logger.MaskEmail(user.Email)),
				zap.Error(err),
			)
		}
	}
	if phoneCode != "" {
		if err := s.sms.SendSMSOTP(ctx, user.PhoneNumber, phoneCode); err != nil {
			log.Warn("sms otp dispatch failed",
				zap.String("phone", logger.MaskPhone(user.PhoneNumber)),
				zap.Error(err),
			)
		}
	}
}

// VerifyEmailOTP proves possession of the email address.
func (s *AuthService) VerifyEmailOTP(ctx context.Context, email, code string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}

	// Verification clears the code, so a replayed or already-consumed code
	// falls through here as invalid.
	if !security.VerifyOTP(code, user.EmailOTP, user.EmailOTPExpiry, s.now().UTC()) {
		return ErrInvalidOrExpiredOTP
	}

	user.IsEmailVerified = true
	user.ClearEmailOTP()
	user.UpdatedAt = s.now().UTC()

	if err := s.users.Save(ctx, *user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// VerifyPhoneOTP proves possession of the phone number.
func (s *AuthService) VerifyPhoneOTP(ctx context.Context, email, code string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}

	if !security.VerifyOTP(code, user.PhoneOTP, user.PhoneOTPExpiry, s.now().UTC()) {
		return ErrInvalidOrExpiredOTP
	}

	user.IsPhoneVerified = true
	user.ClearPhoneOTP()
	user.UpdatedAt = s.now().UTC()

	if err := s.users.Save(ctx, *user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// ResendOTP regenerates and redelivers the code for one channel.
func (s *AuthService) ResendOTP(ctx context.Context, email string, channel OTPChannel) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	code, err := security.GenerateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	var emailCode, phoneCode string
	switch channel {
	case ChannelEmail:
		if user.IsEmailVerified {
			return ErrAlreadyVerified
		}
		user.SetEmailOTP(code, now.Add(s.otpTTL))
		emailCode = code
	case ChannelPhone:
		if user.IsPhoneVerified {
			return ErrAlreadyVerified
		}
		user.SetPhoneOTP(code, now.Add(s.otpTTL))
		phoneCode = code
	default:
		return fmt.Errorf("unknown otp channel %q", channel)
	}

	user.UpdatedAt = now
	if err := s.users.Save(ctx, *user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	s.dispatchOTP(ctx, *user, emailCode, phoneCode)
	return nil
}

// LoginResult carries the authenticated user and the issued token pair.
type LoginResult struct {
	User   domain.User
	Tokens TokenPair
}

// Login validates credentials and opens a session. Account gates come ahead
// of the password comparison: an unverified or deactivated account reports
// ErrNotVerified/ErrInactiveAccount no matter what password was presented.
// Unknown email and wrong password both report ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if !user.IsVerified() {
		return LoginResult{}, ErrNotVerified
	}
	if !user.IsActive {
		return LoginResult{}, ErrInactiveAccount
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return LoginResult{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user.ID, user.Role)
	if err != nil {
		return LoginResult{}, err
	}

	now := s.now().UTC()
	user.IsLoggedIn = true
	user.LastLogin = &now
	user.UpdatedAt = now
	if err := s.users.Save(ctx, *user); err != nil {
		return LoginResult{}, fmt.Errorf("save user: %w", err)
	}

	logger.WithContext(ctx).Info("user logged in",
		zap.String("user_id", user.ID),
		zap.String("email", logger.MaskEmail(user.Email)),
	)

	return LoginResult{User: user.Sanitized(), Tokens: pair}, nil
}

// Refresh rotates a refresh token: the presented token is atomically claimed
// so it can never be replayed, then a fresh pair is issued. A malformed or
// expired token surfaces as security.ErrTokenInvalid/ErrTokenExpired; a token
// that verifies but whose session is gone reports ErrRefreshRevoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	userID, err := s.sessions.Claim(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrRefreshRevoked
		}
		return TokenPair{}, fmt.Errorf("claim session: %w", err)
	}
	if userID != claims.Subject {
		return TokenPair{}, ErrRefreshRevoked
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrRefreshRevoked
		}
		return TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return TokenPair{}, ErrInactiveAccount
	}

	return s.issuePair(ctx, user.ID, user.Role)
}

// Logout revokes the presented refresh token. It is idempotent: an invalid
// or already-revoked token still logs out cleanly.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil
	}

	if err := s.sessions.Delete(ctx, claims.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if user, err := s.users.FindByID(ctx, claims.Subject); err == nil {
		user.IsLoggedIn = false
		user.UpdatedAt = s.now().UTC()
		if err := s.users.Save(ctx, *user); err != nil {
			logger.WithContext(ctx).Warn("clear login flag failed",
				zap.String("user_id", claims.Subject),
				zap.Error(err),
			)
		}
	}

	return nil
}

// Me loads the caller's profile.
func (s *AuthService) Me(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user.Sanitized(), nil
}

func (s *AuthService) issuePair(ctx context.Context, userID string, role domain.Role) (TokenPair, error) {
	accessToken, err := s.tokens.IssueAccessToken(userID, role)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, jti, err := s.tokens.IssueRefreshToken(userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := s.sessions.Put(ctx, jti, userID, s.tokens.RefreshTTL()); err != nil {
		return TokenPair{}, fmt.Errorf("store session: %w", err)
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessTTL:    s.tokens.AccessTTL(),
		RefreshTTL:   s.tokens.RefreshTTL(),
	}, nil
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (*domain.User, error) {
	normalized := domain.NormalizeEmail(email)
	if normalized == "" {
		return nil, fmt.Errorf("email is required")
	}

	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}
