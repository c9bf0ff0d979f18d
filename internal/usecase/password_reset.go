package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stanokariz/peaceverse/internal/core/port"
	"github.com/stanokariz/peaceverse/internal/infra/logger"
	"github.com/stanokariz/peaceverse/internal/infra/security"
)

// PasswordResetService runs the OTP-gated password reset flow.
type PasswordResetService struct {
	users     port.UserRepository
	mailer    port.OTPMailer
	passwords *security.PasswordValidator
	otpTTL    time.Duration
	now       func() time.Time

	auth *AuthService
}

func NewPasswordResetService(
	users port.UserRepository,
	mailer port.OTPMailer,
	passwords *security.PasswordValidator,
	otpTTL time.Duration,
	auth *AuthService,
) *PasswordResetService {
	if otpTTL <= 0 {
		otpTTL = 5 * time.Minute
	}
	return &PasswordResetService{
		users:     users,
		mailer:    mailer,
		passwords: passwords,
		otpTTL:    otpTTL,
		now:       time.Now,
		auth:      auth,
	}
}

// WithClock overrides the time source, for tests.
func (s *PasswordResetService) WithClock(now func() time.Time) *PasswordResetService {
	s.now = now
	return s
}

// RequestReset stores a fresh email code on the account and mails it out.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	user, err := s.auth.findByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, err := security.GenerateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	now := s.now().UTC()
	user.SetEmailOTP(code, now.Add(s.otpTTL))
	user.UpdatedAt = now

	if err := s.users.Save(ctx, *user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	if err := s.mailer.SendEmailOTP(ctx, user.Email, code); err != nil {
		logger.WithContext(ctx).Warn("reset otp dispatch failed",
			zap.String("email", logger.MaskEmail(user.Email)),
			zap.Error(err),
		)
	}

	return nil
}

// Reset verifies the code and installs the new password. The new password
// is always hashed before it is stored.
func (s *PasswordResetService) Reset(ctx context.Context, email, code, newPassword string) error {
	user, err := s.auth.findByEmail(ctx, email)
	if err != nil {
		return err
	}

	if err := s.passwords.Validate(newPassword); err != nil {
		return err
	}

	if !security.VerifyOTP(code, user.EmailOTP, user.EmailOTPExpiry, s.now().UTC()) {
		return ErrInvalidOrExpiredOTP
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = hash
	user.ClearEmailOTP()
	user.IsLoggedIn = false
	user.UpdatedAt = s.now().UTC()

	if err := s.users.Save(ctx, *user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	logger.WithContext(ctx).Info("password reset completed",
		zap.String("user_id", user.ID),
		zap.String("email", logger.MaskEmail(user.Email)),
	)

	return nil
}
