package domain

import (
	"strings"
	"time"
)

// Role is the closed set of privilege levels a web user can hold.
type Role string

const (
	RoleUser   Role = "user"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// ParseRole normalizes a raw role string into a Role.
// Unknown values are rejected so ad hoc strings never reach the gate.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser, true
	case RoleEditor:
		return RoleEditor, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Satisfies reports whether the role grants access to an endpoint that
// admits any of the allowed roles. Admin satisfies every check.
func (r Role) Satisfies(allowed ...Role) bool {
	if r == RoleAdmin {
		return true
	}
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// User mirrors the persisted representation in the web_users table.
type User struct {
	ID              string
	Email           string
	PhoneNumber     string
	PasswordHash    string
	Role            Role
	IsActive        bool
	IsEmailVerified bool
	IsPhoneVerified bool
	EmailOTP        *string
	EmailOTPExpiry  *time.Time
	PhoneOTP        *string
	PhoneOTPExpiry  *time.Time
	IsLoggedIn      bool
	LastLogin       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsVerified reports whether both out-of-band possession proofs succeeded.
func (u User) IsVerified() bool {
	return u.IsEmailVerified && u.IsPhoneVerified
}

// SetEmailOTP stores a pending email verification code with its expiry.
func (u *User) SetEmailOTP(code string, expiry time.Time) {
	codeCopy := code
	expiryCopy := expiry
	u.EmailOTP = &codeCopy
	u.EmailOTPExpiry = &expiryCopy
}

// SetPhoneOTP stores a pending phone verification code with its expiry.
func (u *User) SetPhoneOTP(code string, expiry time.Time) {
	codeCopy := code
	expiryCopy := expiry
	u.PhoneOTP = &codeCopy
	u.PhoneOTPExpiry = &expiryCopy
}

// ClearEmailOTP removes the email code after a successful (single) use.
func (u *User) ClearEmailOTP() {
	u.EmailOTP = nil
	u.EmailOTPExpiry = nil
}

// ClearPhoneOTP removes the phone code after a successful (single) use.
func (u *User) ClearPhoneOTP() {
	u.PhoneOTP = nil
	u.PhoneOTPExpiry = nil
}

// Sanitized returns a copy safe to hand to transport layers.
func (u User) Sanitized() User {
	clean := u
	clean.PasswordHash = ""
	clean.EmailOTP = nil
	clean.EmailOTPExpiry = nil
	clean.PhoneOTP = nil
	clean.PhoneOTPExpiry = nil
	return clean
}

// NormalizeEmail lowercases and trims an email for use as the lookup key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
