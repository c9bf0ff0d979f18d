package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/stanokariz/peaceverse/internal/core/domain"
)

var (
	// ErrTokenExpired indicates the token signature checked out but the
	// token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid indicates a malformed token, a bad signature, an
	// unknown kid or a token of the wrong class.
	ErrTokenInvalid = errors.New("token invalid")
)

// Token classes. A refresh token must never be accepted where an access
// token is expected, and vice versa.
const (
	classAccess  = "access"
	classRefresh = "refresh"
)

// AccessClaims is the payload of a short-lived access token.
type AccessClaims struct {
	Role  domain.Role `json:"role"`
	Class string      `json:"cls"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a long-lived refresh token. Its ID (jti)
// keys the server-side session entry.
type RefreshClaims struct {
	Class string `json:"cls"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies the two token classes against two
// independent keyrings.
type TokenManager struct {
	accessKeys  *Keyring
	refreshKeys *Keyring
	accessTTL   time.Duration
	refreshTTL  time.Duration
	issuer      string
	now         func() time.Time
}

func NewTokenManager(accessKeys, refreshKeys *Keyring, accessTTL, refreshTTL time.Duration, issuer string) *TokenManager {
	return &TokenManager{
		accessKeys:  accessKeys,
		refreshKeys: refreshKeys,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		issuer:      issuer,
		now:         time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	m.now = now
	return m
}

// AccessTTL returns the configured access-token lifetime.
func (m *TokenManager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// IssueAccessToken mints a signed access token for the user.
func (m *TokenManager) IssueAccessToken(userID string, role domain.Role) (string, error) {
	now := m.now()
	claims := AccessClaims{
		Role:  role,
		Class: classAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
	}

	return m.sign(claims, m.accessKeys)
}

// IssueRefreshToken mints a signed refresh token and returns it together
// with its jti, which the caller must register in the session store.
func (m *TokenManager) IssueRefreshToken(userID string) (string, string, error) {
	now := m.now()
	jti := uuid.NewString()
	claims := RefreshClaims{
		Class: classRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
		},
	}

	token, err := m.sign(claims, m.refreshKeys)
	if err != nil {
		return "", "", err
	}
	return token, jti, nil
}

func (m *TokenManager) sign(claims jwt.Claims, ring *Keyring) (string, error) {
	key := ring.Current()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = key.KID

	signed, err := token.SignedString(key.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken validates signature, expiry and class of an access token.
func (m *TokenManager) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(tokenString, claims, m.accessKeys); err != nil {
		return nil, err
	}
	if claims.Class != classAccess || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	if _, ok := domain.ParseRole(string(claims.Role)); !ok {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// VerifyRefreshToken validates signature, expiry and class of a refresh token.
func (m *TokenManager) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parse(tokenString, claims, m.refreshKeys); err != nil {
		return nil, err
	}
	if claims.Class != classRefresh || claims.Subject == "" || claims.ID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (m *TokenManager) parse(tokenString string, claims jwt.Claims, ring *Keyring) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}

		kid, _ := t.Header["kid"].(string)
		key, ok := ring.ByKID(kid)
		if !ok {
			return nil, fmt.Errorf("unknown kid %q", kid)
		}
		return key.Secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
