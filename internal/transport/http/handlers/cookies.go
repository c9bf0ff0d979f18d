package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// AccessTokenCookie carries the short-lived access token.
	AccessTokenCookie = "accessToken"
	// RefreshTokenCookie carries the long-lived refresh token.
	RefreshTokenCookie = "refreshToken"
)

// CookieWriter sets and clears the token cookies with environment-dependent
// hardening: Secure + SameSite=Strict in production, SameSite=Lax otherwise
// so local cross-port frontends keep working.
type CookieWriter struct {
	domain     string
	path       string
	production bool
}

func NewCookieWriter(domain, path string, production bool) *CookieWriter {
	if path == "" {
		path = "/"
	}
	return &CookieWriter{domain: domain, path: path, production: production}
}

// SetTokens writes both token cookies with Max-Age matching each token TTL.
func (w *CookieWriter) SetTokens(c *gin.Context, accessToken string, accessTTL time.Duration, refreshToken string, refreshTTL time.Duration) {
	w.set(c, AccessTokenCookie, accessToken, int(accessTTL.Seconds()))
	w.set(c, RefreshTokenCookie, refreshToken, int(refreshTTL.Seconds()))
}

// Clear expires both token cookies.
func (w *CookieWriter) Clear(c *gin.Context) {
	w.set(c, AccessTokenCookie, "", -1)
	w.set(c, RefreshTokenCookie, "", -1)
}

func (w *CookieWriter) set(c *gin.Context, name, value string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if w.production {
		sameSite = http.SameSiteStrictMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(name, value, maxAge, w.path, w.domain, w.production, true)
}
