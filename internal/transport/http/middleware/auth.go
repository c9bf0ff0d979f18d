package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stanokariz/peaceverse/internal/core/domain"
	"github.com/stanokariz/peaceverse/internal/infra/security"
	"github.com/stanokariz/peaceverse/internal/repository"
)

// AccessTokenCookie is the cookie name the access token travels in.
const AccessTokenCookie = "accessToken"

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// newErrorResponse creates an error response with trace ID
func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// AccountStatus looks up the current state of an authenticated account.
type AccountStatus interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// RequireAuth validates the access token and stores the caller's identity
// on the request. The cookie is checked first; a Bearer header works as a
// fallback for non-browser clients. When accounts is non-nil the account is
// loaded and deactivated users get 403 even with a valid token.
func RequireAuth(tokens *security.TokenManager, accounts AccountStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractAccessToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing access token"))
			return
		}

		claims, err := tokens.VerifyAccessToken(token)
		if err != nil {
			switch {
			case errors.Is(err, security.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "access token expired"))
			case errors.Is(err, security.ErrTokenInvalid):
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "invalid access token"))
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					newErrorResponse(c, "authentication failed"))
			}
			return
		}

		role := claims.Role

		if accounts != nil {
			user, err := accounts.FindByID(c.Request.Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					c.AbortWithStatusJSON(http.StatusUnauthorized,
						newErrorResponse(c, "user not found"))
					return
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					newErrorResponse(c, "authentication failed"))
				return
			}
			if !user.IsActive {
				c.AbortWithStatusJSON(http.StatusForbidden,
					newErrorResponse(c, "account deactivated"))
				return
			}
			// The stored role wins over the token claim so demotions take
			// effect before the access token expires.
			role = user.Role
		}

		c.Set(UserIDKey, claims.Subject)
		c.Set(RoleKey, role)

		c.Next()
	}
}

func extractAccessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireRole gates an endpoint to the listed roles. Admin passes every gate.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, exists := c.Get(RoleKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "authentication required"))
			return
		}

		role, ok := roleVal.(domain.Role)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				newErrorResponse(c, "invalid role format"))
			return
		}

		if !role.Satisfies(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				newErrorResponse(c, "insufficient permissions"))
			return
		}

		c.Next()
	}
}

// GetAuthenticatedUserID retrieves the user ID from context (helper for handlers)
func GetAuthenticatedUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return "", false
	}

	if id, ok := userID.(string); ok {
		return id, true
	}

	return "", false
}
