package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stanokariz/peaceverse/internal/core/domain"
	"github.com/stanokariz/peaceverse/internal/infra/security"
	"github.com/stanokariz/peaceverse/internal/repository"
)

func newAuthTestManager(t *testing.T) *security.TokenManager {
	t.Helper()

	accessKeys, err := security.NewKeyring("middleware-access-secret", 3)
	if err != nil {
		t.Fatalf("access keyring: %v", err)
	}
	refreshKeys, err := security.NewKeyring("middleware-refresh-secret", 3)
	if err != nil {
		t.Fatalf("refresh keyring: %v", err)
	}

	return security.NewTokenManager(accessKeys, refreshKeys, 15*time.Minute, 168*time.Hour, "peaceverse")
}

type fakeAccountStatus struct {
	users map[string]domain.User
}

func (f *fakeAccountStatus) FindByID(ctx context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func authTestRouter(tokens *security.TokenManager, accounts AccountStatus, roles ...domain.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	chain := []gin.HandlerFunc{RequireAuth(tokens, accounts)}
	if len(roles) > 0 {
		chain = append(chain, RequireRole(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		userID, _ := GetAuthenticatedUserID(c)
		c.JSON(http.StatusOK, gin.H{"userId": userID})
	})
	router.GET("/protected", chain...)
	return router
}

func TestRequireAuthReadsCookie(t *testing.T) {
	tokens := newAuthTestManager(t)
	router := authTestRouter(tokens, nil)

	token, err := tokens.IssueAccessToken("user-1", domain.RoleUser)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRequireAuthFallsBackToBearerHeader(t *testing.T) {
	tokens := newAuthTestManager(t)
	router := authTestRouter(tokens, nil)

	token, err := tokens.IssueAccessToken("user-2", domain.RoleUser)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	router := authTestRouter(newAuthTestManager(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRequireAuthRejectsGarbageToken(t *testing.T) {
	router := authTestRouter(newAuthTestManager(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "not-a-jwt"})
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRequireAuthRejectsRefreshToken(t *testing.T) {
	tokens := newAuthTestManager(t)
	router := authTestRouter(tokens, nil)

	refresh, _, err := tokens.IssueRefreshToken("user-3")
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: refresh})
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for refresh token on access gate, got %d", rr.Code)
	}
}

func TestRequireAuthBlocksDeactivatedAccount(t *testing.T) {
	tokens := newAuthTestManager(t)
	accounts := &fakeAccountStatus{users: map[string]domain.User{
		"user-5": {ID: "user-5", Role: domain.RoleUser, IsActive: false},
	}}
	router := authTestRouter(tokens, accounts)

	token, err := tokens.IssueAccessToken("user-5", domain.RoleUser)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for deactivated account, got %d", rr.Code)
	}
}

func TestRequireAuthRejectsDeletedAccount(t *testing.T) {
	tokens := newAuthTestManager(t)
	accounts := &fakeAccountStatus{users: map[string]domain.User{}}
	router := authTestRouter(tokens, accounts)

	token, err := tokens.IssueAccessToken("gone", domain.RoleUser)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted account, got %d", rr.Code)
	}
}

func TestRequireAuthStoredRoleWinsOverClaim(t *testing.T) {
	tokens := newAuthTestManager(t)
	accounts := &fakeAccountStatus{users: map[string]domain.User{
		"user-6": {ID: "user-6", Role: domain.RoleUser, IsActive: true},
	}}
	router := authTestRouter(tokens, accounts, domain.RoleEditor)

	// Token still claims editor but the account was demoted to user.
	token, err := tokens.IssueAccessToken("user-6", domain.RoleEditor)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 after demotion, got %d", rr.Code)
	}
}

func TestRequireRoleBlocksInsufficientRole(t *testing.T) {
	tokens := newAuthTestManager(t)
	router := authTestRouter(tokens, nil, domain.RoleEditor, domain.RoleAdmin)

	token, err := tokens.IssueAccessToken("user-4", domain.RoleUser)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestRequireRoleAdminPassesEveryGate(t *testing.T) {
	tokens := newAuthTestManager(t)
	router := authTestRouter(tokens, nil, domain.RoleEditor)

	token, err := tokens.IssueAccessToken("admin-1", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rr.Code)
	}
}
