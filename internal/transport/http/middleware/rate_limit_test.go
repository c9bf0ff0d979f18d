package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

type fakeRateLimitStore struct {
	trimErr   error
	count     int
	countErr  error
	oldest    time.Time
	hasOldest bool
	oldestErr error
	recordErr error

	recordCalls int
	recordedKey string
}

func (f *fakeRateLimitStore) TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error {
	return f.trimErr
}

func (f *fakeRateLimitStore) CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	return f.count, f.countErr
}

func (f *fakeRateLimitStore) RecordAttempt(ctx context.Context, identifier string, at time.Time) error {
	f.recordedKey = identifier
	f.recordCalls++
	return f.recordErr
}

func (f *fakeRateLimitStore) OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	return f.oldest, f.hasOldest, f.oldestErr
}

func limiterRouter(store *fakeRateLimitStore, now time.Time, rule RateLimitRule, t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	limiter := NewRateLimiter(store, zaptest.NewLogger(t)).WithClock(func() time.Time { return now })

	router := gin.New()
	router.Use(limiter.RateLimit(rule))
	router.POST("/signup", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return router
}

func TestRateLimiterAllowsBelowLimit(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	oldest := now.Add(-20 * time.Second)

	store := &fakeRateLimitStore{count: 1, oldest: oldest, hasOldest: true}

	router := limiterRouter(store, now, RateLimitRule{
		Name:   "auth_signup_ip",
		Limit:  3,
		Window: time.Minute,
		Identifier: func(c *gin.Context) (string, bool) {
			return "198.51.100.7", true
		},
	}, t)

	req := httptest.NewRequest(http.MethodPost, "/signup", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if store.recordCalls != 1 {
		t.Fatalf("expected one recorded attempt, got %d", store.recordCalls)
	}
	if store.recordedKey != "auth_signup_ip:198.51.100.7" {
		t.Fatalf("unexpected storage key %q", store.recordedKey)
	}
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "3" {
		t.Fatalf("expected limit header 3, got %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "1" {
		t.Fatalf("expected remaining header 1, got %q", got)
	}

	wantReset := oldest.Add(time.Minute).Unix()
	if got := rr.Header().Get("X-RateLimit-Reset"); got != strconv.FormatInt(wantReset, 10) {
		t.Fatalf("expected reset header %d, got %q", wantReset, got)
	}
}

func TestRateLimiterBlocksAtLimit(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	oldest := now.Add(-45 * time.Second)

	store := &fakeRateLimitStore{count: 3, oldest: oldest, hasOldest: true}

	router := limiterRouter(store, now, RateLimitRule{
		Name:   "auth_signup_ip",
		Limit:  3,
		Window: time.Minute,
		Identifier: func(c *gin.Context) (string, bool) {
			return "198.51.100.7", true
		},
	}, t)

	req := httptest.NewRequest(http.MethodPost, "/signup", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if store.recordCalls != 0 {
		t.Fatalf("blocked request must not record an attempt, got %d", store.recordCalls)
	}
	if got := rr.Header().Get("Retry-After"); got != "15" {
		t.Fatalf("expected retry-after 15, got %q", got)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rr.Body.Bytes(), &problem); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if problem.Status != http.StatusTooManyRequests {
		t.Fatalf("unexpected problem status %d", problem.Status)
	}
	if problem.RetryAfter != 15 {
		t.Fatalf("expected problem retry_after 15, got %d", problem.RetryAfter)
	}
}

func TestRateLimiterFailsOpenOnStoreError(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	store := &fakeRateLimitStore{trimErr: errors.New("redis down")}

	router := limiterRouter(store, now, RateLimitRule{
		Name:   "auth_signup_ip",
		Limit:  3,
		Window: time.Minute,
		Identifier: func(c *gin.Context) (string, bool) {
			return "198.51.100.7", true
		},
	}, t)

	req := httptest.NewRequest(http.MethodPost, "/signup", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected request to pass when the store is down, got %d", rr.Code)
	}
	if store.recordCalls != 0 {
		t.Fatalf("expected no recorded attempt on store failure, got %d", store.recordCalls)
	}
}

func TestRateLimiterSkipsRuleWithoutIdentifier(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	store := &fakeRateLimitStore{count: 100}

	router := limiterRouter(store, now, RateLimitRule{
		Name:   "auth_signup_ip",
		Limit:  3,
		Window: time.Minute,
		Identifier: func(c *gin.Context) (string, bool) {
			return "", false
		},
	}, t)

	req := httptest.NewRequest(http.MethodPost, "/signup", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 when no identifier resolves, got %d", rr.Code)
	}
}
