package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	rateLimitProblemType  = "https://peaceverse.example.com/errors/rate-limit-exceeded"
	rateLimitProblemTitle = "Rate Limit Exceeded"
)

// RateLimitStore is the sliding-window bookkeeping the limiter relies on. The
// redis repository implements it with one sorted set per key.
type RateLimitStore interface {
	TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error
	CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error)
	RecordAttempt(ctx context.Context, identifier string, at time.Time) error
	OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error)
}

// IdentifierFunc derives the throttling key for a request, typically the
// client IP. Returning false exempts the request from the rule.
type IdentifierFunc func(*gin.Context) (string, bool)

// RateLimitRule is one named sliding-window limit.
type RateLimitRule struct {
	Name       string
	Limit      int
	Window     time.Duration
	Identifier IdentifierFunc
}

// RateLimiter enforces sliding-window rules against a shared store. Store
// failures fail open: throttling protects the backends, it is not a
// correctness boundary.
type RateLimiter struct {
	store  RateLimitStore
	logger *zap.Logger
	now    func() time.Time
}

// ProblemDetails is the RFC 9457 payload returned with a 429.
type ProblemDetails struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail"`
	Instance   string         `json:"instance"`
	RetryAfter int            `json:"retry_after"`
	TraceID    string         `json:"trace_id,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// NewRateLimiter builds a limiter on top of the given store.
func NewRateLimiter(store RateLimitStore, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{store: store, logger: logger, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		rl.now = now
	}
	return rl
}

// ClientIPIdentifier scopes a rule to the request's client IP.
func ClientIPIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		ip := c.ClientIP()
		return ip, ip != ""
	}
}

// verdict is the outcome of evaluating one rule against one request.
type verdict struct {
	allowed    bool
	limit      int
	remaining  int
	reset      time.Time
	retryAfter time.Duration
}

// stricterThan orders verdicts so the tightest one decides the X-RateLimit
// headers when several rules apply.
func (v verdict) stricterThan(o verdict) bool {
	if v.allowed != o.allowed {
		return !v.allowed
	}
	if v.remaining != o.remaining {
		return v.remaining < o.remaining
	}
	return v.reset.Before(o.reset)
}

// RateLimit returns a middleware enforcing every well-formed rule. Rules
// without an identifier function, a positive limit, or a positive window are
// dropped up front.
func (rl *RateLimiter) RateLimit(rules ...RateLimitRule) gin.HandlerFunc {
	active := make([]RateLimitRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Identifier == nil || rule.Limit <= 0 || rule.Window <= 0 {
			continue
		}
		if rule.Name == "" {
			rule.Name = "default"
		}
		active = append(active, rule)
	}

	return func(c *gin.Context) {
		if rl.store == nil || len(active) == 0 {
			c.Next()
			return
		}

		now := rl.now()
		var strictest *verdict

		for _, rule := range active {
			id, ok := rule.Identifier(c)
			if !ok || id == "" {
				continue
			}

			v, err := rl.check(c.Request.Context(), rule, rule.Name+":"+id, now)
			if err != nil {
				rl.logger.Warn("rate limit check failed",
					zap.String("rule", rule.Name),
					zap.Error(err),
				)
				continue
			}

			if strictest == nil || v.stricterThan(*strictest) {
				strictest = &v
			}

			if !v.allowed {
				rl.writeHeaders(c, v)
				rl.reject(c, v)
				return
			}
		}

		if strictest != nil {
			rl.writeHeaders(c, *strictest)
		}

		c.Next()
	}
}

func (rl *RateLimiter) check(ctx context.Context, rule RateLimitRule, key string, now time.Time) (verdict, error) {
	if err := rl.store.TrimWindow(ctx, key, rule.Window, now); err != nil {
		return verdict{}, err
	}

	count, err := rl.store.CountAttempts(ctx, key, rule.Window, now)
	if err != nil {
		return verdict{}, err
	}

	oldest, hasAttempts, err := rl.store.OldestAttempt(ctx, key, rule.Window, now)
	if err != nil {
		return verdict{}, err
	}

	reset := now.Add(rule.Window)
	if hasAttempts {
		reset = oldest.Add(rule.Window)
	}

	v := verdict{
		limit:      rule.Limit,
		reset:      reset,
		retryAfter: max(reset.Sub(now), 0),
	}

	// At the limit the attempt is not recorded, so a saturated window does
	// not extend itself.
	if count >= rule.Limit {
		return v, nil
	}

	if err := rl.store.RecordAttempt(ctx, key, now); err != nil {
		return verdict{}, err
	}

	v.allowed = true
	v.remaining = max(rule.Limit-count-1, 0)
	return v, nil
}

func (rl *RateLimiter) writeHeaders(c *gin.Context, v verdict) {
	h := c.Writer.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(v.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(v.reset.Unix(), 10))

	if !v.allowed {
		h.Set("Retry-After", strconv.Itoa(retrySeconds(v.retryAfter)))
	}
}

func (rl *RateLimiter) reject(c *gin.Context, v verdict) {
	retry := retrySeconds(v.retryAfter)

	instance := c.FullPath()
	if instance == "" {
		instance = c.Request.URL.Path
	}

	c.AbortWithStatusJSON(http.StatusTooManyRequests, ProblemDetails{
		Type:       rateLimitProblemType,
		Title:      rateLimitProblemTitle,
		Status:     http.StatusTooManyRequests,
		Detail:     fmt.Sprintf("Too many requests. Try again in %d seconds.", retry),
		Instance:   instance,
		RetryAfter: retry,
		TraceID:    GetTraceID(c),
	})
}

func retrySeconds(d time.Duration) int {
	return max(int(math.Ceil(d.Seconds())), 0)
}
