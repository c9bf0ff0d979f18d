package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/stanokariz/peaceverse/internal/core/domain"
	"github.com/stanokariz/peaceverse/internal/core/port"
	"github.com/stanokariz/peaceverse/internal/infra/config"
	"github.com/stanokariz/peaceverse/internal/infra/security"
	"github.com/stanokariz/peaceverse/internal/transport/http/handlers"
	"github.com/stanokariz/peaceverse/internal/transport/http/middleware"
	"github.com/stanokariz/peaceverse/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	PasswordReset *usecase.PasswordResetService
	Users         *usecase.UserService
	Incidents     *usecase.IncidentService
	Stats         *usecase.StatsService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config       *config.AppConfig
	Logger       *zap.Logger
	RateLimiter  *middleware.RateLimiter
	Services     ServiceSet
	TokenManager *security.TokenManager
	Accounts     middleware.AccountStatus
	Visits       port.VisitCounter
	Database     Checker
	Cache        Checker
}

// Checker exposes readiness behaviour for backing stores.
type Checker interface {
	Ping(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.CORS.AllowedOrigins))

	if deps.Config.Telemetry.MetricsEnabled {
		if metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{
			Namespace: deps.Config.Telemetry.Namespace,
		}); err != nil {
			deps.Logger.Warn("metrics disabled", zap.Error(err))
		} else {
			r.Use(metrics.Handler())
		}
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	if deps.Visits != nil {
		r.Use(middleware.TrackVisits(deps.Visits, deps.Logger))
	}

	healthHandler := handlers.NewHealthHandler(deps.Database, deps.Cache)
	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)

	cookies := handlers.NewCookieWriter(
		deps.Config.Cookies.Domain,
		deps.Config.Cookies.Path,
		deps.Config.App.IsProduction(),
	)

	requireAuth := middleware.RequireAuth(deps.TokenManager, deps.Accounts)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authHandler := handlers.NewAuthHandler(deps.Services.Auth, cookies)
		authHandler.RegisterRoutes(authGroup,
			requireAuth,
			buildLimiter(deps, "auth_signup_ip", deps.Config.RateLimit.SignupMaxAttempts),
			buildLimiter(deps, "auth_login_ip", deps.Config.RateLimit.LoginMaxAttempts),
		)

		passwordHandler := handlers.NewPasswordHandler(deps.Services.PasswordReset)
		passwordHandler.RegisterRoutes(authGroup,
			buildLimiter(deps, "password_reset_ip", deps.Config.RateLimit.PasswordResetMaxAttempts),
		)

		incidentHandler := handlers.NewIncidentHandler(deps.Services.Incidents)
		incidentHandler.RegisterRoutes(api, requireAuth)

		adminGroup := api.Group("/admin")
		adminGroup.Use(requireAuth, middleware.RequireRole(domain.RoleAdmin))
		adminHandler := handlers.NewAdminHandler(deps.Services.Users, deps.Services.Stats)
		adminHandler.RegisterRoutes(adminGroup)
	}

	return r
}

func buildLimiter(deps Dependencies, name string, limit int) gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return deps.RateLimiter.RateLimit(rule)
}
