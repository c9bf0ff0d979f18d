package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/stanokariz/peaceverse/internal/core/port"
	"github.com/stanokariz/peaceverse/internal/infra/config"
	"github.com/stanokariz/peaceverse/internal/infra/database"
	"github.com/stanokariz/peaceverse/internal/infra/logger"
	"github.com/stanokariz/peaceverse/internal/infra/notify"
	redisinfra "github.com/stanokariz/peaceverse/internal/infra/redis"
	"github.com/stanokariz/peaceverse/internal/infra/security"
	postgresrepo "github.com/stanokariz/peaceverse/internal/repository/postgres"
	redisrepo "github.com/stanokariz/peaceverse/internal/repository/redis"
	"github.com/stanokariz/peaceverse/internal/transport/http/middleware"
	"github.com/stanokariz/peaceverse/internal/transport/http/routes"
	"github.com/stanokariz/peaceverse/internal/usecase"
)

// Application wires configuration, stores, services and the HTTP engine.
type Application struct {
	cfg     *config.AppConfig
	engine  *gin.Engine
	logger  *zap.Logger
	pool    *pgxpool.Pool
	redis   *redisinfra.Client
	cleanup *usecase.CleanupService
}

// New builds the application graph from configuration.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	accessKeys, err := security.NewKeyring(cfg.JWT.AccessSecret, cfg.JWT.KeyRetention)
	if err != nil {
		return nil, fmt.Errorf("init access keyring: %w", err)
	}
	refreshKeys, err := security.NewKeyring(cfg.JWT.RefreshSecret, cfg.JWT.KeyRetention)
	if err != nil {
		return nil, fmt.Errorf("init refresh keyring: %w", err)
	}

	tokenManager := security.NewTokenManager(
		accessKeys,
		refreshKeys,
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.App.Name,
	)

	repos := postgresrepo.NewRepositories(pool)
	sessionStore := redisrepo.NewSessionRepository(redisClient.Client(), cfg.Redis.SessionPrefix)
	visitCounter := redisrepo.NewVisitRepository(redisClient.Client(), cfg.Redis.VisitsPrefix)
	statsCache := redisrepo.NewStatsCacheRepository(redisClient.Client(), cfg.Redis.StatsCacheKey)

	mailer, sms := buildDispatchers(cfg, log)

	passwordValidator := security.NewPasswordValidator(security.MinLengthRule(6))

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: "pv:rate-limit",
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	authService := usecase.NewAuthService(
		repos.Users,
		sessionStore,
		tokenManager,
		mailer,
		sms,
		passwordValidator,
		cfg.OTP.TTL,
	)
	passwordResetService := usecase.NewPasswordResetService(
		repos.Users,
		mailer,
		passwordValidator,
		cfg.OTP.TTL,
		authService,
	)
	userService := usecase.NewUserService(repos.Users)
	incidentService := usecase.NewIncidentService(repos.Incidents, repos.Stories)
	statsService := usecase.NewStatsService(repos.Users, visitCounter, statsCache)

	var cleanupService *usecase.CleanupService
	if cfg.Cleanup.Enabled {
		cleanupService = usecase.NewCleanupService(
			repos.Users,
			cfg.Cleanup.Interval,
			cfg.Cleanup.Retention,
			cfg.Cleanup.BatchSize,
		)
	}

	engine := routes.Register(routes.Dependencies{
		Config:       cfg,
		Logger:       log,
		RateLimiter:  rateLimiter,
		TokenManager: tokenManager,
		Accounts:     repos.Users,
		Visits:       visitCounter,
		Database:     pool,
		Cache:        redisClient,
		Services: routes.ServiceSet{
			Auth:          authService,
			PasswordReset: passwordResetService,
			Users:         userService,
			Incidents:     incidentService,
			Stats:         statsService,
		},
	})

	return &Application{
		cfg:     cfg,
		engine:  engine,
		logger:  log,
		pool:    pool,
		redis:   redisClient,
		cleanup: cleanupService,
	}, nil
}

// Run starts the HTTP server and background workers, blocking until the
// context is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.pool.Close()
	defer func() {
		_ = a.redis.Close()
	}()

	if a.cleanup != nil {
		go a.cleanup.Run(ctx)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting peaceverse API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}

// buildDispatchers selects real delivery channels when configured and falls
// back to the dev log dispatcher otherwise.
func buildDispatchers(cfg *config.AppConfig, log *zap.Logger) (port.OTPMailer, port.OTPSMSSender) {
	devlog := notify.NewDevLogDispatcher(log)

	var mailer port.OTPMailer = devlog
	if cfg.SMTP.Host != "" {
		mailer = notify.NewSMTPMailer(cfg.SMTP, log)
	} else {
		log.Info("smtp host not configured, logging email codes instead")
	}

	var sms port.OTPSMSSender = devlog
	if cfg.SMS.APIURL != "" {
		sms = notify.NewSMSClient(cfg.SMS, log)
	} else {
		log.Info("sms gateway not configured, logging sms codes instead")
	}

	return mailer, sms
}
