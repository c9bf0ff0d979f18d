package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	JWT       JWTSettings       `mapstructure:"jwt"`
	OTP       OTPSettings       `mapstructure:"otp"`
	Cookies   CookieSettings    `mapstructure:"cookies"`
	CORS      CORSSettings      `mapstructure:"cors"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Cleanup   CleanupSettings   `mapstructure:"cleanup"`
	SMTP      SMTPSettings      `mapstructure:"smtp"`
	SMS       SMSSettings       `mapstructure:"sms"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// IsProduction reports whether the service runs with production hardening.
func (a AppSettings) IsProduction() bool {
	return a.Env == "production"
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

type RedisSettings struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	DB            int    `mapstructure:"db"`
	Password      string `mapstructure:"password"`
	TLSEnabled    bool   `mapstructure:"tls_enabled"`
	SessionPrefix string `mapstructure:"session_prefix"`
	VisitsPrefix  string `mapstructure:"visits_prefix"`
	StatsCacheKey string `mapstructure:"stats_cache_key"`
}

// JWTSettings configures the two signing keyrings and token lifetimes.
// Access and refresh secrets are independent so leaking one class cannot
// be used to mint the other.
type JWTSettings struct {
	AccessSecret    string        `mapstructure:"access_secret"`
	RefreshSecret   string        `mapstructure:"refresh_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	KeyRetention    int           `mapstructure:"key_retention"`
}

type OTPSettings struct {
	TTL    time.Duration `mapstructure:"ttl"`
	Digits int           `mapstructure:"digits"`
}

type CookieSettings struct {
	Domain string `mapstructure:"domain"`
	Path   string `mapstructure:"path"`
}

type CORSSettings struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitSettings struct {
	WindowDuration           time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts         int           `mapstructure:"login_max_attempts"`
	SignupMaxAttempts        int           `mapstructure:"signup_max_attempts"`
	PasswordResetMaxAttempts int           `mapstructure:"password_reset_max_attempts"`
}

// CleanupSettings drives the unverified-account sweep. Accounts that never
// verified either channel within the retention window are removed.
type CleanupSettings struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	Retention time.Duration `mapstructure:"retention"`
	BatchSize int           `mapstructure:"batch_size"`
}

type SMTPSettings struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type SMSSettings struct {
	APIURL    string `mapstructure:"api_url"`
	APIKey    string `mapstructure:"api_key"`
	PartnerID string `mapstructure:"partner_id"`
	ShortCode string `mapstructure:"short_code"`
}

type TelemetrySettings struct {
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	Namespace      string `mapstructure:"namespace"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("PV")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.session_prefix",
		"redis.visits_prefix",
		"redis.stats_cache_key",
		"jwt.access_secret",
		"jwt.refresh_secret",
		"jwt.access_token_ttl",
		"jwt.refresh_token_ttl",
		"jwt.key_retention",
		"otp.ttl",
		"otp.digits",
		"cookies.domain",
		"cookies.path",
		"cors.allowed_origins",
		"rate_limit.window_duration",
		"rate_limit.login_max_attempts",
		"rate_limit.signup_max_attempts",
		"rate_limit.password_reset_max_attempts",
		"cleanup.enabled",
		"cleanup.interval",
		"cleanup.retention",
		"cleanup.batch_size",
		"smtp.host",
		"smtp.port",
		"smtp.username",
		"smtp.password",
		"smtp.from",
		"sms.api_url",
		"sms.api_key",
		"sms.partner_id",
		"sms.short_code",
		"telemetry.metrics_enabled",
		"telemetry.namespace",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "peaceverse")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "peaceverse")
	v.SetDefault("postgres.password", "peaceverse_password")
	v.SetDefault("postgres.database", "peaceverse")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.session_prefix", "session")
	v.SetDefault("redis.visits_prefix", "site")
	v.SetDefault("redis.stats_cache_key", "site:stats")

	v.SetDefault("jwt.access_token_ttl", "15m")
	v.SetDefault("jwt.refresh_token_ttl", "168h")
	v.SetDefault("jwt.key_retention", 5)

	v.SetDefault("otp.ttl", "5m")
	v.SetDefault("otp.digits", 6)

	v.SetDefault("cookies.domain", "")
	v.SetDefault("cookies.path", "/")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.login_max_attempts", 5)
	v.SetDefault("rate_limit.signup_max_attempts", 3)
	v.SetDefault("rate_limit.password_reset_max_attempts", 3)

	v.SetDefault("cleanup.enabled", true)
	v.SetDefault("cleanup.interval", "5m")
	v.SetDefault("cleanup.retention", "30m")
	v.SetDefault("cleanup.batch_size", 500)

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from", "no-reply@peaceverse.com")

	v.SetDefault("sms.api_url", "")
	v.SetDefault("sms.short_code", "TextSMS")

	v.SetDefault("telemetry.metrics_enabled", true)
	v.SetDefault("telemetry.namespace", "peaceverse")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "PV_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
