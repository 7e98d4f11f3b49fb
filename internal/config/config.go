package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	DBAutoMigrate      bool
	CORSAllowedOrigins []string
	MaxBodyBytes       int64

	JWTSecret         string
	JWTIssuer         string
	JWTAudience       string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	AccessCookieName  string
	RefreshCookieName string
	CookieDomain      string
	CookieSecure      bool
	CookieSameSite    http.SameSite

	TenantHeader     string
	TenantRootDomain string
	DefaultTenant    string
	TenantCacheTTL   time.Duration

	CartTTL               time.Duration
	IdempotencyTTL        time.Duration
	MenuCacheTTL          time.Duration
	CMSCacheTTL           time.Duration
	ReportCacheTTL        time.Duration
	ReportDefaultDays     int
	PromotionPerUserLimit int

	MailAPIKey  string
	MailBaseURL string
	MailFrom    string
	EmailTopics []string

	RabbitMQURL     string
	KitchenPrefetch int

	QueuePrefix            string
	QueueMaxAttempts       int
	QueueConcurrency       int
	QueueVisibilityTimeout time.Duration
	QueueRetryBase         time.Duration

	TaskConcurrency int
	TaskMaxRetry    int
	ReminderLead    time.Duration

	CronNoShowSweep  string
	CronPointsExpiry string
	CronBirthdays    string
	CronLowStock     string
	CronReportWarm   string
	NoShowGrace      time.Duration

	LoginPerMinute       int
	ReservationPerMinute int
	CheckoutPerMinute    int
	LookupPerMinute      int
	TrackUpgradesPerMin  int

	AuditEnabled  bool
	AuditSampling float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		DBAutoMigrate:      parseBool(k.String("DB_AUTO_MIGRATE")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		MaxBodyBytes:       int64(parseInt(k.String("MAX_BODY_BYTES"), 1<<20)),

		JWTSecret:         k.String("JWT_SECRET"),
		JWTIssuer:         valueOrDefault(k.String("JWT_ISSUER"), "backend-resto"),
		JWTAudience:       valueOrDefault(k.String("JWT_AUDIENCE"), "resto-clients"),
		AccessTokenTTL:    parseDuration(k.String("ACCESS_TOKEN_TTL"), "15m"),
		RefreshTokenTTL:   parseDuration(k.String("REFRESH_TOKEN_TTL"), "720h"),
		AccessCookieName:  valueOrDefault(k.String("ACCESS_COOKIE_NAME"), "resto_at"),
		RefreshCookieName: valueOrDefault(k.String("REFRESH_COOKIE_NAME"), "resto_rt"),
		CookieDomain:      strings.TrimSpace(k.String("COOKIE_DOMAIN")),
		CookieSecure:      parseBool(k.String("COOKIE_SECURE")),
		CookieSameSite:    parseSameSite(k.String("COOKIE_SAMESITE")),

		TenantHeader:     valueOrDefault(k.String("TENANT_HEADER"), "X-Tenant-ID"),
		TenantRootDomain: strings.TrimSpace(k.String("TENANT_ROOT_DOMAIN")),
		DefaultTenant:    strings.TrimSpace(k.String("DEFAULT_TENANT")),
		TenantCacheTTL:   parseDuration(k.String("TENANT_CACHE_TTL"), "5m"),

		CartTTL:               parseDuration(k.String("CART_TTL"), "168h"),
		IdempotencyTTL:        parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		MenuCacheTTL:          parseDuration(k.String("MENU_CACHE_TTL"), "5m"),
		CMSCacheTTL:           parseDuration(k.String("CMS_CACHE_TTL"), "10m"),
		ReportCacheTTL:        parseDuration(k.String("REPORT_CACHE_TTL"), "15m"),
		ReportDefaultDays:     parseInt(k.String("REPORT_DEFAULT_DAYS"), 30),
		PromotionPerUserLimit: parseInt(k.String("PROMOTION_PER_USER_LIMIT"), 1),

		MailAPIKey:  strings.TrimSpace(k.String("RESEND_API_KEY")),
		MailBaseURL: strings.TrimSpace(k.String("MAIL_BASE_URL")),
		MailFrom:    valueOrDefault(k.String("MAIL_FROM"), "Resto <no-reply@resto.local>"),
		EmailTopics: splitAndTrim(k.String("EMAIL_TOPICS")),

		RabbitMQURL:     strings.TrimSpace(k.String("RABBITMQ_URL")),
		KitchenPrefetch: parseInt(k.String("KITCHEN_PREFETCH"), 10),

		QueuePrefix:            valueOrDefault(k.String("QUEUE_REDIS_PREFIX"), "resto"),
		QueueMaxAttempts:       parseInt(k.String("QUEUE_MAX_ATTEMPTS"), 10),
		QueueConcurrency:       parseInt(k.String("QUEUE_CONCURRENCY"), 4),
		QueueVisibilityTimeout: parseDuration(k.String("QUEUE_VISIBILITY_TIMEOUT"), "30s"),
		QueueRetryBase:         parseDuration(k.String("QUEUE_RETRY_BASE"), "1s"),

		TaskConcurrency: parseInt(k.String("TASK_CONCURRENCY"), 10),
		TaskMaxRetry:    parseInt(k.String("TASK_MAX_RETRY"), 8),
		ReminderLead:    parseDuration(k.String("RESERVATION_REMINDER_LEAD"), "2h"),

		CronNoShowSweep:  cronSpec(k, "CRON_NO_SHOW_SWEEP", "*/5 * * * *"),
		CronPointsExpiry: cronSpec(k, "CRON_POINTS_EXPIRY", "15 2 * * *"),
		CronBirthdays:    cronSpec(k, "CRON_BIRTHDAYS", "5 * * * *"),
		CronLowStock:     cronSpec(k, "CRON_LOW_STOCK", "0 * * * *"),
		CronReportWarm:   cronSpec(k, "CRON_REPORT_WARM", "30 3 * * *"),
		NoShowGrace:      parseDuration(k.String("NO_SHOW_GRACE"), "30m"),

		LoginPerMinute:       parseInt(k.String("RATE_LOGIN_PER_MIN"), 10),
		ReservationPerMinute: parseInt(k.String("RATE_RESERVATION_PER_MIN"), 5),
		CheckoutPerMinute:    parseInt(k.String("RATE_CHECKOUT_PER_MIN"), 10),
		LookupPerMinute:      parseInt(k.String("RATE_LOOKUP_PER_MIN"), 20),
		TrackUpgradesPerMin:  parseInt(k.String("RATE_TRACK_WS_PER_MIN"), 30),

		AuditEnabled:  parseBoolDefault(k.String("AUDIT_ENABLED"), true),
		AuditSampling: parseFloat(k.String("AUDIT_SAMPLING"), 1),
	}

	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.AuditSampling < 0 || cfg.AuditSampling > 1 {
		return nil, fmt.Errorf("AUDIT_SAMPLING must be within [0,1], got %v", cfg.AuditSampling)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// MailEnabled reports whether a real mail transport is configured.
func (c *Config) MailEnabled() bool { return c.MailAPIKey != "" }

// KitchenEnabled reports whether the RabbitMQ link is configured.
func (c *Config) KitchenEnabled() bool { return c.RabbitMQURL != "" }

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

// cronSpec returns the spec for key. The literal "off" disables the job.
func cronSpec(k *koanf.Koanf, key, fallback string) string {
	raw, set := os.LookupEnv(key)
	if !set {
		return fallback
	}
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "off") {
		return ""
	}
	return valueOrDefault(k.String(key), fallback)
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseBoolDefault(value string, fallback bool) bool {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return parseBool(value)
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
