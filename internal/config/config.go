package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseURL string
	RedisURL    string

	// AppBaseURL is the public origin used to build verification links that
	// open in the browser (e.g. https://app.example.com).
	AppBaseURL string

	SessionSecret  string
	SessionTTL     time.Duration
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite string

	CORSAllowedOrigins []string

	EmailVerifyTokenTTL time.Duration
	EmailVerifyCooldown time.Duration

	MailMode     string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	AuthRateLimitPerMin int
	APIRateLimitPerMin  int

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

const (
	MailModeSMTP = "smtp"
	MailModeLog  = "log"
)

func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		Env:                env,
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		AppBaseURL:         strings.TrimRight(os.Getenv("APP_BASE_URL"), "/"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		CookieDomain:       os.Getenv("COOKIE_DOMAIN"),
		CookieSecure:       getEnvBool("COOKIE_SECURE", env == "production"),
		CookieSameSite:     strings.ToLower(getEnv("COOKIE_SAMESITE", "lax")),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		MailMode:           strings.ToLower(getEnv("MAIL_MODE", MailModeLog)),
		SMTPHost:           os.Getenv("SMTP_HOST"),
		SMTPPort:           getEnvInt("SMTP_PORT", 587),
		SMTPUser:           os.Getenv("SMTP_USER"),
		SMTPPassword:       os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:           os.Getenv("SMTP_FROM"),

		AuthRateLimitPerMin: getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 30),
		APIRateLimitPerMin:  getEnvInt("API_RATE_LIMIT_PER_MIN", 120),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "mealmatch-api"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", true),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", true),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", true),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("parse SESSION_TTL: %w", err)
	}
	cfg.SessionTTL = sessionTTL

	verifyTTL, err := time.ParseDuration(getEnv("EMAIL_VERIFY_TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("parse EMAIL_VERIFY_TOKEN_TTL: %w", err)
	}
	cfg.EmailVerifyTokenTTL = verifyTTL

	cooldown, err := time.ParseDuration(getEnv("EMAIL_VERIFY_COOLDOWN", "2m"))
	if err != nil {
		return nil, fmt.Errorf("parse EMAIL_VERIFY_COOLDOWN: %w", err)
	}
	cfg.EmailVerifyCooldown = cooldown

	metricsInterval, err := time.ParseDuration(getEnv("OTEL_METRICS_EXPORT_INTERVAL", "10s"))
	if err != nil {
		return nil, fmt.Errorf("parse OTEL_METRICS_EXPORT_INTERVAL: %w", err)
	}
	cfg.OTELMetricsExportInterval = metricsInterval

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on missing or unsafe settings. There is deliberately no
// fallback session secret: a process without one must not start.
func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if len(c.SessionSecret) < 32 {
		errs = append(errs, "SESSION_SECRET must be at least 32 chars")
	}
	if c.AppBaseURL == "" {
		errs = append(errs, "APP_BASE_URL is required")
	}
	if c.SessionTTL <= 0 || c.SessionTTL > 30*24*time.Hour {
		errs = append(errs, "SESSION_TTL must be between 1s and 30d")
	}
	if c.EmailVerifyTokenTTL <= 0 {
		errs = append(errs, "EMAIL_VERIFY_TOKEN_TTL must be > 0")
	}
	if c.EmailVerifyCooldown < 0 || c.EmailVerifyCooldown >= c.EmailVerifyTokenTTL {
		errs = append(errs, "EMAIL_VERIFY_COOLDOWN must be >= 0 and shorter than the token TTL")
	}
	switch c.MailMode {
	case MailModeLog:
	case MailModeSMTP:
		if c.SMTPHost == "" {
			errs = append(errs, "SMTP_HOST is required when MAIL_MODE=smtp")
		}
		if c.SMTPUser == "" || c.SMTPPassword == "" {
			errs = append(errs, "SMTP_USER and SMTP_PASSWORD are required when MAIL_MODE=smtp")
		}
		if c.SMTPFrom == "" {
			errs = append(errs, "SMTP_FROM is required when MAIL_MODE=smtp")
		}
		if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
			errs = append(errs, "SMTP_PORT must be a valid port")
		}
	default:
		errs = append(errs, "MAIL_MODE must be one of smtp, log")
	}
	if c.AuthRateLimitPerMin <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if c.OTELMetricsExportInterval <= 0 {
		errs = append(errs, "OTEL_METRICS_EXPORT_INTERVAL must be > 0")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
