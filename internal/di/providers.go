package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/mealmatch/mealmatch-api/internal/app"
	"github.com/mealmatch/mealmatch-api/internal/config"
	"github.com/mealmatch/mealmatch-api/internal/database"
	"github.com/mealmatch/mealmatch-api/internal/health"
	"github.com/mealmatch/mealmatch-api/internal/http/handler"
	"github.com/mealmatch/mealmatch-api/internal/http/middleware"
	"github.com/mealmatch/mealmatch-api/internal/http/router"
	"github.com/mealmatch/mealmatch-api/internal/mailer"
	"github.com/mealmatch/mealmatch-api/internal/observability"
	"github.com/mealmatch/mealmatch-api/internal/repository"
	"github.com/mealmatch/mealmatch-api/internal/security"
	"github.com/mealmatch/mealmatch-api/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewOnboardingRepository,
)

var SecuritySet = wire.NewSet(
	provideJWTManager,
	wire.Bind(new(security.TokenVerifier), new(*security.JWTManager)),
	provideCookieManager,
)

var ServiceSet = wire.NewSet(
	service.NewTokenService,
	service.NewAuthService,
	provideEmailNotifier,
	service.NewVerificationService,
	service.NewOnboardingService,
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
	wire.Bind(new(service.VerificationServiceInterface), new(*service.VerificationService)),
	wire.Bind(new(service.OnboardingServiceInterface), new(*service.OnboardingService)),
)

var HTTPSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewOnboardingHandler,
	provideGlobalRateLimiter,
	provideAuthRateLimiter,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(app.New)

type MigrationRunner struct {
	cfg *config.Config
	db  *gorm.DB
}

func NewMigrationRunner(cfg *config.Config, db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{cfg: cfg, db: db}
}

func (m *MigrationRunner) Run() error {
	if err := database.Migrate(m.db); err != nil {
		return err
	}
	fmt.Println("migration complete")
	return nil
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config) (redis.UniversalClient, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.SessionSecret, cfg.OTELServiceName, cfg.SessionTTL)
}

func provideCookieManager(cfg *config.Config) *security.CookieManager {
	return security.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure, cfg.CookieSameSite, cfg.SessionTTL)
}

func provideEmailNotifier(cfg *config.Config, logger *slog.Logger) (service.EmailVerificationNotifier, error) {
	if cfg.MailMode == config.MailModeSMTP {
		return mailer.NewSMTPNotifier(cfg)
	}
	return service.NewDevEmailVerificationNotifier(logger), nil
}

func provideGlobalRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.GlobalRateLimiterFunc {
	if redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, "rl:api")
		return middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.APIRateLimitPerMin,
			time.Minute,
			middleware.FailOpen,
			"api",
		).Middleware()
	}
	return middleware.NewRateLimiter(cfg.APIRateLimitPerMin, time.Minute).Middleware()
}

func provideAuthRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.AuthRateLimiterFunc {
	if redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, "rl:auth")
		return middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.AuthRateLimitPerMin,
			time.Minute,
			middleware.FailClosed,
			"auth",
		).Middleware()
	}
	return middleware.NewRateLimiter(cfg.AuthRateLimitPerMin, time.Minute).Middleware()
}

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	onboardingHandler *handler.OnboardingHandler,
	verifier security.TokenVerifier,
	cookieMgr *security.CookieManager,
	globalRateLimiter router.GlobalRateLimiterFunc,
	authRateLimiter router.AuthRateLimiterFunc,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:       authHandler,
		OnboardingHandler: onboardingHandler,
		TokenVerifier:     verifier,
		CookieManager:     cookieMgr,
		CORSOrigins:       cfg.CORSAllowedOrigins,
		APIRateLimitRPM:   cfg.APIRateLimitPerMin,
		AuthRateLimitRPM:  cfg.AuthRateLimitPerMin,
		GlobalRateLimiter: globalRateLimiter,
		AuthRateLimiter:   authRateLimiter,
		Readiness:         readiness,
		EnableOTelHTTP:    cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) *health.ProbeRunner {
	checkers := make([]health.Checker, 0, 2)
	if c := health.NewDBChecker(db); c != nil {
		checkers = append(checkers, c)
	}
	if c := health.NewRedisChecker(redisClient); c != nil {
		checkers = append(checkers, c)
	}
	return health.NewProbeRunner(time.Second, 2*time.Second, checkers...)
}
