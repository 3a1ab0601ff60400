package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mealmatch/mealmatch-api/internal/config"
	"github.com/mealmatch/mealmatch-api/internal/domain"
	"github.com/mealmatch/mealmatch-api/internal/repository"
	"github.com/mealmatch/mealmatch-api/internal/security"
)

type captureNotifier struct {
	sent    []VerificationNotification
	sendErr error
}

func (n *captureNotifier) SendEmailVerification(_ context.Context, notification VerificationNotification) error {
	if n.sendErr != nil {
		return n.sendErr
	}
	n.sent = append(n.sent, notification)
	return nil
}

type serviceFixture struct {
	db         *gorm.DB
	cfg        *config.Config
	userRepo   repository.UserRepository
	obRepo     repository.OnboardingRepository
	notifier   *captureNotifier
	auth       *AuthService
	verify     *VerificationService
	onboarding *OnboardingService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.OnboardingData{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		AppBaseURL:          "https://app.example.com",
		SessionSecret:       "0123456789abcdef0123456789abcdef",
		SessionTTL:          7 * 24 * time.Hour,
		EmailVerifyTokenTTL: 24 * time.Hour,
		EmailVerifyCooldown: 2 * time.Minute,
	}

	userRepo := repository.NewUserRepository(db)
	obRepo := repository.NewOnboardingRepository(db)
	notifier := &captureNotifier{}
	mgr := security.NewJWTManager(cfg.SessionSecret, "mealmatch-api", cfg.SessionTTL)
	tokenSvc := NewTokenService(mgr)
	quiet := slog.New(slog.DiscardHandler)

	return &serviceFixture{
		db:         db,
		cfg:        cfg,
		userRepo:   userRepo,
		obRepo:     obRepo,
		notifier:   notifier,
		auth:       NewAuthService(tokenSvc, userRepo),
		verify:     NewVerificationService(cfg, userRepo, notifier, quiet),
		onboarding: NewOnboardingService(userRepo, obRepo),
	}
}

func (fx *serviceFixture) register(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := fx.auth.Register(email, "longenough1", "Test User")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}
