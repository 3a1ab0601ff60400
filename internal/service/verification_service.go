package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mealmatch/mealmatch-api/internal/config"
	"github.com/mealmatch/mealmatch-api/internal/domain"
	"github.com/mealmatch/mealmatch-api/internal/repository"
	"github.com/mealmatch/mealmatch-api/internal/security"
)

var (
	ErrInvalidOrExpiredToken = errors.New("invalid or expired verification token")
	ErrAlreadyVerified       = errors.New("email already verified")
	ErrDeliveryFailed        = errors.New("verification email delivery failed")
)

// CooldownError rejects a verification request made too soon after the
// previous one. The cooldown is a UX throttle, not a security boundary: two
// racing requests may both pass it.
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("please wait %d minute(s) before requesting a new verification email", e.RemainingMinutes())
}

// RemainingMinutes is the wait reported to the user, rounded up.
func (e *CooldownError) RemainingMinutes() int {
	m := int((e.RetryAfter + time.Minute - 1) / time.Minute)
	if m < 1 {
		m = 1
	}
	return m
}

// VerificationService coordinates the single-use, time-limited, rate-limited
// email verification handshake.
type VerificationService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	notifier EmailVerificationNotifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewVerificationService(cfg *config.Config, userRepo repository.UserRepository, notifier EmailVerificationNotifier, logger *slog.Logger) *VerificationService {
	return &VerificationService{
		cfg:      cfg,
		userRepo: userRepo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

type VerificationRequestResult struct {
	Email string `json:"email"`
}

// RequestVerification generates a fresh single-use token, persists it and
// attempts delivery. The cooldown compares against the previous token's
// issuance time, not its expiry.
func (s *VerificationService) RequestVerification(ctx context.Context, userID uuid.UUID) (*VerificationRequestResult, error) {
	user, err := s.userRepo.FindByIDFull(userID)
	if err != nil {
		return nil, err
	}
	if user.EmailVerified {
		return nil, ErrAlreadyVerified
	}

	now := s.now().UTC()
	if user.HasVerificationOutstanding() && user.EmailVerificationIssuedAt != nil {
		elapsed := now.Sub(*user.EmailVerificationIssuedAt)
		if elapsed < s.cfg.EmailVerifyCooldown {
			return nil, &CooldownError{RetryAfter: s.cfg.EmailVerifyCooldown - elapsed}
		}
	}

	rawToken, err := security.NewRandomString(32)
	if err != nil {
		return nil, err
	}
	expiresAt := now.Add(s.cfg.EmailVerifyTokenTTL)
	if err := s.userRepo.UpdateFields(userID, map[string]any{
		"email_verification_token":     hashVerificationToken(rawToken),
		"email_verification_expires":   expiresAt,
		"email_verification_issued_at": now,
	}); err != nil {
		return nil, err
	}

	notification := VerificationNotification{
		UserID:          user.ID,
		Email:           user.Email,
		Token:           rawToken,
		ExpiresAt:       expiresAt,
		VerificationURL: s.verificationURL(rawToken),
	}
	if err := s.notifier.SendEmailVerification(ctx, notification); err != nil {
		// Best-effort rollback so the user can retry cleanly. A rollback
		// failure is logged but never masks the delivery error.
		if rbErr := s.userRepo.UpdateFields(userID, clearedVerificationFields()); rbErr != nil {
			s.logger.WarnContext(ctx, "failed to roll back verification token after delivery error",
				"user_id", userID, "error", rbErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	return &VerificationRequestResult{Email: user.Email}, nil
}

// ConsumeToken flips the verification flag for the user holding rawToken,
// exactly once. Wrong, expired and replayed tokens are indistinguishable.
func (s *VerificationService) ConsumeToken(ctx context.Context, rawToken string) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return ErrInvalidOrExpiredToken
	}
	err := s.userRepo.ConsumeVerificationToken(hashVerificationToken(rawToken), s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return err
	}
	return nil
}

// UpdateEmail changes the address and invalidates any pending verification.
// The caller is expected to request a fresh verification for the new address.
func (s *VerificationService) UpdateEmail(ctx context.Context, userID uuid.UUID, newEmail string) (*domain.User, error) {
	newEmail = strings.TrimSpace(strings.ToLower(newEmail))
	if err := ValidateEmail(newEmail); err != nil {
		return nil, err
	}
	taken, err := s.userRepo.ExistsByEmailExcluding(newEmail, userID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}
	fields := clearedVerificationFields()
	fields["email"] = newEmail
	fields["email_verified"] = false
	if err := s.userRepo.UpdateFields(userID, fields); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(userID)
}

// IsVerified answers the polling endpoint used by the client reconciliation
// layer.
func (s *VerificationService) IsVerified(userID uuid.UUID) (bool, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return false, err
	}
	return user.EmailVerified, nil
}

func (s *VerificationService) verificationURL(rawToken string) string {
	base := strings.TrimSpace(s.cfg.AppBaseURL)
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s/verify-email/%s", strings.TrimRight(base, "/"), rawToken)
}

func clearedVerificationFields() map[string]any {
	return map[string]any{
		"email_verification_token":     nil,
		"email_verification_expires":   nil,
		"email_verification_issued_at": nil,
	}
}

func hashVerificationToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
