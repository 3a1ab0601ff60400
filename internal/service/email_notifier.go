package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type VerificationNotification struct {
	UserID          uuid.UUID
	Email           string
	Token           string
	ExpiresAt       time.Time
	VerificationURL string
}

// EmailVerificationNotifier delivers a verification link to an address. It
// either succeeds or returns an error; the coordinator rolls back persisted
// token state on failure.
type EmailVerificationNotifier interface {
	SendEmailVerification(ctx context.Context, notification VerificationNotification) error
}

// DevEmailVerificationNotifier logs the verification link instead of sending
// mail. Used in development and tests.
type DevEmailVerificationNotifier struct {
	logger *slog.Logger
}

func NewDevEmailVerificationNotifier(logger *slog.Logger) *DevEmailVerificationNotifier {
	return &DevEmailVerificationNotifier{logger: logger}
}

func (n *DevEmailVerificationNotifier) SendEmailVerification(ctx context.Context, notification VerificationNotification) error {
	link := notification.VerificationURL
	if strings.TrimSpace(link) == "" {
		link = fmt.Sprintf("token=%s", notification.Token)
	}
	n.logger.InfoContext(ctx, "email verification link issued",
		"user_id", notification.UserID,
		"email", notification.Email,
		"expires_at", notification.ExpiresAt,
		"verification", link,
	)
	return nil
}
