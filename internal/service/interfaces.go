package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/mealmatch/mealmatch-api/internal/domain"
)

type AuthServiceInterface interface {
	Register(email, password, name string) (*domain.User, error)
	Login(email, password string) (*LoginResult, error)
	Check(userID uuid.UUID) (*domain.User, error)
	ParseUserID(subject string) (uuid.UUID, error)
}

type VerificationServiceInterface interface {
	RequestVerification(ctx context.Context, userID uuid.UUID) (*VerificationRequestResult, error)
	ConsumeToken(ctx context.Context, rawToken string) error
	UpdateEmail(ctx context.Context, userID uuid.UUID, newEmail string) (*domain.User, error)
	IsVerified(userID uuid.UUID) (bool, error)
}

type OnboardingServiceInterface interface {
	SaveStep(ctx context.Context, userID uuid.UUID, input OnboardingInput) (*OnboardingResult, error)
	Status(ctx context.Context, userID uuid.UUID) (*OnboardingStatus, error)
}
