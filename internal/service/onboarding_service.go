package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mealmatch/mealmatch-api/internal/domain"
	"github.com/mealmatch/mealmatch-api/internal/repository"
)

type OnboardingService struct {
	userRepo       repository.UserRepository
	onboardingRepo repository.OnboardingRepository
}

func NewOnboardingService(userRepo repository.UserRepository, onboardingRepo repository.OnboardingRepository) *OnboardingService {
	return &OnboardingService{userRepo: userRepo, onboardingRepo: onboardingRepo}
}

type OnboardingInput struct {
	CurrentStep int                           `json:"currentStep"`
	Profession  string                        `json:"profession"`
	Interests   []string                      `json:"interests"`
	Preferences *domain.OnboardingPreferences `json:"preferences"`
}

type OnboardingResult struct {
	User *domain.User           `json:"user"`
	Data *domain.OnboardingData `json:"onboardingData"`
}

// SaveStep upserts the wizard answers and advances the user's step. The step
// never moves backwards and completion latches once the terminal step is
// reached.
func (s *OnboardingService) SaveStep(ctx context.Context, userID uuid.UUID, input OnboardingInput) (*OnboardingResult, error) {
	if input.CurrentStep < 1 || input.CurrentStep > domain.TotalOnboardingSteps {
		return nil, fmt.Errorf("currentStep must be between 1 and %d", domain.TotalOnboardingSteps)
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	data, err := s.onboardingRepo.FindByUserID(userID)
	if err != nil {
		if !errors.Is(err, repository.ErrOnboardingDataNotFound) {
			return nil, err
		}
		data = &domain.OnboardingData{UserID: userID}
	}
	if input.Profession != "" {
		data.Profession = input.Profession
	}
	if input.Interests != nil {
		data.Interests = input.Interests
	}
	if input.Preferences != nil {
		data.Preferences = *input.Preferences
	}
	if err := s.onboardingRepo.Upsert(data); err != nil {
		return nil, err
	}

	step := input.CurrentStep
	if user.OnboardingStep > step {
		step = user.OnboardingStep
	}
	completed := user.OnboardingCompleted || step >= domain.TotalOnboardingSteps
	if err := s.userRepo.UpdateFields(userID, map[string]any{
		"onboarding_step":      step,
		"onboarding_completed": completed,
	}); err != nil {
		return nil, err
	}

	fresh, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	return &OnboardingResult{User: fresh, Data: data}, nil
}

type OnboardingStatus struct {
	OnboardingStep      int  `json:"onboardingStep"`
	OnboardingCompleted bool `json:"onboardingCompleted"`
}

func (s *OnboardingService) Status(ctx context.Context, userID uuid.UUID) (*OnboardingStatus, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	return &OnboardingStatus{
		OnboardingStep:      user.OnboardingStep,
		OnboardingCompleted: user.OnboardingCompleted,
	}, nil
}
