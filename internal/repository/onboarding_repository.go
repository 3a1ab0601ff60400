package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/mealmatch/mealmatch-api/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrOnboardingDataNotFound = errors.New("onboarding data not found")

type OnboardingRepository interface {
	// Upsert writes the wizard answers for a user, one row per user.
	Upsert(data *domain.OnboardingData) error
	FindByUserID(userID uuid.UUID) (*domain.OnboardingData, error)
}

type GormOnboardingRepository struct{ db *gorm.DB }

func NewOnboardingRepository(db *gorm.DB) OnboardingRepository {
	return &GormOnboardingRepository{db: db}
}

func (r *GormOnboardingRepository) Upsert(data *domain.OnboardingData) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"profession", "interests", "preferences", "updated_at"}),
	}).Create(data).Error
}

func (r *GormOnboardingRepository) FindByUserID(userID uuid.UUID) (*domain.OnboardingData, error) {
	var d domain.OnboardingData
	err := r.db.Where("user_id = ?", userID).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOnboardingDataNotFound
		}
		return nil, err
	}
	return &d, nil
}
