package database

import (
	"github.com/mealmatch/mealmatch-api/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.OnboardingData{},
	)
}
