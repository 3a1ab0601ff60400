package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OnboardingPreferences struct {
	Theme          string `json:"theme"`
	Notifications  bool   `json:"notifications"`
	Language       string `json:"language"`
	EmailFrequency string `json:"emailFrequency"`
}

// OnboardingData holds the wizard answers collected across steps, one row per
// user, upserted as the user advances.
type OnboardingData struct {
	ID          uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID             `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	Profession  string                `gorm:"size:255" json:"profession"`
	Interests   []string              `gorm:"serializer:json" json:"interests"`
	Preferences OnboardingPreferences `gorm:"serializer:json" json:"preferences"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

func (d *OnboardingData) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
