package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TotalOnboardingSteps is the terminal step of the guided setup flow.
const TotalOnboardingSteps = 6

type User struct {
	ID                        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email                     string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash              string     `gorm:"size:255;not null" json:"-"`
	Name                      string     `gorm:"size:255;not null" json:"name"`
	OnboardingStep            int        `gorm:"not null;default:1" json:"onboardingStep"`
	OnboardingCompleted       bool       `gorm:"not null;default:false" json:"onboardingCompleted"`
	EmailVerified             bool       `gorm:"not null;default:false" json:"emailVerified"`
	EmailVerificationToken    *string    `gorm:"size:64;index" json:"-"`
	EmailVerificationExpires  *time.Time `json:"-"`
	EmailVerificationIssuedAt *time.Time `json:"-"`
	CreatedAt                 time.Time  `json:"created_at"`
	UpdatedAt                 time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.OnboardingStep == 0 {
		u.OnboardingStep = 1
	}
	return nil
}

// HasVerificationOutstanding reports whether a verification token is pending.
// Token, expiry and issuance timestamps are set and cleared as a unit.
func (u *User) HasVerificationOutstanding() bool {
	return u.EmailVerificationToken != nil && u.EmailVerificationExpires != nil
}
