package database

import (
	"errors"
	"strings"

	"github.com/mealmatch/mealmatch-api/internal/domain"
	"github.com/mealmatch/mealmatch-api/internal/security"

	"gorm.io/gorm"
)

// Seed creates a demo account when one is configured. Existing accounts are
// left untouched.
func Seed(db *gorm.DB, demoEmail, demoPassword string) error {
	demoEmail = strings.TrimSpace(strings.ToLower(demoEmail))
	if demoEmail == "" {
		return nil
	}
	var existing domain.User
	err := db.Where("email = ?", demoEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := security.HashPassword(demoPassword)
	if err != nil {
		return err
	}
	return db.Create(&domain.User{
		Email:        demoEmail,
		PasswordHash: hash,
		Name:         "Demo User",
	}).Error
}

// MarkEmailVerified flips the verification flag for an account and drops any
// outstanding token. Operator escape hatch for broken mail delivery.
func MarkEmailVerified(db *gorm.DB, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	res := db.Model(&domain.User{}).Where("email = ?", email).Updates(map[string]any{
		"email_verified":               true,
		"email_verification_token":     nil,
		"email_verification_expires":   nil,
		"email_verification_issued_at": nil,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
