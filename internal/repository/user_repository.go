package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mealmatch/mealmatch-api/internal/domain"

	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

// projectionColumns are the fields default lookups return. The password hash
// and verification secrets are only fetched by the explicit finders that need
// them.
var projectionColumns = []string{
	"id", "email", "name",
	"onboarding_step", "onboarding_completed", "email_verified",
	"created_at", "updated_at",
}

type UserRepository interface {
	Create(user *domain.User) error
	FindByID(id uuid.UUID) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	// FindByEmailForLogin loads the full record including the password hash.
	FindByEmailForLogin(email string) (*domain.User, error)
	// FindByIDFull loads the full record including verification token state.
	FindByIDFull(id uuid.UUID) (*domain.User, error)
	// UpdateFields applies an atomic partial update.
	UpdateFields(id uuid.UUID, fields map[string]any) error
	// ExistsByEmailExcluding reports whether another user already owns email.
	ExistsByEmailExcluding(email string, excludeID uuid.UUID) (bool, error)
	// ConsumeVerificationToken atomically flips emailVerified and clears the
	// token fields for the user holding an unexpired token with this hash.
	// Returns ErrUserNotFound when no such user exists, which makes a wrong
	// token, an expired token and a replayed token indistinguishable.
	ConsumeVerificationToken(tokenHash string, now time.Time) error
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) Create(user *domain.User) error { return r.db.Create(user).Error }

func (r *GormUserRepository) FindByID(id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := r.db.Select(projectionColumns).Where("id = ?", id).First(&u).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.db.Select(projectionColumns).Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &u, nil
}

func (r *GormUserRepository) FindByEmailForLogin(email string) (*domain.User, error) {
	var u domain.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &u, nil
}

func (r *GormUserRepository) FindByIDFull(id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := r.db.Where("id = ?", id).First(&u).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &u, nil
}

func (r *GormUserRepository) UpdateFields(id uuid.UUID, fields map[string]any) error {
	res := r.db.Model(&domain.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepository) ExistsByEmailExcluding(email string, excludeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&domain.User{}).
		Where("email = ? AND id <> ?", email, excludeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormUserRepository) ConsumeVerificationToken(tokenHash string, now time.Time) error {
	res := r.db.Model(&domain.User{}).
		Where("email_verification_token = ? AND email_verification_expires > ?", tokenHash, now).
		Updates(map[string]any{
			"email_verified":               true,
			"email_verification_token":     nil,
			"email_verification_expires":   nil,
			"email_verification_issued_at": nil,
			"updated_at":                   now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
