package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mealmatch/mealmatch-api/internal/domain"
	"github.com/mealmatch/mealmatch-api/internal/repository"
	"github.com/mealmatch/mealmatch-api/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already in use")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type AuthService struct {
	tokenSvc *TokenService
	userRepo repository.UserRepository
}

type LoginResult struct {
	User        *domain.User `json:"user"`
	Token       string       `json:"-"`
	ExpiresAt   time.Time    `json:"expires_at"`
	RedirectURL string       `json:"redirectUrl"`
}

func NewAuthService(tokenSvc *TokenService, userRepo repository.UserRepository) *AuthService {
	return &AuthService{tokenSvc: tokenSvc, userRepo: userRepo}
}

func (s *AuthService) Register(email, password, name string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:          email,
		PasswordHash:   hash,
		Name:           name,
		OnboardingStep: 1,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(user.ID)
}

func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.userRepo.FindByEmailForLogin(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	ok, err := security.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	token, expiresAt, err := s.tokenSvc.Issue(user.ID.String(), user.Email)
	if err != nil {
		return nil, err
	}
	projection, err := s.userRepo.FindByID(user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		User:        projection,
		Token:       token,
		ExpiresAt:   expiresAt,
		RedirectURL: RedirectURLFor(projection),
	}, nil
}

// Check resolves the authenticated user's projection for the whoami endpoint.
func (s *AuthService) Check(userID uuid.UUID) (*domain.User, error) {
	return s.userRepo.FindByID(userID)
}

func (s *AuthService) ParseUserID(subject string) (uuid.UUID, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user subject")
	}
	return id, nil
}

// RedirectURLFor returns the canonical location for a user: the dashboard once
// onboarding is complete, otherwise the current wizard step.
func RedirectURLFor(user *domain.User) string {
	if user.OnboardingCompleted {
		return "/dashboard"
	}
	step := user.OnboardingStep
	if step < 1 {
		step = 1
	}
	return fmt.Sprintf("/onboarding/step-%d", step)
}

func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRe.MatchString(email) {
		return fmt.Errorf("invalid email")
	}
	return nil
}
