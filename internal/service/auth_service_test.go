package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/mealmatch/mealmatch-api/internal/domain"
)

func TestRegisterMatrix(t *testing.T) {
	t.Run("success normalizes email and starts at step one", func(t *testing.T) {
		fx := newServiceFixture(t)
		u, err := fx.auth.Register("  New@Example.COM ", "longenough1", "New User")
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if u.Email != "new@example.com" {
			t.Fatalf("expected normalized email, got %q", u.Email)
		}
		if u.OnboardingStep != 1 || u.OnboardingCompleted {
			t.Fatalf("fresh account must start at step 1: %+v", u)
		}
		if u.EmailVerified {
			t.Fatal("fresh account must start unverified")
		}
		if u.PasswordHash != "" {
			t.Fatal("register must not return the password hash")
		}
	})

	t.Run("invalid email", func(t *testing.T) {
		fx := newServiceFixture(t)
		if _, err := fx.auth.Register("bad-email", "longenough1", "User"); err == nil || !strings.Contains(err.Error(), "invalid email") {
			t.Fatalf("expected invalid email error, got %v", err)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		fx := newServiceFixture(t)
		if _, err := fx.auth.Register("user@example.com", "longenough1", "   "); err == nil || !strings.Contains(err.Error(), "name is required") {
			t.Fatalf("expected name required error, got %v", err)
		}
	})

	t.Run("weak password", func(t *testing.T) {
		fx := newServiceFixture(t)
		if _, err := fx.auth.Register("user@example.com", "short", "User"); !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("expected ErrWeakPassword, got %v", err)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		fx := newServiceFixture(t)
		fx.register(t, "dupe@example.com")
		if _, err := fx.auth.Register("dupe@example.com", "longenough1", "User"); !errors.Is(err, ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})
}

func TestLoginMatrix(t *testing.T) {
	t.Run("success issues token and redirect", func(t *testing.T) {
		fx := newServiceFixture(t)
		fx.register(t, "login@example.com")

		res, err := fx.auth.Login("Login@Example.com", "longenough1")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if res.Token == "" {
			t.Fatal("expected a session token")
		}
		if res.RedirectURL != "/onboarding/step-1" {
			t.Fatalf("expected wizard redirect, got %q", res.RedirectURL)
		}
		if res.User.PasswordHash != "" {
			t.Fatal("login result must not expose the password hash")
		}
	})

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		fx := newServiceFixture(t)
		fx.register(t, "login@example.com")

		_, errWrong := fx.auth.Login("login@example.com", "wrongpassword")
		_, errUnknown := fx.auth.Login("ghost@example.com", "longenough1")
		if !errors.Is(errWrong, ErrInvalidCredentials) || !errors.Is(errUnknown, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", errWrong, errUnknown)
		}
	})

	t.Run("completed onboarding redirects to dashboard", func(t *testing.T) {
		fx := newServiceFixture(t)
		u := fx.register(t, "done@example.com")
		if err := fx.userRepo.UpdateFields(u.ID, map[string]any{
			"onboarding_step":      domain.TotalOnboardingSteps,
			"onboarding_completed": true,
		}); err != nil {
			t.Fatalf("update: %v", err)
		}

		res, err := fx.auth.Login("done@example.com", "longenough1")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if res.RedirectURL != "/dashboard" {
			t.Fatalf("expected dashboard redirect, got %q", res.RedirectURL)
		}
	})
}

func TestRedirectURLFor(t *testing.T) {
	if got := RedirectURLFor(&domain.User{OnboardingCompleted: true, OnboardingStep: 6}); got != "/dashboard" {
		t.Fatalf("completed: %q", got)
	}
	if got := RedirectURLFor(&domain.User{OnboardingStep: 3}); got != "/onboarding/step-3" {
		t.Fatalf("mid-wizard: %q", got)
	}
	if got := RedirectURLFor(&domain.User{OnboardingStep: 0}); got != "/onboarding/step-1" {
		t.Fatalf("unset step must clamp to 1: %q", got)
	}
}
