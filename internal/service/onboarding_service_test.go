package service

import (
	"context"
	"testing"

	"github.com/mealmatch/mealmatch-api/internal/domain"
)

func TestSaveStepAdvancesAndMerges(t *testing.T) {
	fx := newServiceFixture(t)
	u := fx.register(t, "wizard@example.com")

	res, err := fx.onboarding.SaveStep(context.Background(), u.ID, OnboardingInput{
		CurrentStep: 2,
		Profession:  "chef",
		Interests:   []string{"baking"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if res.User.OnboardingStep != 2 || res.User.OnboardingCompleted {
		t.Fatalf("unexpected user state: %+v", res.User)
	}
	if res.Data.Profession != "chef" {
		t.Fatalf("unexpected data: %+v", res.Data)
	}

	// A later save without a profession keeps the earlier answer.
	res, err = fx.onboarding.SaveStep(context.Background(), u.ID, OnboardingInput{
		CurrentStep: 3,
		Interests:   []string{"baking", "wine"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if res.Data.Profession != "chef" {
		t.Fatalf("profession must persist across steps, got %q", res.Data.Profession)
	}
	if res.User.OnboardingStep != 3 {
		t.Fatalf("expected step 3, got %d", res.User.OnboardingStep)
	}
}

func TestSaveStepNeverMovesBackwards(t *testing.T) {
	fx := newServiceFixture(t)
	u := fx.register(t, "monotonic@example.com")

	if _, err := fx.onboarding.SaveStep(context.Background(), u.ID, OnboardingInput{CurrentStep: 4}); err != nil {
		t.Fatalf("save: %v", err)
	}
	res, err := fx.onboarding.SaveStep(context.Background(), u.ID, OnboardingInput{CurrentStep: 2})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if res.User.OnboardingStep != 4 {
		t.Fatalf("step must not regress, got %d", res.User.OnboardingStep)
	}
}

func TestSaveStepCompletionLatches(t *testing.T) {
	fx := newServiceFixture(t)
	u := fx.register(t, "finisher@example.com")

	res, err := fx.onboarding.SaveStep(context.Background(), u.ID, OnboardingInput{CurrentStep: domain.TotalOnboardingSteps})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !res.User.OnboardingCompleted {
		t.Fatal("expected completion at terminal step")
	}

	// Completion survives later saves of lower steps.
	res, err = fx.onboarding.SaveStep(context.Background(), u.ID, OnboardingInput{CurrentStep: 1})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !res.User.OnboardingCompleted {
		t.Fatal("completion must latch")
	}
	if RedirectURLFor(res.User) != "/dashboard" {
		t.Fatalf("completed user must redirect to dashboard, got %q", RedirectURLFor(res.User))
	}
}

func TestSaveStepRejectsOutOfRange(t *testing.T) {
	fx := newServiceFixture(t)
	u := fx.register(t, "bounds@example.com")

	if _, err := fx.onboarding.SaveStep(context.Background(), u.ID, OnboardingInput{CurrentStep: 0}); err == nil {
		t.Fatal("expected error for step 0")
	}
	if _, err := fx.onboarding.SaveStep(context.Background(), u.ID, OnboardingInput{CurrentStep: domain.TotalOnboardingSteps + 1}); err == nil {
		t.Fatal("expected error for step above terminal")
	}
}

func TestStatus(t *testing.T) {
	fx := newServiceFixture(t)
	u := fx.register(t, "status@example.com")

	st, err := fx.onboarding.Status(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.OnboardingStep != 1 || st.OnboardingCompleted {
		t.Fatalf("unexpected status: %+v", st)
	}
}
