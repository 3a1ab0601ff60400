package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mealmatch/mealmatch-api/internal/http/middleware"
	"github.com/mealmatch/mealmatch-api/internal/http/response"
	"github.com/mealmatch/mealmatch-api/internal/observability"
	"github.com/mealmatch/mealmatch-api/internal/service"
)

type OnboardingHandler struct {
	authSvc       service.AuthServiceInterface
	onboardingSvc service.OnboardingServiceInterface
}

func NewOnboardingHandler(authSvc service.AuthServiceInterface, onboardingSvc service.OnboardingServiceInterface) *OnboardingHandler {
	return &OnboardingHandler{authSvc: authSvc, onboardingSvc: onboardingSvc}
}

func (h *OnboardingHandler) Save(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "onboarding_save", status, time.Since(start))
	}()

	uid, ok := h.subject(w, r)
	if !ok {
		status = "failure"
		return
	}
	var input service.OnboardingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	result, err := h.onboardingSvc.SaveStep(r.Context(), uid, input)
	if err != nil {
		status = "failure"
		observability.Audit(r, "onboarding.save.failed", "user_id", uid, "error", err.Error())
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	observability.Audit(r, "onboarding.save.success", "user_id", uid, "step", result.User.OnboardingStep, "completed", result.User.OnboardingCompleted)
	observability.RecordOnboardingStepSave(r.Context(), result.User.OnboardingStep, result.User.OnboardingCompleted)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"user":           result.User,
		"onboardingData": result.Data,
		"redirectUrl":    service.RedirectURLFor(result.User),
	})
}

func (h *OnboardingHandler) Status(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.subject(w, r)
	if !ok {
		return
	}
	st, err := h.onboardingSvc.Status(r.Context(), uid)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "onboarding status lookup failed", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, st)
}

func (h *OnboardingHandler) subject(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return uuid.Nil, false
	}
	uid, err := h.authSvc.ParseUserID(claims.UserID)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid subject", nil)
		return uuid.Nil, false
	}
	return uid, true
}
