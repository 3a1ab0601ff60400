package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mealmatch/mealmatch-api/internal/http/middleware"
	"github.com/mealmatch/mealmatch-api/internal/http/response"
	"github.com/mealmatch/mealmatch-api/internal/observability"
	"github.com/mealmatch/mealmatch-api/internal/repository"
	"github.com/mealmatch/mealmatch-api/internal/security"
	"github.com/mealmatch/mealmatch-api/internal/service"
)

type AuthHandler struct {
	authSvc   service.AuthServiceInterface
	verifySvc service.VerificationServiceInterface
	cookieMgr *security.CookieManager
}

func NewAuthHandler(authSvc service.AuthServiceInterface, verifySvc service.VerificationServiceInterface, cookieMgr *security.CookieManager) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, verifySvc: verifySvc, cookieMgr: cookieMgr}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateEmailRequest struct {
	Email string `json:"email"`
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "register", status, time.Since(start))
	}()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		observability.RecordAuthRegister(r.Context(), "failure")
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	user, err := h.authSvc.Register(req.Email, req.Password, req.Name)
	if err != nil {
		status = "failure"
		observability.RecordAuthRegister(r.Context(), "failure")
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			observability.Audit(r, "auth.register.failed", "reason", "email_taken")
			response.Error(w, r, http.StatusBadRequest, "EMAIL_TAKEN", "an account with this email already exists", nil)
		case errors.Is(err, service.ErrWeakPassword):
			observability.Audit(r, "auth.register.failed", "reason", "weak_password")
			response.Error(w, r, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		default:
			observability.Audit(r, "auth.register.failed", "reason", "validation", "error", err.Error())
			response.Error(w, r, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		}
		return
	}
	observability.Audit(r, "auth.register.success", "user_id", user.ID)
	observability.RecordAuthRegister(r.Context(), "success")
	response.JSON(w, r, http.StatusOK, map[string]any{"user": user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "login", status, time.Since(start))
	}()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		observability.RecordAuthLogin(r.Context(), "failure")
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	result, err := h.authSvc.Login(req.Email, req.Password)
	if err != nil {
		status = "failure"
		observability.RecordAuthLogin(r.Context(), "failure")
		if errors.Is(err, service.ErrInvalidCredentials) {
			observability.Audit(r, "auth.login.failed", "reason", "invalid_credentials")
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid email or password", nil)
			return
		}
		observability.Audit(r, "auth.login.failed", "reason", "internal", "error", err.Error())
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "login failed", nil)
		return
	}
	h.cookieMgr.SetSessionCookie(w, result.Token)
	observability.Audit(r, "auth.login.success", "user_id", result.User.ID)
	observability.RecordAuthLogin(r.Context(), "success")
	response.JSON(w, r, http.StatusOK, map[string]any{
		"user":        result.User,
		"redirectUrl": result.RedirectURL,
		"expires_at":  result.ExpiresAt,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "logout", status, time.Since(start))
	}()

	h.cookieMgr.ClearSessionCookie(w)
	observability.Audit(r, "auth.logout.success")
	observability.RecordAuthLogout(r.Context(), "success")
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Check is the whoami endpoint the reconciliation layer polls. Responses are
// never cacheable; the cookie is the single source of identity.
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "check", status, time.Since(start))
	}()

	uid, ok := h.subject(w, r)
	if !ok {
		status = "failure"
		return
	}
	user, err := h.authSvc.Check(uid)
	if err != nil {
		status = "failure"
		h.cookieMgr.ClearSessionCookie(w)
		observability.Audit(r, "auth.check.failed", "user_id", uid, "reason", "user_lookup")
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "session user no longer exists", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"user":        user,
		"redirectUrl": service.RedirectURLFor(user),
	})
}

// CheckVerification reports whether the authenticated user's email is
// verified. Polled by the verification watcher.
func (h *AuthHandler) CheckVerification(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "check_verification", status, time.Since(start))
	}()

	uid, ok := h.subject(w, r)
	if !ok {
		status = "failure"
		return
	}
	verified, err := h.verifySvc.IsVerified(uid)
	if err != nil {
		status = "failure"
		observability.RecordVerificationEvent(r.Context(), "check", "failure")
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "verification status lookup failed", nil)
		return
	}
	observability.RecordVerificationEvent(r.Context(), "check", "success")
	response.JSON(w, r, http.StatusOK, map[string]bool{"emailVerified": verified})
}

// VerifyEmail issues a fresh verification email for the authenticated user.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "verify_email", status, time.Since(start))
	}()

	uid, ok := h.subject(w, r)
	if !ok {
		status = "failure"
		return
	}
	result, err := h.verifySvc.RequestVerification(r.Context(), uid)
	if err != nil {
		status = "failure"
		var cdErr *service.CooldownError
		switch {
		case errors.As(err, &cdErr):
			observability.Audit(r, "verification.request.throttled", "user_id", uid, "retry_after", cdErr.RetryAfter.String())
			observability.RecordVerificationEvent(r.Context(), "request", "throttled")
			observability.RecordVerificationCooldown(r.Context(), cdErr.RetryAfter)
			w.Header().Set("Retry-After", retryAfterSeconds(cdErr.RetryAfter))
			response.Error(w, r, http.StatusTooManyRequests, "COOLDOWN", cdErr.Error(), map[string]any{
				"remainingMinutes": cdErr.RemainingMinutes(),
			})
		case errors.Is(err, service.ErrAlreadyVerified):
			observability.RecordVerificationEvent(r.Context(), "request", "already_verified")
			response.Error(w, r, http.StatusBadRequest, "ALREADY_VERIFIED", "email is already verified", nil)
		case errors.Is(err, service.ErrDeliveryFailed):
			observability.Audit(r, "verification.request.failed", "user_id", uid, "reason", "delivery")
			observability.RecordVerificationEvent(r.Context(), "request", "delivery_failure")
			response.Error(w, r, http.StatusInternalServerError, "DELIVERY_FAILED", "could not send verification email", nil)
		default:
			observability.Audit(r, "verification.request.failed", "user_id", uid, "reason", "internal", "error", err.Error())
			observability.RecordVerificationEvent(r.Context(), "request", "failure")
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "verification request failed", nil)
		}
		return
	}
	observability.Audit(r, "verification.request.sent", "user_id", uid)
	observability.RecordVerificationEvent(r.Context(), "request", "success")
	response.JSON(w, r, http.StatusOK, map[string]any{"email": result.Email, "status": "sent"})
}

// VerifyToken consumes a token from the verification link. Public: the popup
// window that opens the link carries no session cookie. Wrong, expired and
// replayed tokens all get the same answer.
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "verify_token", status, time.Since(start))
	}()

	var req verifyTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		observability.RecordVerificationEvent(r.Context(), "consume", "failure")
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if err := h.verifySvc.ConsumeToken(r.Context(), req.Token); err != nil {
		status = "failure"
		if errors.Is(err, service.ErrInvalidOrExpiredToken) {
			observability.Audit(r, "verification.consume.rejected")
			observability.RecordVerificationEvent(r.Context(), "consume", "rejected")
			response.Error(w, r, http.StatusBadRequest, "INVALID_TOKEN", "invalid or expired verification token", nil)
			return
		}
		observability.RecordVerificationEvent(r.Context(), "consume", "failure")
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "verification failed", nil)
		return
	}
	observability.Audit(r, "verification.consume.success")
	observability.RecordVerificationEvent(r.Context(), "consume", "success")
	response.JSON(w, r, http.StatusOK, map[string]any{"emailVerified": true})
}

// UpdateEmail changes the account address and invalidates any outstanding
// verification token. The client is expected to request a fresh verification
// email afterwards.
func (h *AuthHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "update_email", status, time.Since(start))
	}()

	uid, ok := h.subject(w, r)
	if !ok {
		status = "failure"
		return
	}
	var req updateEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	user, err := h.verifySvc.UpdateEmail(r.Context(), uid, req.Email)
	if err != nil {
		status = "failure"
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			observability.Audit(r, "verification.update_email.failed", "user_id", uid, "reason", "email_taken")
			observability.RecordVerificationEvent(r.Context(), "update_email", "conflict")
			response.Error(w, r, http.StatusBadRequest, "EMAIL_TAKEN", "an account with this email already exists", nil)
		case errors.Is(err, repository.ErrUserNotFound):
			observability.RecordVerificationEvent(r.Context(), "update_email", "not_found")
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
		default:
			observability.RecordVerificationEvent(r.Context(), "update_email", "failure")
			response.Error(w, r, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		}
		return
	}
	observability.Audit(r, "verification.update_email.success", "user_id", uid)
	observability.RecordVerificationEvent(r.Context(), "update_email", "success")
	response.JSON(w, r, http.StatusOK, map[string]any{"user": user})
}

// subject resolves the authenticated user id from middleware context.
func (h *AuthHandler) subject(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return uuid.Nil, false
	}
	uid, err := h.authSvc.ParseUserID(claims.UserID)
	if err != nil {
		h.cookieMgr.ClearSessionCookie(w)
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid subject", nil)
		return uuid.Nil, false
	}
	return uid, true
}

func retryAfterSeconds(d time.Duration) string {
	s := int(d.Round(time.Second).Seconds())
	if s < 1 {
		s = 1
	}
	return strconv.Itoa(s)
}
