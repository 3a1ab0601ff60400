package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mealmatch/mealmatch-api/internal/domain"
	"github.com/mealmatch/mealmatch-api/internal/http/middleware"
	"github.com/mealmatch/mealmatch-api/internal/repository"
	"github.com/mealmatch/mealmatch-api/internal/security"
	"github.com/mealmatch/mealmatch-api/internal/service"
)

type stubAuthService struct {
	registerUser *domain.User
	registerErr  error
}

func (s *stubAuthService) Register(email, password, name string) (*domain.User, error) {
	return s.registerUser, s.registerErr
}

func (s *stubAuthService) Login(email, password string) (*service.LoginResult, error) {
	return nil, service.ErrInvalidCredentials
}

func (s *stubAuthService) Check(userID uuid.UUID) (*domain.User, error) {
	return &domain.User{ID: userID}, nil
}

func (s *stubAuthService) ParseUserID(subject string) (uuid.UUID, error) {
	return uuid.Parse(subject)
}

type stubVerificationService struct {
	requestResult *service.VerificationRequestResult
	requestErr    error
	updateUser    *domain.User
	updateErr     error
}

func (s *stubVerificationService) RequestVerification(context.Context, uuid.UUID) (*service.VerificationRequestResult, error) {
	return s.requestResult, s.requestErr
}

func (s *stubVerificationService) ConsumeToken(context.Context, string) error {
	return service.ErrInvalidOrExpiredToken
}

func (s *stubVerificationService) UpdateEmail(context.Context, uuid.UUID, string) (*domain.User, error) {
	return s.updateUser, s.updateErr
}

func (s *stubVerificationService) IsVerified(uuid.UUID) (bool, error) {
	return false, nil
}

type errorEnvelope struct {
	Success bool `json:"success"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newHandlerFixture(authSvc service.AuthServiceInterface, verifySvc service.VerificationServiceInterface) *AuthHandler {
	cookies := security.NewCookieManager("", false, "lax", time.Hour)
	return NewAuthHandler(authSvc, verifySvc, cookies)
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	claims := &security.SessionClaims{UserID: uuid.New().String(), Email: "user@example.com"}
	return req.WithContext(context.WithValue(req.Context(), middleware.ClaimsContextKey, claims))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestRegisterStatusMapping(t *testing.T) {
	t.Run("success is a plain 200", func(t *testing.T) {
		h := newHandlerFixture(&stubAuthService{registerUser: &domain.User{ID: uuid.New(), Email: "a@b.com"}}, &stubVerificationService{})
		rec := httptest.NewRecorder()
		h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"email":"a@b.com","password":"longenough1","name":"A"}`)))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("taken email maps to 400", func(t *testing.T) {
		h := newHandlerFixture(&stubAuthService{registerErr: service.ErrEmailTaken}, &stubVerificationService{})
		rec := httptest.NewRecorder()
		h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"email":"a@b.com","password":"longenough1","name":"A"}`)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if env := decodeError(t, rec); env.Error == nil || env.Error.Code != "EMAIL_TAKEN" {
			t.Fatalf("expected EMAIL_TAKEN, got %+v", env.Error)
		}
	})
}

func TestVerifyEmailStatusMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"already verified maps to 400", service.ErrAlreadyVerified, http.StatusBadRequest, "ALREADY_VERIFIED"},
		{"delivery failure maps to 500", service.ErrDeliveryFailed, http.StatusInternalServerError, "DELIVERY_FAILED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHandlerFixture(&stubAuthService{}, &stubVerificationService{requestErr: tc.err})
			rec := httptest.NewRecorder()
			h.VerifyEmail(rec, authedRequest(http.MethodPost, "/api/auth/verify-email", ""))
			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rec.Code)
			}
			if env := decodeError(t, rec); env.Error == nil || env.Error.Code != tc.wantErr {
				t.Fatalf("expected %s, got %+v", tc.wantErr, env.Error)
			}
		})
	}

	t.Run("cooldown maps to 429 with retry hints", func(t *testing.T) {
		h := newHandlerFixture(&stubAuthService{}, &stubVerificationService{
			requestErr: &service.CooldownError{RetryAfter: 90 * time.Second},
		})
		rec := httptest.NewRecorder()
		h.VerifyEmail(rec, authedRequest(http.MethodPost, "/api/auth/verify-email", ""))
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
		if rec.Header().Get("Retry-After") != "90" {
			t.Fatalf("expected Retry-After 90, got %q", rec.Header().Get("Retry-After"))
		}
		env := decodeError(t, rec)
		if env.Error == nil || env.Error.Code != "COOLDOWN" {
			t.Fatalf("expected COOLDOWN, got %+v", env.Error)
		}
		if remaining, ok := env.Error.Details["remainingMinutes"].(float64); !ok || remaining != 2 {
			t.Fatalf("expected remainingMinutes 2, got %+v", env.Error.Details)
		}
	})

	t.Run("success is a plain 200", func(t *testing.T) {
		h := newHandlerFixture(&stubAuthService{}, &stubVerificationService{
			requestResult: &service.VerificationRequestResult{Email: "user@example.com"},
		})
		rec := httptest.NewRecorder()
		h.VerifyEmail(rec, authedRequest(http.MethodPost, "/api/auth/verify-email", ""))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}

func TestUpdateEmailStatusMapping(t *testing.T) {
	t.Run("taken email maps to 400", func(t *testing.T) {
		h := newHandlerFixture(&stubAuthService{}, &stubVerificationService{updateErr: service.ErrEmailTaken})
		rec := httptest.NewRecorder()
		h.UpdateEmail(rec, authedRequest(http.MethodPut, "/api/auth/update-email", `{"email":"taken@example.com"}`))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if env := decodeError(t, rec); env.Error == nil || env.Error.Code != "EMAIL_TAKEN" {
			t.Fatalf("expected EMAIL_TAKEN, got %+v", env.Error)
		}
	})

	t.Run("missing user maps to 404", func(t *testing.T) {
		h := newHandlerFixture(&stubAuthService{}, &stubVerificationService{updateErr: repository.ErrUserNotFound})
		rec := httptest.NewRecorder()
		h.UpdateEmail(rec, authedRequest(http.MethodPut, "/api/auth/update-email", `{"email":"new@example.com"}`))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if env := decodeError(t, rec); env.Error == nil || env.Error.Code != "NOT_FOUND" {
			t.Fatalf("expected NOT_FOUND, got %+v", env.Error)
		}
	})
}
