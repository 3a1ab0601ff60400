package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnauthenticated reports a definitive 401 from the server: the session is
// gone and the local cache must be discarded, not retried.
var ErrUnauthenticated = errors.New("session unauthenticated")

// Snapshot is the server's authoritative answer from the whoami endpoint.
type Snapshot struct {
	UserID              string `json:"userId"`
	Email               string `json:"email"`
	Name                string `json:"name"`
	EmailVerified       bool   `json:"emailVerified"`
	OnboardingStep      int    `json:"onboardingStep"`
	OnboardingCompleted bool   `json:"onboardingCompleted"`
	RedirectURL         string `json:"redirectUrl"`
}

// AuthAPI is the slice of the server the reconciler talks to.
type AuthAPI interface {
	Check(ctx context.Context) (*Snapshot, error)
	CheckVerification(ctx context.Context) (bool, error)
}

// HTTPAuthAPI calls the auth endpoints with a cookie-bearing http.Client.
type HTTPAuthAPI struct {
	baseURL string
	client  *http.Client
}

func NewHTTPAuthAPI(baseURL string, client *http.Client) *HTTPAuthAPI {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPAuthAPI{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type checkEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		User struct {
			ID                  string `json:"id"`
			Email               string `json:"email"`
			Name                string `json:"name"`
			EmailVerified       bool   `json:"emailVerified"`
			OnboardingStep      int    `json:"onboardingStep"`
			OnboardingCompleted bool   `json:"onboardingCompleted"`
		} `json:"user"`
		RedirectURL string `json:"redirectUrl"`
	} `json:"data"`
}

type verificationEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		EmailVerified bool `json:"emailVerified"`
	} `json:"data"`
}

func (a *HTTPAuthAPI) Check(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/auth/check", nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("check endpoint returned %d", resp.StatusCode)
	}
	var env checkEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode check response: %w", err)
	}
	return &Snapshot{
		UserID:              env.Data.User.ID,
		Email:               env.Data.User.Email,
		Name:                env.Data.User.Name,
		EmailVerified:       env.Data.User.EmailVerified,
		OnboardingStep:      env.Data.User.OnboardingStep,
		OnboardingCompleted: env.Data.User.OnboardingCompleted,
		RedirectURL:         env.Data.RedirectURL,
	}, nil
}

func (a *HTTPAuthAPI) CheckVerification(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/auth/check-verification", nil)
	if err != nil {
		return false, err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return false, ErrUnauthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("check-verification endpoint returned %d", resp.StatusCode)
	}
	var env verificationEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return false, fmt.Errorf("decode verification response: %w", err)
	}
	return env.Data.EmailVerified, nil
}
