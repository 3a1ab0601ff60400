package service

import (
	"time"

	"github.com/mealmatch/mealmatch-api/internal/security"
)

// TokenService issues and validates the signed session credential. Issue is
// pure: the HTTP layer owns the cookie.
type TokenService struct {
	mgr *security.JWTManager
}

func NewTokenService(mgr *security.JWTManager) *TokenService {
	return &TokenService{mgr: mgr}
}

func (s *TokenService) Issue(userID, email string) (token string, expiresAt time.Time, err error) {
	token, err = s.mgr.SignSession(userID, email)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, time.Now().Add(s.mgr.TTL()), nil
}

func (s *TokenService) Verify(raw string) (*security.SessionClaims, error) {
	return s.mgr.VerifySession(raw)
}

func (s *TokenService) IsExpired(raw string) bool {
	return s.mgr.IsExpired(raw)
}
