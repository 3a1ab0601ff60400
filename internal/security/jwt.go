package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenMissing     = errors.New("session token missing")
	ErrTokenExpired     = errors.New("session token expired")
	ErrTokenMalformed   = errors.New("session token malformed")
	ErrClaimsIncomplete = errors.New("session token claims incomplete")
)

// SessionClaims is the runtime-neutral result of verifying a session token.
// Both verifier implementations must produce identical values for the same
// token.
type SessionClaims struct {
	UserID    string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenVerifier validates a signed session credential. The full server runtime
// and the restricted runtime each provide an implementation sharing this
// claims contract and expiry semantics.
type TokenVerifier interface {
	VerifySession(raw string) (*SessionClaims, error)
}

type sessionTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies session tokens with a symmetric secret. It is
// the full-runtime implementation of TokenVerifier and the only signer.
type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewJWTManager(secret, issuer string, ttl time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

func (m *JWTManager) TTL() time.Duration { return m.ttl }

func (m *JWTManager) SignSession(userID, email string) (string, error) {
	if userID == "" || email == "" {
		return "", ErrClaimsIncomplete
	}
	now := time.Now().UTC()
	claims := sessionTokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *JWTManager) VerifySession(raw string) (*SessionClaims, error) {
	if raw == "" {
		return nil, ErrTokenMissing
	}
	var claims sessionTokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}
	if claims.Subject == "" || claims.Email == "" || claims.ExpiresAt == nil {
		return nil, ErrClaimsIncomplete
	}
	out := &SessionClaims{
		UserID:    claims.Subject,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

// IsExpired is a non-throwing pre-flight check. Any decode failure counts as
// expired.
func (m *JWTManager) IsExpired(raw string) bool {
	_, err := m.VerifySession(raw)
	return err != nil
}
