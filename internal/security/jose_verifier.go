package security

import (
	"errors"
	"time"

	"github.com/go-jose/go-jose/v4"
	josejwt "github.com/go-jose/go-jose/v4/jwt"
)

// JoseVerifier validates session tokens with go-jose. It targets restricted
// runtimes where the full jwt library is not available, and must stay
// claim-compatible with JWTManager: same algorithm, same expiry semantics,
// same error taxonomy.
type JoseVerifier struct {
	secret []byte
}

func NewJoseVerifier(secret string) *JoseVerifier {
	return &JoseVerifier{secret: []byte(secret)}
}

func (v *JoseVerifier) VerifySession(raw string) (*SessionClaims, error) {
	if raw == "" {
		return nil, ErrTokenMissing
	}
	tok, err := josejwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, ErrTokenMalformed
	}
	var std josejwt.Claims
	var custom struct {
		Email string `json:"email"`
	}
	if err := tok.Claims(v.secret, &std, &custom); err != nil {
		return nil, ErrTokenMalformed
	}
	if err := std.Validate(josejwt.Expected{Time: time.Now()}); err != nil {
		if errors.Is(err, josejwt.ErrExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}
	if std.Subject == "" || custom.Email == "" || std.Expiry == nil {
		return nil, ErrClaimsIncomplete
	}
	out := &SessionClaims{
		UserID:    std.Subject,
		Email:     custom.Email,
		ExpiresAt: std.Expiry.Time(),
	}
	if std.IssuedAt != nil {
		out.IssuedAt = std.IssuedAt.Time()
	}
	return out, nil
}

func (v *JoseVerifier) IsExpired(raw string) bool {
	_, err := v.VerifySession(raw)
	return err != nil
}
