package ports

import (
	"time"

	"github.com/IANDYI/authguard/internal/core/domain"
)

// TokenIssuer is the JWT signer/verifier component (D).
type TokenIssuer interface {
	// IssuePair mints an access+refresh token pair sharing the same jti.
	IssuePair(sub string, accessTTL, refreshTTL time.Duration, jti string, extra map[string]any) (access, refresh string, expiresIn int64, err error)

	// Verify checks signature, expiry and issuer/audience, returning the
	// decoded claims on success.
	Verify(token string) (domain.TokenClaims, error)
}
