package ports

import (
	"context"
	"errors"

	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/google/uuid"
)

// Sentinel errors a RefreshStore.Rotate/Revoke implementation returns, so
// callers above the adapter boundary (services, handlers) can branch on
// outcome without importing the adapter package itself.
var (
	ErrSessionReplay  = errors.New("session: refresh token reuse detected")
	ErrSessionUnknown = errors.New("session: refresh token not recognized")
)

// RefreshStore is the session registry component (E): issue/rotate/revoke
// refresh-bound credential pairs, with replay detection.
type RefreshStore interface {
	MakeToken(ctx context.Context, userID uuid.UUID, fingerprint string) (domain.TokenPair, error)
	Rotate(ctx context.Context, fingerprint, refreshToken string) (domain.TokenPair, error)
	Revoke(ctx context.Context, fingerprint, refreshToken string) (bool, error)
}
