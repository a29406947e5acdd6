// Package session implements the RefreshStore component (E): a
// cache-backed registry of active refresh tokens with rotation and replay
// detection, composed from the Cache (A), Lock (B) and TokenIssuer (D)
// ports. The per-user list-of-entries layout (`auth:{user_hex}`) and
// lock-serialized rotation (`auth:lock:{user_hex}`) follow spec.md §3/§4.E
// exactly; the cache key idiom itself is grounded on
// erauner12-toolbridge-api's epoch invalidation style.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/ports"
	"github.com/google/uuid"
)

const (
	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour
	lockWait   = 15 * time.Second
)

// ErrReplay and ErrUnknown alias the ports-level sentinels so existing
// callers written against this package's own names keep working.
var (
	ErrReplay  = ports.ErrSessionReplay
	ErrUnknown = ports.ErrSessionUnknown
)

func userHex(userID string) string {
	return strings.ReplaceAll(userID, "-", "")
}

func sessionListKey(userID string) string {
	return fmt.Sprintf("auth:%s", userHex(userID))
}

func lockName(userID string) string {
	return fmt.Sprintf("auth:lock:%s", userHex(userID))
}

// entryHash salts the (fingerprint, refresh_token) pair so a leaked entry
// list never reveals usable token material.
func entryHash(fingerprint, refreshToken string) string {
	sum := sha256.Sum256([]byte(fingerprint + ":" + refreshToken))
	return hex.EncodeToString(sum[:])
}

// entryFor builds the `jti:sha256(fingerprint:refresh_token)` entry stored
// in the user's session list.
func entryFor(jti, fingerprint, refreshToken string) string {
	return jti + ":" + entryHash(fingerprint, refreshToken)
}

type Store struct {
	cache  ports.Cache
	lock   ports.Lock
	tokens ports.TokenIssuer
}

func New(cache ports.Cache, lock ports.Lock, tokens ports.TokenIssuer) *Store {
	return &Store{cache: cache, lock: lock, tokens: tokens}
}

// MakeToken mints a fresh pair, computes its `jti:sha256(fingerprint:refresh_token)`
// entry, and pushes it onto the user's active session list.
func (s *Store) MakeToken(ctx context.Context, userID uuid.UUID, fingerprint string) (domain.TokenPair, error) {
	jti := uuid.NewString()
	access, refresh, expiresIn, err := s.tokens.IssuePair(userID.String(), accessTTL, refreshTTL, jti, nil)
	if err != nil {
		return domain.TokenPair{}, err
	}
	key := sessionListKey(userID.String())
	entry := entryFor(jti, fingerprint, refresh)
	if err := s.cache.SetList(ctx, key, refreshTTL, entry); err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{Access: access, Refresh: refresh, ExpiresIn: expiresIn, JTI: jti}, nil
}

// Rotate verifies the presented refresh token, confirms its
// `jti:sha256(fingerprint:refresh_token)` entry is still registered for this
// user (replay detection), and atomically swaps it for a freshly minted pair
// that reuses the same jti. The whole check-then-swap runs under a per-user
// lock so two concurrent rotations of the same token can't both succeed.
func (s *Store) Rotate(ctx context.Context, fingerprint, refreshToken string) (domain.TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if claims.Type != domain.TokenRefresh {
		return domain.TokenPair{}, ErrUnknown
	}

	name := lockName(claims.Subject)
	token, err := s.lock.Acquire(ctx, name, lockWait)
	if err != nil {
		return domain.TokenPair{}, err
	}
	defer s.lock.Release(ctx, name, token)

	key := sessionListKey(claims.Subject)
	active, err := s.cache.GetList(ctx, key)
	if err != nil {
		return domain.TokenPair{}, err
	}
	entry := entryFor(claims.JTI, fingerprint, refreshToken)
	if !contains(active, entry) {
		// The entry is gone from the active list: either it expired, it was
		// revoked, or — if the list still has entries for this user — it
		// was already rotated once and this is a replay of an old token.
		// Either way the whole session line is torched so a stolen refresh
		// token can't be used again even if presented out of order.
		_ = s.cache.Delete(ctx, key)
		return domain.TokenPair{}, ErrReplay
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return domain.TokenPair{}, err
	}
	access, refresh, expiresIn, err := s.tokens.IssuePair(claims.Subject, accessTTL, refreshTTL, claims.JTI, nil)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if err := s.cache.Discard(ctx, key, entry); err != nil {
		return domain.TokenPair{}, err
	}
	newEntry := entryFor(claims.JTI, fingerprint, refresh)
	if err := s.cache.SetList(ctx, key, refreshTTL, newEntry); err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{Access: access, Refresh: refresh, ExpiresIn: expiresIn, JTI: claims.JTI}, nil
}

// Revoke removes a single refresh token's entry from the active list,
// reporting whether it had been present.
func (s *Store) Revoke(ctx context.Context, fingerprint, refreshToken string) (bool, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return false, nil
	}
	key := sessionListKey(claims.Subject)
	active, err := s.cache.GetList(ctx, key)
	if err != nil {
		return false, err
	}
	entry := entryFor(claims.JTI, fingerprint, refreshToken)
	if !contains(active, entry) {
		return false, nil
	}
	if err := s.cache.Discard(ctx, key, entry); err != nil {
		return false, err
	}
	return true, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
