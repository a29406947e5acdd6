package token_test

import (
	"testing"
	"time"

	"github.com/IANDYI/authguard/internal/adapters/token"
	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTIssuer_IssuePairAndVerifyRoundtrip(t *testing.T) {
	issuer := token.New("test-secret", "authguard", "authguard-clients")
	sub := uuid.New().String()
	jti := uuid.New().String()

	access, refresh, expiresIn, err := issuer.IssuePair(sub, 15*time.Minute, 24*time.Hour, jti, map[string]any{"email": "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, int64((24 * time.Hour).Seconds()), expiresIn)

	accessClaims, err := issuer.Verify(access)
	require.NoError(t, err)
	assert.Equal(t, sub, accessClaims.Subject)
	assert.Equal(t, domain.TokenAccess, accessClaims.Type)
	assert.Equal(t, jti, accessClaims.JTI)
	assert.Equal(t, "a@b.com", accessClaims.Extra["email"])

	refreshClaims, err := issuer.Verify(refresh)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenRefresh, refreshClaims.Type)
	assert.Equal(t, jti, refreshClaims.JTI, "access and refresh share one jti")
}

func TestJWTIssuer_VerifyRejectsExpiredToken(t *testing.T) {
	issuer := token.New("test-secret", "authguard", "authguard-clients")

	access, _, _, err := issuer.IssuePair(uuid.New().String(), -1*time.Minute, time.Hour, uuid.New().String(), nil)
	require.NoError(t, err)

	_, err = issuer.Verify(access)
	assert.Error(t, err)
}

func TestJWTIssuer_VerifyRejectsWrongSecret(t *testing.T) {
	signer := token.New("secret-a", "authguard", "authguard-clients")
	verifier := token.New("secret-b", "authguard", "authguard-clients")

	access, _, _, err := signer.IssuePair(uuid.New().String(), time.Hour, time.Hour, uuid.New().String(), nil)
	require.NoError(t, err)

	_, err = verifier.Verify(access)
	assert.Error(t, err)
}

func TestJWTIssuer_VerifyRejectsWrongAudience(t *testing.T) {
	issuer := token.New("test-secret", "authguard", "authguard-clients")
	other := token.New("test-secret", "authguard", "some-other-audience")

	access, _, _, err := issuer.IssuePair(uuid.New().String(), time.Hour, time.Hour, uuid.New().String(), nil)
	require.NoError(t, err)

	_, err = other.Verify(access)
	assert.Error(t, err)
}
