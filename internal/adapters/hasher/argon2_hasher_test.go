package hasher_test

import (
	"testing"

	"github.com/IANDYI/authguard/internal/adapters/hasher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() hasher.Params {
	return hasher.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func TestArgon2Hasher_HashVerifyRoundtrip(t *testing.T) {
	h := hasher.New(testParams())

	encoded, err := h.Hash("correct-horse-battery-staple")
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)
	assert.True(t, h.Verify(encoded, "correct-horse-battery-staple"))
}

func TestArgon2Hasher_VerifyFalseOnWrongPassword(t *testing.T) {
	h := hasher.New(testParams())

	encoded, err := h.Hash("correct-horse-battery-staple")
	require.NoError(t, err)
	assert.False(t, h.Verify(encoded, "wrong-password"))
}

func TestArgon2Hasher_VerifyFalseOnMalformedHash(t *testing.T) {
	h := hasher.New(testParams())

	assert.False(t, h.Verify("not-a-real-hash", "anything"))
	assert.False(t, h.Verify("$argon2id$v=19$m=8192,t=1,p=1$onlyonepart", "anything"))
}

func TestArgon2Hasher_EachHashUsesAFreshSalt(t *testing.T) {
	h := hasher.New(testParams())

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify(first, "same-password"))
	assert.True(t, h.Verify(second, "same-password"))
}
