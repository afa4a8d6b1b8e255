package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordVerifiesRoundtrip(t *testing.T) {
	hash, err := HashPassword("secret123", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "secret123", hash)

	assert.NoError(t, ComparePassword(hash, "secret123"))
	assert.ErrorIs(t, ComparePassword(hash, "secret124"), ErrPasswordMismatch)
}

func TestHashPasswordSaltsFreshly(t *testing.T) {
	first, err := HashPassword("secret123", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := HashPassword("secret123", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NoError(t, ComparePassword(first, "secret123"))
	assert.NoError(t, ComparePassword(second, "secret123"))
}

func TestComparePasswordMalformedHash(t *testing.T) {
	err := ComparePassword("not-a-bcrypt-digest", "secret123")
	assert.ErrorIs(t, err, ErrMalformedHash)
	assert.NotErrorIs(t, err, ErrPasswordMismatch)
}
