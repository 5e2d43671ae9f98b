package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptVerifier(t *testing.T) {
	t.Parallel()

	v := &BcryptVerifier{cost: bcrypt.MinCost}

	hash, err := v.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, v.Compare(hash, "correct horse battery staple"))
	assert.ErrorIs(t, v.Compare(hash, "wrong"), ErrInvalidCredentials)
	assert.Error(t, v.Compare("not-a-hash", "anything"))
}

func TestNewBcryptVerifierCost(t *testing.T) {
	t.Parallel()

	hash, err := NewBcryptVerifier().Hash("password123")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, BcryptCost, cost)
}
