package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	first, err := h.Hash("Passw0rd!")
	require.NoError(t, err)
	second, err := h.Hash("Passw0rd!")
	require.NoError(t, err)

	assert.NotEqual(t, "Passw0rd!", first)
	assert.NotEqual(t, first, second, "equal passwords must not share a hash")
	assert.True(t, h.Verify("Passw0rd!", first))
	assert.True(t, h.Verify("Passw0rd!", second))
	assert.False(t, h.Verify("passw0rd!", first))
	assert.False(t, h.Verify("Passw0rd!", "not-a-bcrypt-hash"))
}

func TestNewBcryptHasher_CostBounds(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}

func TestBcryptHasher_TooLong(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	long := make([]byte, 100)
	for i := range long {
		long[i] = 'a'
	}
	_, err := h.Hash(string(long))
	assert.Error(t, err)
}
