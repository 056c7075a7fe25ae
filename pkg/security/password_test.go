package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.NoError(t, h.Compare(hash, "secret123"))
	assert.Error(t, h.Compare(hash, "wrong-pass"))
}

func TestBcryptHasherRejectsShortPasswords(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	_, err := h.Hash("abc")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}
