package credentials

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, h.Verify("correct horse", hash))
	assert.False(t, h.Verify("wrong horse", hash))
}

func TestHasher_HashIsSalted(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	first, err := h.Hash("pw")
	require.NoError(t, err)
	second, err := h.Hash("pw")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestHasher_HashRejects(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	t.Run("empty password", func(t *testing.T) {
		_, err := h.Hash("")
		assert.ErrorIs(t, err, ErrEmptyPassword)
	})

	t.Run("password longer than 72 bytes", func(t *testing.T) {
		_, err := h.Hash(strings.Repeat("a", 73))
		assert.ErrorIs(t, err, ErrPasswordTooLong)
	})
}

func TestHasher_VerifyCorruptCredential(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	assert.False(t, h.Verify("pw", "not-a-bcrypt-hash"))
	assert.False(t, h.Verify("pw", "!oauth"))
	assert.False(t, h.Verify("pw", ""))
	assert.False(t, h.Verify("", "$2a$04$abcdefghijklmnopqrstuu"))
}

func TestNewHasher_CostOutOfRange(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(99).cost)
	assert.Equal(t, 12, NewHasher(12).cost)
}
