package security

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"rentdesk/internal/app/services/auth"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.ErrorIs(t, h.Compare(hash, "battery staple"), auth.ErrInvalidCredentials)
}

func TestBcryptHasherCostFallback(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, BcryptHasher{}.cost())
	assert.Equal(t, bcrypt.DefaultCost, BcryptHasher{Cost: 99}.cost())
	assert.Equal(t, 5, BcryptHasher{Cost: 5}.cost())
}

func TestSessionTokensAreDistinct(t *testing.T) {
	g := SessionTokens{}
	a, err := g.NewToken()
	require.NoError(t, err)
	b, err := g.NewToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)

	short, err := SessionTokens{Bytes: 3}.NewToken()
	require.NoError(t, err)
	assert.Len(t, short, 4)
}

func TestSessionTokensUseSource(t *testing.T) {
	tok, err := SessionTokens{Bytes: 3, Source: bytes.NewReader([]byte{0xfb, 0xff, 0x01})}.NewToken()
	require.NoError(t, err)
	assert.Equal(t, "-_8B", tok)

	_, err = SessionTokens{Bytes: 8, Source: bytes.NewReader([]byte{1, 2})}.NewToken()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
