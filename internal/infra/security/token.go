package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"rentdesk/internal/app/services/auth"
)

const defaultTokenBytes = 32

// SessionTokens mints the opaque bearer tokens handed out at login. Entropy comes from
// crypto/rand unless Source is set.
type SessionTokens struct {
	Bytes  int
	Source io.Reader
}

func (g SessionTokens) NewToken() (string, error) {
	n := g.Bytes
	if n <= 0 {
		n = defaultTokenBytes
	}
	src := g.Source
	if src == nil {
		src = rand.Reader
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(src, raw); err != nil {
		return "", fmt.Errorf("session token: read %d random bytes: %w", n, err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

var _ auth.TokenGenerator = SessionTokens{}
