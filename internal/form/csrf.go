// internal/form/csrf.go
//
// Forms subsystem: stateless CSRF token utilities.
//
// Context
//   Rendered forms embed a hidden `csrf_token` input.  The server verifies it
//   on POST to ensure the request came from a form it rendered.  The token is
//   stateless:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(key, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – issue time, 8 bytes, big-endian.
//   •  HMAC – keyed with the configured secret.
//
//   Verification checks the signature and that the timestamp lies within
//   MaxAge.  No server-side sessions are needed, so any instance sharing the
//   key can verify.
//
// Workflow
//   •  NewCSRF(key)   → signer; key must be at least 32 bytes.
//   •  Generate()     → token string for the renderer.
//   •  Verify(tok)    → constant-time check; false on any failure.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"
)

const (
	tokenBytes = 16 + 8 + sha256.Size // nonce + ts + sig
	csrfField  = "csrf_token"
	minKeyLen  = 32

	// MaxAge is the token validity window.
	MaxAge = 2 * time.Hour
)

// ErrShortKey is returned for keys under 32 bytes.
var ErrShortKey = errors.New("csrf key must be at least 32 bytes")

// CSRF issues and verifies tokens with one key.
type CSRF struct {
	key []byte
	now func() time.Time
}

// NewCSRF returns a signer for key.
func NewCSRF(key []byte) (*CSRF, error) {
	if len(key) < minKeyLen {
		return nil, ErrShortKey
	}
	return &CSRF{key: key, now: time.Now}, nil
}

// DecodeKey parses a base64url (unpadded) key as stored in config.
func DecodeKey(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}

// RandomKey returns a fresh 32-byte key.  Tokens die with the process, so
// this is for development only.
func RandomKey() []byte {
	k := make([]byte, minKeyLen)
	_, _ = rand.Read(k)
	return k
}

// Generate creates a new token.  Call once per render.
func (c *CSRF) Generate() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(c.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, c.sign(nonce, ts)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify returns true if tok passes HMAC and age checks.
func (c *CSRF) Verify(tok string) bool {
	if tok == "" {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce, ts, sig := raw[:16], raw[16:24], raw[24:]

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(ts)))
	now := c.now()
	if now.Sub(issued) > MaxAge || issued.Sub(now) > time.Minute {
		// Older than MaxAge, or from the future beyond clock skew.
		return false
	}

	return hmac.Equal(sig, c.sign(nonce, ts))
}

func (c *CSRF) sign(nonce, ts []byte) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write(nonce)
	mac.Write(ts)
	return mac.Sum(nil)
}
