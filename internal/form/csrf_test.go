package form

import (
	"bytes"
	"testing"
	"time"
)

func newTestCSRF(t *testing.T) *CSRF {
	t.Helper()
	c, err := NewCSRF(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatalf("NewCSRF: %v", err)
	}
	return c
}

func TestCSRF_RoundTrip(t *testing.T) {
	c := newTestCSRF(t)
	tok, err := c.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !c.Verify(tok) {
		t.Fatal("fresh token rejected")
	}
}

func TestCSRF_Rejects(t *testing.T) {
	c := newTestCSRF(t)
	tok, _ := c.Generate()

	other, _ := NewCSRF(bytes.Repeat([]byte{9}, 32))
	if other.Verify(tok) {
		t.Error("token verified under a different key")
	}

	tampered := []byte(tok)
	tampered[0] ^= 1
	if c.Verify(string(tampered)) {
		t.Error("tampered token accepted")
	}

	for _, bad := range []string{"", "!!!", "c2hvcnQ"} {
		if c.Verify(bad) {
			t.Errorf("%q accepted", bad)
		}
	}
}

func TestCSRF_Expiry(t *testing.T) {
	c := newTestCSRF(t)
	base := time.Date(2024, 4, 5, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	tok, _ := c.Generate()

	c.now = func() time.Time { return base.Add(MaxAge + time.Second) }
	if c.Verify(tok) {
		t.Error("expired token accepted")
	}

	c.now = func() time.Time { return base.Add(-2 * time.Minute) }
	if c.Verify(tok) {
		t.Error("future token accepted")
	}
}

func TestNewCSRF_ShortKey(t *testing.T) {
	if _, err := NewCSRF([]byte("short")); err != ErrShortKey {
		t.Fatalf("err = %v", err)
	}
	if len(RandomKey()) != 32 {
		t.Fatal("RandomKey length")
	}
}
