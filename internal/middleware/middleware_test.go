package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yanizio/formaction/internal/core"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

func TestForceHTTPS(t *testing.T) {
	cases := []struct {
		name     string
		host     string
		tls      bool
		proto    string
		redirect bool
	}{
		{"plain public", "example.com", false, "", true},
		{"tls", "example.com", true, "", false},
		{"proxied tls", "example.com", false, "https", false},
		{"localhost", "localhost:8080", false, "", false},
		{"loopback ip", "127.0.0.1:8080", false, "", false},
	}
	for _, c := range cases {
		r := httptest.NewRequest(http.MethodGet, "http://"+c.host+"/a?b=1", nil)
		r.Host = c.host
		if c.tls {
			r.TLS = &tls.ConnectionState{}
		}
		if c.proto != "" {
			r.Header.Set("X-Forwarded-Proto", c.proto)
		}
		rec := httptest.NewRecorder()
		ForceHTTPS(ok).ServeHTTP(rec, r)

		if c.redirect {
			if rec.Code != http.StatusPermanentRedirect || rec.Header().Get("Location") != "https://example.com/a?b=1" {
				t.Errorf("%s: code=%d location=%q", c.name, rec.Code, rec.Header().Get("Location"))
			}
		} else if rec.Code != http.StatusNoContent {
			t.Errorf("%s: code=%d", c.name, rec.Code)
		}
	}
}

func TestSecurity(t *testing.T) {
	h := Security(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("X-Frame-Options") != "SAMEORIGIN" {
		t.Error("handler override lost")
	}
	for _, k := range []string{"Strict-Transport-Security", "Content-Security-Policy", "X-Content-Type-Options", "Referrer-Policy", "Permissions-Policy"} {
		if rec.Header().Get(k) == "" {
			t.Errorf("missing %s", k)
		}
	}
}

func TestScope(t *testing.T) {
	zc, logs := observer.New(zapcore.InfoLevel)
	var got *core.Context
	h := Scope(zap.New(zc))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = core.FromContext(r.Context())
		got.Log.Info("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	r := httptest.NewRequest(http.MethodPost, "/api/users", nil)
	r.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if got == nil || got.RequestID != "req-123" {
		t.Fatalf("context = %+v", got)
	}
	if rec.Header().Get(RequestIDHeader) != "req-123" {
		t.Error("request id not echoed")
	}
	if logs.Len() != 2 {
		t.Fatalf("log entries = %d", logs.Len())
	}
	for _, e := range logs.All() {
		if e.ContextMap()["request_id"] != "req-123" {
			t.Errorf("%q missing request_id: %v", e.Message, e.ContextMap())
		}
	}
	if status := logs.All()[1].ContextMap()["status"]; status != int64(http.StatusTeapot) {
		t.Errorf("status field = %v (%T)", status, status)
	}
}

func TestScope_GeneratesID(t *testing.T) {
	h := Scope(zap.NewNop())(ok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(rec.Header().Get(RequestIDHeader)) != 36 {
		t.Fatalf("id = %q", rec.Header().Get(RequestIDHeader))
	}
}
