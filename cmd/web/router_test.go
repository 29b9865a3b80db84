package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yanizio/formaction/internal/config"
	"github.com/yanizio/formaction/internal/form"
	"github.com/yanizio/formaction/internal/middleware"
)

func testRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	forms := form.NewRegistry()
	require.NoError(t, forms.Load("../.."))

	csrf, err := newCSRF(config.CSRF{}, zap.NewNop())
	require.NoError(t, err)

	store, closeFn, err := openStore(context.Background(), config.Store{Driver: "memory"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(closeFn)

	h, err := newRouter(routerDeps{cfg: cfg, log: zap.NewNop(), forms: forms, csrf: csrf, store: store})
	require.NoError(t, err)
	return h
}

func TestRouter_Endpoints(t *testing.T) {
	h := testRouter(t, &config.Config{Action: config.Action{Timeout: time.Second}})

	cases := []struct {
		method, path, body string
		status             int
		contains           string
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK, "ok"},
		{http.MethodGet, "/metrics", "", http.StatusOK, "go_goroutines"},
		{http.MethodGet, "/", "", http.StatusFound, ""},
		{http.MethodGet, "/users/new", "", http.StatusOK, `name="csrf_token"`},
		{http.MethodPost, "/users", `{"name":"Ann","email":"ann@example.com","age":30}`, http.StatusOK, `"success":true`},
		{http.MethodPost, "/users", `[1]`, http.StatusBadRequest, "Request body must be a JSON object."},
	}
	for _, c := range cases {
		r := httptest.NewRequest(c.method, c.path, strings.NewReader(c.body))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)

		assert.Equal(t, c.status, rec.Code, "%s %s", c.method, c.path)
		assert.Contains(t, rec.Body.String(), c.contains, "%s %s", c.method, c.path)
		assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader), "%s %s", c.method, c.path)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	}
}

func TestRouter_ForceHTTPS(t *testing.T) {
	h := testRouter(t, &config.Config{HTTP: config.HTTP{ForceHTTPS: true}})
	r := httptest.NewRequest(http.MethodGet, "http://forms.example.com/users/new", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, _, err := openStore(context.Background(), config.Store{Driver: "etcd"}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewCSRF_BadKey(t *testing.T) {
	_, err := newCSRF(config.CSRF{Key: "short"}, zap.NewNop())
	assert.Error(t, err)
}
