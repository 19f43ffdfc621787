package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ferncreek/porchlight/internal/config"
	"github.com/ferncreek/porchlight/internal/database"
	"github.com/ferncreek/porchlight/internal/loghub"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Port:          "8787",
		BaseURL:       "http://localhost:8787",
		Env:           "development",
		TokenTTL:      15 * time.Minute,
		SessionTTL:    time.Hour,
		LogBufferSize: 50,
		LogLevel:      "info",
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := loghub.NewHub(cfg.LogBufferSize, logger)
	return New(cfg, db, hub, logger).Router()
}

func TestPublicRoutes(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		method, path string
		want         int
	}{
		{"GET", "/api/health", http.StatusOK},
		{"GET", "/api/me", http.StatusOK},
		{"GET", "/api/logs/enabled", http.StatusOK},
		{"GET", "/metrics", http.StatusOK},
		{"POST", "/api/auth/logout", http.StatusOK},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(c.method, c.path, nil))
		if rec.Code != c.want {
			t.Errorf("%s %s = %d, want %d", c.method, c.path, rec.Code, c.want)
		}
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct{ method, path string }{
		{"GET", "/api/users/status"},
		{"GET", "/api/users/allowed"},
		{"POST", "/api/users/allowed"},
		{"DELETE", "/api/users/allowed"},
		{"GET", "/api/email-template"},
		{"POST", "/api/email-template"},
		{"GET", "/api/logs/stream"},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(c.method, c.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s = %d, want 401 without session", c.method, c.path, rec.Code)
		}
	}
}

func TestSignInFlowThroughRouter(t *testing.T) {
	router := newTestRouter(t)

	// Request a link (open registration, mail unconfigured → logged).
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/auth/request", strings.NewReader(`{"email":"user@x.com"}`))
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("request status = %d, want 200", rec.Code)
	}

	// A protected route is still closed: requesting a link is not
	// signing in.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/users/status", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status without verify = %d, want 401", rec.Code)
	}
}
