package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ferncreek/porchlight/internal/auth"
	"github.com/ferncreek/porchlight/internal/config"
	"github.com/ferncreek/porchlight/internal/email"
	"github.com/ferncreek/porchlight/internal/handler"
	"github.com/ferncreek/porchlight/internal/loghub"
	"github.com/ferncreek/porchlight/internal/metrics"
	"github.com/ferncreek/porchlight/internal/middleware"
	"github.com/ferncreek/porchlight/internal/store"
)

type Server struct {
	cfg         *config.Config
	hub         *loghub.Hub
	sweeper     *auth.Sweeper
	sessions    *auth.SessionLedger
	registry    *prometheus.Registry
	authH       *handler.AuthHandler
	usersH      *handler.UsersHandler
	logsH       *handler.LogsHandler
	templateH   *handler.TemplateHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

// New wires the ledgers, hub, stores, and handlers together. The hub is
// supplied by the caller because the logging setup feeds it before the
// server exists.
func New(cfg *config.Config, db *sql.DB, hub *loghub.Hub, logger *slog.Logger) *Server {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	hub.OnEvent(collector.RecordLogEvent)

	allowlist := auth.NewAllowlist(cfg.AllowedEmails)
	tokens := auth.NewTokenLedger(cfg.TokenTTL)
	sessions := auth.NewSessionLedger(cfg.SessionTTL)
	sweeper := auth.NewSweeper(tokens, sessions)

	templateStore := store.NewTemplateStore(db)
	mailClient := email.NewClient(cfg.PostmarkToken, cfg.MailFrom)

	authCfg := handler.AuthConfig{
		BaseURL:            cfg.BaseURL,
		SessionTTL:         cfg.SessionTTL,
		ShowAllowlistError: cfg.ShowAllowlistError,
		SecureCookie:       cfg.Env == "production",
	}

	return &Server{
		cfg:      cfg,
		hub:      hub,
		sweeper:  sweeper,
		sessions: sessions,
		registry: registry,
		authH: handler.NewAuthHandler(
			sweeper, allowlist, tokens, sessions,
			templateStore, mailClient, collector, authCfg,
			logger.With("component", "auth"),
		),
		usersH:      handler.NewUsersHandler(sweeper, allowlist, sessions, logger.With("component", "users")),
		logsH:       handler.NewLogsHandler(hub, cfg.EnableLogViewer, collector, logger.With("component", "logs")),
		templateH:   handler.NewTemplateHandler(templateStore, logger.With("component", "template")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /api/health", s.healthHandler)
	outerMux.HandleFunc("POST /api/auth/request", s.rateLimitedHandler(s.authH.Request))
	outerMux.HandleFunc("POST /api/auth/verify", s.rateLimitedHandler(s.authH.Verify))
	outerMux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	outerMux.HandleFunc("GET /api/me", s.authH.Me)
	outerMux.HandleFunc("GET /api/logs/enabled", s.logsH.Enabled)
	outerMux.Handle("GET /metrics", metrics.Handler(s.registry))

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sweeper, s.sessions)
	outerMux.Handle("/api/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/users/status", s.usersH.Status)
	mux.HandleFunc("GET /api/users/allowed", s.usersH.Allowed)
	mux.HandleFunc("POST /api/users/allowed", s.usersH.AddAllowed)
	mux.HandleFunc("DELETE /api/users/allowed", s.usersH.RemoveAllowed)

	mux.HandleFunc("GET /api/email-template", s.templateH.Get)
	mux.HandleFunc("POST /api/email-template", s.templateH.Save)

	mux.HandleFunc("GET /api/logs/stream", s.logsH.Stream)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(h).ServeHTTP(w, r)
	}
}
