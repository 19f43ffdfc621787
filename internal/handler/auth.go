package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ferncreek/porchlight/internal/auth"
	"github.com/ferncreek/porchlight/internal/email"
	"github.com/ferncreek/porchlight/internal/metrics"
	"github.com/ferncreek/porchlight/internal/middleware"
	"github.com/ferncreek/porchlight/internal/store"
)

// AuthConfig is the slice of startup configuration the auth handler needs.
type AuthConfig struct {
	BaseURL            string
	SessionTTL         time.Duration
	ShowAllowlistError bool
	SecureCookie       bool
}

type AuthHandler struct {
	sweeper   *auth.Sweeper
	allowlist *auth.Allowlist
	tokens    *auth.TokenLedger
	sessions  *auth.SessionLedger
	templates *store.TemplateStore
	mail      *email.Client
	collector *metrics.Collector
	cfg       AuthConfig
	logger    *slog.Logger
}

func NewAuthHandler(
	sweeper *auth.Sweeper,
	allowlist *auth.Allowlist,
	tokens *auth.TokenLedger,
	sessions *auth.SessionLedger,
	templates *store.TemplateStore,
	mail *email.Client,
	collector *metrics.Collector,
	cfg AuthConfig,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		sweeper:   sweeper,
		allowlist: allowlist,
		tokens:    tokens,
		sessions:  sessions,
		templates: templates,
		mail:      mail,
		collector: collector,
		cfg:       cfg,
		logger:    logger,
	}
}

// Request handles POST /api/auth/request: issue a magic-link token for
// an allowed email and hand it to mail delivery. The response leaks
// nothing about which emails exist: invalid addresses always get the
// generic acknowledgment, and disallowed ones do too unless the
// explicit-rejection option is on.
func (h *AuthHandler) Request(w http.ResponseWriter, r *http.Request) {
	h.sweep()

	var body struct {
		Email string `json:"email"`
	}
	decodeBody(r, &body)
	emailAddr := strings.ToLower(strings.TrimSpace(body.Email))

	if emailAddr == "" || !auth.IsEmail(emailAddr) {
		h.collector.RecordAuthRequest("invalid")
		respondOK(w)
		return
	}

	if !h.allowlist.IsAllowed(emailAddr) {
		h.collector.RecordAuthRequest("rejected")
		if h.cfg.ShowAllowlistError {
			respondError(w, http.StatusForbidden, "Email is not registered.")
			return
		}
		respondOK(w)
		return
	}

	token, err := h.tokens.Issue(emailAddr)
	if err != nil {
		h.logger.Error("issue token", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	h.collector.RecordTokenIssued()
	h.collector.RecordAuthRequest("sent")

	link := fmt.Sprintf("%s/magic?token=%s", h.cfg.BaseURL, url.QueryEscape(token))
	h.deliver(emailAddr, link)

	respondOK(w)
}

// deliver sends the magic link by mail, or logs it when no mail
// transport is configured (the dev workflow).
func (h *AuthHandler) deliver(emailAddr, link string) {
	if !h.mail.Configured() {
		h.logger.Info("magic link (mail not configured)", "email", emailAddr, "link", link)
		return
	}

	tpl, err := h.templates.Get()
	if err != nil {
		h.logger.Error("load email template", "error", err)
		tpl = store.DefaultEmailTemplate
	}
	if err := h.mail.SendMagicLink(emailAddr, link, tpl); err != nil {
		h.logger.Error("send magic link", "email", emailAddr, "error", err)
		return
	}
	h.logger.Info("magic link sent", "email", emailAddr)
}

// Verify handles POST /api/auth/verify: redeem the token, re-check the
// allowlist (membership may have changed since issuance), create a
// session, and set the session cookie.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	h.sweep()

	var body struct {
		Token string `json:"token"`
	}
	decodeBody(r, &body)
	token := strings.TrimSpace(body.Token)

	emailAddr, err := h.tokens.Redeem(token)
	if err != nil {
		h.collector.RecordRedemption(false)
		if !errors.Is(err, auth.ErrNotFoundOrExpired) {
			h.logger.Error("redeem token", "error", err)
		}
		respondError(w, http.StatusForbidden, "Invalid or expired link.")
		return
	}
	h.collector.RecordRedemption(true)

	if !h.allowlist.IsAllowed(emailAddr) {
		respondError(w, http.StatusForbidden, "Email is not registered.")
		return
	}

	sessionID, err := h.sessions.Create(emailAddr)
	if err != nil {
		h.logger.Error("create session", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	h.collector.RecordSessionCreated()

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(h.cfg.SessionTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cfg.SecureCookie,
	})

	h.logger.Info("signed in", "email", emailAddr)
	respondJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": map[string]string{"email": emailAddr},
	})
}

// Logout handles POST /api/auth/logout: revoke the cookie session, if
// any, and clear the cookie. Always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		h.sessions.Revoke(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cfg.SecureCookie,
	})
	respondOK(w)
}

// Me handles GET /api/me: report the signed-in user, or null.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	h.sweep()

	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		respondJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}
	sess, ok := h.sessions.Get(cookie.Value)
	if !ok {
		respondJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user": map[string]string{"email": sess.Email},
	})
}

func (h *AuthHandler) sweep() {
	tokens, sessions := h.sweeper.Sweep()
	h.collector.RecordSwept(tokens, sessions)
}
