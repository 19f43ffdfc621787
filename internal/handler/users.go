package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ferncreek/porchlight/internal/auth"
)

// UserStatus is one row of the admin user overview, combining allowlist
// membership with session-derived activity.
type UserStatus struct {
	Email         string     `json:"email"`
	ActiveSession bool       `json:"activeSession"`
	LastLogin     *time.Time `json:"lastLogin"`
	Source        string     `json:"source"`
	AddedAt       *time.Time `json:"addedAt"`
}

type UsersHandler struct {
	sweeper   *auth.Sweeper
	allowlist *auth.Allowlist
	sessions  *auth.SessionLedger
	logger    *slog.Logger
}

func NewUsersHandler(sweeper *auth.Sweeper, allowlist *auth.Allowlist, sessions *auth.SessionLedger, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{
		sweeper:   sweeper,
		allowlist: allowlist,
		sessions:  sessions,
		logger:    logger,
	}
}

// Status handles GET /api/users/status. With an allowlist in place the
// rows are its entries; in open-registration mode the rows are derived
// from whoever currently holds a session, with source "session".
func (h *UsersHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.sweeper.Sweep()

	active := make(map[string]bool)
	for _, email := range h.sessions.ActiveEmails() {
		active[email] = true
	}

	allowed := h.allowlist.List()

	var users []UserStatus
	if len(allowed) > 0 {
		users = make([]UserStatus, 0, len(allowed))
		for _, entry := range allowed {
			users = append(users, h.statusRow(entry.Email, string(entry.Source), entry.AddedAt, active[entry.Email]))
		}
	} else {
		users = make([]UserStatus, 0, len(active))
		for _, email := range h.sessions.ActiveEmails() {
			users = append(users, h.statusRow(email, "session", nil, true))
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "users": users})
}

func (h *UsersHandler) statusRow(email, source string, addedAt *time.Time, active bool) UserStatus {
	row := UserStatus{
		Email:         email,
		ActiveSession: active,
		Source:        source,
		AddedAt:       addedAt,
	}
	if at, ok := h.sessions.LastLogin(email); ok {
		row.LastLogin = &at
	}
	return row
}

// Allowed handles GET /api/users/allowed.
func (h *UsersHandler) Allowed(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "users": h.allowlist.List()})
}

// AddAllowed handles POST /api/users/allowed: add a temporary entry.
func (h *UsersHandler) AddAllowed(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	decodeBody(r, &body)
	emailAddr := strings.ToLower(strings.TrimSpace(body.Email))

	if emailAddr == "" || !auth.IsEmail(emailAddr) {
		respondError(w, http.StatusBadRequest, "Invalid email.")
		return
	}

	if err := h.allowlist.AddTemporary(emailAddr); err != nil {
		if errors.Is(err, auth.ErrAlreadyConfigured) {
			respondError(w, http.StatusConflict, "Email already allowed.")
			return
		}
		h.logger.Error("add allowed email", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	h.logger.Info("temporary email allowed", "email", emailAddr)
	respondOK(w)
}

// RemoveAllowed handles DELETE /api/users/allowed?email=. Removing an
// email that was never added succeeds as a no-op; configured entries
// are protected.
func (h *UsersHandler) RemoveAllowed(w http.ResponseWriter, r *http.Request) {
	emailAddr := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))

	if emailAddr == "" || !auth.IsEmail(emailAddr) {
		respondError(w, http.StatusBadRequest, "Invalid email.")
		return
	}

	if err := h.allowlist.RemoveTemporary(emailAddr); err != nil {
		if errors.Is(err, auth.ErrIsConfigured) {
			respondError(w, http.StatusConflict, "Email is managed by configuration.")
			return
		}
		h.logger.Error("remove allowed email", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	h.logger.Info("temporary email removed", "email", emailAddr)
	respondOK(w)
}
