package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/ferncreek/porchlight/internal/auth"
)

// SessionCookieName is the cookie carrying the session identifier.
const SessionCookieName = "porchlight_session"

// RequireAuth sweeps expired rows, then validates the session cookie
// and populates the request context with the session. Requests without
// a live session get a 401 JSON body.
func RequireAuth(sweeper *auth.Sweeper, sessions *auth.SessionLedger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sweeper.Sweep()

			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, ok := sessions.Get(cookie.Value)
			if !ok {
				unauthorized(w)
				return
			}

			ctx := auth.WithSession(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{"ok": false, "message": "Unauthorized"})
}
