package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/ferncreek/porchlight/internal/loghub"
)

// Handle returns an HTTP handler that upgrades the connection to
// WebSocket and streams hub events over it until the client goes away.
func Handle(hub *loghub.Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}
		defer conn.Close(ws.StatusNormalClosure, "")

		NewClient(hub, conn).Run(r.Context())
	}
}
