package handler

import (
	"log/slog"
	"net/http"

	"github.com/ferncreek/porchlight/internal/loghub"
	"github.com/ferncreek/porchlight/internal/metrics"
	"github.com/ferncreek/porchlight/internal/websocket"
)

type LogsHandler struct {
	hub       *loghub.Hub
	enabled   bool
	collector *metrics.Collector
	logger    *slog.Logger
}

func NewLogsHandler(hub *loghub.Hub, enabled bool, collector *metrics.Collector, logger *slog.Logger) *LogsHandler {
	return &LogsHandler{
		hub:       hub,
		enabled:   enabled,
		collector: collector,
		logger:    logger,
	}
}

// Enabled handles GET /api/logs/enabled.
func (h *LogsHandler) Enabled(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"enabled": h.enabled})
}

// Stream handles GET /api/logs/stream: a WebSocket that replays the
// buffered history and then follows live events. Returns 404 when the
// log viewer is disabled, so the route reveals nothing in that case.
func (h *LogsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if !h.enabled {
		respondJSON(w, http.StatusNotFound, map[string]any{"ok": false})
		return
	}

	h.collector.SetLogSubscribers(h.hub.SubscriberCount() + 1)
	defer func() {
		h.collector.SetLogSubscribers(h.hub.SubscriberCount())
	}()

	websocket.Handle(h.hub, h.logger)(w, r)
}
