package logging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ferncreek/porchlight/internal/loghub"
)

// HubHandler is a slog.Handler that forwards every record it handles to
// the log hub, in addition to delegating to the wrapped handler. It is
// how application logging reaches live log viewers.
type HubHandler struct {
	inner slog.Handler
	hub   *loghub.Hub
	attrs []slog.Attr
}

// NewHubHandler wraps inner so handled records are also published to hub.
func NewHubHandler(inner slog.Handler, hub *loghub.Hub) *HubHandler {
	return &HubHandler{inner: inner, hub: hub}
}

func (h *HubHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *HubHandler) Handle(ctx context.Context, record slog.Record) error {
	h.hub.Publish(levelName(record.Level), h.formatMessage(record))
	return h.inner.Handle(ctx, record)
}

func (h *HubHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &HubHandler{inner: h.inner.WithAttrs(attrs), hub: h.hub, attrs: merged}
}

func (h *HubHandler) WithGroup(name string) slog.Handler {
	return &HubHandler{inner: h.inner.WithGroup(name), hub: h.hub, attrs: h.attrs}
}

// formatMessage renders the record's message plus its attrs as a single
// line for the log viewer.
func (h *HubHandler) formatMessage(record slog.Record) string {
	var b strings.Builder
	b.WriteString(record.Message)
	for _, attr := range h.attrs {
		writeAttr(&b, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		writeAttr(&b, attr)
		return true
	})
	return b.String()
}

func writeAttr(b *strings.Builder, attr slog.Attr) {
	b.WriteByte(' ')
	b.WriteString(attr.Key)
	b.WriteByte('=')
	b.WriteString(attr.Value.String())
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
