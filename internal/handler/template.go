package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/ferncreek/porchlight/internal/store"
)

type TemplateHandler struct {
	templates *store.TemplateStore
	logger    *slog.Logger
}

func NewTemplateHandler(templates *store.TemplateStore, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{templates: templates, logger: logger}
}

// Get handles GET /api/email-template.
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.templates.Get()
	if err != nil {
		h.logger.Error("get email template", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "template": tpl})
}

// Save handles POST /api/email-template. Fields are trimmed; blanks are
// stored as-is and fall back to defaults on read.
func (h *TemplateHandler) Save(w http.ResponseWriter, r *http.Request) {
	var body store.EmailTemplate
	if !decodeBody(r, &body) {
		respondError(w, http.StatusBadRequest, "Invalid body.")
		return
	}

	tpl := store.EmailTemplate{
		Subject:    strings.TrimSpace(body.Subject),
		Heading:    strings.TrimSpace(body.Heading),
		Body:       strings.TrimSpace(body.Body),
		ButtonText: strings.TrimSpace(body.ButtonText),
		Footer:     strings.TrimSpace(body.Footer),
	}

	if err := h.templates.Save(tpl); err != nil {
		h.logger.Error("save email template", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	respondOK(w)
}
