package handler

import (
	"net/http"
	"strconv"

	"github.com/Dan9191/microfund/internal/apperror"
)

// Stats returns platform-wide aggregates
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ledger.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, stats)
}

// Ledger returns the most recent audit entries
func (h *Handler) Ledger(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(w, r, apperror.BadRequest("limit must be an integer"))
			return
		}
		limit = n
	}
	entries, err := h.ledger.Recent(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, entries)
}
