package httpapi

import (
	"net/http"
	"strings"

	"jobsync/marketplace-service/internal/marketplace"
	"jobsync/marketplace-service/internal/metrics"
)

// issueSession handles POST /jwt. The body carries the identity claims.
func (h *Handler) issueSession(w http.ResponseWriter, r *http.Request) {
	var id marketplace.Identity
	if err := decodeJSON(w, r, &id); err != nil {
		h.writeError(w, r, err)
		return
	}
	id.Email = strings.TrimSpace(id.Email)
	if id.Email == "" {
		jsonError(w, "body must contain email", http.StatusBadRequest)
		return
	}

	if err := h.auth.SetCookie(w, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	metrics.SessionsIssuedTotal.Inc()
	jsonOK(w, map[string]bool{"success": true})
}

// revokeSession handles GET /logout.
func (h *Handler) revokeSession(w http.ResponseWriter, r *http.Request) {
	h.auth.ClearCookie(w)
	jsonOK(w, map[string]bool{"success": true})
}
