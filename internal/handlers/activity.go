package handlers

import (
	"net/http"

	"bookkeeping/internal/models"
)

// ListActivity returns the caller's audit trail, newest first.
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, offset, err := pagination(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_pagination")
		return
	}
	rows, err := h.audit.ListByActor(r.Context(), userID, limit, offset)
	if err != nil {
		respondServiceError(w, r, err, "unable to list activity")
		return
	}
	if rows == nil {
		rows = []models.AuditEntry{}
	}
	respondJSON(w, http.StatusOK, rows)
}
