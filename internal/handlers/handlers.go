package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bookkeeping/internal/db"
	"bookkeeping/internal/logger"
	"bookkeeping/internal/middleware"
	"bookkeeping/internal/services"
	"bookkeeping/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain and storage errors to a status code. Anything
// unrecognised is logged and reported as a 500 with the given fallback message.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid_amount")
	case errors.Is(err, services.ErrInvalidType):
		respondError(w, http.StatusBadRequest, "invalid_type")
	case errors.Is(err, services.ErrInvalidAccount):
		respondError(w, http.StatusBadRequest, "invalid_account")
	case errors.Is(err, services.ErrInvalidDebtState):
		respondError(w, http.StatusBadRequest, "invalid_debt_state")
	case errors.Is(err, services.ErrDraftNotPending):
		respondError(w, http.StatusBadRequest, "draft_not_pending")
	case errors.Is(err, services.ErrTransactionNotFound), errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, services.ErrDebtNotFound):
		respondError(w, http.StatusNotFound, "debt_not_found")
	case errors.Is(err, services.ErrContactNotFound):
		respondError(w, http.StatusNotFound, "contact_not_found")
	case errors.Is(err, services.ErrDraftNotFound):
		respondError(w, http.StatusNotFound, "draft_not_found")
	case errors.Is(err, services.ErrConcurrentModification), errors.Is(err, db.ErrRetryLimit):
		respondError(w, http.StatusConflict, "concurrent_modification")
	case db.IsUniqueViolation(err):
		respondError(w, http.StatusConflict, "already_exists")
	default:
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg(fallback)
		respondError(w, http.StatusInternalServerError, fallback)
	}
}

func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
	}
	return userID, ok
}

// pathID reads the {id} route parameter. Malformed ids cannot name a row, so they are
// reported as not found.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusNotFound, "not_found")
		return "", false
	}
	return id, true
}

// pagination reads skip and limit. Limit must be within 1..500 and defaults to 100.
func pagination(r *http.Request) (limit, offset int, err error) {
	limit = defaultLimit
	query := r.URL.Query()
	if raw := query.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxLimit {
			return 0, 0, errInvalidPagination
		}
	}
	if raw := query.Get("skip"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, errInvalidPagination
		}
	}
	return limit, offset, nil
}
