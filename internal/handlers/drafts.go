package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"bookkeeping/internal/models"
	"bookkeeping/internal/services"
	"bookkeeping/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const maxDraftBatch = 100

type draftRequest struct {
	entryFields
	MessageID *string `json:"message_id"`
}

func (req draftRequest) draft(userID string, now time.Time) models.Draft {
	d := models.Draft{
		ID:                  uuid.NewString(),
		UserID:              userID,
		MessageID:           emptyToNil(req.MessageID),
		Date:                now,
		Amount:              req.Amount.Value,
		Description:         strings.TrimSpace(req.Description),
		Category:            emptyToNil(req.Category),
		Type:                models.TransactionType(req.Type),
		Account:             models.Account(req.Account),
		ContactName:         req.ContactName,
		ContactID:           req.ContactID,
		DueDate:             req.DueDate.time(),
		LinkedTransactionID: req.LinkedTransactionID,
		Status:              models.DraftPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if req.Date != nil {
		d.Date = req.Date.Value
	}
	if d.Account == "" {
		d.Account = models.AccountCash
	}
	return d
}

func (h *Handler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, offset, err := pagination(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_pagination")
		return
	}
	status := models.DraftPending
	if raw := r.URL.Query().Get("status"); raw != "" {
		status = models.DraftStatus(raw)
		if !status.Valid() {
			respondError(w, http.StatusBadRequest, "invalid_status")
			return
		}
	}
	rows, total, err := h.drafts.List(r.Context(), userID, status, limit, offset)
	if err != nil {
		respondServiceError(w, r, err, "unable to list drafts")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"drafts": newDraftResponses(rows),
		"total":  total,
	})
}

func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, decodeError(err))
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	draft := req.draft(userID, time.Now().UTC())
	if err := h.saveDrafts(r, userID, []models.Draft{draft}); err != nil {
		respondServiceError(w, r, err, "unable to create draft")
		return
	}
	respondJSON(w, http.StatusCreated, newDraftResponse(draft))
}

// CreateDraftBatch stores every draft of the request or none of them.
func (h *Handler) CreateDraftBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Drafts []draftRequest `json:"drafts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, decodeError(err))
		return
	}
	if len(req.Drafts) == 0 || len(req.Drafts) > maxDraftBatch {
		respondError(w, http.StatusBadRequest, "invalid batch size")
		return
	}
	now := time.Now().UTC()
	drafts := make([]models.Draft, 0, len(req.Drafts))
	for i := range req.Drafts {
		if err := req.Drafts[i].validate(); err != nil {
			respondError(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		drafts = append(drafts, req.Drafts[i].draft(userID, now))
	}
	if err := h.saveDrafts(r, userID, drafts); err != nil {
		respondServiceError(w, r, err, "unable to create drafts")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"drafts": newDraftResponses(drafts),
		"total":  len(drafts),
	})
}

func (h *Handler) saveDrafts(r *http.Request, userID string, drafts []models.Draft) error {
	return h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		for _, d := range drafts {
			if err := h.drafts.Create(r.Context(), tx, d); err != nil {
				return err
			}
			if err := h.audit.Log(r.Context(), tx, userID, "draft.create", "draft", d.ID, ""); err != nil {
				return err
			}
		}
		return nil
	})
}

func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	draft, err := h.drafts.GetByID(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, r, err, "unable to load draft")
		return
	}
	respondJSON(w, http.StatusOK, newDraftResponse(draft))
}

// UpdateDraft replaces the editable fields of a pending draft. The body carries the full
// entry, as when the draft was created.
func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, decodeError(err))
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	current, err := h.drafts.GetByID(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, r, err, "unable to load draft")
		return
	}
	if current.Status != models.DraftPending {
		respondServiceError(w, r, services.ErrDraftNotPending, "")
		return
	}
	next := req.draft(userID, time.Now().UTC())
	next.ID = current.ID
	next.MessageID = current.MessageID
	next.CreatedAt = current.CreatedAt
	if req.Date == nil {
		next.Date = current.Date
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		rows, err := h.drafts.Update(r.Context(), tx, next)
		if err != nil {
			return err
		}
		if rows == 0 {
			return services.ErrDraftNotPending
		}
		return h.audit.Log(r.Context(), tx, userID, "draft.update", "draft", id, "")
	})
	if err != nil {
		respondServiceError(w, r, err, "unable to update draft")
		return
	}
	respondJSON(w, http.StatusOK, newDraftResponse(next))
}

func (h *Handler) ConfirmDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	created, err := h.ledger.ConfirmDraft(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, r, err, "unable to confirm draft")
		return
	}
	respondJSON(w, http.StatusCreated, newTransactionResponse(created))
}

func (h *Handler) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		rows, err := h.drafts.Discard(r.Context(), tx, userID, id)
		if err != nil {
			return err
		}
		if rows == 0 {
			return h.draftNotPendingOrMissing(r, userID, id)
		}
		return h.audit.Log(r.Context(), tx, userID, "draft.discard", "draft", id, "")
	})
	if err != nil {
		respondServiceError(w, r, err, "unable to discard draft")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(models.DraftDiscarded)})
}

// draftNotPendingOrMissing explains why a pending-only write touched no rows.
func (h *Handler) draftNotPendingOrMissing(r *http.Request, userID, id string) error {
	if _, err := h.drafts.GetByID(r.Context(), userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return services.ErrDraftNotFound
		}
		return err
	}
	return services.ErrDraftNotPending
}

func (h *Handler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		rows, err := h.drafts.Delete(r.Context(), tx, userID, id)
		if err != nil {
			return err
		}
		if rows == 0 {
			return services.ErrDraftNotFound
		}
		return h.audit.Log(r.Context(), tx, userID, "draft.delete", "draft", id, "")
	})
	if err != nil {
		respondServiceError(w, r, err, "unable to delete draft")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
