package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"bookkeeping/internal/models"
	"bookkeeping/internal/store"
	"bookkeeping/internal/validator"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type contactRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
	Note  *string `json:"note"`
}

func (req contactRequest) apply(c *models.Contact) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := validator.ValidateContactName(name); err != nil {
			return err
		}
		c.Name = name
	}
	if req.Phone != nil {
		c.Phone = emptyToNil(req.Phone)
	}
	if req.Email != nil {
		c.Email = emptyToNil(req.Email)
		if c.Email != nil {
			if err := validator.ValidateEmail(*c.Email); err != nil {
				return err
			}
		}
	}
	if req.Note != nil {
		c.Note = emptyToNil(req.Note)
	}
	return nil
}

func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, offset, err := pagination(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_pagination")
		return
	}
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	rows, total, err := h.contacts.List(r.Context(), userID, search, limit, offset)
	if err != nil {
		respondServiceError(w, r, err, "unable to list contacts")
		return
	}
	if rows == nil {
		rows = []models.Contact{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"contacts": rows,
		"total":    total,
	})
}

func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == nil {
		respondError(w, http.StatusBadRequest, validator.ErrInvalidContactName.Error())
		return
	}
	now := time.Now().UTC()
	contact := models.Contact{ID: uuid.NewString(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	if err := req.apply(&contact); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.contacts.Create(r.Context(), tx, contact); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{"name": contact.Name})
		return h.audit.Log(r.Context(), tx, userID, "contact.create", "contact", contact.ID, string(data))
	})
	if err != nil {
		respondServiceError(w, r, err, "unable to create contact")
		return
	}
	respondJSON(w, http.StatusCreated, contact)
}

func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	contact, err := h.contacts.Get(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, r, err, "unable to load contact")
		return
	}
	respondJSON(w, http.StatusOK, contact)
}

func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	contact, err := h.contacts.Get(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, r, err, "unable to load contact")
		return
	}
	if err := req.apply(&contact); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	contact.UpdatedAt = time.Now().UTC()
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		rows, err := h.contacts.Update(r.Context(), tx, contact)
		if err != nil {
			return err
		}
		if rows == 0 {
			return store.ErrNotFound
		}
		return h.audit.Log(r.Context(), tx, userID, "contact.update", "contact", id, "")
	})
	if err != nil {
		respondServiceError(w, r, err, "unable to update contact")
		return
	}
	respondJSON(w, http.StatusOK, contact)
}

func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		rows, err := h.contacts.Delete(r.Context(), tx, userID, id)
		if err != nil {
			return err
		}
		if rows == 0 {
			return store.ErrNotFound
		}
		return h.audit.Log(r.Context(), tx, userID, "contact.delete", "contact", id, "")
	})
	if err != nil {
		respondServiceError(w, r, err, "unable to delete contact")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
