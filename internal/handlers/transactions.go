package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bookkeeping/internal/export"
	"bookkeeping/internal/models"
	"bookkeeping/internal/services"
	"bookkeeping/internal/store"
	"bookkeeping/internal/validator"

	"github.com/jmoiron/sqlx/types"
)

type createTransactionRequest struct {
	entryFields
	Metadata types.JSONText `json:"metadata"`
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, offset, err := pagination(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_pagination")
		return
	}
	txType := r.URL.Query().Get("type")
	if txType != "" {
		if err := validator.ValidateType(txType); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_type")
			return
		}
	}
	rows, total, err := h.transactions.ListByUser(r.Context(), userID, txType, limit, offset)
	if err != nil {
		respondServiceError(w, r, err, "unable to list transactions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"transactions": newTransactionResponses(rows),
		"total":        total,
	})
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, decodeError(err))
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	input := services.TransactionInput{
		UserID:              userID,
		Amount:              req.Amount.Value,
		Description:         strings.TrimSpace(req.Description),
		Category:            emptyToNil(req.Category),
		Type:                models.TransactionType(req.Type),
		Account:             models.Account(req.Account),
		ContactName:         req.ContactName,
		ContactID:           req.ContactID,
		DueDate:             req.DueDate.time(),
		LinkedTransactionID: req.LinkedTransactionID,
		Metadata:            req.Metadata,
	}
	if req.Date != nil {
		input.Date = req.Date.Value
	}
	result, err := h.ledger.CreateTransaction(r.Context(), input)
	if err != nil {
		respondServiceError(w, r, err, "unable to create transaction")
		return
	}
	respondJSON(w, http.StatusCreated, newTransactionResponse(result.First()))
}

func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	balances, err := h.ledger.Balances(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err, "unable to compute balances")
		return
	}
	respondJSON(w, http.StatusOK, newBalancesResponse(balances))
}

// ListOpenDebts previews the debts a payment for the given contact would settle, in the
// order they would be settled.
func (h *Handler) ListOpenDebts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	filter := store.DebtFilter{
		UserID:      userID,
		ContactName: strings.TrimSpace(query.Get("contact_name")),
	}
	if contactID := emptyToNil(stringPtr(query.Get("contact_id"))); contactID != nil {
		if err := validateOptionalID(contactID); err != nil {
			respondError(w, http.StatusBadRequest, "invalid contact_id")
			return
		}
		filter.ContactID = contactID
	}
	rows, err := h.transactions.ListOpenDebts(r.Context(), filter)
	if err != nil {
		respondServiceError(w, r, err, "unable to list open debts")
		return
	}
	respondJSON(w, http.StatusOK, newTransactionResponses(rows))
}

func (h *Handler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	rows, err := h.transactions.ListAllByUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err, "unable to export transactions")
		return
	}
	balances, err := h.ledger.Balances(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err, "unable to export transactions")
		return
	}
	filename := fmt.Sprintf("transactions-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := export.WriteWorkbook(w, rows, balances); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("export failed")
	}
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	row, err := h.transactions.GetByID(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, r, err, "unable to load transaction")
		return
	}
	respondJSON(w, http.StatusOK, newTransactionResponse(row))
}

func (h *Handler) ListDebtPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	debt, err := h.transactions.GetByID(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, r, err, "unable to load transaction")
		return
	}
	if !debt.Type.IsDebt() {
		respondError(w, http.StatusBadRequest, "not_a_debt")
		return
	}
	rows, err := h.transactions.ListPayments(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, r, err, "unable to list payments")
		return
	}
	respondJSON(w, http.StatusOK, newTransactionResponses(rows))
}

type updateTransactionRequest struct {
	Amount              amountField `json:"amount"`
	Description         *string     `json:"description"`
	Category            *string     `json:"category"`
	Type                *string     `json:"type"`
	Account             *string     `json:"account"`
	ContactName         *string     `json:"contact_name"`
	ContactID           *string     `json:"contact_id"`
	DueDate             *dateField  `json:"due_date"`
	LinkedTransactionID *string     `json:"linked_transaction_id"`
	RemainingAmount     amountField `json:"remaining_amount"`
	Status              *string     `json:"status"`
}

func (req updateTransactionRequest) patch() (services.TransactionPatch, error) {
	var patch services.TransactionPatch
	if req.Amount.Set {
		amount := req.Amount.Value
		patch.Amount = &amount
	}
	if req.RemainingAmount.Set {
		remaining := req.RemainingAmount.Value
		patch.RemainingAmount = &remaining
	}
	if req.Description != nil {
		if err := validator.ValidateDescription(*req.Description); err != nil {
			return patch, err
		}
		description := strings.TrimSpace(*req.Description)
		patch.Description = &description
	}
	if req.Type != nil {
		if err := validator.ValidateType(*req.Type); err != nil {
			return patch, err
		}
		txType := models.TransactionType(*req.Type)
		patch.Type = &txType
	}
	if req.Account != nil {
		if err := validator.ValidateAccount(*req.Account); err != nil || *req.Account == "" {
			return patch, validator.ErrInvalidAccount
		}
		account := models.Account(*req.Account)
		patch.Account = &account
	}
	if req.Status != nil {
		status := models.DebtStatus(*req.Status)
		if !status.Valid() {
			return patch, services.ErrInvalidDebtState
		}
		patch.Status = &status
	}
	if err := validateOptionalID(req.ContactID); err != nil {
		return patch, err
	}
	if err := validateOptionalID(req.LinkedTransactionID); err != nil {
		return patch, err
	}
	patch.Category = req.Category
	patch.ContactName = req.ContactName
	patch.ContactID = req.ContactID
	patch.DueDate = req.DueDate.time()
	patch.LinkedTransactionID = req.LinkedTransactionID
	return patch, nil
}

func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, decodeError(err))
		return
	}
	patch, err := req.patch()
	if err != nil {
		if errors.Is(err, services.ErrInvalidDebtState) {
			respondServiceError(w, r, err, "")
			return
		}
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	updated, err := h.ledger.UpdateTransaction(r.Context(), userID, id, patch)
	if err != nil {
		respondServiceError(w, r, err, "unable to update transaction")
		return
	}
	respondJSON(w, http.StatusOK, newTransactionResponse(updated))
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.ledger.DeleteTransaction(r.Context(), userID, id); err != nil {
		respondServiceError(w, r, err, "unable to delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func stringPtr(value string) *string {
	return &value
}
