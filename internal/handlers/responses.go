package handlers

import (
	"time"

	"bookkeeping/internal/ledger"
	"bookkeeping/internal/models"
	"bookkeeping/internal/money"

	"github.com/jmoiron/sqlx/types"
)

type transactionResponse struct {
	ID                  string                 `json:"id"`
	UserID              string                 `json:"user_id"`
	Date                time.Time              `json:"date"`
	DueDate             *time.Time             `json:"due_date"`
	Amount              string                 `json:"amount"`
	Description         string                 `json:"description"`
	Category            *string                `json:"category"`
	Type                models.TransactionType `json:"type"`
	Account             models.Account         `json:"account"`
	ContactName         *string                `json:"contact_name"`
	ContactID           *string                `json:"contact_id"`
	LinkedTransactionID *string                `json:"linked_transaction_id"`
	RemainingAmount     *string                `json:"remaining_amount"`
	Status              *models.DebtStatus     `json:"status"`
	Metadata            types.JSONText         `json:"metadata"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

func newTransactionResponse(t models.Transaction) transactionResponse {
	return transactionResponse{
		ID:                  t.ID,
		UserID:              t.UserID,
		Date:                t.Date,
		DueDate:             t.DueDate,
		Amount:              money.Format(t.Amount),
		Description:         t.Description,
		Category:            t.Category,
		Type:                t.Type,
		Account:             t.Account,
		ContactName:         t.ContactName,
		ContactID:           t.ContactID,
		LinkedTransactionID: t.LinkedTransactionID,
		RemainingAmount:     money.FormatNull(t.RemainingAmount),
		Status:              t.Status,
		Metadata:            t.Metadata,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
}

func newTransactionResponses(rows []models.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, newTransactionResponse(row))
	}
	return out
}

type draftResponse struct {
	ID                  string                 `json:"id"`
	UserID              string                 `json:"user_id"`
	MessageID           *string                `json:"message_id"`
	Date                time.Time              `json:"date"`
	Amount              string                 `json:"amount"`
	Description         string                 `json:"description"`
	Category            *string                `json:"category"`
	Type                models.TransactionType `json:"type"`
	Account             models.Account         `json:"account"`
	ContactName         *string                `json:"contact_name"`
	ContactID           *string                `json:"contact_id"`
	DueDate             *time.Time             `json:"due_date"`
	LinkedTransactionID *string                `json:"linked_transaction_id"`
	Status              models.DraftStatus     `json:"status"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

func newDraftResponse(d models.Draft) draftResponse {
	return draftResponse{
		ID:                  d.ID,
		UserID:              d.UserID,
		MessageID:           d.MessageID,
		Date:                d.Date,
		Amount:              money.Format(d.Amount),
		Description:         d.Description,
		Category:            d.Category,
		Type:                d.Type,
		Account:             d.Account,
		ContactName:         d.ContactName,
		ContactID:           d.ContactID,
		DueDate:             d.DueDate,
		LinkedTransactionID: d.LinkedTransactionID,
		Status:              d.Status,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

func newDraftResponses(rows []models.Draft) []draftResponse {
	out := make([]draftResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, newDraftResponse(row))
	}
	return out
}

type balancesResponse struct {
	Cash   string `json:"cash"`
	Bank   string `json:"bank"`
	Credit string `json:"credit"`
	Loan   string `json:"loan"`
}

func newBalancesResponse(b ledger.Balances) balancesResponse {
	return balancesResponse{
		Cash:   money.Format(b.Cash),
		Bank:   money.Format(b.Bank),
		Credit: money.Format(b.Credit),
		Loan:   money.Format(b.Loan),
	}
}
