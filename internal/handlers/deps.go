package handlers

import (
	"context"

	"bookkeeping/internal/ledger"
	"bookkeeping/internal/models"
	"bookkeeping/internal/services"
	"bookkeeping/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, user models.User) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
}

type ContactStore interface {
	Create(ctx context.Context, tx store.Execer, c models.Contact) error
	Get(ctx context.Context, userID, id string) (models.Contact, error)
	List(ctx context.Context, userID, search string, limit, offset int) ([]models.Contact, int, error)
	Update(ctx context.Context, tx store.Execer, c models.Contact) (int64, error)
	Delete(ctx context.Context, tx store.Execer, userID, id string) (int64, error)
}

type TransactionStore interface {
	GetByID(ctx context.Context, userID, id string) (models.Transaction, error)
	ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, int, error)
	ListAllByUser(ctx context.Context, userID string) ([]models.Transaction, error)
	ListOpenDebts(ctx context.Context, filter store.DebtFilter) ([]models.Transaction, error)
	ListPayments(ctx context.Context, userID, debtID string) ([]models.Transaction, error)
}

type DraftStore interface {
	Create(ctx context.Context, tx store.Execer, d models.Draft) error
	GetByID(ctx context.Context, userID, id string) (models.Draft, error)
	List(ctx context.Context, userID string, status models.DraftStatus, limit, offset int) ([]models.Draft, int, error)
	Update(ctx context.Context, tx store.Execer, d models.Draft) (int64, error)
	Discard(ctx context.Context, tx store.Execer, userID, id string) (int64, error)
	Delete(ctx context.Context, tx store.Execer, userID, id string) (int64, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	ListByActor(ctx context.Context, actorID string, limit, offset int) ([]models.AuditEntry, error)
}

type LedgerService interface {
	CreateTransaction(ctx context.Context, input services.TransactionInput) (services.CreateResult, error)
	ConfirmDraft(ctx context.Context, userID, draftID string) (models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id string, patch services.TransactionPatch) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error
	Balances(ctx context.Context, userID string) (ledger.Balances, error)
}
