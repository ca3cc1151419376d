package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"bookkeeping/internal/db"
	"bookkeeping/internal/ledger"
	"bookkeeping/internal/models"
	"bookkeeping/internal/money"
	"bookkeeping/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidType            = errors.New("invalid transaction type")
	ErrInvalidAccount         = errors.New("invalid account")
	ErrInvalidDebtState       = errors.New("remaining amount and status disagree")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrDebtNotFound           = errors.New("debt not found")
	ErrContactNotFound        = errors.New("contact not found")
	ErrDraftNotFound          = errors.New("draft not found")
	ErrDraftNotPending        = errors.New("draft is not pending")
	ErrConcurrentModification = errors.New("concurrent modification")
)

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, t models.Transaction) error
	GetForUpdate(ctx context.Context, tx store.Getter, userID, id string) (models.Transaction, error)
	ListOpenDebtsForUpdate(ctx context.Context, tx store.Selecter, filter store.DebtFilter) ([]models.Transaction, error)
	UpdateDebt(ctx context.Context, tx store.Execer, id string, remaining decimal.Decimal, status models.DebtStatus) error
	Update(ctx context.Context, tx store.Execer, t models.Transaction) (int64, error)
	Delete(ctx context.Context, tx store.Execer, userID, id string) (int64, error)
	ListAllByUser(ctx context.Context, userID string) ([]models.Transaction, error)
}

type DraftStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter, userID, id string) (models.Draft, error)
	UpdateStatus(ctx context.Context, tx store.Execer, id string, status models.DraftStatus) error
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type BalanceHub interface {
	BroadcastBalances(userID string, balances ledger.Balances)
}

// LedgerService owns every write that changes a user's balances.
type LedgerService struct {
	txRunner     db.TxRunner
	transactions TransactionStore
	drafts       DraftStore
	resolver     *ContactResolver
	audit        AuditStore
	hub          BalanceHub
	log          zerolog.Logger
	now          func() time.Time
}

func NewLedgerService(txRunner db.TxRunner, transactions TransactionStore, drafts DraftStore, resolver *ContactResolver, audit AuditStore, hub BalanceHub, log zerolog.Logger) *LedgerService {
	return &LedgerService{
		txRunner:     txRunner,
		transactions: transactions,
		drafts:       drafts,
		resolver:     resolver,
		audit:        audit,
		hub:          hub,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

type TransactionInput struct {
	UserID              string
	Date                time.Time
	Amount              decimal.Decimal
	Description         string
	Category            *string
	Type                models.TransactionType
	Account             models.Account
	ContactName         *string
	ContactID           *string
	DueDate             *time.Time
	LinkedTransactionID *string
	Metadata            types.JSONText
}

// CreateResult lists the rows a submission produced, oldest first. Unapplied is the part
// of a payment that exceeded every candidate debt and was dropped.
type CreateResult struct {
	Transactions []models.Transaction
	Unapplied    decimal.Decimal
}

func (r CreateResult) First() models.Transaction {
	if len(r.Transactions) == 0 {
		return models.Transaction{}
	}
	return r.Transactions[0]
}

// CreateTransaction records a submission. Debt types open a debt, payment types are
// allocated across the user's open debts, and everything else is stored as given.
func (s *LedgerService) CreateTransaction(ctx context.Context, input TransactionInput) (CreateResult, error) {
	base, err := s.prepare(input)
	if err != nil {
		return CreateResult{}, err
	}
	var result CreateResult
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		result = CreateResult{}
		contactID, err := s.resolver.Resolve(ctx, tx, base.UserID, input.ContactID, deref(input.ContactName))
		if err != nil {
			return err
		}
		record := base
		record.ContactID = contactID
		switch {
		case record.Type.IsDebt():
			ledger.OpenDebt(&record)
			created, err := s.insert(ctx, tx, record)
			if err != nil {
				return err
			}
			result.Transactions = []models.Transaction{created}
		case record.Type.IsPayment():
			result, err = s.settle(ctx, tx, record)
			if err != nil {
				return err
			}
		default:
			created, err := s.insert(ctx, tx, record)
			if err != nil {
				return err
			}
			result.Transactions = []models.Transaction{created}
		}
		return nil
	})
	if err != nil {
		return CreateResult{}, translateTxError(err)
	}
	if result.Unapplied.IsPositive() {
		s.log.Warn().
			Str("user_id", base.UserID).
			Str("unapplied", money.Format(result.Unapplied)).
			Msg("payment exceeded open debts; excess dropped")
	}
	s.log.Info().
		Str("user_id", base.UserID).
		Str("type", string(base.Type)).
		Int("records", len(result.Transactions)).
		Msg("transaction recorded")
	s.publish(ctx, base.UserID)
	return result, nil
}

// settle allocates a payment: the explicitly linked debt first, then the contact's open
// debts of the matching direction oldest first. One payment row is written per debt
// touched; with no candidates the payment is stored standalone.
func (s *LedgerService) settle(ctx context.Context, tx *sqlx.Tx, payment models.Transaction) (CreateResult, error) {
	var candidates []models.Transaction
	if payment.LinkedTransactionID != nil {
		debt, err := s.lockDebt(ctx, tx, payment.UserID, *payment.LinkedTransactionID)
		if err != nil {
			return CreateResult{}, err
		}
		candidates = append(candidates, debt)
	}
	contactName := deref(payment.ContactName)
	if payment.ContactID != nil || contactName != "" {
		open, err := s.transactions.ListOpenDebtsForUpdate(ctx, tx, store.DebtFilter{
			UserID:      payment.UserID,
			Types:       ledger.SettledBy(payment.Type),
			ContactID:   payment.ContactID,
			ContactName: contactName,
			ExcludeID:   payment.LinkedTransactionID,
		})
		if err != nil {
			return CreateResult{}, err
		}
		candidates = append(candidates, open...)
	}
	if len(candidates) == 0 {
		payment.LinkedTransactionID = nil
		created, err := s.insert(ctx, tx, payment)
		if err != nil {
			return CreateResult{}, err
		}
		return CreateResult{Transactions: []models.Transaction{created}}, nil
	}

	allocations, unapplied := ledger.Allocate(payment.Amount, candidates)
	result := CreateResult{Unapplied: unapplied}
	for _, allocation := range allocations {
		if err := s.transactions.UpdateDebt(ctx, tx, allocation.DebtID, allocation.Remaining, allocation.Status); err != nil {
			return CreateResult{}, err
		}
		debtID := allocation.DebtID
		row := payment
		row.Amount = allocation.Applied
		row.LinkedTransactionID = &debtID
		created, err := s.insert(ctx, tx, row)
		if err != nil {
			return CreateResult{}, err
		}
		result.Transactions = append(result.Transactions, created)
	}
	if unapplied.IsPositive() {
		data, _ := json.Marshal(map[string]string{
			"type":      string(payment.Type),
			"amount":    money.Format(payment.Amount),
			"unapplied": money.Format(unapplied),
		})
		if err := s.audit.Log(ctx, tx, payment.UserID, "payment.unapplied", "transaction", result.First().ID, string(data)); err != nil {
			return CreateResult{}, err
		}
	}
	return result, nil
}

// ConfirmDraft turns a pending draft into one transaction. A payment draft reduces at most
// the debt it links to; it never spreads across other debts.
func (s *LedgerService) ConfirmDraft(ctx context.Context, userID, draftID string) (models.Transaction, error) {
	var created models.Transaction
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		draft, err := s.drafts.GetForUpdate(ctx, tx, userID, draftID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrDraftNotFound
			}
			return err
		}
		if draft.Status != models.DraftPending {
			return ErrDraftNotPending
		}
		record, err := s.prepare(TransactionInput{
			UserID:              userID,
			Date:                draft.Date,
			Amount:              draft.Amount,
			Description:         draft.Description,
			Category:            draft.Category,
			Type:                draft.Type,
			Account:             draft.Account,
			ContactName:         draft.ContactName,
			DueDate:             draft.DueDate,
			LinkedTransactionID: draft.LinkedTransactionID,
		})
		if err != nil {
			return err
		}
		contactID, err := s.resolver.Resolve(ctx, tx, userID, draft.ContactID, deref(draft.ContactName))
		if err != nil {
			return err
		}
		record.ContactID = contactID
		if record.Type.IsDebt() {
			ledger.OpenDebt(&record)
		}
		if record.Type.IsPayment() && record.LinkedTransactionID != nil {
			debt, err := s.lockDebt(ctx, tx, userID, *record.LinkedTransactionID)
			if err != nil {
				return err
			}
			allocations, _ := ledger.Allocate(record.Amount, []models.Transaction{debt})
			for _, allocation := range allocations {
				if err := s.transactions.UpdateDebt(ctx, tx, allocation.DebtID, allocation.Remaining, allocation.Status); err != nil {
					return err
				}
			}
		}
		created, err = s.insert(ctx, tx, record)
		if err != nil {
			return err
		}
		if err := s.drafts.UpdateStatus(ctx, tx, draft.ID, models.DraftConfirmed); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{"transaction_id": created.ID})
		return s.audit.Log(ctx, tx, userID, "draft.confirm", "draft", draft.ID, string(data))
	})
	if err != nil {
		return models.Transaction{}, translateTxError(err)
	}
	s.log.Info().Str("user_id", userID).Str("draft_id", draftID).Str("transaction_id", created.ID).Msg("draft confirmed")
	s.publish(ctx, userID)
	return created, nil
}

// TransactionPatch carries an explicit user edit. Nil fields are left unchanged.
type TransactionPatch struct {
	Amount              *decimal.Decimal
	Description         *string
	Category            *string
	Type                *models.TransactionType
	Account             *models.Account
	ContactName         *string
	ContactID           *string
	DueDate             *time.Time
	LinkedTransactionID *string
	RemainingAmount     *decimal.Decimal
	Status              *models.DebtStatus
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, userID, id string, patch TransactionPatch) (models.Transaction, error) {
	var updated models.Transaction
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.transactions.GetForUpdate(ctx, tx, userID, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		next, err := applyPatch(current, patch)
		if err != nil {
			return err
		}
		if patch.ContactID != nil {
			next.ContactID, err = s.resolver.Resolve(ctx, tx, userID, patch.ContactID, "")
			if err != nil {
				return err
			}
		}
		next.UpdatedAt = s.now()
		if _, err := s.transactions.Update(ctx, tx, next); err != nil {
			return err
		}
		updated = next
		data, _ := json.Marshal(map[string]string{
			"amount": money.Format(next.Amount),
			"type":   string(next.Type),
		})
		return s.audit.Log(ctx, tx, userID, "transaction.update", "transaction", id, string(data))
	})
	if err != nil {
		return models.Transaction{}, translateTxError(err)
	}
	s.publish(ctx, userID)
	return updated, nil
}

// applyPatch merges patch into t and re-derives the debt fields so that a debt is
// settled exactly when nothing remains.
func applyPatch(t models.Transaction, patch TransactionPatch) (models.Transaction, error) {
	if patch.Amount != nil {
		if !patch.Amount.IsPositive() {
			return t, ErrInvalidAmount
		}
		t.Amount = *patch.Amount
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Category != nil {
		t.Category = patch.Category
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return t, ErrInvalidType
		}
		t.Type = *patch.Type
	}
	if patch.Account != nil {
		if !patch.Account.Valid() {
			return t, ErrInvalidAccount
		}
		t.Account = *patch.Account
	}
	if patch.ContactName != nil {
		t.ContactName = patch.ContactName
	}
	if patch.DueDate != nil {
		t.DueDate = patch.DueDate
	}
	if patch.LinkedTransactionID != nil {
		t.LinkedTransactionID = patch.LinkedTransactionID
	}

	if !t.Type.IsDebt() {
		t.RemainingAmount = decimal.NullDecimal{}
		t.Status = nil
		return t, nil
	}
	if patch.RemainingAmount != nil {
		if patch.RemainingAmount.IsNegative() {
			return t, ErrInvalidAmount
		}
		t.RemainingAmount = decimal.NewNullDecimal(*patch.RemainingAmount)
	}
	if !t.RemainingAmount.Valid {
		t.RemainingAmount = decimal.NewNullDecimal(t.Amount)
	}
	remaining := t.RemainingAmount.Decimal
	status := ledger.Transition(t.Amount, remaining)
	if patch.Status != nil {
		if !patch.Status.Valid() || (*patch.Status == models.DebtSettled) != remaining.IsZero() {
			return t, ErrInvalidDebtState
		}
		status = *patch.Status
	}
	t.Status = &status
	return t, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id string) error {
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.transactions.Delete(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrTransactionNotFound
		}
		return s.audit.Log(ctx, tx, userID, "transaction.delete", "transaction", id, "")
	})
	if err != nil {
		return translateTxError(err)
	}
	s.publish(ctx, userID)
	return nil
}

// Balances folds every transaction of the user into the four running totals.
func (s *LedgerService) Balances(ctx context.Context, userID string) (ledger.Balances, error) {
	rows, err := s.transactions.ListAllByUser(ctx, userID)
	if err != nil {
		return ledger.Balances{}, err
	}
	return ledger.Aggregate(rows), nil
}

func (s *LedgerService) prepare(input TransactionInput) (models.Transaction, error) {
	if !input.Amount.IsPositive() {
		return models.Transaction{}, ErrInvalidAmount
	}
	if !input.Type.Valid() {
		return models.Transaction{}, ErrInvalidType
	}
	account := input.Account
	if account == "" {
		account = models.AccountCash
	}
	if !account.Valid() {
		return models.Transaction{}, ErrInvalidAccount
	}
	now := s.now()
	date := input.Date
	if date.IsZero() {
		date = now
	}
	return models.Transaction{
		UserID:              input.UserID,
		Date:                date,
		DueDate:             input.DueDate,
		Amount:              input.Amount,
		Description:         input.Description,
		Category:            input.Category,
		Type:                input.Type,
		Account:             account,
		ContactName:         input.ContactName,
		LinkedTransactionID: input.LinkedTransactionID,
		Metadata:            input.Metadata,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

func (s *LedgerService) insert(ctx context.Context, tx *sqlx.Tx, record models.Transaction) (models.Transaction, error) {
	record.ID = uuid.NewString()
	if err := s.transactions.Create(ctx, tx, record); err != nil {
		return models.Transaction{}, err
	}
	fields := map[string]string{
		"type":   string(record.Type),
		"amount": money.Format(record.Amount),
	}
	if record.LinkedTransactionID != nil {
		fields["linked_transaction_id"] = *record.LinkedTransactionID
	}
	data, _ := json.Marshal(fields)
	if err := s.audit.Log(ctx, tx, record.UserID, "transaction.create", "transaction", record.ID, string(data)); err != nil {
		return models.Transaction{}, err
	}
	return record, nil
}

func (s *LedgerService) lockDebt(ctx context.Context, tx *sqlx.Tx, userID, id string) (models.Transaction, error) {
	debt, err := s.transactions.GetForUpdate(ctx, tx, userID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Transaction{}, ErrDebtNotFound
		}
		return models.Transaction{}, err
	}
	return debt, nil
}

func (s *LedgerService) publish(ctx context.Context, userID string) {
	if s.hub == nil {
		return
	}
	balances, err := s.Balances(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("balance push skipped")
		return
	}
	s.hub.BroadcastBalances(userID, balances)
}

func translateTxError(err error) error {
	if errors.Is(err, db.ErrRetryLimit) {
		return ErrConcurrentModification
	}
	return err
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
