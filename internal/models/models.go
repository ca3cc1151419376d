package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeExpense          TransactionType = "expense"
	TypeIncome           TransactionType = "income"
	TypeTransfer         TransactionType = "transfer"
	TypeCreditReceivable TransactionType = "credit_receivable"
	TypeCreditPayable    TransactionType = "credit_payable"
	TypeLoanReceivable   TransactionType = "loan_receivable"
	TypeLoanPayable      TransactionType = "loan_payable"
	TypePaymentReceived  TransactionType = "payment_received"
	TypePaymentMade      TransactionType = "payment_made"
)

var TransactionTypes = []TransactionType{
	TypeExpense, TypeIncome, TypeTransfer,
	TypeCreditReceivable, TypeCreditPayable, TypeLoanReceivable, TypeLoanPayable,
	TypePaymentReceived, TypePaymentMade,
}

var DebtTypes = []TransactionType{TypeCreditReceivable, TypeCreditPayable, TypeLoanReceivable, TypeLoanPayable}

func (t TransactionType) Valid() bool {
	for _, known := range TransactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsDebt reports whether t opens an obligation that payments later settle.
func (t TransactionType) IsDebt() bool {
	switch t {
	case TypeCreditReceivable, TypeCreditPayable, TypeLoanReceivable, TypeLoanPayable:
		return true
	}
	return false
}

func (t TransactionType) IsPayment() bool {
	return t == TypePaymentReceived || t == TypePaymentMade
}

type Account string

const (
	AccountCash Account = "cash"
	AccountBank Account = "bank"
)

func (a Account) Valid() bool {
	return a == AccountCash || a == AccountBank
}

type DebtStatus string

const (
	DebtOpen    DebtStatus = "open"
	DebtPartial DebtStatus = "partial"
	DebtSettled DebtStatus = "settled"
)

func (s DebtStatus) Valid() bool {
	return s == DebtOpen || s == DebtPartial || s == DebtSettled
}

type DraftStatus string

const (
	DraftPending   DraftStatus = "pending"
	DraftConfirmed DraftStatus = "confirmed"
	DraftDiscarded DraftStatus = "discarded"
)

func (s DraftStatus) Valid() bool {
	return s == DraftPending || s == DraftConfirmed || s == DraftDiscarded
}

type User struct {
	ID                string    `db:"id" json:"id"`
	Email             string    `db:"email" json:"email"`
	PasswordHash      string    `db:"password_hash" json:"-"`
	FullName          *string   `db:"full_name" json:"full_name,omitempty"`
	PreferredCurrency string    `db:"preferred_currency" json:"preferred_currency"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

type Contact struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Phone     *string   `db:"phone" json:"phone"`
	Email     *string   `db:"email" json:"email"`
	Note      *string   `db:"note" json:"note"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction is a single ledger row. RemainingAmount and Status are only
// meaningful for debt types; LinkedTransactionID is set on payments that
// reduced a debt.
type Transaction struct {
	ID                  string              `db:"id"`
	UserID              string              `db:"user_id"`
	Date                time.Time           `db:"date"`
	DueDate             *time.Time          `db:"due_date"`
	Amount              decimal.Decimal     `db:"amount"`
	Description         string              `db:"description"`
	Category            *string             `db:"category"`
	Type                TransactionType     `db:"type"`
	Account             Account             `db:"account"`
	ContactName         *string             `db:"contact_name"`
	ContactID           *string             `db:"contact_id"`
	LinkedTransactionID *string             `db:"linked_transaction_id"`
	RemainingAmount     decimal.NullDecimal `db:"remaining_amount"`
	Status              *DebtStatus         `db:"status"`
	Metadata            types.JSONText      `db:"metadata"`
	CreatedAt           time.Time           `db:"created_at"`
	UpdatedAt           time.Time           `db:"updated_at"`
}

type Draft struct {
	ID                  string          `db:"id"`
	UserID              string          `db:"user_id"`
	MessageID           *string         `db:"message_id"`
	Date                time.Time       `db:"date"`
	Amount              decimal.Decimal `db:"amount"`
	Description         string          `db:"description"`
	Category            *string         `db:"category"`
	Type                TransactionType `db:"type"`
	Account             Account         `db:"account"`
	ContactName         *string         `db:"contact_name"`
	ContactID           *string         `db:"contact_id"`
	DueDate             *time.Time      `db:"due_date"`
	LinkedTransactionID *string         `db:"linked_transaction_id"`
	Status              DraftStatus     `db:"status"`
	CreatedAt           time.Time       `db:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at"`
}

type AuditEntry struct {
	ID          string         `db:"id" json:"id"`
	ActorUserID *string        `db:"actor_user_id" json:"actor_user_id"`
	Action      string         `db:"action" json:"action"`
	EntityType  string         `db:"entity_type" json:"entity_type"`
	EntityID    string         `db:"entity_id" json:"entity_id"`
	Data        types.JSONText `db:"data" json:"data"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}
