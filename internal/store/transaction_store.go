package store

import (
	"context"
	"strings"

	"bookkeeping/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, user_id, date, due_date, amount, description, category, type, account,
	contact_name, contact_id, linked_transaction_id, remaining_amount, status, metadata, created_at, updated_at`

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// DebtFilter selects unsettled debts of a user. ContactID takes precedence over
// ContactName; with neither set every unsettled debt of the given types matches.
type DebtFilter struct {
	UserID      string
	Types       []models.TransactionType
	ContactID   *string
	ContactName string
	ExcludeID   *string
}

func (s *TransactionStore) Create(ctx context.Context, tx Execer, t models.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, date, due_date, amount, description, category, type, account,
			contact_name, contact_id, linked_transaction_id, remaining_amount, status, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := tx.ExecContext(ctx, query,
		t.ID, t.UserID, t.Date, t.DueDate, t.Amount, t.Description, t.Category, t.Type, t.Account,
		t.ContactName, t.ContactID, t.LinkedTransactionID, t.RemainingAmount, t.Status, metadataOrEmpty(t.Metadata),
		timestampOrNow(t.CreatedAt), timestampOrNow(t.UpdatedAt),
	)
	return err
}

func (s *TransactionStore) GetByID(ctx context.Context, userID, id string) (models.Transaction, error) {
	var row models.Transaction
	err := s.db.GetContext(ctx, &row, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return models.Transaction{}, notFound(err)
	}
	return row, nil
}

// GetForUpdate reads a transaction and locks its row until the surrounding unit of work ends.
func (s *TransactionStore) GetForUpdate(ctx context.Context, tx Getter, userID, id string) (models.Transaction, error) {
	var row models.Transaction
	err := tx.GetContext(ctx, &row, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, id, userID)
	if err != nil {
		return models.Transaction{}, notFound(err)
	}
	return row, nil
}

// ListOpenDebtsForUpdate returns matching unsettled debts oldest first and locks them.
func (s *TransactionStore) ListOpenDebtsForUpdate(ctx context.Context, tx Selecter, filter DebtFilter) ([]models.Transaction, error) {
	query, args := openDebtsQuery(filter, true)
	var rows []models.Transaction
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TransactionStore) ListOpenDebts(ctx context.Context, filter DebtFilter) ([]models.Transaction, error) {
	query, args := openDebtsQuery(filter, false)
	var rows []models.Transaction
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func openDebtsQuery(filter DebtFilter, forUpdate bool) (string, []any) {
	types := filter.Types
	if len(types) == 0 {
		types = models.DebtTypes
	}
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	var b strings.Builder
	b.WriteString(`
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND type = ANY($2) AND COALESCE(status, 'open') <> 'settled'`)
	args := []any{filter.UserID, pq.Array(names)}
	if filter.ContactID != nil {
		args = append(args, *filter.ContactID)
		b.WriteString(" AND contact_id = $" + itoa(len(args)))
	} else if filter.ContactName != "" {
		args = append(args, filter.ContactName)
		b.WriteString(" AND lower(contact_name) = lower($" + itoa(len(args)) + ")")
	}
	if filter.ExcludeID != nil {
		args = append(args, *filter.ExcludeID)
		b.WriteString(" AND id <> $" + itoa(len(args)))
	}
	b.WriteString(" ORDER BY date ASC, id ASC")
	if forUpdate {
		b.WriteString(" FOR UPDATE")
	}
	return b.String(), args
}

func (s *TransactionStore) UpdateDebt(ctx context.Context, tx Execer, id string, remaining decimal.Decimal, status models.DebtStatus) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET remaining_amount = $1, status = $2, updated_at = NOW()
		WHERE id = $3
	`, remaining, status, id)
	return err
}

// Update overwrites the user-editable fields of a transaction.
func (s *TransactionStore) Update(ctx context.Context, tx Execer, t models.Transaction) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET amount = $1, description = $2, category = $3, type = $4, account = $5,
		    contact_name = $6, contact_id = $7, due_date = $8, linked_transaction_id = $9,
		    remaining_amount = $10, status = $11, updated_at = NOW()
		WHERE id = $12 AND user_id = $13
	`, t.Amount, t.Description, t.Category, t.Type, t.Account,
		t.ContactName, t.ContactID, t.DueDate, t.LinkedTransactionID,
		t.RemainingAmount, t.Status, t.ID, t.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *TransactionStore) Delete(ctx context.Context, tx Execer, userID, id string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByUser pages a user's transactions newest first and reports the unpaged total.
func (s *TransactionStore) ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, int, error) {
	where := " WHERE user_id = $1"
	args := []any{userID}
	if txType != "" {
		where += " AND type = $2"
		args = append(args, txType)
	}
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM transactions`+where, args...); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions` + where +
		" ORDER BY date DESC LIMIT $" + itoa(len(args)+1) + " OFFSET $" + itoa(len(args)+2)
	args = append(args, limit, offset)
	var rows []models.Transaction
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListAllByUser returns every transaction of a user, oldest first.
func (s *TransactionStore) ListAllByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = $1
		ORDER BY date ASC, id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPayments returns the payments that settled part of debtID.
func (s *TransactionStore) ListPayments(ctx context.Context, userID, debtID string) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE linked_transaction_id = $1 AND user_id = $2 AND type IN ('payment_received', 'payment_made')
		ORDER BY date ASC
	`, debtID, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func metadataOrEmpty(raw []byte) string {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return "{}"
	}
	return string(raw)
}
