package store

import (
	"context"

	"bookkeeping/internal/models"
)

const draftColumns = `id, user_id, message_id, date, amount, description, category, type, account,
	contact_name, contact_id, due_date, linked_transaction_id, status, created_at, updated_at`

type DraftStore struct {
	db DB
}

func NewDraftStore(db DB) *DraftStore {
	return &DraftStore{db: db}
}

func (s *DraftStore) Create(ctx context.Context, tx Execer, d models.Draft) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO drafts (id, user_id, message_id, date, amount, description, category, type, account,
			contact_name, contact_id, due_date, linked_transaction_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, d.ID, d.UserID, d.MessageID, d.Date, d.Amount, d.Description, d.Category, d.Type, d.Account,
		d.ContactName, d.ContactID, d.DueDate, d.LinkedTransactionID, d.Status,
		timestampOrNow(d.CreatedAt), timestampOrNow(d.UpdatedAt))
	return err
}

func (s *DraftStore) GetByID(ctx context.Context, userID, id string) (models.Draft, error) {
	var row models.Draft
	err := s.db.GetContext(ctx, &row, `
		SELECT `+draftColumns+`
		FROM drafts
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return models.Draft{}, notFound(err)
	}
	return row, nil
}

// GetForUpdate locks the draft so it can be confirmed or discarded at most once.
func (s *DraftStore) GetForUpdate(ctx context.Context, tx Getter, userID, id string) (models.Draft, error) {
	var row models.Draft
	err := tx.GetContext(ctx, &row, `
		SELECT `+draftColumns+`
		FROM drafts
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, id, userID)
	if err != nil {
		return models.Draft{}, notFound(err)
	}
	return row, nil
}

func (s *DraftStore) List(ctx context.Context, userID string, status models.DraftStatus, limit, offset int) ([]models.Draft, int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM drafts WHERE user_id = $1 AND status = $2
	`, userID, status); err != nil {
		return nil, 0, err
	}
	var rows []models.Draft
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+draftColumns+`
		FROM drafts
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, userID, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *DraftStore) Update(ctx context.Context, tx Execer, d models.Draft) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE drafts
		SET date = $1, amount = $2, description = $3, category = $4, type = $5, account = $6,
		    contact_name = $7, contact_id = $8, due_date = $9, linked_transaction_id = $10, updated_at = NOW()
		WHERE id = $11 AND user_id = $12 AND status = 'pending'
	`, d.Date, d.Amount, d.Description, d.Category, d.Type, d.Account,
		d.ContactName, d.ContactID, d.DueDate, d.LinkedTransactionID, d.ID, d.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *DraftStore) UpdateStatus(ctx context.Context, tx Execer, id string, status models.DraftStatus) error {
	_, err := tx.ExecContext(ctx, `UPDATE drafts SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	return err
}

// Discard marks a pending draft discarded. Zero rows means the draft is missing or no
// longer pending.
func (s *DraftStore) Discard(ctx context.Context, tx Execer, userID, id string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE drafts SET status = 'discarded', updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status = 'pending'
	`, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *DraftStore) Delete(ctx context.Context, tx Execer, userID, id string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM drafts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
