package store

import (
	"context"
	"strings"

	"bookkeeping/internal/models"
)

const contactColumns = `id, user_id, name, phone, email, note, created_at, updated_at`

type ContactStore struct {
	db DB
}

func NewContactStore(db DB) *ContactStore {
	return &ContactStore{db: db}
}

func (s *ContactStore) Create(ctx context.Context, tx Execer, c models.Contact) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO contacts (id, user_id, name, phone, email, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, c.UserID, c.Name, c.Phone, c.Email, c.Note, timestampOrNow(c.CreatedAt), timestampOrNow(c.UpdatedAt))
	return err
}

// FindIDByName looks a contact up by case-insensitive exact name.
func (s *ContactStore) FindIDByName(ctx context.Context, tx Getter, userID, name string) (string, error) {
	var id string
	err := tx.GetContext(ctx, &id, `
		SELECT id
		FROM contacts
		WHERE user_id = $1 AND lower(name) = lower($2)
		LIMIT 1
	`, userID, name)
	if err != nil {
		return "", notFound(err)
	}
	return id, nil
}

// InsertIfAbsent creates a name-only contact unless one with the same case-insensitive
// name exists. It reports whether a row was inserted.
func (s *ContactStore) InsertIfAbsent(ctx context.Context, tx Execer, id, userID, name string) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO contacts (id, user_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, (lower(name))) DO NOTHING
	`, id, userID, name)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (s *ContactStore) GetByID(ctx context.Context, tx Getter, userID, id string) (models.Contact, error) {
	var row models.Contact
	err := tx.GetContext(ctx, &row, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return models.Contact{}, notFound(err)
	}
	return row, nil
}

// Get reads a contact outside of a unit of work.
func (s *ContactStore) Get(ctx context.Context, userID, id string) (models.Contact, error) {
	return s.GetByID(ctx, s.db, userID, id)
}

// List pages a user's contacts by name; search matches any substring, case-insensitively.
func (s *ContactStore) List(ctx context.Context, userID, search string, limit, offset int) ([]models.Contact, int, error) {
	where := " WHERE user_id = $1"
	args := []any{userID}
	if search != "" {
		where += " AND name ILIKE $2"
		args = append(args, "%"+escapeLike(search)+"%")
	}
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM contacts`+where, args...); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + contactColumns + ` FROM contacts` + where +
		" ORDER BY name LIMIT $" + itoa(len(args)+1) + " OFFSET $" + itoa(len(args)+2)
	args = append(args, limit, offset)
	var rows []models.Contact
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *ContactStore) Update(ctx context.Context, tx Execer, c models.Contact) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE contacts
		SET name = $1, phone = $2, email = $3, note = $4, updated_at = NOW()
		WHERE id = $5 AND user_id = $6
	`, c.Name, c.Phone, c.Email, c.Note, c.ID, c.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *ContactStore) Delete(ctx context.Context, tx Execer, userID, id string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
