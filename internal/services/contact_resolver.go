package services

import (
	"context"
	"errors"
	"strings"

	"bookkeeping/internal/models"
	"bookkeeping/internal/store"

	"github.com/google/uuid"
)

type ContactStore interface {
	FindIDByName(ctx context.Context, tx store.Getter, userID, name string) (string, error)
	InsertIfAbsent(ctx context.Context, tx store.Execer, id, userID, name string) (bool, error)
	GetByID(ctx context.Context, tx store.Getter, userID, id string) (models.Contact, error)
}

// ContactResolver maps the contact fields of a request to a contact id. Transaction
// creation and draft confirmation both go through it.
type ContactResolver struct {
	contacts ContactStore
}

func NewContactResolver(contacts ContactStore) *ContactResolver {
	return &ContactResolver{contacts: contacts}
}

// Resolve returns contactID when given (after checking the user owns it), otherwise the
// id of the user's contact whose name matches name case-insensitively, creating a
// name-only contact when none exists. With neither it returns nil.
func (r *ContactResolver) Resolve(ctx context.Context, tx store.Tx, userID string, contactID *string, name string) (*string, error) {
	if contactID != nil && *contactID != "" {
		if _, err := r.contacts.GetByID(ctx, tx, userID, *contactID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrContactNotFound
			}
			return nil, err
		}
		id := *contactID
		return &id, nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	id, err := r.contacts.FindIDByName(ctx, tx, userID, name)
	if err == nil {
		return &id, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	newID := uuid.NewString()
	inserted, err := r.contacts.InsertIfAbsent(ctx, tx, newID, userID, name)
	if err != nil {
		return nil, err
	}
	if inserted {
		return &newID, nil
	}
	// lost the race to a concurrent insert of the same name
	id, err = r.contacts.FindIDByName(ctx, tx, userID, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
