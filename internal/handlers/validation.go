package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"bookkeeping/internal/money"
	"bookkeeping/internal/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	errInvalidAmount     = errors.New("invalid amount")
	errInvalidDate       = errors.New("invalid date")
	errInvalidID         = errors.New("invalid id")
	errInvalidPagination = errors.New("invalid pagination")
)

// amountField accepts a JSON number or string with at most two decimal places and a
// magnitude below 10^12.
type amountField struct {
	Value decimal.Decimal
	Set   bool
}

func (a *amountField) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	if raw == "null" {
		return nil
	}
	raw = strings.Trim(raw, `"`)
	value, err := money.Parse(raw)
	if err != nil {
		return errInvalidAmount
	}
	a.Value = value
	a.Set = true
	return nil
}

// dateField accepts RFC 3339 timestamps or plain YYYY-MM-DD dates, normalised to UTC.
type dateField struct {
	Value time.Time
}

func (d *dateField) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errInvalidDate
	}
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			d.Value = parsed.UTC()
			return nil
		}
	}
	return errInvalidDate
}

func (d *dateField) time() *time.Time {
	if d == nil {
		return nil
	}
	value := d.Value
	return &value
}

// decodeError turns a body decoding failure into the message returned to the client.
func decodeError(err error) string {
	switch {
	case errors.Is(err, errInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, errInvalidDate):
		return "invalid_date"
	}
	return "invalid payload"
}

func validateOptionalID(value *string) error {
	if value == nil || *value == "" {
		return nil
	}
	if _, err := uuid.Parse(*value); err != nil {
		return errInvalidID
	}
	return nil
}

// emptyToNil treats "" as absent for optional text fields.
func emptyToNil(value *string) *string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}

// entryFields is the shape shared by transaction and draft submissions.
type entryFields struct {
	Amount              amountField `json:"amount"`
	Description         string      `json:"description"`
	Category            *string     `json:"category"`
	Type                string      `json:"type"`
	Account             string      `json:"account"`
	ContactName         *string     `json:"contact_name"`
	ContactID           *string     `json:"contact_id"`
	Date                *dateField  `json:"date"`
	DueDate             *dateField  `json:"due_date"`
	LinkedTransactionID *string     `json:"linked_transaction_id"`
}

func (e *entryFields) validate() error {
	if !e.Amount.Set || !e.Amount.Value.IsPositive() {
		return errInvalidAmount
	}
	if err := validator.ValidateDescription(e.Description); err != nil {
		return err
	}
	if err := validator.ValidateType(e.Type); err != nil {
		return err
	}
	if err := validator.ValidateAccount(e.Account); err != nil {
		return err
	}
	if e.Category != nil {
		if err := validator.ValidateCategory(*e.Category); err != nil {
			return err
		}
	}
	e.ContactName = emptyToNil(e.ContactName)
	if e.ContactName != nil {
		if err := validator.ValidateContactName(*e.ContactName); err != nil {
			return err
		}
	}
	e.ContactID = emptyToNil(e.ContactID)
	e.LinkedTransactionID = emptyToNil(e.LinkedTransactionID)
	if err := validateOptionalID(e.ContactID); err != nil {
		return err
	}
	return validateOptionalID(e.LinkedTransactionID)
}

func validationMessage(err error) string {
	if errors.Is(err, errInvalidAmount) {
		return "invalid_amount"
	}
	return err.Error()
}
