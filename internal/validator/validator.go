package validator

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"bookkeeping/internal/models"
)

var (
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidAccount     = errors.New("invalid account")
	ErrInvalidDescription = errors.New("invalid description")
	ErrInvalidContactName = errors.New("invalid contact name")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidCurrency    = errors.New("invalid currency")
)

const (
	maxDescriptionLen = 500
	maxContactNameLen = 255
	maxCategoryLen    = 100
)

var (
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
)

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

func ValidateCurrency(code string) error {
	if !currencyRegex.MatchString(code) {
		return ErrInvalidCurrency
	}
	return nil
}

func ValidateType(value string) error {
	if !models.TransactionType(value).Valid() {
		return ErrInvalidType
	}
	return nil
}

// ValidateAccount accepts an empty account, which callers default to cash.
func ValidateAccount(value string) error {
	if value == "" {
		return nil
	}
	if !models.Account(value).Valid() {
		return ErrInvalidAccount
	}
	return nil
}

func ValidateDescription(value string) error {
	if strings.TrimSpace(value) == "" || utf8.RuneCountInString(value) > maxDescriptionLen {
		return ErrInvalidDescription
	}
	return nil
}

func ValidateContactName(value string) error {
	if strings.TrimSpace(value) == "" || utf8.RuneCountInString(value) > maxContactNameLen {
		return ErrInvalidContactName
	}
	return nil
}

func ValidateCategory(value string) error {
	if utf8.RuneCountInString(value) > maxCategoryLen {
		return ErrInvalidCategory
	}
	return nil
}
