package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
	ErrOutOfRange      = errors.New("amount out of range")
)

const Scale = 2

// limit is the first magnitude a numeric(14,2) column cannot store.
var limit = decimal.New(1, 12)

// Parse reads a plain decimal amount ("12", "12.5", "-3.40"). Exponents, more than
// two fractional digits and magnitudes of 10^12 or more are rejected.
func Parse(input string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || strings.ContainsAny(trimmed, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if value.Exponent() < -Scale {
		// trailing zeros past the scale are fine ("1.500")
		if !value.Equal(value.Truncate(Scale)) {
			return decimal.Zero, ErrTooManyDecimals
		}
		value = value.Truncate(Scale)
	}
	if value.Abs().GreaterThanOrEqual(limit) {
		return decimal.Zero, ErrOutOfRange
	}
	return value, nil
}

func Format(value decimal.Decimal) string {
	return value.StringFixed(Scale)
}

// FormatNull renders a nullable amount, nil when unset.
func FormatNull(value decimal.NullDecimal) *string {
	if !value.Valid {
		return nil
	}
	formatted := Format(value.Decimal)
	return &formatted
}
