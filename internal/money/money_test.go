package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  error
	}{
		{"10", "10.00", nil},
		{" 10.5 ", "10.50", nil},
		{"0.01", "0.01", nil},
		{"-3.40", "-3.40", nil},
		{"1.500", "1.50", nil},
		{"1.234", "", ErrTooManyDecimals},
		{"", "", ErrInvalidAmount},
		{"abc", "", ErrInvalidAmount},
		{"1e3", "", ErrInvalidAmount},
		{"999999999999.99", "999999999999.99", nil},
		{"1000000000000", "", ErrOutOfRange},
		{"-1000000000000.00", "", ErrOutOfRange},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if err != tc.err {
			t.Fatalf("Parse(%q) error = %v, want %v", tc.in, err, tc.err)
		}
		if err == nil && Format(got) != tc.want {
			t.Fatalf("Parse(%q) = %s, want %s", tc.in, Format(got), tc.want)
		}
	}
}

func TestFormatNull(t *testing.T) {
	got, _ := Parse("5")
	if FormatNull(decimalNull(got, false)) != nil {
		t.Fatal("expected nil for invalid null decimal")
	}
	formatted := FormatNull(decimalNull(got, true))
	if formatted == nil || *formatted != "5.00" {
		t.Fatalf("unexpected %v", formatted)
	}
}

func decimalNull(value decimal.Decimal, valid bool) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: value, Valid: valid}
}
