// Package money provides the fixed-point 2dp amount type mandated by
// spec.md §9: binary floating point is forbidden for amount/balance
// fields because of accumulated rounding on the conservation invariant.
package money

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a 2-decimal-place monetary value backed by shopspring/decimal.
type Amount struct {
	decimal.Decimal
}

// Zero is the additive identity.
var Zero = Amount{decimal.Zero}

// NewFromString parses a decimal string into an Amount rounded to 2dp.
func NewFromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	return Amount{d.Round(2)}, nil
}

// MustFromString is NewFromString, panicking on error; intended for
// constants and tests only.
func MustFromString(s string) Amount {
	a, err := NewFromString(s)
	if err != nil {
		panic(err)
	}

	return a
}

// FromCents builds an Amount from an integer count of minor units.
func FromCents(cents int64) Amount {
	return Amount{decimal.New(cents, -2)}
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a.Decimal.IsPositive()
}

// Add returns a + b, rounded to 2dp.
func (a Amount) Add(b Amount) Amount {
	return Amount{a.Decimal.Add(b.Decimal).Round(2)}
}

// Sub returns a - b, rounded to 2dp.
func (a Amount) Sub(b Amount) Amount {
	return Amount{a.Decimal.Sub(b.Decimal).Round(2)}
}

// GreaterThanOrEqual reports whether a >= b.
func (a Amount) GreaterThanOrEqual(b Amount) bool {
	return a.Decimal.GreaterThanOrEqual(b.Decimal)
}

// GreaterThan reports whether a > b.
func (a Amount) GreaterThan(b Amount) bool {
	return a.Decimal.GreaterThan(b.Decimal)
}

// Equal reports whether a == b.
func (a Amount) Equal(b Amount) bool {
	return a.Decimal.Equal(b.Decimal)
}

// String renders the amount with exactly 2 decimal places.
func (a Amount) String() string {
	return a.Decimal.StringFixed(2)
}

// Value implements driver.Valuer so Amount can be written directly by
// database/sql drivers (stored as NUMERIC(20,2) in Postgres).
func (a Amount) Value() (driver.Value, error) {
	return a.Decimal.StringFixed(2), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(value any) error {
	var d decimal.Decimal

	if err := d.Scan(value); err != nil {
		return err
	}

	a.Decimal = d.Round(2)

	return nil
}

// MarshalJSON renders the amount as a JSON string, avoiding binary-float
// round-tripping entirely.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON parses a JSON string or number into an Amount.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	parsed, err := NewFromString(s)
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}
