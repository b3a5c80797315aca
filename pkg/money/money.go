// Package money holds the fixed-precision monetary type shared by every component.
//
// Amounts are stored as integer minor units (cents). Decimal text, JSON and SQL forms go
// through shopspring/decimal so no value ever passes through binary floating point once it
// has been rounded.
//
// Round and IsZero are the rounding contract for float inputs. The balance fold and the
// settlement planner work on cents, where every sum is already exact and zero is zero, so
// they never call them.
package money

import (
	"database/sql/driver"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places kept for every amount.
const Scale = 2

// Tolerance is half a cent: any real magnitude below it is treated as settled.
const Tolerance = 0.005

// Money is an amount in cents.
type Money int64

// Zero is the zero amount.
const Zero Money = 0

// Round canonicalizes x to cents, rounding half away from zero.
// NaN and infinities cannot be represented in cents and collapse to Zero.
func Round(x float64) Money {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Zero
	}
	return FromDecimal(decimal.NewFromFloat(x))
}

// IsZero reports whether x is within half a cent of zero.
func IsZero(x float64) bool {
	return math.Abs(x) < Tolerance
}

// FromDecimal rounds d to cents, half away from zero.
func FromDecimal(d decimal.Decimal) Money {
	return Money(d.Round(Scale).Shift(Scale).IntPart())
}

// FromCents builds an amount from minor units.
func FromCents(cents int64) Money {
	return Money(cents)
}

// Parse reads a decimal string such as "33.34".
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 {
	return int64(m)
}

// Decimal returns the exact decimal value of m.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -Scale)
}

// Float64 returns m as a float, for display and legacy callers only.
func (m Money) Float64() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// IsZero reports whether m is exactly zero cents.
func (m Money) IsZero() bool {
	return m == 0
}

// IsNegative reports whether m < 0.
func (m Money) IsNegative() bool {
	return m < 0
}

// IsPositive reports whether m > 0.
func (m Money) IsPositive() bool {
	return m > 0
}

// Abs returns |m|.
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// String formats m with exactly two decimals.
func (m Money) String() string {
	return m.Decimal().StringFixed(Scale)
}

// MarshalJSON writes m as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	*m = FromDecimal(d)
	return nil
}

// Value stores m in a NUMERIC column.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan reads a NUMERIC column.
func (m *Money) Scan(src interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	*m = FromDecimal(d)
	return nil
}

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}

// Sum adds amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}
