// Package currency normalizes currency codes and converts amounts between them.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitledger/pkg/money"
)

// Code is an upper-case ISO-4217 style currency code.
type Code string

// Common codes
const (
	EUR Code = "EUR"
	USD Code = "USD"
	GBP Code = "GBP"
)

// Normalize trims and upper-cases a raw currency string.
// Every code entering the system goes through here once.
func Normalize(raw string) Code {
	return Code(strings.ToUpper(strings.TrimSpace(raw)))
}

// Valid reports whether c looks like a three-letter code.
func (c Code) Valid() bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func (c Code) String() string {
	return string(c)
}

// RateTable maps a currency to its rate relative to some anchor currency.
type RateTable map[Code]decimal.Decimal

// Clone returns an independent copy of t.
func (t RateTable) Clone() RateTable {
	out := make(RateTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Convert converts amount from one currency to another.
//
// Conversion is fail-soft: when either rate is missing or the source rate is zero the
// amount comes back unconverted, so a balance view always renders with partial rate data.
func Convert(amount money.Money, from, to Code, rates RateTable) money.Money {
	if from == to {
		return amount
	}

	fromRate, ok := rates[from]
	if !ok || fromRate.IsZero() {
		return amount
	}
	toRate, ok := rates[to]
	if !ok {
		return amount
	}

	return money.FromDecimal(amount.Decimal().Mul(toRate).Div(fromRate))
}

// Rebase re-anchors the table so that base has rate 1.
// If base has no usable rate the table is returned as a copy, unchanged.
func Rebase(rates RateTable, base Code) RateTable {
	anchor, ok := rates[base]
	if !ok || anchor.IsZero() {
		return rates.Clone()
	}

	out := make(RateTable, len(rates))
	for code, rate := range rates {
		out[code] = rate.Div(anchor)
	}
	out[base] = decimal.NewFromInt(1)
	return out
}
