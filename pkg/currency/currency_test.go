package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/fkhayef/splitledger/pkg/money"
)

func testRates() RateTable {
	return RateTable{
		EUR:   decimal.NewFromInt(1),
		USD:   decimal.RequireFromString("1.25"),
		GBP:   decimal.RequireFromString("0.85"),
		"CHF": decimal.RequireFromString("0.94"),
		"XXX": decimal.Zero,
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, USD, Normalize(" usd "))
	assert.Equal(t, EUR, Normalize("Eur"))
	assert.True(t, Normalize("gbp").Valid())
	assert.False(t, Normalize("dollars").Valid())
	assert.False(t, Code("U$D").Valid())
}

func TestConvert(t *testing.T) {
	rates := testRates()

	tests := []struct {
		name     string
		amount   money.Money
		from, to Code
		want     money.Money
	}{
		{"same currency", 1234, USD, USD, 1234},
		{"usd to eur", 10000, USD, EUR, 8000},
		{"eur to usd", 8000, EUR, USD, 10000},
		{"cross via anchor", 10000, USD, GBP, 6800},
		{"rounds half away from zero", 1, USD, GBP, 1},
		{"missing target rate", 5000, USD, "JPY", 5000},
		{"missing source rate", 5000, "JPY", USD, 5000},
		{"zero source rate", 5000, "XXX", USD, 5000},
		{"negative amount", -10000, USD, EUR, -8000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Convert(tt.amount, tt.from, tt.to, rates))
		})
	}
}

func TestConvertNilTable(t *testing.T) {
	assert.Equal(t, money.Money(999), Convert(999, USD, EUR, nil))
}

func TestConvertRoundTrip(t *testing.T) {
	rates := testRates()
	pairs := [][2]Code{{USD, EUR}, {EUR, GBP}, {GBP, USD}, {"CHF", USD}}

	for _, pair := range pairs {
		for cents := int64(1); cents < 50000; cents += 37 {
			x := money.FromCents(cents)
			back := Convert(Convert(x, pair[0], pair[1], rates), pair[1], pair[0], rates)
			assert.LessOrEqual(t, (back - x).Abs(), money.Money(1), "%s->%s->%s for %s", pair[0], pair[1], pair[0], x)
		}
	}
}

func TestRebase(t *testing.T) {
	rebased := Rebase(testRates(), USD)

	assert.True(t, rebased[USD].Equal(decimal.NewFromInt(1)))
	assert.True(t, rebased[EUR].Equal(decimal.RequireFromString("0.8")))
	assert.True(t, rebased[GBP].Equal(decimal.RequireFromString("0.68")))

	// Conversions are anchor independent.
	assert.Equal(t, Convert(10000, GBP, EUR, testRates()), Convert(10000, GBP, EUR, rebased))
}

func TestRebaseUnknownBase(t *testing.T) {
	rates := testRates()
	rebased := Rebase(rates, "JPY")

	assert.Equal(t, len(rates), len(rebased))
	rebased[USD] = decimal.NewFromInt(7)
	assert.True(t, rates[USD].Equal(decimal.RequireFromString("1.25")), "input must not be mutated")
}
