package split

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitledger/pkg/money"
)

// =============================================================================
// PERCENT SPLIT STRATEGY
// Divides the expense based on specified percentages for each participant
// =============================================================================

// PercentStrategy implements the Strategy interface for percentage-based splits
type PercentStrategy struct{}

// Type returns the split type identifier
func (s *PercentStrategy) Type() SplitType {
	return SplitTypePercent
}

// Validate checks that every participant has a percentage and that they add up to
// exactly 100 once rounded to two decimals.
func (s *PercentStrategy) Validate(totalAmount money.Money, participants []SplitInput) error {
	if err := validateCommon(totalAmount, participants); err != nil {
		return err
	}

	total := decimal.Zero
	for _, p := range participants {
		if p.Percentage == nil {
			return fmt.Errorf("%w: user %d", ErrMissingPercentage, p.UserID)
		}
		if p.Percentage.IsNegative() || p.Percentage.GreaterThan(hundred) {
			return fmt.Errorf("%w: user %d", ErrPercentageOutOfRange, p.UserID)
		}
		total = total.Add(*p.Percentage)
	}

	if !total.Round(money.Scale).Equal(hundred) {
		return fmt.Errorf("%w: got %s", ErrInvalidPercentages, total.String())
	}

	return nil
}

// Calculate rounds pct/100 * total for each participant.
// Rounding slack is left as is: the shares may miss the total by a cent or two.
func (s *PercentStrategy) Calculate(totalAmount money.Money, payerID int64, participants []SplitInput) []SplitOutput {
	outputs := make([]SplitOutput, len(participants))
	for i, p := range participants {
		pct := decimal.Zero
		if p.Percentage != nil {
			pct = *p.Percentage
		}
		outputs[i] = SplitOutput{
			UserID:     p.UserID,
			AmountOwed: money.FromDecimal(totalAmount.Decimal().Mul(pct).Div(hundred)),
		}
	}

	return outputs
}
