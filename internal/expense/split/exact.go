package split

import (
	"fmt"

	"github.com/fkhayef/splitledger/pkg/money"
)

// =============================================================================
// EXACT SPLIT STRATEGY
// Each participant owes a specific exact amount (must sum to total)
// =============================================================================

// ExactStrategy implements the Strategy interface for exact amount splits
type ExactStrategy struct{}

// Type returns the split type identifier
func (s *ExactStrategy) Type() SplitType {
	return SplitTypeExact
}

// Validate checks that every participant has an amount and that the amounts add up to
// the total to the cent.
func (s *ExactStrategy) Validate(totalAmount money.Money, participants []SplitInput) error {
	if err := validateCommon(totalAmount, participants); err != nil {
		return err
	}

	var totalExact money.Money
	for _, p := range participants {
		if p.Amount == nil {
			return fmt.Errorf("%w: user %d", ErrMissingExactAmount, p.UserID)
		}
		if p.Amount.IsNegative() {
			return ErrNegativeAmount
		}
		totalExact += *p.Amount
	}

	if totalExact != totalAmount {
		return fmt.Errorf("%w: %s != %s", ErrInvalidExactAmounts, totalExact, totalAmount)
	}

	return nil
}

// Calculate returns the amounts the caller specified, unchanged.
func (s *ExactStrategy) Calculate(totalAmount money.Money, payerID int64, participants []SplitInput) []SplitOutput {
	outputs := make([]SplitOutput, len(participants))
	for i, p := range participants {
		var owed money.Money
		if p.Amount != nil {
			owed = *p.Amount
		}
		outputs[i] = SplitOutput{
			UserID:     p.UserID,
			AmountOwed: owed,
		}
	}

	return outputs
}
