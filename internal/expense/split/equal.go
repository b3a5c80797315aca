package split

import "github.com/fkhayef/splitledger/pkg/money"

// =============================================================================
// EQUAL SPLIT STRATEGY
// Divides the expense equally among all participants
// =============================================================================

// EqualStrategy implements the Strategy interface for equal splits
type EqualStrategy struct{}

// Type returns the split type identifier
func (s *EqualStrategy) Type() SplitType {
	return SplitTypeEqual
}

// Validate checks if the inputs are valid for an equal split
func (s *EqualStrategy) Validate(totalAmount money.Money, participants []SplitInput) error {
	return validateCommon(totalAmount, participants)
}

// Calculate gives every participant the total divided by n, rounded down to the cent.
// The leftover cents all go to the first participant in input order, whoever that is,
// so the shares always add up to the total.
//
// A payer who is the only participant owes nothing to anyone and gets no splits.
func (s *EqualStrategy) Calculate(totalAmount money.Money, payerID int64, participants []SplitInput) []SplitOutput {
	if len(participants) == 0 || IsSelfExpense(payerID, participants) {
		return []SplitOutput{}
	}

	n := money.Money(len(participants))
	share := totalAmount / n
	remainder := totalAmount - share*n

	outputs := make([]SplitOutput, len(participants))
	for i, p := range participants {
		outputs[i] = SplitOutput{
			UserID:     p.UserID,
			AmountOwed: share,
		}
	}
	outputs[0].AmountOwed += remainder

	return outputs
}
