package split

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitledger/pkg/money"
)

// SplitType defines the type of split strategy
type SplitType string

const (
	SplitTypeEqual   SplitType = "EQUAL"
	SplitTypePercent SplitType = "PERCENT"
	SplitTypeExact   SplitType = "EXACT"
)

// Valid reports whether t names a known policy.
func (t SplitType) Valid() bool {
	switch t {
	case SplitTypeEqual, SplitTypePercent, SplitTypeExact:
		return true
	}
	return false
}

// SplitInput is one participant of a split, in the order the caller listed them.
type SplitInput struct {
	UserID     int64            `json:"user_id"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"` // For PERCENT split
	Amount     *money.Money     `json:"amount,omitempty"`     // For EXACT split
}

// SplitOutput represents the calculated split for a single participant
type SplitOutput struct {
	UserID     int64       `json:"user_id"`
	AmountOwed money.Money `json:"amount_owed"`
}

// Strategy is the interface that all split strategies must implement.
//
// Validate is the gate run at expense creation. Calculate assumes input that already passed
// Validate and never reconciles a mismatched total on its own.
type Strategy interface {
	// Calculate computes the owed amount of every participant, payer included
	Calculate(totalAmount money.Money, payerID int64, participants []SplitInput) []SplitOutput

	// Type returns the type identifier for this strategy
	Type() SplitType

	// Validate checks if the inputs are valid for this strategy
	Validate(totalAmount money.Money, participants []SplitInput) error
}

// Factory creates split strategies based on the requested type
type Factory struct{}

// NewSplitStrategyFactory creates a new factory instance
func NewSplitStrategyFactory() *Factory {
	return &Factory{}
}

// Create returns the appropriate strategy implementation based on the type
func (f *Factory) Create(splitType SplitType) (Strategy, error) {
	switch splitType {
	case SplitTypeEqual:
		return &EqualStrategy{}, nil
	case SplitTypePercent:
		return &PercentStrategy{}, nil
	case SplitTypeExact:
		return &ExactStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSplitType, splitType)
	}
}

// CreateFromString creates a strategy from a string type (useful for API requests)
func (f *Factory) CreateFromString(splitType string) (Strategy, error) {
	return f.Create(SplitType(splitType))
}

var (
	ErrUnknownSplitType     = errors.New("unknown split type")
	ErrNoParticipants       = errors.New("at least one participant is required")
	ErrDuplicateParticipant = errors.New("participant listed more than once")
	ErrInvalidPercentages   = errors.New("percentages must sum to 100")
	ErrInvalidExactAmounts  = errors.New("exact amounts must sum to total amount")
	ErrNegativeAmount       = errors.New("amounts cannot be negative")
	ErrMissingPercentage    = errors.New("percentage value required for all participants")
	ErrMissingExactAmount   = errors.New("exact amount required for all participants")
	ErrPercentageOutOfRange = errors.New("percentage must be between 0 and 100")
)

var hundred = decimal.NewFromInt(100)

// IsSelfExpense reports whether the payer is the only participant.
func IsSelfExpense(payerID int64, participants []SplitInput) bool {
	return len(participants) == 1 && participants[0].UserID == payerID
}

// validateCommon holds the checks every policy shares.
func validateCommon(totalAmount money.Money, participants []SplitInput) error {
	if len(participants) == 0 {
		return ErrNoParticipants
	}
	if totalAmount.IsNegative() {
		return ErrNegativeAmount
	}

	seen := make(map[int64]struct{}, len(participants))
	for _, p := range participants {
		if _, ok := seen[p.UserID]; ok {
			return fmt.Errorf("%w: user %d", ErrDuplicateParticipant, p.UserID)
		}
		seen[p.UserID] = struct{}{}
	}
	return nil
}
