package expense

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/internal/group"
	"github.com/fkhayef/splitledger/pkg/currency"
	"github.com/fkhayef/splitledger/pkg/money"
)

// Common errors
var (
	ErrExpenseNotFound       = errors.New("expense not found")
	ErrNotPayer              = errors.New("only the payer can delete an expense")
	ErrInvalidSplit          = errors.New("invalid split")
	ErrParticipantNotInGroup = errors.New("participant is not a member of the group")
	ErrPayerNotInGroup       = errors.New("payer is not a member of the group")
)

// Store is the persistence the expense service needs.
type Store interface {
	CreateWithSplits(ctx context.Context, e *Expense, outputs []split.SplitOutput) (*ExpenseWithSplits, error)
	GetExpenseByID(ctx context.Context, id int64) (*Expense, error)
	GetSplitsByExpenseID(ctx context.Context, expenseID int64) ([]*Split, error)
	ListExpensesByGroupID(ctx context.Context, groupID int64, limit, offset int) ([]*Expense, int, error)
	DeleteExpense(ctx context.Context, id int64) error
}

// Groups answers membership questions.
type Groups interface {
	Authorize(ctx context.Context, groupID, userID int64) (*group.Group, *group.GroupMember, error)
	MemberIDs(ctx context.Context, groupID int64) ([]int64, error)
}

// Users resolves display names.
type Users interface {
	Usernames(ctx context.Context, ids []int64) (map[int64]string, error)
}

// Notifier tells participants about new expenses.
type Notifier interface {
	NotifyExpenseAdded(ctx context.Context, recipientID int64, payerName, description string, share money.Money, code currency.Code, expenseID int64) error
}

// Service handles expense business logic
type Service struct {
	repo         Store
	groups       Groups
	users        Users
	notifier     Notifier
	splitFactory *split.Factory
	log          logrus.FieldLogger
}

// NewService creates a new expense service with dependencies injected
func NewService(repo Store, groups Groups, users Users, notifier Notifier, splitFactory *split.Factory, log logrus.FieldLogger) *Service {
	return &Service{
		repo:         repo,
		groups:       groups,
		users:        users,
		notifier:     notifier,
		splitFactory: splitFactory,
		log:          log,
	}
}

// CreateExpense validates the split, computes each participant's share with the selected
// strategy and records the expense. The caller must belong to the group.
func (s *Service) CreateExpense(ctx context.Context, callerID int64, req *CreateExpenseRequest) (*ExpenseWithSplits, error) {
	g, _, err := s.groups.Authorize(ctx, req.GroupID, callerID)
	if err != nil {
		return nil, err
	}

	payerID := callerID
	if req.PaidBy != nil {
		payerID = *req.PaidBy
	}

	code := req.Currency
	if code == "" {
		code = g.BaseCurrency
	}

	if err := s.checkMembers(ctx, req.GroupID, payerID, req.Participants); err != nil {
		return nil, err
	}

	strategy, err := s.splitFactory.Create(req.SplitType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSplit, err)
	}

	inputs := make([]split.SplitInput, len(req.Participants))
	for i, p := range req.Participants {
		inputs[i] = p.ToSplitInput()
	}

	if err := strategy.Validate(req.Amount, inputs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSplit, err)
	}
	outputs := strategy.Calculate(req.Amount, payerID, inputs)

	created, err := s.repo.CreateWithSplits(ctx, &Expense{
		GroupID:     req.GroupID,
		PayerID:     payerID,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    code,
		ImageURL:    req.ImageURL,
		SplitType:   strategy.Type(),
	}, outputs)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"expense_id": created.Expense.ID,
		"group_id":   req.GroupID,
		"payer_id":   payerID,
		"amount":     req.Amount.String(),
		"currency":   code,
		"split_type": strategy.Type(),
		"splits":     len(outputs),
	}).Info("expense recorded")

	s.notifyParticipants(ctx, created)
	return created, nil
}

func (s *Service) checkMembers(ctx context.Context, groupID, payerID int64, participants []*SplitParticipant) error {
	ids, err := s.groups.MemberIDs(ctx, groupID)
	if err != nil {
		return err
	}

	members := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		members[id] = struct{}{}
	}

	if _, ok := members[payerID]; !ok {
		return ErrPayerNotInGroup
	}
	for _, p := range participants {
		if _, ok := members[p.UserID]; !ok {
			return fmt.Errorf("%w: user %d", ErrParticipantNotInGroup, p.UserID)
		}
	}
	return nil
}

// notifyParticipants is best effort; the expense is already recorded.
func (s *Service) notifyParticipants(ctx context.Context, e *ExpenseWithSplits) {
	payerID := e.Expense.PayerID

	names, err := s.users.Usernames(ctx, []int64{payerID})
	if err != nil {
		s.log.WithError(err).Warn("failed to resolve payer name for notifications")
	}
	payerName := names[payerID]
	if payerName == "" {
		payerName = "Someone"
	}

	for _, sp := range e.Splits {
		if sp.UserID == payerID || !sp.AmountOwed.IsPositive() {
			continue
		}
		err := s.notifier.NotifyExpenseAdded(ctx, sp.UserID, payerName, e.Expense.Description, sp.AmountOwed, e.Expense.Currency, e.Expense.ID)
		if err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"expense_id": e.Expense.ID,
				"user_id":    sp.UserID,
			}).Warn("failed to send expense notification")
		}
	}
}

// GetExpenseByID retrieves an expense with its splits. The caller must belong to its group.
func (s *Service) GetExpenseByID(ctx context.Context, id, userID int64) (*ExpenseWithSplits, error) {
	expense, err := s.repo.GetExpenseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, ErrExpenseNotFound
	}

	if _, _, err := s.groups.Authorize(ctx, expense.GroupID, userID); err != nil {
		return nil, err
	}

	splits, err := s.repo.GetSplitsByExpenseID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ExpenseWithSplits{
		Expense: expense,
		Splits:  splits,
	}, nil
}

// ListExpensesByGroupID retrieves expenses for a group
func (s *Service) ListExpensesByGroupID(ctx context.Context, groupID, userID int64, page, perPage int) ([]*Expense, int, error) {
	if _, _, err := s.groups.Authorize(ctx, groupID, userID); err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListExpensesByGroupID(ctx, groupID, perPage, offset)
}

// DeleteExpense removes an expense. Only its payer may delete it; there are no in-place edits.
func (s *Service) DeleteExpense(ctx context.Context, id, userID int64) error {
	expense, err := s.repo.GetExpenseByID(ctx, id)
	if err != nil {
		return err
	}
	if expense == nil {
		return ErrExpenseNotFound
	}

	if expense.PayerID != userID {
		return ErrNotPayer
	}

	return s.repo.DeleteExpense(ctx, id)
}
