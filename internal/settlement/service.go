package settlement

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/fkhayef/splitledger/internal/group"
	"github.com/fkhayef/splitledger/pkg/currency"
	"github.com/fkhayef/splitledger/pkg/money"
)

// Common errors
var (
	ErrSettlementNotFound = errors.New("settlement not found")
	ErrCannotSettleSelf   = errors.New("cannot record a payment to yourself")
	ErrNotParty           = errors.New("only the sender or the receiver can record a payment")
	ErrUserNotInGroup     = errors.New("both users must be members of the group")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
)

// Store is the persistence the settlement service needs.
type Store interface {
	Create(ctx context.Context, s *Settlement) (*Settlement, error)
	GetByID(ctx context.Context, id int64) (*Settlement, error)
	ListByGroupID(ctx context.Context, groupID int64, limit, offset int) ([]*Settlement, int, error)
	ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Settlement, int, error)
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

// Notifier tells the receiver about a recorded payment.
type Notifier interface {
	NotifyPaymentRecorded(ctx context.Context, recipientID int64, payerName string, amount money.Money, code currency.Code, settlementID int64) error
}

// Service handles settlement business logic
type Service struct {
	repo     Store
	groups   Groups
	users    Users
	notifier Notifier
	log      logrus.FieldLogger
}

// NewService creates a new settlement service
func NewService(repo Store, groups Groups, users Users, notifier Notifier, log logrus.FieldLogger) *Service {
	return &Service{
		repo:     repo,
		groups:   groups,
		users:    users,
		notifier: notifier,
		log:      log,
	}
}

// RecordPayment records money sent from one member to another. The caller must be one of
// the two parties.
func (s *Service) RecordPayment(ctx context.Context, callerID int64, req *RecordPaymentRequest) (*Settlement, error) {
	fromID := callerID
	if req.FromUserID != nil {
		fromID = *req.FromUserID
	}
	toID := req.ToUserID

	if fromID == toID {
		return nil, ErrCannotSettleSelf
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if callerID != fromID && callerID != toID {
		return nil, ErrNotParty
	}

	g, _, err := s.groups.Authorize(ctx, req.GroupID, callerID)
	if err != nil {
		return nil, err
	}

	ids, err := s.groups.MemberIDs(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	if !contains(ids, fromID) || !contains(ids, toID) {
		return nil, ErrUserNotInGroup
	}

	code := req.Currency
	if code == "" {
		code = g.BaseCurrency
	}

	payment := &Settlement{
		GroupID:    req.GroupID,
		FromUserID: fromID,
		ToUserID:   toID,
		Amount:     req.Amount,
		Currency:   code,
		Note:       req.Note,
	}
	if req.PaymentDate != nil {
		payment.PaymentDate = *req.PaymentDate
	}

	created, err := s.repo.Create(ctx, payment)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"settlement_id": created.ID,
		"group_id":      created.GroupID,
		"from_user_id":  fromID,
		"to_user_id":    toID,
		"amount":        created.Amount.String(),
		"currency":      code,
	}).Info("payment recorded")

	if callerID != toID {
		s.notifyReceiver(ctx, created)
	}
	return created, nil
}

// notifyReceiver is best effort; the payment is already recorded.
func (s *Service) notifyReceiver(ctx context.Context, p *Settlement) {
	names, err := s.users.Usernames(ctx, []int64{p.FromUserID})
	if err != nil {
		s.log.WithError(err).Warn("failed to resolve payer name for notifications")
	}
	payerName := names[p.FromUserID]
	if payerName == "" {
		payerName = "Someone"
	}

	if err := s.notifier.NotifyPaymentRecorded(ctx, p.ToUserID, payerName, p.Amount, p.Currency, p.ID); err != nil {
		s.log.WithError(err).WithField("settlement_id", p.ID).Warn("failed to send payment notification")
	}
}

// GetByID retrieves a settlement by its ID. The caller must belong to its group.
func (s *Service) GetByID(ctx context.Context, id, userID int64) (*Settlement, error) {
	settlement, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if settlement == nil {
		return nil, ErrSettlementNotFound
	}

	if _, _, err := s.groups.Authorize(ctx, settlement.GroupID, userID); err != nil {
		return nil, err
	}
	return settlement, nil
}

// ListByGroupID retrieves payments recorded in a group
func (s *Service) ListByGroupID(ctx context.Context, groupID, userID int64, page, perPage int) ([]*Settlement, int, error) {
	if _, _, err := s.groups.Authorize(ctx, groupID, userID); err != nil {
		return nil, 0, err
	}

	limit, offset := paging(page, perPage)
	return s.repo.ListByGroupID(ctx, groupID, limit, offset)
}

// ListByUserID retrieves payments the user sent or received
func (s *Service) ListByUserID(ctx context.Context, userID int64, page, perPage int) ([]*Settlement, int, error) {
	limit, offset := paging(page, perPage)
	return s.repo.ListByUserID(ctx, userID, limit, offset)
}

func paging(page, perPage int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return perPage, (page - 1) * perPage
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
