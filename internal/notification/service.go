package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/fkhayef/splitledger/pkg/currency"
	"github.com/fkhayef/splitledger/pkg/money"
)

// Common errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotRecipient         = errors.New("not the recipient of this notification")
)

// Store is the persistence the notification service needs.
type Store interface {
	Create(ctx context.Context, n *Notification) (*Notification, error)
	GetByID(ctx context.Context, id int64) (*Notification, error)
	ListByRecipientID(ctx context.Context, recipientID int64, limit, offset int, unreadOnly bool) ([]*Notification, int, error)
	MarkAsRead(ctx context.Context, id int64) error
	MarkAllAsRead(ctx context.Context, recipientID int64) error
	GetUnreadCount(ctx context.Context, recipientID int64) (int, error)
}

// Service handles notification business logic
type Service struct {
	repo Store
}

// NewService creates a new notification service
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// GetByID retrieves a notification by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, ErrNotificationNotFound
	}
	return n, nil
}

// ListByRecipientID retrieves all notifications for a user
func (s *Service) ListByRecipientID(ctx context.Context, recipientID int64, page, perPage int, unreadOnly bool) ([]*Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByRecipientID(ctx, recipientID, perPage, offset, unreadOnly)
}

// MarkAsRead marks a notification as read
func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	n, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.RecipientID != userID {
		return ErrNotRecipient
	}

	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all notifications as read for a user
func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// GetUnreadCount returns the count of unread notifications
func (s *Service) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

func (s *Service) create(ctx context.Context, recipientID int64, typ NotificationType, message, entityType string, entityID int64) error {
	_, err := s.repo.Create(ctx, &Notification{
		RecipientID:       recipientID,
		Type:              typ,
		Message:           message,
		RelatedEntityType: &entityType,
		RelatedEntityID:   &entityID,
	})
	return err
}

// NotifyGroupInvite tells a user they were added to a group
func (s *Service) NotifyGroupInvite(ctx context.Context, recipientID int64, groupName string, groupID int64) error {
	message := "You have been invited to join group: " + groupName
	return s.create(ctx, recipientID, NotificationTypeGroupInvite, message, EntityGroup, groupID)
}

// NotifyExpenseAdded tells a participant their share of a new expense
func (s *Service) NotifyExpenseAdded(ctx context.Context, recipientID int64, payerName, description string, share money.Money, code currency.Code, expenseID int64) error {
	message := fmt.Sprintf("%s added %q and your share is %s %s", payerName, description, share, code)
	return s.create(ctx, recipientID, NotificationTypeExpenseAdded, message, EntityExpense, expenseID)
}

// NotifyPaymentRecorded tells the receiver that a payment to them was recorded
func (s *Service) NotifyPaymentRecorded(ctx context.Context, recipientID int64, payerName string, amount money.Money, code currency.Code, settlementID int64) error {
	message := fmt.Sprintf("%s paid you %s %s", payerName, amount, code)
	return s.create(ctx, recipientID, NotificationTypePaymentRecorded, message, EntitySettlement, settlementID)
}
