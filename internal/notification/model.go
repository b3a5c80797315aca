package notification

import "time"

// Notification represents an in-app notification for one user
type Notification struct {
	ID                int64            `db:"id" json:"id"`
	RecipientID       int64            `db:"recipient_id" json:"recipient_id"`
	Type              NotificationType `db:"type" json:"type"`
	Message           string           `db:"message" json:"message"`
	IsRead            bool             `db:"is_read" json:"is_read"`
	RelatedEntityType *string          `db:"related_entity_type" json:"related_entity_type,omitempty"` // EXPENSE, SETTLEMENT, GROUP
	RelatedEntityID   *int64           `db:"related_entity_id" json:"related_entity_id,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
}

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTypeGroupInvite     NotificationType = "GROUP_INVITE"
	NotificationTypeExpenseAdded    NotificationType = "EXPENSE_ADDED"
	NotificationTypePaymentRecorded NotificationType = "PAYMENT_RECORDED"
)

// Entity types stored in related_entity_type.
const (
	EntityGroup      = "GROUP"
	EntityExpense    = "EXPENSE"
	EntitySettlement = "SETTLEMENT"
)
