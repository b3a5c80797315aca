package notification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/splitledger/pkg/currency"
	"github.com/fkhayef/splitledger/pkg/middleware"
	"github.com/fkhayef/splitledger/pkg/money"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, n *Notification) (*Notification, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Notification), args.Error(1)
}

func (m *MockStore) GetByID(ctx context.Context, id int64) (*Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Notification), args.Error(1)
}

func (m *MockStore) ListByRecipientID(ctx context.Context, recipientID int64, limit, offset int, unreadOnly bool) ([]*Notification, int, error) {
	args := m.Called(ctx, recipientID, limit, offset, unreadOnly)
	return args.Get(0).([]*Notification), args.Int(1), args.Error(2)
}

func (m *MockStore) MarkAsRead(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) MarkAllAsRead(ctx context.Context, recipientID int64) error {
	return m.Called(ctx, recipientID).Error(0)
}

func (m *MockStore) GetUnreadCount(ctx context.Context, recipientID int64) (int, error) {
	args := m.Called(ctx, recipientID)
	return args.Int(0), args.Error(1)
}

func TestService_NotifyExpenseAdded(t *testing.T) {
	store := new(MockStore)
	svc := NewService(store)

	store.On("Create", mock.Anything, mock.MatchedBy(func(n *Notification) bool {
		return n.RecipientID == 2 &&
			n.Type == NotificationTypeExpenseAdded &&
			n.Message == `alice added "Dinner" and your share is 33.33 EUR` &&
			*n.RelatedEntityType == EntityExpense &&
			*n.RelatedEntityID == 10
	})).Return(&Notification{ID: 1}, nil)

	err := svc.NotifyExpenseAdded(context.Background(), 2, "alice", "Dinner", money.FromCents(3333), currency.EUR, 10)
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestService_NotifyPaymentRecorded(t *testing.T) {
	store := new(MockStore)
	svc := NewService(store)

	store.On("Create", mock.Anything, mock.MatchedBy(func(n *Notification) bool {
		return n.Type == NotificationTypePaymentRecorded && n.Message == "bob paid you 20.00 USD"
	})).Return(&Notification{ID: 1}, nil)

	require.NoError(t, svc.NotifyPaymentRecorded(context.Background(), 1, "bob", money.FromCents(2000), currency.USD, 3))
	store.AssertExpectations(t)
}

func TestService_MarkAsRead(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		stored  *Notification
		userID  int64
		wantErr error
	}{
		{name: "missing", stored: nil, userID: 1, wantErr: ErrNotificationNotFound},
		{name: "other recipient", stored: &Notification{ID: 5, RecipientID: 2}, userID: 1, wantErr: ErrNotRecipient},
		{name: "owner", stored: &Notification{ID: 5, RecipientID: 1}, userID: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			svc := NewService(store)
			if tt.stored == nil {
				store.On("GetByID", ctx, int64(5)).Return(nil, nil)
			} else {
				store.On("GetByID", ctx, int64(5)).Return(tt.stored, nil)
			}
			store.On("MarkAsRead", ctx, int64(5)).Return(nil)

			err := svc.MarkAsRead(ctx, 5, tt.userID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				store.AssertNotCalled(t, "MarkAsRead", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			store.AssertCalled(t, "MarkAsRead", ctx, int64(5))
		})
	}
}

func TestHandler_List(t *testing.T) {
	store := new(MockStore)
	h := NewHandler(NewService(store))

	store.On("ListByRecipientID", mock.Anything, int64(3), 10, 10, true).Return([]*Notification{
		{ID: 1, RecipientID: 3, Type: NotificationTypeExpenseAdded, Message: "hi"},
	}, 11, nil)

	req := httptest.NewRequest(http.MethodGet, "/?page=2&per_page=10&unread_only=true", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), 3))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"EXPENSE_ADDED"`)
	assert.Contains(t, rec.Body.String(), `"total_pages":2`)
}

func TestHandler_RequiresUser(t *testing.T) {
	h := NewHandler(NewService(new(MockStore)))

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unread-count", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
