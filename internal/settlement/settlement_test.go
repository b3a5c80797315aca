package settlement

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/splitledger/internal/group"
	"github.com/fkhayef/splitledger/pkg/currency"
	"github.com/fkhayef/splitledger/pkg/logger"
	"github.com/fkhayef/splitledger/pkg/middleware"
	"github.com/fkhayef/splitledger/pkg/money"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, s *Settlement) (*Settlement, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Settlement), args.Error(1)
}

func (m *MockStore) GetByID(ctx context.Context, id int64) (*Settlement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Settlement), args.Error(1)
}

func (m *MockStore) ListByGroupID(ctx context.Context, groupID int64, limit, offset int) ([]*Settlement, int, error) {
	args := m.Called(ctx, groupID, limit, offset)
	return args.Get(0).([]*Settlement), args.Int(1), args.Error(2)
}

func (m *MockStore) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Settlement, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]*Settlement), args.Int(1), args.Error(2)
}

type MockGroups struct {
	mock.Mock
}

func (m *MockGroups) Authorize(ctx context.Context, groupID, userID int64) (*group.Group, *group.GroupMember, error) {
	args := m.Called(ctx, groupID, userID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*group.Group), args.Get(1).(*group.GroupMember), args.Error(2)
}

func (m *MockGroups) MemberIDs(ctx context.Context, groupID int64) ([]int64, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).([]int64), args.Error(1)
}

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) Usernames(ctx context.Context, ids []int64) (map[int64]string, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[int64]string), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyPaymentRecorded(ctx context.Context, recipientID int64, payerName string, amount money.Money, code currency.Code, settlementID int64) error {
	return m.Called(ctx, recipientID, payerName, amount, code, settlementID).Error(0)
}

type fixture struct {
	store    *MockStore
	groups   *MockGroups
	users    *MockUsers
	notifier *MockNotifier
	svc      *Service
}

func newFixture() *fixture {
	f := &fixture{
		store:    new(MockStore),
		groups:   new(MockGroups),
		users:    new(MockUsers),
		notifier: new(MockNotifier),
	}
	f.svc = NewService(f.store, f.groups, f.users, f.notifier, logger.Discard())

	flat := &group.Group{ID: 3, Name: "Flat", BaseCurrency: currency.GBP}
	f.groups.On("Authorize", mock.Anything, int64(3), mock.Anything).Return(flat, &group.GroupMember{}, nil)
	f.groups.On("MemberIDs", mock.Anything, int64(3)).Return([]int64{1, 2, 3}, nil)
	f.users.On("Usernames", mock.Anything, mock.Anything).Return(map[int64]string{1: "alice", 2: "bob"}, nil)
	return f
}

func TestRecordPayment(t *testing.T) {
	f := newFixture()

	f.store.On("Create", mock.Anything, mock.MatchedBy(func(s *Settlement) bool {
		return s.FromUserID == 2 && s.ToUserID == 1 && s.Amount == money.FromCents(3333) && s.Currency == currency.GBP
	})).Return(&Settlement{ID: 11, GroupID: 3, FromUserID: 2, ToUserID: 1, Amount: money.FromCents(3333), Currency: currency.GBP}, nil)
	f.notifier.On("NotifyPaymentRecorded", mock.Anything, int64(1), "bob", money.FromCents(3333), currency.GBP, int64(11)).Return(nil)

	s, err := f.svc.RecordPayment(context.Background(), 2, &RecordPaymentRequest{
		GroupID:  3,
		ToUserID: 1,
		Amount:   money.FromCents(3333),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), s.ID)
	f.store.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestRecordPayment_ReceiverRecordsWithoutNotification(t *testing.T) {
	f := newFixture()
	from := int64(2)

	f.store.On("Create", mock.Anything, mock.Anything).Return(&Settlement{ID: 12, FromUserID: 2, ToUserID: 1}, nil)

	_, err := f.svc.RecordPayment(context.Background(), 1, &RecordPaymentRequest{
		GroupID:    3,
		FromUserID: &from,
		ToUserID:   1,
		Amount:     money.FromCents(500),
		Currency:   currency.EUR,
	})
	require.NoError(t, err)
	f.notifier.AssertNotCalled(t, "NotifyPaymentRecorded", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordPayment_Rejections(t *testing.T) {
	from := func(id int64) *int64 { return &id }

	tests := []struct {
		name    string
		caller  int64
		req     *RecordPaymentRequest
		wantErr error
	}{
		{name: "self payment", caller: 1, req: &RecordPaymentRequest{GroupID: 3, ToUserID: 1, Amount: 100}, wantErr: ErrCannotSettleSelf},
		{name: "zero amount", caller: 1, req: &RecordPaymentRequest{GroupID: 3, ToUserID: 2, Amount: 0}, wantErr: ErrInvalidAmount},
		{name: "negative amount", caller: 1, req: &RecordPaymentRequest{GroupID: 3, ToUserID: 2, Amount: -5}, wantErr: ErrInvalidAmount},
		{name: "third party", caller: 3, req: &RecordPaymentRequest{GroupID: 3, FromUserID: from(1), ToUserID: 2, Amount: 100}, wantErr: ErrNotParty},
		{name: "receiver outside group", caller: 1, req: &RecordPaymentRequest{GroupID: 3, ToUserID: 9, Amount: 100}, wantErr: ErrUserNotInGroup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			_, err := f.svc.RecordPayment(context.Background(), tt.caller, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			f.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestGetByID_ChecksMembership(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	groups := new(MockGroups)
	svc := NewService(store, groups, nil, nil, logger.Discard())

	store.On("GetByID", ctx, int64(5)).Return(&Settlement{ID: 5, GroupID: 4}, nil)
	store.On("GetByID", ctx, int64(6)).Return(nil, nil)
	groups.On("Authorize", ctx, int64(4), int64(9)).Return(nil, nil, group.ErrNotMember)

	_, err := svc.GetByID(ctx, 5, 9)
	assert.ErrorIs(t, err, group.ErrNotMember)

	_, err = svc.GetByID(ctx, 6, 9)
	assert.ErrorIs(t, err, ErrSettlementNotFound)
}

func TestRecordPaymentRequest_Validate(t *testing.T) {
	note := "  cash "
	req := &RecordPaymentRequest{GroupID: 1, ToUserID: 2, Amount: 100, Currency: "chf", Note: &note}
	require.NoError(t, req.Validate())
	assert.Equal(t, currency.Code("CHF"), req.Currency)
	assert.Equal(t, "cash", *req.Note)

	assert.Error(t, (&RecordPaymentRequest{GroupID: 1, ToUserID: 2}).Validate())
	assert.Error(t, (&RecordPaymentRequest{GroupID: 1, Amount: 100}).Validate())
	assert.Error(t, (&RecordPaymentRequest{GroupID: 1, ToUserID: 2, Amount: 100, Currency: "X"}).Validate())
}

func TestHandler_CreateSelfPaymentIs422(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"group_id":3,"to_user_id":1,"amount":"10.00"}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), 1))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_ListByGroup(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	f.store.On("ListByGroupID", mock.Anything, int64(3), 20, 0).Return([]*Settlement{
		{ID: 1, GroupID: 3, FromUserID: 2, ToUserID: 1, Amount: money.FromCents(1250), Currency: currency.GBP},
	}, 1, nil)

	req := httptest.NewRequest(http.MethodGet, "/group/3", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), 1))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"amount":12.50`)
}
