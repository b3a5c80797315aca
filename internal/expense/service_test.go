package expense

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/internal/group"
	"github.com/fkhayef/splitledger/pkg/currency"
	"github.com/fkhayef/splitledger/pkg/logger"
	"github.com/fkhayef/splitledger/pkg/middleware"
	"github.com/fkhayef/splitledger/pkg/money"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateWithSplits(ctx context.Context, e *Expense, outputs []split.SplitOutput) (*ExpenseWithSplits, error) {
	args := m.Called(ctx, e, outputs)
	if fn, ok := args.Get(0).(func(context.Context, *Expense, []split.SplitOutput) *ExpenseWithSplits); ok {
		return fn(ctx, e, outputs), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ExpenseWithSplits), args.Error(1)
}

func (m *MockStore) GetExpenseByID(ctx context.Context, id int64) (*Expense, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Expense), args.Error(1)
}

func (m *MockStore) GetSplitsByExpenseID(ctx context.Context, expenseID int64) ([]*Split, error) {
	args := m.Called(ctx, expenseID)
	return args.Get(0).([]*Split), args.Error(1)
}

func (m *MockStore) ListExpensesByGroupID(ctx context.Context, groupID int64, limit, offset int) ([]*Expense, int, error) {
	args := m.Called(ctx, groupID, limit, offset)
	return args.Get(0).([]*Expense), args.Int(1), args.Error(2)
}

func (m *MockStore) DeleteExpense(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
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

func (m *MockNotifier) NotifyExpenseAdded(ctx context.Context, recipientID int64, payerName, description string, share money.Money, code currency.Code, expenseID int64) error {
	return m.Called(ctx, recipientID, payerName, description, share, code, expenseID).Error(0)
}

const (
	alice int64 = 1
	bob   int64 = 2
	carol int64 = 3
	dave  int64 = 4
)

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
	f.svc = NewService(f.store, f.groups, f.users, f.notifier, split.NewSplitStrategyFactory(), logger.Discard())

	trip := &group.Group{ID: 7, Name: "Trip", BaseCurrency: currency.EUR}
	f.groups.On("Authorize", mock.Anything, int64(7), mock.Anything).Return(trip, &group.GroupMember{}, nil)
	f.groups.On("MemberIDs", mock.Anything, int64(7)).Return([]int64{alice, bob, carol}, nil)
	f.users.On("Usernames", mock.Anything, mock.Anything).Return(map[int64]string{alice: "alice"}, nil)
	return f
}

// echoCreate makes CreateWithSplits return what it was given.
func (f *fixture) echoCreate() {
	f.store.On("CreateWithSplits", mock.Anything, mock.Anything, mock.Anything).Return(
		func(_ context.Context, e *Expense, outputs []split.SplitOutput) *ExpenseWithSplits {
			saved := *e
			saved.ID = 99
			res := &ExpenseWithSplits{Expense: &saved}
			for i, o := range outputs {
				res.Splits = append(res.Splits, &Split{ExpenseID: 99, UserID: o.UserID, Position: i, AmountOwed: o.AmountOwed})
			}
			return res
		}, nil)
}

func participants(ids ...int64) []*SplitParticipant {
	out := make([]*SplitParticipant, len(ids))
	for i, id := range ids {
		out[i] = &SplitParticipant{UserID: id}
	}
	return out
}

func TestCreateExpense_EqualThreeWays(t *testing.T) {
	f := newFixture()
	f.echoCreate()
	f.notifier.On("NotifyExpenseAdded", mock.Anything, mock.Anything, "alice", "Dinner", mock.Anything, currency.EUR, int64(99)).Return(nil)

	req := &CreateExpenseRequest{
		GroupID:      7,
		Description:  "Dinner",
		Amount:       money.FromCents(10000),
		SplitType:    split.SplitTypeEqual,
		Participants: participants(alice, bob, carol),
	}
	require.NoError(t, req.Validate())

	res, err := f.svc.CreateExpense(context.Background(), alice, req)
	require.NoError(t, err)

	assert.Equal(t, currency.EUR, res.Expense.Currency, "defaults to the group currency")
	require.Len(t, res.Splits, 3)
	assert.Equal(t, money.FromCents(3334), res.Splits[0].AmountOwed)
	assert.Equal(t, money.FromCents(3333), res.Splits[1].AmountOwed)
	assert.Equal(t, money.FromCents(3333), res.Splits[2].AmountOwed)

	f.notifier.AssertNumberOfCalls(t, "NotifyExpenseAdded", 2)
	f.notifier.AssertNotCalled(t, "NotifyExpenseAdded", mock.Anything, alice, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateExpense_SelfExpenseHasNoSplits(t *testing.T) {
	f := newFixture()
	f.echoCreate()

	req := &CreateExpenseRequest{
		GroupID:      7,
		Description:  "Coffee",
		Amount:       money.FromCents(450),
		Currency:     currency.USD,
		SplitType:    split.SplitTypeEqual,
		Participants: participants(alice),
	}

	res, err := f.svc.CreateExpense(context.Background(), alice, req)
	require.NoError(t, err)
	assert.Empty(t, res.Splits)
	f.notifier.AssertNotCalled(t, "NotifyExpenseAdded", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateExpense_PaidByAnotherMember(t *testing.T) {
	f := newFixture()
	f.echoCreate()
	f.notifier.On("NotifyExpenseAdded", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	payer := bob
	exactA, exactC := money.FromCents(2000), money.FromCents(3000)
	req := &CreateExpenseRequest{
		GroupID:     7,
		PaidBy:      &payer,
		Description: "Tickets",
		Amount:      money.FromCents(5000),
		SplitType:   split.SplitTypeExact,
		Participants: []*SplitParticipant{
			{UserID: alice, Amount: &exactA},
			{UserID: carol, Amount: &exactC},
		},
	}

	res, err := f.svc.CreateExpense(context.Background(), alice, req)
	require.NoError(t, err)
	assert.Equal(t, bob, res.Expense.PayerID)
	assert.Equal(t, exactA, res.Splits[0].AmountOwed)
	assert.Equal(t, exactC, res.Splits[1].AmountOwed)
	f.notifier.AssertNumberOfCalls(t, "NotifyExpenseAdded", 2)
}

func TestCreateExpense_Rejections(t *testing.T) {
	pct := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}
	outsider := dave

	tests := []struct {
		name    string
		req     *CreateExpenseRequest
		wantErr []error
	}{
		{
			name: "percentages do not sum to 100",
			req: &CreateExpenseRequest{
				GroupID: 7, Description: "x", Amount: money.FromCents(1000), SplitType: split.SplitTypePercent,
				Participants: []*SplitParticipant{{UserID: alice, Percentage: pct("50")}, {UserID: bob, Percentage: pct("40")}},
			},
			wantErr: []error{ErrInvalidSplit, split.ErrInvalidPercentages},
		},
		{
			name: "exact amounts do not sum to total",
			req: &CreateExpenseRequest{
				GroupID: 7, Description: "x", Amount: money.FromCents(1000), SplitType: split.SplitTypeExact,
				Participants: []*SplitParticipant{{UserID: alice, Amount: ptr(money.FromCents(400))}},
			},
			wantErr: []error{ErrInvalidSplit, split.ErrInvalidExactAmounts},
		},
		{
			name: "duplicate participant",
			req: &CreateExpenseRequest{
				GroupID: 7, Description: "x", Amount: money.FromCents(1000), SplitType: split.SplitTypeEqual,
				Participants: participants(alice, alice),
			},
			wantErr: []error{ErrInvalidSplit, split.ErrDuplicateParticipant},
		},
		{
			name: "participant outside group",
			req: &CreateExpenseRequest{
				GroupID: 7, Description: "x", Amount: money.FromCents(1000), SplitType: split.SplitTypeEqual,
				Participants: participants(alice, dave),
			},
			wantErr: []error{ErrParticipantNotInGroup},
		},
		{
			name: "payer outside group",
			req: &CreateExpenseRequest{
				GroupID: 7, PaidBy: &outsider, Description: "x", Amount: money.FromCents(1000), SplitType: split.SplitTypeEqual,
				Participants: participants(alice),
			},
			wantErr: []error{ErrPayerNotInGroup},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			_, err := f.svc.CreateExpense(context.Background(), alice, tt.req)
			for _, want := range tt.wantErr {
				assert.ErrorIs(t, err, want)
			}
			f.store.AssertNotCalled(t, "CreateWithSplits", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreateExpense_NotAMember(t *testing.T) {
	f := &fixture{store: new(MockStore), groups: new(MockGroups)}
	f.svc = NewService(f.store, f.groups, nil, nil, split.NewSplitStrategyFactory(), logger.Discard())
	f.groups.On("Authorize", mock.Anything, int64(7), dave).Return(nil, nil, group.ErrNotMember)

	_, err := f.svc.CreateExpense(context.Background(), dave, &CreateExpenseRequest{GroupID: 7})
	assert.ErrorIs(t, err, group.ErrNotMember)
}

func TestDeleteExpense(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.store.On("GetExpenseByID", ctx, int64(5)).Return(&Expense{ID: 5, GroupID: 7, PayerID: alice}, nil)
	f.store.On("GetExpenseByID", ctx, int64(6)).Return(nil, nil)
	f.store.On("DeleteExpense", ctx, int64(5)).Return(nil)

	assert.ErrorIs(t, f.svc.DeleteExpense(ctx, 5, bob), ErrNotPayer)
	assert.ErrorIs(t, f.svc.DeleteExpense(ctx, 6, alice), ErrExpenseNotFound)
	require.NoError(t, f.svc.DeleteExpense(ctx, 5, alice))
}

func TestCreateExpenseRequest_Validate(t *testing.T) {
	req := &CreateExpenseRequest{
		GroupID: 7, Description: " Taxi ", Amount: money.FromCents(100), Currency: "usd",
		SplitType: "equal", Participants: participants(alice),
	}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Taxi", req.Description)
	assert.Equal(t, currency.USD, req.Currency)
	assert.Equal(t, split.SplitTypeEqual, req.SplitType)

	bad := []*CreateExpenseRequest{
		{GroupID: 7, Description: "x", Amount: 0, SplitType: "EQUAL", Participants: participants(alice)},
		{GroupID: 7, Description: "x", Amount: 100, SplitType: "EVEN", Participants: participants(alice)},
		{GroupID: 7, Description: "x", Amount: 100, SplitType: "EQUAL"},
		{GroupID: 7, Description: "", Amount: 100, SplitType: "EQUAL", Participants: participants(alice)},
		{GroupID: 7, Description: "x", Amount: 100, Currency: "EURO", SplitType: "EQUAL", Participants: participants(alice)},
	}
	for _, b := range bad {
		assert.Error(t, b.Validate())
	}
}

func TestHandler_CreateInvalidSplitIs422(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	body := `{"group_id":7,"description":"Hotel","amount":"300.00","split_type":"PERCENT",
		"participants":[{"user_id":1,"percentage":60},{"user_id":2,"percentage":30}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), alice))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestHandler_Create(t *testing.T) {
	f := newFixture()
	f.echoCreate()
	f.notifier.On("NotifyExpenseAdded", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	h := NewHandler(f.svc)

	body := `{"group_id":7,"description":"Hotel","amount":100,"split_type":"EQUAL",
		"participants":[{"user_id":1},{"user_id":2},{"user_id":3}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), alice))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"amount_owed":33.34`)
	assert.Contains(t, rec.Body.String(), `"currency":"EUR"`)
}

func ptr[T any](v T) *T {
	return &v
}
