package balance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/splitledger/internal/group"
	"github.com/fkhayef/splitledger/internal/ledger"
	"github.com/fkhayef/splitledger/internal/rates"
	"github.com/fkhayef/splitledger/internal/user"
	"github.com/fkhayef/splitledger/pkg/currency"
	"github.com/fkhayef/splitledger/pkg/logger"
	"github.com/fkhayef/splitledger/pkg/middleware"
	"github.com/fkhayef/splitledger/pkg/money"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GroupRecords(ctx context.Context, groupID int64) (*Records, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Records), args.Error(1)
}

func (m *MockStore) UserRecords(ctx context.Context, userID int64) (*Records, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Records), args.Error(1)
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

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByID(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUsers) Usernames(ctx context.Context, ids []int64) (map[int64]string, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]string), args.Error(1)
}

type fixedRates rates.Snapshot

func (f fixedRates) Snapshot() rates.Snapshot {
	return rates.Snapshot(f).Clone()
}

var (
	asOf  = time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	names = map[int64]string{1: "alice", 2: "bob", 3: "carol"}
)

func testRates() fixedRates {
	return fixedRates{
		Base: currency.EUR,
		Rates: currency.RateTable{
			currency.EUR: decimal.NewFromInt(1),
			currency.USD: decimal.RequireFromString("1.25"),
		},
		AsOf: asOf,
	}
}

// Alice pays 90 EUR for three, bob pays alice back 30 EUR, then bob pays 10 USD for himself
// and carol. In EUR: alice +30, bob +4, carol -34.
func tripRecords() *Records {
	return &Records{
		Members: []int64{1, 2, 3},
		Expenses: []ledger.Expense{
			{ID: 1, Amount: 9000, Currency: currency.EUR, PaidBy: 1, Splits: []ledger.Split{
				{UserID: 1, AmountOwed: 3000}, {UserID: 2, AmountOwed: 3000}, {UserID: 3, AmountOwed: 3000},
			}},
			{ID: 2, Amount: 1000, Currency: currency.USD, PaidBy: 2, Splits: []ledger.Split{
				{UserID: 2, AmountOwed: 500}, {UserID: 3, AmountOwed: 500},
			}},
		},
		Payments: []ledger.Payment{
			{ID: 1, From: 2, To: 1, Amount: 3000, Currency: currency.EUR},
		},
	}
}

type fixture struct {
	store  *MockStore
	groups *MockGroups
	users  *MockUsers
	svc    *Service
}

func newFixture() *fixture {
	f := &fixture{
		store:  new(MockStore),
		groups: new(MockGroups),
		users:  new(MockUsers),
	}
	f.svc = NewService(f.store, f.groups, f.users, testRates(), logger.Discard())
	return f
}

func (f *fixture) withTrip() {
	trip := &group.Group{ID: 7, Name: "Lisbon", BaseCurrency: currency.EUR}
	f.groups.On("Authorize", mock.Anything, int64(7), int64(1)).Return(trip, &group.GroupMember{UserID: 1}, nil)
	f.store.On("GroupRecords", mock.Anything, int64(7)).Return(tripRecords(), nil)
	f.users.On("Usernames", mock.Anything, []int64{1, 2, 3}).Return(names, nil)
}

func TestService_GroupBalances(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.withTrip()

	resp, err := f.svc.GroupBalances(ctx, 7, 1, "")
	require.NoError(t, err)

	assert.Equal(t, currency.EUR, resp.Currency)
	assert.Equal(t, asOf, resp.RatesAsOf)
	assert.False(t, resp.Settled)
	assert.Empty(t, resp.MissingRates)
	require.Len(t, resp.Balances, 3)

	want := []struct {
		balance money.Money
		message string
	}{
		{3000, "You are owed 30.00 EUR"},
		{400, "bob is owed 4.00 EUR"},
		{-3400, "carol owes 34.00 EUR"},
	}
	var total money.Money
	for i, w := range want {
		assert.Equal(t, w.balance, resp.Balances[i].Balance)
		assert.Equal(t, w.message, resp.Balances[i].Message)
		total += resp.Balances[i].Balance
	}
	assert.True(t, total.IsZero())
}

func TestService_GroupBalancesInOtherCurrency(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.withTrip()

	resp, err := f.svc.GroupBalances(ctx, 7, 1, "usd")
	require.NoError(t, err)

	assert.Equal(t, currency.USD, resp.Currency)
	var total money.Money
	for _, b := range resp.Balances {
		total += b.Balance
	}
	assert.True(t, total.IsZero())
	assert.Equal(t, money.Money(3750), resp.Balances[0].Balance)
}

func TestService_GroupBalancesRejectsBadCurrency(t *testing.T) {
	f := newFixture()
	f.groups.On("Authorize", mock.Anything, int64(7), int64(1)).Return(&group.Group{ID: 7, BaseCurrency: currency.EUR}, &group.GroupMember{}, nil)

	_, err := f.svc.GroupBalances(context.Background(), 7, 1, "euro")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
	f.store.AssertNotCalled(t, "GroupRecords", mock.Anything, mock.Anything)
}

func TestService_GroupBalancesNotMember(t *testing.T) {
	f := newFixture()
	f.groups.On("Authorize", mock.Anything, int64(7), int64(9)).Return(nil, nil, group.ErrNotMember)

	_, err := f.svc.GroupBalances(context.Background(), 7, 9, "")
	assert.ErrorIs(t, err, group.ErrNotMember)
}

func TestService_MissingRatesAreReported(t *testing.T) {
	f := newFixture()
	recs := tripRecords()
	recs.Expenses = append(recs.Expenses, ledger.Expense{
		ID: 3, Amount: 100000, Currency: "JPY", PaidBy: 3,
		Splits: []ledger.Split{{UserID: 1, AmountOwed: 100000}},
	})

	f.groups.On("Authorize", mock.Anything, int64(7), int64(1)).Return(&group.Group{ID: 7, BaseCurrency: currency.EUR}, &group.GroupMember{}, nil)
	f.store.On("GroupRecords", mock.Anything, int64(7)).Return(recs, nil)
	f.users.On("Usernames", mock.Anything, []int64{1, 2, 3}).Return(names, nil)

	resp, err := f.svc.GroupBalances(context.Background(), 7, 1, "")
	require.NoError(t, err)
	assert.Equal(t, []currency.Code{"JPY"}, resp.MissingRates)
	assert.Equal(t, money.Money(-97000), resp.Balances[0].Balance)
}

func TestService_SettlementPlan(t *testing.T) {
	f := newFixture()
	f.withTrip()

	resp, err := f.svc.SettlementPlan(context.Background(), 7, 1, "")
	require.NoError(t, err)

	require.Len(t, resp.Transfers, 2)
	assert.Equal(t, int64(3), resp.Transfers[0].FromUserID)
	assert.Equal(t, int64(1), resp.Transfers[0].ToUserID)
	assert.Equal(t, money.Money(3000), resp.Transfers[0].Amount)
	assert.Equal(t, "carol pays alice 30.00 EUR", resp.Transfers[0].Message)
	assert.Equal(t, int64(2), resp.Transfers[1].ToUserID)
	assert.Equal(t, money.Money(400), resp.Transfers[1].Amount)
}

func TestService_Summary(t *testing.T) {
	f := newFixture()
	f.withTrip()

	resp, err := f.svc.Summary(context.Background(), 7, 1, "")
	require.NoError(t, err)

	assert.Equal(t, "Lisbon", resp.GroupName)
	assert.Equal(t, money.Money(9800), resp.TotalSpent)
	assert.Equal(t, 2, resp.ExpenseCount)
	assert.Equal(t, 1, resp.PaymentCount)
	require.Len(t, resp.Members, 3)
	assert.Equal(t, "bob", resp.Members[1].Username)
	assert.Equal(t, money.Money(800), resp.Members[1].Paid)
	assert.Equal(t, money.Money(3400), resp.Members[1].Share)
	assert.Equal(t, money.Money(400), resp.Members[1].Net)
}

func TestService_MyBalances(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	recs := tripRecords()
	f.users.On("GetByID", ctx, int64(3)).Return(&user.User{ID: 3, DefaultCurrency: currency.EUR}, nil)
	f.store.On("UserRecords", ctx, int64(3)).Return(&Records{Expenses: recs.Expenses}, nil)
	f.users.On("Usernames", ctx, []int64{1, 2}).Return(names, nil)

	resp, err := f.svc.MyBalances(ctx, 3, "")
	require.NoError(t, err)

	assert.Equal(t, currency.EUR, resp.Currency)
	assert.Equal(t, money.Money(-3400), resp.Net)
	require.Len(t, resp.Balances, 2)
	assert.Equal(t, "You owe alice 30.00 EUR", resp.Balances[0].Message)
	assert.Equal(t, "You owe bob 4.00 EUR", resp.Balances[1].Message)
}

func TestService_MyBalancesSettledUp(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.users.On("GetByID", ctx, int64(2)).Return(&user.User{ID: 2, DefaultCurrency: currency.USD}, nil)
	f.store.On("UserRecords", ctx, int64(2)).Return(&Records{
		Expenses: tripRecords().Expenses[:1],
		Payments: tripRecords().Payments,
	}, nil)
	f.users.On("Usernames", ctx, []int64{1}).Return(names, nil)

	resp, err := f.svc.MyBalances(ctx, 2, "")
	require.NoError(t, err)

	assert.Equal(t, currency.USD, resp.Currency)
	require.Len(t, resp.Balances, 1)
	assert.Equal(t, "You and alice are settled up", resp.Balances[0].Message)
	assert.True(t, resp.Net.IsZero())
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "You are settled up", memberMessage("alice", true, 0, currency.EUR))
	assert.Equal(t, "You owe 1.50 EUR", memberMessage("alice", true, -150, currency.EUR))
	assert.Equal(t, "dan is settled up", memberMessage("dan", false, 0, currency.EUR))
	assert.Equal(t, "dan owes you 2.00 GBP", pairMessage("dan", 200, currency.GBP))
}

func serve(h *Handler, req *http.Request, userID int64) *httptest.ResponseRecorder {
	if userID != 0 {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	r := chi.NewRouter()
	r.Route("/groups", h.MountGroupRoutes)
	r.Mount("/balances", h.Routes())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_GroupBalances(t *testing.T) {
	f := newFixture()
	f.withTrip()
	h := NewHandler(f.svc)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/groups/7/balances", nil), 1)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Currency string `json:"currency"`
			Balances []struct {
				UserID  int64   `json:"user_id"`
				Balance float64 `json:"balance"`
			} `json:"balances"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "EUR", body.Data.Currency)
	require.Len(t, body.Data.Balances, 3)
	assert.Equal(t, -34.0, body.Data.Balances[2].Balance)
}

func TestHandler_Errors(t *testing.T) {
	f := newFixture()
	f.groups.On("Authorize", mock.Anything, int64(7), int64(9)).Return(nil, nil, group.ErrNotMember)
	f.groups.On("Authorize", mock.Anything, int64(8), int64(1)).Return(nil, nil, group.ErrGroupNotFound)
	f.groups.On("Authorize", mock.Anything, int64(7), int64(1)).Return(&group.Group{ID: 7, BaseCurrency: currency.EUR}, &group.GroupMember{}, nil)
	h := NewHandler(f.svc)

	tests := []struct {
		name   string
		path   string
		userID int64
		want   int
	}{
		{"no user", "/groups/7/summary", 0, http.StatusUnauthorized},
		{"bad group id", "/groups/abc/balances", 1, http.StatusBadRequest},
		{"outsider", "/groups/7/settlement-plan", 9, http.StatusForbidden},
		{"unknown group", "/groups/8/balances", 1, http.StatusNotFound},
		{"bad currency", "/groups/7/balances?currency=dollars", 1, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, httptest.NewRequest(http.MethodGet, tt.path, nil), tt.userID)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHandler_Me(t *testing.T) {
	f := newFixture()
	f.users.On("GetByID", mock.Anything, int64(3)).Return(&user.User{ID: 3, DefaultCurrency: currency.EUR}, nil)
	f.store.On("UserRecords", mock.Anything, int64(3)).Return(&Records{Expenses: tripRecords().Expenses}, nil)
	f.users.On("Usernames", mock.Anything, []int64{1, 2}).Return(names, nil)
	f.users.On("GetByID", mock.Anything, int64(4)).Return(nil, user.ErrUserNotFound)
	h := NewHandler(f.svc)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/balances/me?currency=usd", nil), 3)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"currency":"USD"`)
	assert.Contains(t, rec.Body.String(), `"net":-42.50`)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/balances/me", nil), 4)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
