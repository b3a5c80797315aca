package group

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/splitledger/pkg/currency"
	"github.com/fkhayef/splitledger/pkg/logger"
	"github.com/fkhayef/splitledger/pkg/middleware"
)

var (
	_ Store = (*Repository)(nil)
	_ Store = (*MockStore)(nil)
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, creatorID int64, req *CreateGroupRequest, base currency.Code) (*Group, error) {
	args := m.Called(ctx, creatorID, req, base)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Group), args.Error(1)
}

func (m *MockStore) GetByID(ctx context.Context, id int64) (*Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Group), args.Error(1)
}

func (m *MockStore) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Group, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]*Group), args.Int(1), args.Error(2)
}

func (m *MockStore) Update(ctx context.Context, id int64, req *UpdateGroupRequest) (*Group, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Group), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) AddMember(ctx context.Context, groupID int64, req *AddMemberRequest) (*GroupMember, error) {
	args := m.Called(ctx, groupID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GroupMember), args.Error(1)
}

func (m *MockStore) GetMembers(ctx context.Context, groupID int64) ([]*GroupMember, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).([]*GroupMember), args.Error(1)
}

func (m *MockStore) MemberIDs(ctx context.Context, groupID int64) ([]int64, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockStore) GetMember(ctx context.Context, groupID, userID int64) (*GroupMember, error) {
	args := m.Called(ctx, groupID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GroupMember), args.Error(1)
}

func (m *MockStore) UpdateMember(ctx context.Context, groupID, userID int64, req *UpdateMemberRequest) (*GroupMember, error) {
	args := m.Called(ctx, groupID, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GroupMember), args.Error(1)
}

func (m *MockStore) HasActivity(ctx context.Context, groupID, userID int64) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) RemoveMember(ctx context.Context, groupID, userID int64) error {
	return m.Called(ctx, groupID, userID).Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyGroupInvite(ctx context.Context, recipientID int64, groupName string, groupID int64) error {
	return m.Called(ctx, recipientID, groupName, groupID).Error(0)
}

func newTestService(store *MockStore, notifier *MockNotifier) *Service {
	return NewService(store, notifier, currency.USD, logger.Discard())
}

var trip = &Group{ID: 7, Name: "Trip", BaseCurrency: currency.EUR}

func TestService_CreateDefaultsBaseCurrency(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	svc := newTestService(store, new(MockNotifier))

	req := &CreateGroupRequest{Name: "Flat"}
	store.On("Create", ctx, int64(1), req, currency.USD).Return(&Group{ID: 1, Name: "Flat", BaseCurrency: currency.USD}, nil)

	g, err := svc.Create(ctx, 1, req)
	require.NoError(t, err)
	assert.Equal(t, currency.USD, g.BaseCurrency)
	store.AssertExpectations(t)
}

func TestService_Authorize(t *testing.T) {
	ctx := context.Background()

	t.Run("group missing", func(t *testing.T) {
		store := new(MockStore)
		store.On("GetByID", ctx, int64(7)).Return(nil, nil)

		_, _, err := newTestService(store, nil).Authorize(ctx, 7, 1)
		assert.ErrorIs(t, err, ErrGroupNotFound)
	})

	t.Run("not a member", func(t *testing.T) {
		store := new(MockStore)
		store.On("GetByID", ctx, int64(7)).Return(trip, nil)
		store.On("GetMember", ctx, int64(7), int64(9)).Return(nil, nil)

		_, _, err := newTestService(store, nil).Authorize(ctx, 7, 9)
		assert.ErrorIs(t, err, ErrNotMember)
	})

	t.Run("invited member is allowed", func(t *testing.T) {
		store := new(MockStore)
		store.On("GetByID", ctx, int64(7)).Return(trip, nil)
		store.On("GetMember", ctx, int64(7), int64(2)).Return(&GroupMember{UserID: 2, Status: MemberStatusInvited}, nil)

		g, m, err := newTestService(store, nil).Authorize(ctx, 7, 2)
		require.NoError(t, err)
		assert.Equal(t, trip, g)
		assert.Equal(t, int64(2), m.UserID)
	})
}

func TestService_UpdateRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	svc := newTestService(store, nil)

	store.On("GetByID", ctx, int64(7)).Return(trip, nil)
	store.On("GetMember", ctx, int64(7), int64(2)).Return(&GroupMember{UserID: 2, Role: MemberRoleMember}, nil)

	name := "Renamed"
	_, err := svc.Update(ctx, 7, 2, &UpdateGroupRequest{Name: &name})
	assert.ErrorIs(t, err, ErrNotAuthorized)
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_AddMemberNotifies(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	notifier := new(MockNotifier)
	svc := newTestService(store, notifier)

	req := &AddMemberRequest{UserID: 3, Role: MemberRoleMember}
	store.On("GetByID", ctx, int64(7)).Return(trip, nil)
	store.On("GetMember", ctx, int64(7), int64(1)).Return(&GroupMember{UserID: 1, Role: MemberRoleAdmin}, nil)
	store.On("GetMember", ctx, int64(7), int64(3)).Return(nil, nil)
	store.On("AddMember", ctx, int64(7), req).Return(&GroupMember{UserID: 3, Status: MemberStatusInvited}, nil)
	notifier.On("NotifyGroupInvite", ctx, int64(3), "Trip", int64(7)).Return(errors.New("smtp down"))

	m, err := svc.AddMember(ctx, 7, 1, req)
	require.NoError(t, err, "notification failures do not fail the invite")
	assert.Equal(t, MemberStatusInvited, m.Status)
	notifier.AssertExpectations(t)
}

func TestService_AddMemberDuplicate(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	svc := newTestService(store, new(MockNotifier))

	store.On("GetByID", ctx, int64(7)).Return(trip, nil)
	store.On("GetMember", ctx, int64(7), int64(1)).Return(&GroupMember{UserID: 1}, nil)

	_, err := svc.AddMember(ctx, 7, 1, &AddMemberRequest{UserID: 1, Role: MemberRoleMember})
	assert.ErrorIs(t, err, ErrMemberAlreadyExists)
}

func TestService_RemoveMember(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		actor    *GroupMember
		targetID int64
		active   bool
		wantErr  error
	}{
		{name: "admin removes idle member", actor: &GroupMember{UserID: 1, Role: MemberRoleAdmin}, targetID: 3},
		{name: "member leaves", actor: &GroupMember{UserID: 3, Role: MemberRoleMember}, targetID: 3},
		{name: "member removes other", actor: &GroupMember{UserID: 3, Role: MemberRoleMember}, targetID: 4, wantErr: ErrNotAuthorized},
		{name: "member with activity", actor: &GroupMember{UserID: 1, Role: MemberRoleAdmin}, targetID: 3, active: true, wantErr: ErrMemberHasActivity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			svc := newTestService(store, nil)

			store.On("GetByID", ctx, int64(7)).Return(trip, nil)
			store.On("GetMember", ctx, int64(7), tt.actor.UserID).Return(tt.actor, nil)
			store.On("HasActivity", ctx, int64(7), tt.targetID).Return(tt.active, nil)
			store.On("RemoveMember", ctx, int64(7), tt.targetID).Return(nil)

			err := svc.RemoveMember(ctx, 7, tt.actor.UserID, tt.targetID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				store.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			store.AssertCalled(t, "RemoveMember", ctx, int64(7), tt.targetID)
		})
	}
}

func TestService_AcceptInvitation(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	svc := newTestService(store, nil)

	store.On("GetMember", ctx, int64(7), int64(3)).Return(&GroupMember{UserID: 3, Status: MemberStatusInvited}, nil)
	store.On("UpdateMember", ctx, int64(7), int64(3), mock.MatchedBy(func(req *UpdateMemberRequest) bool {
		return req.Status != nil && *req.Status == MemberStatusJoined && req.Role == nil
	})).Return(&GroupMember{UserID: 3, Status: MemberStatusJoined}, nil)

	m, err := svc.AcceptInvitation(ctx, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, MemberStatusJoined, m.Status)
}

func TestRequests_Validate(t *testing.T) {
	req := &CreateGroupRequest{Name: "  Trip ", BaseCurrency: " gbp"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Trip", req.Name)
	assert.Equal(t, currency.GBP, req.BaseCurrency)

	assert.Error(t, (&CreateGroupRequest{Name: "   "}).Validate())
	assert.Error(t, (&CreateGroupRequest{Name: "x", BaseCurrency: "EURO"}).Validate())

	add := &AddMemberRequest{UserID: 3}
	require.NoError(t, add.Validate())
	assert.Equal(t, MemberRoleMember, add.Role)

	bad := MemberStatus("LEFT")
	assert.Error(t, (&UpdateMemberRequest{Status: &bad}).Validate())
}

func TestHandler_GetByIDForbiddenForOutsiders(t *testing.T) {
	store := new(MockStore)
	h := NewHandler(newTestService(store, nil))

	store.On("GetByID", mock.Anything, int64(7)).Return(trip, nil)
	store.On("GetMember", mock.Anything, int64(7), int64(9)).Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/7", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), 9))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_Create(t *testing.T) {
	store := new(MockStore)
	h := NewHandler(newTestService(store, nil))

	store.On("Create", mock.Anything, int64(1), mock.Anything, currency.EUR).
		Return(&Group{ID: 7, Name: "Trip", BaseCurrency: currency.EUR}, nil)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Trip","base_currency":"eur"}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), 1))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"base_currency":"EUR"`)
}
