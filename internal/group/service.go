package group

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/fkhayef/splitledger/pkg/currency"
)

// Common errors
var (
	ErrGroupNotFound       = errors.New("group not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrMemberAlreadyExists = errors.New("user is already a member of this group")
	ErrMemberHasActivity   = errors.New("member has expenses or payments in this group")
	ErrNotMember           = errors.New("not a member of this group")
	ErrNotAuthorized       = errors.New("not authorized to perform this action")
)

// Store is the persistence the group service needs.
type Store interface {
	Create(ctx context.Context, creatorID int64, req *CreateGroupRequest, base currency.Code) (*Group, error)
	GetByID(ctx context.Context, id int64) (*Group, error)
	ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Group, int, error)
	Update(ctx context.Context, id int64, req *UpdateGroupRequest) (*Group, error)
	Delete(ctx context.Context, id int64) error
	AddMember(ctx context.Context, groupID int64, req *AddMemberRequest) (*GroupMember, error)
	GetMembers(ctx context.Context, groupID int64) ([]*GroupMember, error)
	MemberIDs(ctx context.Context, groupID int64) ([]int64, error)
	GetMember(ctx context.Context, groupID, userID int64) (*GroupMember, error)
	UpdateMember(ctx context.Context, groupID, userID int64, req *UpdateMemberRequest) (*GroupMember, error)
	HasActivity(ctx context.Context, groupID, userID int64) (bool, error)
	RemoveMember(ctx context.Context, groupID, userID int64) error
}

// Notifier delivers in-app notifications about membership.
type Notifier interface {
	NotifyGroupInvite(ctx context.Context, recipientID int64, groupName string, groupID int64) error
}

// Service handles group business logic
type Service struct {
	repo            Store
	notifier        Notifier
	defaultCurrency currency.Code
	log             logrus.FieldLogger
}

// NewService creates a new group service
func NewService(repo Store, notifier Notifier, defaultCurrency currency.Code, log logrus.FieldLogger) *Service {
	return &Service{repo: repo, notifier: notifier, defaultCurrency: defaultCurrency, log: log}
}

// Create creates a new group and adds the creator as a joined admin
func (s *Service) Create(ctx context.Context, creatorID int64, req *CreateGroupRequest) (*Group, error) {
	base := req.BaseCurrency
	if base == "" {
		base = s.defaultCurrency
	}
	return s.repo.Create(ctx, creatorID, req, base)
}

// GetByID retrieves a group by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Group, error) {
	group, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// Authorize loads the group and checks that userID belongs to it.
func (s *Service) Authorize(ctx context.Context, groupID, userID int64) (*Group, *GroupMember, error) {
	group, err := s.GetByID(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}

	member, err := s.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		return nil, nil, err
	}
	if member == nil {
		return nil, nil, ErrNotMember
	}

	return group, member, nil
}

func (s *Service) authorizeAdmin(ctx context.Context, groupID, userID int64) (*Group, error) {
	group, member, err := s.Authorize(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if member.Role != MemberRoleAdmin {
		return nil, ErrNotAuthorized
	}
	return group, nil
}

// GetByIDWithMembers retrieves a group with all its members
func (s *Service) GetByIDWithMembers(ctx context.Context, id, userID int64) (*Group, []*GroupMember, error) {
	group, _, err := s.Authorize(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.repo.GetMembers(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return group, members, nil
}

// ListByUserID retrieves all groups for a user
func (s *Service) ListByUserID(ctx context.Context, userID int64, page, perPage int) ([]*Group, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByUserID(ctx, userID, perPage, offset)
}

// Update modifies an existing group. Admin only.
func (s *Service) Update(ctx context.Context, id, userID int64, req *UpdateGroupRequest) (*Group, error) {
	if _, err := s.authorizeAdmin(ctx, id, userID); err != nil {
		return nil, err
	}

	group, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// Delete removes a group. Admin only.
func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	if _, err := s.authorizeAdmin(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// AddMember invites a user to a group. Any member may invite.
func (s *Service) AddMember(ctx context.Context, groupID, inviterID int64, req *AddMemberRequest) (*GroupMember, error) {
	group, _, err := s.Authorize(ctx, groupID, inviterID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetMember(ctx, groupID, req.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrMemberAlreadyExists
	}

	member, err := s.repo.AddMember(ctx, groupID, req)
	if err != nil {
		return nil, err
	}

	if err := s.notifier.NotifyGroupInvite(ctx, req.UserID, group.Name, groupID); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"group_id": groupID,
			"user_id":  req.UserID,
		}).Warn("failed to send group invite notification")
	}

	return member, nil
}

// GetMembers retrieves all members of a group
func (s *Service) GetMembers(ctx context.Context, groupID, userID int64) ([]*GroupMember, error) {
	if _, _, err := s.Authorize(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.repo.GetMembers(ctx, groupID)
}

// MemberIDs returns the ids of the members whose balances are tracked.
func (s *Service) MemberIDs(ctx context.Context, groupID int64) ([]int64, error) {
	return s.repo.MemberIDs(ctx, groupID)
}

// UpdateMember updates a member's status or role. Admin only.
func (s *Service) UpdateMember(ctx context.Context, groupID, actorID, userID int64, req *UpdateMemberRequest) (*GroupMember, error) {
	if _, err := s.authorizeAdmin(ctx, groupID, actorID); err != nil {
		return nil, err
	}

	member, err := s.repo.UpdateMember(ctx, groupID, userID, req)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

// RemoveMember removes a user from a group. Admins may remove anyone, members only themselves.
// Members with recorded activity stay so balances keep summing to zero.
func (s *Service) RemoveMember(ctx context.Context, groupID, actorID, userID int64) error {
	_, actor, err := s.Authorize(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	if actorID != userID && actor.Role != MemberRoleAdmin {
		return ErrNotAuthorized
	}

	active, err := s.repo.HasActivity(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if active {
		return ErrMemberHasActivity
	}

	return s.repo.RemoveMember(ctx, groupID, userID)
}

// AcceptInvitation allows a user to accept their group invitation
func (s *Service) AcceptInvitation(ctx context.Context, groupID, userID int64) (*GroupMember, error) {
	member, err := s.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	if member.Status != MemberStatusInvited {
		return member, nil
	}

	return s.repo.UpdateMember(ctx, groupID, userID, &UpdateMemberRequest{
		Status: statusPtr(MemberStatusJoined),
	})
}

func statusPtr(s MemberStatus) *MemberStatus {
	return &s
}
