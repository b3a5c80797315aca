package user

import (
	"context"
	"errors"

	"github.com/fkhayef/splitledger/pkg/currency"
)

// Common errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailAlreadyInUse = errors.New("email already in use")
)

// Store is the persistence the user service needs. *Repository implements it.
type Store interface {
	Create(ctx context.Context, req *CreateUserRequest, defaultCurrency currency.Code) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
	Update(ctx context.Context, id int64, req *UpdateUserRequest) (*User, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles user business logic
type Service struct {
	repo            Store
	defaultCurrency currency.Code
}

// NewService creates a new user service with repository dependency injected.
// New users without a preferred currency get defaultCurrency.
func NewService(repo Store, defaultCurrency currency.Code) *Service {
	return &Service{repo: repo, defaultCurrency: defaultCurrency}
}

// Create creates a new user
func (s *Service) Create(ctx context.Context, req *CreateUserRequest) (*User, error) {
	existing, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyInUse
	}

	code := req.DefaultCurrency
	if code == "" {
		code = s.defaultCurrency
	}

	return s.repo.Create(ctx, req, code)
}

// GetByID retrieves a user by their ID
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Usernames maps each known id to its username. Unknown ids are left out.
func (s *Service) Usernames(ctx context.Context, ids []int64) (map[int64]string, error) {
	users, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}

// List retrieves all users with pagination
func (s *Service) List(ctx context.Context, page, perPage int) ([]*User, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.List(ctx, perPage, offset)
}

// Update modifies an existing user
func (s *Service) Update(ctx context.Context, id int64, req *UpdateUserRequest) (*User, error) {
	user, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Delete removes a user
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
