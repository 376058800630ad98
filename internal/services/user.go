package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bazaar-market/apiserver/internal/auth"
	"github.com/bazaar-market/apiserver/internal/store"
	"github.com/bazaar-market/apiserver/types"
)

const maxPageSize = 100

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	List(ctx context.Context, offset, limit int) ([]types.User, int, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, id int, update types.UserUpdate) (types.User, error)
	Delete(ctx context.Context, id int) (types.User, error)
}

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo            UserRepository
	policy          auth.PasswordPolicy
	defaultPageSize int
}

func NewUserService(repo UserRepository, policy auth.PasswordPolicy, defaultPageSize int) *UserService {
	if defaultPageSize < 1 {
		defaultPageSize = 20
	}
	return &UserService{repo: repo, policy: policy, defaultPageSize: defaultPageSize}
}

// Register validates the password against the credential policy, rejects
// taken usernames, and persists the account with a hashed password. The
// username check is check-then-insert; the store's unique constraint is the
// backstop for the race.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (types.User, error) {
	var reasons []string
	if input.Username == "" {
		reasons = append(reasons, "username is required")
	}
	if input.Email == "" {
		reasons = append(reasons, "email is required")
	}
	if input.Password == "" {
		reasons = append(reasons, "password is required")
	} else {
		reasons = append(reasons, s.policy.Validate(input.Password)...)
	}
	if len(reasons) > 0 {
		return types.User{}, &ValidationError{Reasons: reasons}
	}

	_, err := s.repo.GetByUsername(ctx, input.Username)
	if err == nil {
		return types.User{}, fmt.Errorf("username %q is already taken: %w", input.Username, store.ErrConflict)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}

	hash, err := s.policy.Hash(input.Password)
	if err != nil {
		return types.User{}, err
	}

	return s.repo.Create(ctx, types.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
	})
}

// Authenticate verifies a username/password pair and records the login time.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}

	if !s.policy.Verify(password, user.PasswordHash) {
		return types.User{}, ErrInvalidCredentials
	}

	now := time.Now()
	if updated, err := s.repo.Update(ctx, user.ID, types.UserUpdate{LastLogin: &now}); err == nil {
		user = updated
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// LookupByUsername is the soft lookup used when absence is an answer rather
// than an error, e.g. existence checks.
func (s *UserService) LookupByUsername(ctx context.Context, username string) (types.User, bool, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, false, nil
		}
		return types.User{}, false, err
	}
	return user, true, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// List returns a page of users. An empty page is an empty slice, not an error.
func (s *UserService) List(ctx context.Context, offset, limit int) ([]types.User, int, error) {
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return s.repo.List(ctx, offset, limit)
}

// Update applies a partial update. Only the supplied fields are modified; a
// new password goes through the credential policy before persistence.
func (s *UserService) Update(ctx context.Context, id int, update types.UserUpdate) (types.User, error) {
	if update.IsZero() {
		return types.User{}, validationErrorf("no fields to update")
	}

	if update.Password != nil {
		if reasons := s.policy.Validate(*update.Password); len(reasons) > 0 {
			return types.User{}, &ValidationError{Reasons: reasons}
		}
		hash, err := s.policy.Hash(*update.Password)
		if err != nil {
			return types.User{}, err
		}
		update.PasswordHash = &hash
		update.Password = nil
	}

	return s.repo.Update(ctx, id, update)
}

// Delete removes the user and everything they own, atomically, and returns
// the deleted record.
func (s *UserService) Delete(ctx context.Context, id int) (types.User, error) {
	return s.repo.Delete(ctx, id)
}
