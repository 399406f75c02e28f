package services

import (
	"context"
	"time"

	"github.com/messagely/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (types.User, error)
	List(ctx context.Context) ([]types.Profile, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	SetLastLogin(ctx context.Context, username string, at time.Time) error
}

// UserService encapsulates user use-cases: registration, credential
// verification, and profile reads.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Register creates an account with a freshly hashed password and records the
// registration as a login. Returns store.ErrDuplicateUsername when the
// username is taken.
func (s *UserService) Register(ctx context.Context, username, password, firstName, lastName, phone string) (types.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        phone,
		PasswordHash: string(hashed),
	})
	if err != nil {
		return types.User{}, err
	}

	if err := s.TouchLogin(ctx, user.Username); err != nil {
		return types.User{}, err
	}
	now := time.Now()
	user.LastLoginAt = &now
	return user, nil
}

// Authenticate verifies a username/password pair. It fails closed: an
// unknown username and a wrong password are indistinguishable, both
// reporting false without error. The raw password is never stored or logged.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (bool, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return false, nil
	}
	return true, nil
}

// TouchLogin stamps last_login_at for the user. Called once after every
// successful login and registration.
func (s *UserService) TouchLogin(ctx context.Context, username string) error {
	return s.repo.SetLastLogin(ctx, username, time.Now())
}

func (s *UserService) Get(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *UserService) List(ctx context.Context) ([]types.Profile, error) {
	return s.repo.List(ctx)
}
