package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/taskboard/internal/domain"
	"github.com/rpggio/taskboard/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Service handles user accounts.
type Service struct {
	repo   Repository
	cost   int
	logger *slog.Logger
}

// NewService creates a new user service. A cost of zero selects bcrypt.DefaultCost.
func NewService(repo Repository, cost int, logger *slog.Logger) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, cost: cost, logger: logger}
}

// CreateRequest defines user creation inputs. Password is plaintext and is
// hashed before it reaches the store.
type CreateRequest struct {
	Username string
	Password string
	Email    *string
	IsActive *bool
	IsAdmin  bool
}

// UpdateRequest lists the fields to change; nil fields are left untouched.
// The username is immutable.
type UpdateRequest struct {
	Password *string
	Email    *string
	IsActive *bool
	IsAdmin  *bool
}

// Create registers a new user. Accounts are active unless IsActive says otherwise.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, ErrInvalidInput
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	u := domain.User{
		Username:     username,
		PasswordHash: hash,
		Email:        req.Email,
		IsActive:     true,
		IsAdmin:      req.IsAdmin,
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}

	err = s.repo.Update(ctx, func(state *repository.State) error {
		if findUser(state, username) >= 0 {
			return fmt.Errorf("%w: %q", ErrUserExists, username)
		}
		state.Users = append(state.Users, u)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.debug("user created", "username", username, "admin", u.IsAdmin)
	return &u, nil
}

// Get returns the user, or nil when no such user exists.
func (s *Service) Get(ctx context.Context, username string) (*domain.User, error) {
	var found *domain.User
	err := s.repo.View(ctx, func(state *repository.State) error {
		if i := findUser(state, username); i >= 0 {
			u := state.Users[i]
			found = &u
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// List returns every user in store order.
func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := s.repo.View(ctx, func(state *repository.State) error {
		users = append([]domain.User{}, state.Users...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Update merges the provided fields into an existing user.
func (s *Service) Update(ctx context.Context, username string, req UpdateRequest) error {
	var hash string
	if req.Password != nil {
		if *req.Password == "" {
			return ErrInvalidInput
		}
		var err error
		if hash, err = s.hash(*req.Password); err != nil {
			return err
		}
	}

	err := s.repo.Update(ctx, func(state *repository.State) error {
		i := findUser(state, username)
		if i < 0 {
			return fmt.Errorf("%w: %q", ErrUserNotFound, username)
		}
		u := &state.Users[i]
		if req.Password != nil {
			u.PasswordHash = hash
		}
		if req.Email != nil {
			u.Email = req.Email
		}
		if req.IsActive != nil {
			u.IsActive = *req.IsActive
		}
		if req.IsAdmin != nil {
			u.IsAdmin = *req.IsAdmin
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.debug("user updated", "username", username)
	return nil
}

// Members returns the usernames of all non-admin users.
func (s *Service) Members(ctx context.Context) ([]string, error) {
	members := []string{}
	err := s.repo.View(ctx, func(state *repository.State) error {
		for _, u := range state.Users {
			if !u.IsAdmin {
				members = append(members, u.Username)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// Authenticate verifies credentials. It fails closed: unknown users, inactive
// accounts and wrong passwords all return ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	if !CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password longer than 72 bytes", ErrInvalidInput)
	}
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

// findUser looks username up the way Create stores it, trimmed.
func findUser(state *repository.State, username string) int {
	username = strings.TrimSpace(username)
	for i, u := range state.Users {
		if u.Username == username {
			return i
		}
	}
	return -1
}
