package user

import (
	"fmt"

	"github.com/rpggio/taskboard/internal/domain"
)

var (
	// ErrUserNotFound indicates the user doesn't exist.
	ErrUserNotFound = fmt.Errorf("user %w", domain.ErrNotFound)
	// ErrUserExists indicates the username is already taken.
	ErrUserExists = fmt.Errorf("%w: user already exists", domain.ErrDuplicateKey)
	// ErrInvalidInput indicates invalid user input.
	ErrInvalidInput = fmt.Errorf("%w: invalid user input", domain.ErrInvalidArgument)
	// ErrInvalidCredentials indicates an unknown user, an inactive account or a wrong password.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
)
