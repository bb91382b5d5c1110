package project

import (
	"fmt"

	"github.com/rpggio/taskboard/internal/domain"
)

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = fmt.Errorf("project %w", domain.ErrNotFound)
	// ErrProjectExists indicates another project already uses the title.
	ErrProjectExists = fmt.Errorf("%w: project title already in use", domain.ErrDuplicateKey)
	// ErrAlreadyMember indicates the user is already a member of the project.
	ErrAlreadyMember = fmt.Errorf("%w: user is already a member of the project", domain.ErrDuplicateKey)
	// ErrNotMember indicates the user is not a member of the project.
	ErrNotMember = fmt.Errorf("%w: user is not a member of the project", domain.ErrInvalidArgument)
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = fmt.Errorf("%w: invalid project input", domain.ErrInvalidArgument)
	// ErrNotOwner indicates an owner-only operation attempted by someone else.
	ErrNotOwner = fmt.Errorf("%w: only the project owner may do this", domain.ErrUnauthorized)
)
