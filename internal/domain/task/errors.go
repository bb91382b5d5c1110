package task

import (
	"fmt"

	"github.com/rpggio/taskboard/internal/domain"
	"github.com/rpggio/taskboard/internal/domain/project"
)

var (
	// ErrProjectNotFound indicates the parent project doesn't exist.
	ErrProjectNotFound = project.ErrProjectNotFound
	// ErrTaskNotFound indicates no task with the title exists in the project.
	ErrTaskNotFound = fmt.Errorf("task %w", domain.ErrNotFound)
	// ErrTaskExists indicates the project already has a task with the title.
	ErrTaskExists = fmt.Errorf("%w: task title already in use in this project", domain.ErrDuplicateKey)
	// ErrAlreadyAssigned indicates the user is already an assignee.
	ErrAlreadyAssigned = fmt.Errorf("%w: user already assigned to this task", domain.ErrDuplicateKey)
	// ErrNotAssigned indicates the user is not an assignee.
	ErrNotAssigned = fmt.Errorf("%w: user is not assigned to this task", domain.ErrInvalidArgument)
	// ErrNotProjectMember indicates an assignee who is not a member of the project.
	ErrNotProjectMember = fmt.Errorf("%w: only project members can be assigned", domain.ErrInvalidArgument)
	// ErrCommentOutOfRange indicates a comment index outside the comment log.
	ErrCommentOutOfRange = fmt.Errorf("comment index %w", domain.ErrOutOfRange)
	// ErrNotCommentAuthor indicates a comment change by someone other than its
	// author or a project manager.
	ErrNotCommentAuthor = fmt.Errorf("%w: only the author can change a comment", domain.ErrUnauthorized)
	// ErrInvalidInput indicates invalid task input.
	ErrInvalidInput = fmt.Errorf("%w: invalid task input", domain.ErrInvalidArgument)
)
