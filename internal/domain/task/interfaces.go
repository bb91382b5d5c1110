package task

import (
	"context"

	"github.com/rpggio/taskboard/internal/repository"
)

// Repository provides transactional access to the stored documents.
type Repository interface {
	View(ctx context.Context, fn func(*repository.State) error) error
	Update(ctx context.Context, fn func(*repository.State) error) error
}
