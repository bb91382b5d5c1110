package repository

import (
	"context"

	"github.com/rpggio/taskboard/internal/domain"
)

// State is the full in-memory content of the store: the users document and
// the projects document.
type State struct {
	Users    []domain.User
	Projects []domain.Project
}

// NewState returns a state holding two empty documents.
func NewState() *State {
	return &State{Users: []domain.User{}, Projects: []domain.Project{}}
}

// Store reads and writes the complete state. Implementations substitute empty
// documents for missing ones and never cache between calls.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
}
