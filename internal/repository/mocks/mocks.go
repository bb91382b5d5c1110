package mocks

import (
	"context"

	"github.com/rpggio/taskboard/internal/repository"
	"github.com/stretchr/testify/mock"
)

// Store is a mock for repository.Store.
type Store struct {
	mock.Mock
}

func (m *Store) Load(ctx context.Context) (*repository.State, error) {
	args := m.Called(ctx)
	if state, ok := args.Get(0).(*repository.State); ok {
		return state, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) Save(ctx context.Context, state *repository.State) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}
