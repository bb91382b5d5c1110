package repository

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Repository is the transaction boundary around a Store. Every call reloads
// the full state; Update saves it back only when the mutation succeeds.
//
// Writers are serialized and readers never observe a half-applied update,
// but only within one process: two processes sharing the same files can
// still overwrite each other. Whether a save that changes both documents is
// atomic across them depends on the Store; the JSON file store renames them
// one after the other.
type Repository struct {
	store  Store
	mu     sync.RWMutex
	logger *slog.Logger
}

// New wraps store. A nil logger discards output.
func New(store Store, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Repository{store: store, logger: logger}
}

// View loads a fresh snapshot and passes it to fn. Changes fn makes are discarded.
func (r *Repository) View(ctx context.Context, fn func(*State) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading documents: %w", err)
	}
	return fn(state)
}

// Update loads a fresh snapshot, applies fn and saves the result. When fn
// returns an error nothing is written.
func (r *Repository) Update(ctx context.Context, fn func(*State) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading documents: %w", err)
	}
	if err := fn(state); err != nil {
		return err
	}
	if err := r.store.Save(ctx, state); err != nil {
		return fmt.Errorf("saving documents: %w", err)
	}
	r.logger.Debug("documents saved", "users", len(state.Users), "projects", len(state.Projects))
	return nil
}

// Purge replaces both documents with empty ones.
func (r *Repository) Purge(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Save(ctx, NewState()); err != nil {
		return fmt.Errorf("purging documents: %w", err)
	}
	r.logger.Info("all documents purged")
	return nil
}
