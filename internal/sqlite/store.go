package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/taskboard/internal/repository"
)

// DocumentStore implements repository.Store by keeping the users and
// projects documents as rows of the documents table. Both rows are written
// in a single transaction.
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Load reads both documents; a missing row is an empty document.
func (s *DocumentStore) Load(ctx context.Context) (*repository.State, error) {
	usersData, err := s.readDocument(ctx, repository.UsersDocument)
	if err != nil {
		return nil, err
	}
	users, err := repository.DecodeUsers(usersData)
	if err != nil {
		return nil, err
	}

	projectsData, err := s.readDocument(ctx, repository.ProjectsDocument)
	if err != nil {
		return nil, err
	}
	projects, err := repository.DecodeProjects(projectsData)
	if err != nil {
		return nil, err
	}

	return &repository.State{Users: users, Projects: projects}, nil
}

// Save upserts both documents in one transaction.
func (s *DocumentStore) Save(ctx context.Context, state *repository.State) error {
	usersData, err := repository.EncodeUsers(state.Users)
	if err != nil {
		return err
	}
	projectsData, err := repository.EncodeProjects(state.Projects)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO documents (name, body, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`
	for name, body := range map[string][]byte{
		repository.UsersDocument:    usersData,
		repository.ProjectsDocument: projectsData,
	} {
		if _, err := tx.ExecContext(ctx, query, name, string(body)); err != nil {
			return fmt.Errorf("failed to write %s document: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *DocumentStore) readDocument(ctx context.Context, name string) ([]byte, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE name = ?`, name).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s document: %w", name, err)
	}
	return []byte(body), nil
}
