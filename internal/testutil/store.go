// Package testutil builds throwaway stores and services for tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/rpggio/taskboard/internal/jsonfile"
	"github.com/rpggio/taskboard/internal/repository"
	"github.com/stretchr/testify/require"
)

// Paths of the documents behind a test repository.
type Paths struct {
	Users string
	Data  string
}

// NewRepository returns a repository over fresh JSON documents in a temp dir.
func NewRepository(t *testing.T) (*repository.Repository, Paths) {
	t.Helper()

	dir := t.TempDir()
	paths := Paths{
		Users: filepath.Join(dir, "users.json"),
		Data:  filepath.Join(dir, "data.json"),
	}
	store, err := jsonfile.New(paths.Users, paths.Data)
	require.NoError(t, err, "failed to create json store")

	return repository.New(store, nil), paths
}
