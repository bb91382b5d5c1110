package jsonfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rpggio/taskboard/internal/domain"
	"github.com/rpggio/taskboard/internal/jsonfile"
	"github.com/rpggio/taskboard/internal/repository"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*jsonfile.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := jsonfile.New(filepath.Join(dir, "users.json"), filepath.Join(dir, "data.json"))
	require.NoError(t, err)
	return store, dir
}

func TestStore_LoadMissingFiles(t *testing.T) {
	store, _ := newStore(t)

	state, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, state.Users)
	require.Empty(t, state.Projects)
}

func TestStore_SaveLoad(t *testing.T) {
	store, dir := newStore(t)
	ctx := context.Background()

	start, err := domain.ParseInputDate("01/03/2024")
	require.NoError(t, err)

	state := repository.NewState()
	state.Users = append(state.Users, domain.User{Username: "alice", PasswordHash: "x", IsActive: true})
	state.Projects = append(state.Projects, domain.Project{
		ID:        "p1",
		Title:     "Sprint",
		StartDate: start,
		Owner:     "alice",
		Members:   []domain.Member{{Username: "alice", Role: domain.RoleOwner}},
	})
	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice", loaded.Users[0].Username)
	require.Equal(t, "2024-03-01", loaded.Projects[0].StartDate.String())
	require.Len(t, loaded.Projects[0].Tasks, len(domain.Statuses))

	raw, err := os.ReadFile(filepath.Join(dir, "data.json"))
	require.NoError(t, err)
	require.Contains(t, string(raw), `"start_date": "2024-03-01"`)
	require.Contains(t, string(raw), `"ARCHIVED": []`)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2, "temp files must not be left behind")
}

func TestStore_CorruptDocument(t *testing.T) {
	store, dir := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.json"), []byte("{not json"), 0o644))

	_, err := store.Load(context.Background())
	require.ErrorIs(t, err, repository.ErrCorruptDocument)
	require.Contains(t, err.Error(), "data.json")
}

func TestStore_LegacyPurgedDocuments(t *testing.T) {
	store, dir := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.json"), []byte(`{"users": []}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.json"), []byte(`{"projects": [], "tasks": []}`), 0o644))

	state, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, state.Users)
	require.Empty(t, state.Projects)
}

func TestNew_Validation(t *testing.T) {
	_, err := jsonfile.New("", "data.json")
	require.Error(t, err)

	_, err = jsonfile.New("same.json", "same.json")
	require.Error(t, err)
}

func TestStore_SaveSkipsUnchangedDocument(t *testing.T) {
	store, dir := newStore(t)
	ctx := context.Background()
	dataPath := filepath.Join(dir, "data.json")

	state := repository.NewState()
	state.Projects = append(state.Projects, domain.Project{ID: "p1", Title: "Sprint", Owner: "alice"})
	require.NoError(t, store.Save(ctx, state))
	before, err := os.Stat(dataPath)
	require.NoError(t, err)

	state.Users = append(state.Users, domain.User{Username: "alice", PasswordHash: "x", IsActive: true})
	require.NoError(t, store.Save(ctx, state))

	after, err := os.Stat(dataPath)
	require.NoError(t, err)
	require.True(t, os.SameFile(before, after), "data.json must not be replaced when its content is unchanged")

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Users, 1)
	require.Len(t, loaded.Projects, 1)
}

func TestStore_FailedSaveReplacesNothing(t *testing.T) {
	dir := t.TempDir()
	usersPath := filepath.Join(dir, "users.json")
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o644))
	require.NoError(t, os.WriteFile(usersPath, []byte(`{"users": []}`), 0o644))

	store, err := jsonfile.New(usersPath, filepath.Join(blocker, "data.json"))
	require.NoError(t, err)

	state := repository.NewState()
	state.Users = append(state.Users, domain.User{Username: "alice", PasswordHash: "x", IsActive: true})
	state.Projects = append(state.Projects, domain.Project{ID: "p1", Title: "Sprint", Owner: "alice"})
	require.Error(t, store.Save(context.Background(), state))

	raw, err := os.ReadFile(usersPath)
	require.NoError(t, err)
	require.Equal(t, `{"users": []}`, string(raw))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2, "staged temp files must be removed")
}
