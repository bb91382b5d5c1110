package user_test

import (
	"context"
	"sync"
	"testing"

	"github.com/rpggio/taskboard/internal/domain"
	"github.com/rpggio/taskboard/internal/domain/user"
	"github.com/rpggio/taskboard/internal/repository"
	"github.com/rpggio/taskboard/internal/repository/mocks"
	"github.com/rpggio/taskboard/internal/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T) *user.Service {
	t.Helper()
	repo, _ := testutil.NewRepository(t)
	return user.NewService(repo, bcrypt.MinCost, nil)
}

func ptr[T any](v T) *T { return &v }

func TestUserService_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	u, err := svc.Create(ctx, user.CreateRequest{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	require.True(t, u.IsActive)
	require.False(t, u.IsAdmin)
	require.NotEqual(t, "secret", u.PasswordHash)

	_, err = svc.Create(ctx, user.CreateRequest{Username: "alice", Password: "other"})
	require.ErrorIs(t, err, user.ErrUserExists)
	require.ErrorIs(t, err, domain.ErrDuplicateKey)
}

func TestUserService_CreateValidation(t *testing.T) {
	svc := newService(t)

	_, err := svc.Create(context.Background(), user.CreateRequest{Username: " ", Password: "x"})
	require.ErrorIs(t, err, user.ErrInvalidInput)

	_, err = svc.Create(context.Background(), user.CreateRequest{Username: "bob"})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestUserService_GetAndPasswordHash(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	missing, err := svc.Get(ctx, "nobody")
	require.NoError(t, err)
	require.Nil(t, missing)

	_, err = svc.Create(ctx, user.CreateRequest{Username: "alice", Password: "secret", Email: ptr("a@example.com")})
	require.NoError(t, err)

	u, err := svc.Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "a@example.com", *u.Email)
	require.True(t, user.CheckPassword(u.PasswordHash, "secret"))
	require.False(t, user.CheckPassword(u.PasswordHash, "Secret"))
	require.False(t, user.CheckPassword(u.PasswordHash, ""))
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	err := svc.Update(ctx, "ghost", user.UpdateRequest{IsActive: ptr(false)})
	require.ErrorIs(t, err, user.ErrUserNotFound)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Create(ctx, user.CreateRequest{Username: "alice", Password: "secret", Email: ptr("old@example.com")})
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, "alice", user.UpdateRequest{Password: ptr("new-secret")}))
	u, err := svc.Get(ctx, "alice")
	require.NoError(t, err)
	require.True(t, user.CheckPassword(u.PasswordHash, "new-secret"))
	require.Equal(t, "old@example.com", *u.Email, "untouched fields keep their value")
	require.True(t, u.IsActive)

	require.NoError(t, svc.Update(ctx, "alice", user.UpdateRequest{Email: ptr("new@example.com"), IsAdmin: ptr(true)}))
	u, err = svc.Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "new@example.com", *u.Email)
	require.True(t, u.IsAdmin)
	require.True(t, user.CheckPassword(u.PasswordHash, "new-secret"))
}

func TestUserService_Members(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	members, err := svc.Members(ctx)
	require.NoError(t, err)
	require.Empty(t, members)

	_, err = svc.Create(ctx, user.CreateRequest{Username: "root", Password: "x", IsAdmin: true})
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.CreateRequest{Username: "alice", Password: "x"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.CreateRequest{Username: "bob", Password: "x", IsActive: ptr(false)})
	require.NoError(t, err)

	members, err = svc.Members(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob"}, members)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestUserService_Authenticate(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.Create(ctx, user.CreateRequest{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.CreateRequest{Username: "bob", Password: "secret", IsActive: ptr(false)})
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "alice", "secret")
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	require.ErrorIs(t, err, user.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "bob", "secret")
	require.ErrorIs(t, err, domain.ErrUnauthorized, "inactive accounts cannot log in")

	_, err = svc.Authenticate(ctx, "carol", "secret")
	require.ErrorIs(t, err, user.ErrInvalidCredentials)
}

func TestUserService_DuplicateDoesNotSave(t *testing.T) {
	ctx := context.Background()
	state := repository.NewState()
	state.Users = append(state.Users, domain.User{Username: "alice"})

	store := &mocks.Store{}
	store.On("Load", ctx).Return(state, nil)

	svc := user.NewService(repository.New(store, nil), bcrypt.MinCost, nil)
	_, err := svc.Create(ctx, user.CreateRequest{Username: "alice", Password: "x"})
	require.ErrorIs(t, err, user.ErrUserExists)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUserService_ConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	errs := make(chan error, len(names))
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := svc.Create(ctx, user.CreateRequest{Username: name, Password: "x"})
			errs <- err
		}(name)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(names), "no write may be lost")
}

func TestUserService_UsernameWhitespace(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	created, err := svc.Create(ctx, user.CreateRequest{Username: "  alice ", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, "alice", created.Username)

	got, err := svc.Get(ctx, " alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "alice", got.Username)

	require.NoError(t, svc.Update(ctx, "alice  ", user.UpdateRequest{Email: ptr("alice@example.com")}))
	got, err = svc.Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", *got.Email)

	authed, err := svc.Authenticate(ctx, " alice ", "secret")
	require.NoError(t, err)
	require.Equal(t, "alice", authed.Username)

	_, err = svc.Create(ctx, user.CreateRequest{Username: "alice\t", Password: "other"})
	require.ErrorIs(t, err, user.ErrUserExists)
}
