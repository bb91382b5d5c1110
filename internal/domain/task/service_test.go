package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/taskboard/internal/domain"
	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/repository"
	"github.com/rpggio/taskboard/internal/repository/mocks"
	"github.com/rpggio/taskboard/internal/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	tasks    *task.Service
	projects *project.Service
}

// newFixture creates project "Sprint" owned by alice with bob as a member.
func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	repo, _ := testutil.NewRepository(t)
	f := fixture{
		tasks:    task.NewService(repo, nil, task.WithClock(func() time.Time { return fixedNow })),
		projects: project.NewService(repo, nil),
	}
	_, err := f.projects.Create(ctx, "Sprint", "01/03/2024", "alice")
	require.NoError(t, err)
	require.NoError(t, f.projects.AddMember(ctx, "Sprint", "bob", domain.RoleMember))
	return f
}

func TestTaskService_Add(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	added, err := f.tasks.Add(ctx, task.AddRequest{Project: "Sprint", Title: "Design", Description: "d", DurationDays: 3})
	require.NoError(t, err)
	require.NotEmpty(t, added.ID)
	require.Equal(t, domain.StatusTodo, added.Status)
	require.Equal(t, domain.PriorityLow, added.Priority)
	require.Equal(t, "2024-03-01", added.StartDate.String())
	require.Equal(t, "2024-03-04", added.EndDate.String())

	got, err := f.tasks.Get(ctx, "Sprint", "Design")
	require.NoError(t, err)
	require.Equal(t, *added, *got)
}

func TestTaskService_AddIntoBucket(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.tasks.Add(ctx, task.AddRequest{Project: "Sprint", Title: "Ops", DurationDays: 1, Priority: "high", Status: "doing"})
	require.NoError(t, err)

	board, err := f.tasks.Board(ctx, "Sprint")
	require.NoError(t, err)
	require.Len(t, board[domain.StatusDoing], 1)
	require.Equal(t, domain.PriorityHigh, board[domain.StatusDoing][0].Priority)
	require.Empty(t, board[domain.StatusTodo])
}

func TestTaskService_AddValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cases := map[string]task.AddRequest{
		"empty title":   {Project: "Sprint", Title: " ", DurationDays: 1},
		"zero duration": {Project: "Sprint", Title: "A", DurationDays: 0},
		"bad priority":  {Project: "Sprint", Title: "A", DurationDays: 1, Priority: "URGENT"},
		"bad status":    {Project: "Sprint", Title: "A", DurationDays: 1, Status: "LATER"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.tasks.Add(ctx, req)
			require.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}

	_, err := f.tasks.Add(ctx, task.AddRequest{Project: "Missing", Title: "A", DurationDays: 1})
	require.ErrorIs(t, err, task.ErrProjectNotFound)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTaskService_TitleUniqueAcrossBuckets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.tasks.Add(ctx, task.AddRequest{Project: "Sprint", Title: "Design", DurationDays: 1})
	require.NoError(t, err)
	require.NoError(t, f.tasks.Move(ctx, "Sprint", "Design", domain.StatusDone))

	_, err = f.tasks.Add(ctx, task.AddRequest{Project: "Sprint", Title: "Design", DurationDays: 1})
	require.ErrorIs(t, err, task.ErrTaskExists)
	require.ErrorIs(t, err, domain.ErrDuplicateKey)
}

func TestTaskService_Edit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.tasks.Add(ctx, task.AddRequest{Project: "Sprint", Title: "Design", Description: "old", DurationDays: 3})
	require.NoError(t, err)
	_, err = f.tasks.Add(ctx, task.AddRequest{Project: "Sprint", Title: "Build", DurationDays: 3})
	require.NoError(t, err)

	newTitle := "Build"
	err = f.tasks.Edit(ctx, task.EditRequest{Project: "Sprint", Title: "Design", NewTitle: &newTitle})
	require.ErrorIs(t, err, task.ErrTaskExists)

	zero := 0
	err = f.tasks.Edit(ctx, task.EditRequest{Project: "Sprint", Title: "Design", NewDuration: &zero})
	require.ErrorIs(t, err, task.ErrInvalidInput)

	newTitle = "Design v2"
	empty := ""
	duration := 10
	priority := domain.PriorityCritical
	err = f.tasks.Edit(ctx, task.EditRequest{
		Project:        "Sprint",
		Title:          "Design",
		NewTitle:       &newTitle,
		NewDescription: &empty,
		NewDuration:    &duration,
		NewPriority:    &priority,
	})
	require.NoError(t, err)

	got, err := f.tasks.Get(ctx, "Sprint", "Design v2")
	require.NoError(t, err)
	require.Equal(t, "old", got.Description)
	require.Equal(t, "2024-03-11", got.EndDate.String())
	require.Equal(t, domain.PriorityCritical, got.Priority)

	gone, err := f.tasks.Get(ctx, "Sprint", "Design")
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestTaskService_MoveAndList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, title := range []string{"A", "B", "C"} {
		_, err := f.tasks.Add(ctx, task.AddRequest{Project: "Sprint", Title: title, DurationDays: 1})
		require.NoError(t, err)
	}
	require.NoError(t, f.tasks.Move(ctx, "Sprint", "A", domain.StatusArchived))
	require.NoError(t, f.tasks.Move(ctx, "Sprint", "C", domain.StatusDoing))
	require.NoError(t, f.tasks.Move(ctx, "Sprint", "A", domain.StatusTodo))

	tasks, err := f.tasks.List(ctx, "Sprint")
	require.NoError(t, err)
	titles := make([]string, 0, len(tasks))
	for _, tk := range tasks {
		titles = append(titles, tk.Title)
	}
	require.Equal(t, []string{"B", "A", "C"}, titles)
	require.Equal(t, domain.StatusDoing, tasks[2].Status)

	err = f.tasks.Move(ctx, "Sprint", "Z", domain.StatusDone)
	require.ErrorIs(t, err, task.ErrTaskNotFound)
	err = f.tasks.Move(ctx, "Sprint", "A", "SOMEDAY")
	require.ErrorIs(t, err, task.ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestTaskService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.tasks.Add(ctx, task.AddRequest{Project: "Sprint", Title: "A", DurationDays: 1})
	require.NoError(t, err)
	require.NoError(t, f.tasks.Delete(ctx, "Sprint", "A"))

	got, err := f.tasks.Get(ctx, "Sprint", "A")
	require.NoError(t, err)
	require.Nil(t, got)
	require.ErrorIs(t, f.tasks.Delete(ctx, "Sprint", "A"), task.ErrTaskNotFound)
}

func TestTaskService_Assignees(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.tasks.Add(ctx, task.AddRequest{Project: "Sprint", Title: "Design", DurationDays: 3})
	require.NoError(t, err)

	require.NoError(t, f.tasks.Assign(ctx, "Sprint", "Design", "bob"))
	require.ErrorIs(t, f.tasks.Assign(ctx, "Sprint", "Design", "bob"), task.ErrAlreadyAssigned)
	require.ErrorIs(t, f.tasks.Assign(ctx, "Sprint", "Design", "mallory"), task.ErrNotProjectMember)

	got, err := f.tasks.Get(ctx, "Sprint", "Design")
	require.NoError(t, err)
	require.Equal(t, []string{"bob"}, got.Assignees)

	require.NoError(t, f.tasks.Unassign(ctx, "Sprint", "Design", "bob"))
	require.ErrorIs(t, f.tasks.Unassign(ctx, "Sprint", "Design", "bob"), task.ErrNotAssigned)
}

func TestTaskService_Comments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.tasks.Add(ctx, task.AddRequest{Project: "Sprint", Title: "Design", DurationDays: 3})
	require.NoError(t, err)

	require.ErrorIs(t, f.tasks.AddComment(ctx, "Sprint", "Design", "", "bob"), task.ErrInvalidInput)
	require.NoError(t, f.tasks.AddComment(ctx, "Sprint", "Design", "first", "bob"))
	require.NoError(t, f.tasks.AddComment(ctx, "Sprint", "Design", "second", "alice"))

	require.NoError(t, f.tasks.EditComment(ctx, "Sprint", "Design", 1, "second, edited"))
	require.ErrorIs(t, f.tasks.EditComment(ctx, "Sprint", "Design", 2, "x"), task.ErrCommentOutOfRange)
	require.ErrorIs(t, f.tasks.EditComment(ctx, "Sprint", "Design", -1, "x"), domain.ErrOutOfRange)

	require.NoError(t, f.tasks.DeleteComment(ctx, "Sprint", "Design", 0))
	require.ErrorIs(t, f.tasks.DeleteComment(ctx, "Sprint", "Design", 1), task.ErrCommentOutOfRange)

	got, err := f.tasks.Get(ctx, "Sprint", "Design")
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	require.Equal(t, "second, edited", got.Comments[0].Text)
	require.Equal(t, "alice", got.Comments[0].Author)
	require.True(t, fixedNow.Equal(got.Comments[0].Timestamp))
}

func TestTaskService_SprintWalkthrough(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.tasks.Add(ctx, task.AddRequest{Project: "Sprint", Title: "Design", Description: "d", DurationDays: 3})
	require.NoError(t, err)
	require.NoError(t, f.tasks.Assign(ctx, "Sprint", "Design", "bob"))
	require.NoError(t, f.tasks.AddComment(ctx, "Sprint", "Design", "looks good", "bob"))
	require.NoError(t, f.tasks.Move(ctx, "Sprint", "Design", domain.StatusDone))

	board, err := f.tasks.Board(ctx, "Sprint")
	require.NoError(t, err)
	require.Empty(t, board[domain.StatusTodo])
	require.Len(t, board[domain.StatusDone], 1)
	done := board[domain.StatusDone][0]
	require.Equal(t, []string{"bob"}, done.Assignees)
	require.Len(t, done.Comments, 1)

	require.NoError(t, f.projects.Delete(ctx, "Sprint"))
	_, err = f.tasks.Get(ctx, "Sprint", "Design")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTaskService_CommentOutOfRangeDoesNotSave(t *testing.T) {
	ctx := context.Background()
	state := repository.NewState()
	proj := domain.Project{ID: "p1", Title: "Sprint", Owner: "alice"}
	proj.EnsureBuckets()
	proj.Tasks[domain.StatusTodo] = []domain.Task{{ID: "t1", Title: "Design", Status: domain.StatusTodo}}
	state.Projects = append(state.Projects, proj)

	store := &mocks.Store{}
	store.On("Load", ctx).Return(state, nil)

	svc := task.NewService(repository.New(store, nil), nil)
	err := svc.DeleteComment(ctx, "Sprint", "Design", 0)
	require.ErrorIs(t, err, task.ErrCommentOutOfRange)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestTaskService_CommentAuthorship(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.tasks.Add(ctx, task.AddRequest{Project: "Sprint", Title: "Design", DurationDays: 3})
	require.NoError(t, err)
	require.NoError(t, f.tasks.AddComment(ctx, "Sprint", "Design", "from alice", "alice"))
	require.NoError(t, f.tasks.AddComment(ctx, "Sprint", "Design", "from bob", "bob"))

	require.ErrorIs(t, f.tasks.EditCommentAs(ctx, "Sprint", "Design", 0, "hijacked", "bob"), task.ErrNotCommentAuthor)
	require.ErrorIs(t, f.tasks.DeleteCommentAs(ctx, "Sprint", "Design", 0, "bob"), domain.ErrUnauthorized)
	require.ErrorIs(t, f.tasks.DeleteCommentAs(ctx, "Sprint", "Design", 1, "mallory"), task.ErrNotCommentAuthor)
	require.ErrorIs(t, f.tasks.EditCommentAs(ctx, "Sprint", "Design", 3, "x", "bob"), task.ErrCommentOutOfRange)

	require.NoError(t, f.tasks.EditCommentAs(ctx, "Sprint", "Design", 1, "from bob, edited", "bob"))
	require.NoError(t, f.tasks.EditCommentAs(ctx, "Sprint", "Design", 1, "moderated", "alice"))

	got, err := f.tasks.Get(ctx, "Sprint", "Design")
	require.NoError(t, err)
	require.Equal(t, "from alice", got.Comments[0].Text)
	require.Equal(t, "moderated", got.Comments[1].Text)
	require.Equal(t, "bob", got.Comments[1].Author)
}

func TestTaskService_CommentAuthorCheckedInsideWrite(t *testing.T) {
	ctx := context.Background()
	newState := func() *repository.State {
		state := repository.NewState()
		state.Users = append(state.Users, domain.User{Username: "root", IsAdmin: true})
		proj := domain.Project{
			ID:    "p1",
			Title: "Sprint",
			Owner: "alice",
			Members: []domain.Member{
				{Username: "alice", Role: domain.RoleOwner},
				{Username: "bob", Role: domain.RoleMember},
			},
		}
		proj.EnsureBuckets()
		proj.Tasks[domain.StatusTodo] = []domain.Task{{
			ID:       "t1",
			Title:    "Design",
			Status:   domain.StatusTodo,
			Comments: []domain.Comment{{Text: "from alice", Author: "alice", Timestamp: fixedNow}},
		}}
		state.Projects = append(state.Projects, proj)
		return state
	}

	t.Run("non-author is refused without a save", func(t *testing.T) {
		store := &mocks.Store{}
		store.On("Load", ctx).Return(newState(), nil)

		svc := task.NewService(repository.New(store, nil), nil)
		err := svc.DeleteCommentAs(ctx, "Sprint", "Design", 0, "bob")
		require.ErrorIs(t, err, task.ErrNotCommentAuthor)
		store.AssertNumberOfCalls(t, "Load", 1)
		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("site admin may moderate", func(t *testing.T) {
		store := &mocks.Store{}
		store.On("Load", ctx).Return(newState(), nil)
		store.On("Save", ctx, mock.Anything).Return(nil)

		svc := task.NewService(repository.New(store, nil), nil)
		require.NoError(t, svc.DeleteCommentAs(ctx, "Sprint", "Design", 0, "root"))
		store.AssertNumberOfCalls(t, "Load", 1)
		store.AssertNumberOfCalls(t, "Save", 1)
	})
}
