package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/taskboard/internal/domain"
	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/repository"
)

// Service handles tasks on project boards. Tasks are addressed by project
// title plus task title; comments by their position in the task's log.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, which dates new tasks and comments.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new task service.
func NewService(repo Repository, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{repo: repo, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddRequest defines task creation inputs. Empty Priority means LOW and
// empty Status means TODO.
type AddRequest struct {
	Project      string
	Title        string
	Description  string
	DurationDays int
	Priority     domain.Priority
	Status       domain.Status
}

// EditRequest lists the fields to change. Nil and empty values are left untouched.
type EditRequest struct {
	Project        string
	Title          string
	NewTitle       *string
	NewDescription *string
	NewDuration    *int
	NewPriority    *domain.Priority
}

// Add creates a task starting today in the requested bucket.
func (s *Service) Add(ctx context.Context, req AddRequest) (*domain.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if req.DurationDays <= 0 {
		return nil, fmt.Errorf("%w: duration must be a positive number of days", ErrInvalidInput)
	}
	priority, err := domain.ParsePriority(string(req.Priority))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	status, err := domain.ParseStatus(string(req.Status))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	start := domain.NewDate(s.now())
	t := domain.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: req.Description,
		StartDate:   start,
		EndDate:     start.AddDays(req.DurationDays),
		Priority:    priority,
		Status:      status,
		Comments:    []domain.Comment{},
		Assignees:   []string{},
	}

	err = s.updateProject(ctx, req.Project, func(p *domain.Project) error {
		if _, _, found := p.FindTask(title); found {
			return fmt.Errorf("%w: %q", ErrTaskExists, title)
		}
		p.Tasks[status] = append(p.Tasks[status], t)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.debug("task added", "project", req.Project, "task", title, "status", status)
	return &t, nil
}

// Edit overwrites the supplied fields of a task. A new duration is counted
// from the task's start date.
func (s *Service) Edit(ctx context.Context, req EditRequest) error {
	var newTitle string
	if req.NewTitle != nil {
		newTitle = strings.TrimSpace(*req.NewTitle)
	}
	if req.NewDuration != nil && *req.NewDuration <= 0 {
		return fmt.Errorf("%w: duration must be a positive number of days", ErrInvalidInput)
	}
	var priority domain.Priority
	if req.NewPriority != nil && *req.NewPriority != "" {
		var err error
		if priority, err = domain.ParsePriority(string(*req.NewPriority)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}

	return s.updateTask(ctx, req.Project, req.Title, func(p *domain.Project, t *domain.Task) error {
		if newTitle != "" && newTitle != t.Title {
			if _, _, taken := p.FindTask(newTitle); taken {
				return fmt.Errorf("%w: %q", ErrTaskExists, newTitle)
			}
			t.Title = newTitle
		}
		if req.NewDescription != nil && *req.NewDescription != "" {
			t.Description = *req.NewDescription
		}
		if req.NewDuration != nil {
			t.EndDate = t.StartDate.AddDays(*req.NewDuration)
		}
		if priority != "" {
			t.Priority = priority
		}
		return nil
	})
}

// Move puts the task at the end of the status bucket. Every transition is allowed.
func (s *Service) Move(ctx context.Context, projectTitle, title string, status domain.Status) error {
	target, err := domain.ParseStatus(string(status))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	err = s.updateProject(ctx, projectTitle, func(p *domain.Project) error {
		from, i, found := p.FindTask(title)
		if !found {
			return fmt.Errorf("%w: %q", ErrTaskNotFound, title)
		}
		t := p.Tasks[from][i]
		p.Tasks[from] = append(p.Tasks[from][:i], p.Tasks[from][i+1:]...)
		t.Status = target
		p.Tasks[target] = append(p.Tasks[target], t)
		return nil
	})
	if err != nil {
		return err
	}

	s.debug("task moved", "project", projectTitle, "task", title, "status", target)
	return nil
}

// Delete removes the task from its project.
func (s *Service) Delete(ctx context.Context, projectTitle, title string) error {
	err := s.updateProject(ctx, projectTitle, func(p *domain.Project) error {
		bucket, i, found := p.FindTask(title)
		if !found {
			return fmt.Errorf("%w: %q", ErrTaskNotFound, title)
		}
		p.Tasks[bucket] = append(p.Tasks[bucket][:i], p.Tasks[bucket][i+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	s.debug("task deleted", "project", projectTitle, "task", title)
	return nil
}

// Assign adds a project member to the task's assignees.
func (s *Service) Assign(ctx context.Context, projectTitle, title, username string) error {
	return s.updateTask(ctx, projectTitle, title, func(p *domain.Project, t *domain.Task) error {
		if t.IsAssigned(username) {
			return fmt.Errorf("%w: %q", ErrAlreadyAssigned, username)
		}
		if p.MemberIndex(username) < 0 {
			return fmt.Errorf("%w: %q", ErrNotProjectMember, username)
		}
		t.Assignees = append(t.Assignees, username)
		return nil
	})
}

// Unassign removes username from the task's assignees.
func (s *Service) Unassign(ctx context.Context, projectTitle, title, username string) error {
	return s.updateTask(ctx, projectTitle, title, func(_ *domain.Project, t *domain.Task) error {
		for i, a := range t.Assignees {
			if a == username {
				t.Assignees = append(t.Assignees[:i], t.Assignees[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %q", ErrNotAssigned, username)
	})
}

// List returns every task of the project in bucket order.
func (s *Service) List(ctx context.Context, projectTitle string) ([]domain.Task, error) {
	var tasks []domain.Task
	err := s.viewProject(ctx, projectTitle, func(p *domain.Project) error {
		tasks = p.AllTasks()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Board returns the project's tasks grouped by status bucket.
func (s *Service) Board(ctx context.Context, projectTitle string) (map[domain.Status][]domain.Task, error) {
	var board map[domain.Status][]domain.Task
	err := s.viewProject(ctx, projectTitle, func(p *domain.Project) error {
		board = p.Tasks
		return nil
	})
	if err != nil {
		return nil, err
	}
	return board, nil
}

// Get returns the task, or nil when the project has no task with the title.
func (s *Service) Get(ctx context.Context, projectTitle, title string) (*domain.Task, error) {
	var found *domain.Task
	err := s.viewProject(ctx, projectTitle, func(p *domain.Project) error {
		if bucket, i, ok := p.FindTask(title); ok {
			t := p.Tasks[bucket][i]
			found = &t
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// AddComment appends a comment by author to the task's log.
func (s *Service) AddComment(ctx context.Context, projectTitle, title, text, author string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: comment text is required", ErrInvalidInput)
	}
	now := s.now()
	return s.updateTask(ctx, projectTitle, title, func(_ *domain.Project, t *domain.Task) error {
		t.Comments = append(t.Comments, domain.Comment{Text: text, Author: author, Timestamp: now})
		return nil
	})
}

// EditComment replaces the text of the comment at index and refreshes its timestamp.
func (s *Service) EditComment(ctx context.Context, projectTitle, title string, index int, text string) error {
	return s.editComment(ctx, projectTitle, title, index, text, nil)
}

// EditCommentAs is EditComment on behalf of actor. Authors may change their
// own comments; project owners, project admins and site admins may change any.
func (s *Service) EditCommentAs(ctx context.Context, projectTitle, title string, index int, text, actor string) error {
	return s.editComment(ctx, projectTitle, title, index, text, commentAuthorCheck(actor))
}

// DeleteComment removes the comment at index. Later comments shift down by one.
func (s *Service) DeleteComment(ctx context.Context, projectTitle, title string, index int) error {
	return s.changeComment(ctx, projectTitle, title, index, nil, func(t *domain.Task) {
		t.Comments = append(t.Comments[:index], t.Comments[index+1:]...)
	})
}

// DeleteCommentAs is DeleteComment on behalf of actor, with the same rules as
// EditCommentAs.
func (s *Service) DeleteCommentAs(ctx context.Context, projectTitle, title string, index int, actor string) error {
	return s.changeComment(ctx, projectTitle, title, index, commentAuthorCheck(actor), func(t *domain.Task) {
		t.Comments = append(t.Comments[:index], t.Comments[index+1:]...)
	})
}

func (s *Service) editComment(ctx context.Context, projectTitle, title string, index int, text string, check commentCheck) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: comment text is required", ErrInvalidInput)
	}
	now := s.now()
	return s.changeComment(ctx, projectTitle, title, index, check, func(t *domain.Task) {
		t.Comments[index].Text = text
		t.Comments[index].Timestamp = now
	})
}

// commentCheck authorizes a change to comment c inside the write transaction.
type commentCheck func(state *repository.State, p *domain.Project, c domain.Comment) error

func commentAuthorCheck(actor string) commentCheck {
	return func(state *repository.State, p *domain.Project, c domain.Comment) error {
		switch p.RoleOf(actor) {
		case domain.RoleOwner, domain.RoleAdmin:
			return nil
		case domain.RoleMember:
			if c.Author == actor {
				return nil
			}
		}
		for _, u := range state.Users {
			if u.Username == actor && u.IsAdmin {
				return nil
			}
		}
		return fmt.Errorf("%w: %q", ErrNotCommentAuthor, actor)
	}
}

// changeComment runs check and fn against one comment under a single write
// lock, so the authorization and the change see the same state.
func (s *Service) changeComment(ctx context.Context, projectTitle, title string, index int, check commentCheck, fn func(*domain.Task)) error {
	return s.repo.Update(ctx, func(state *repository.State) error {
		i := project.FindByTitle(state, projectTitle)
		if i < 0 {
			return fmt.Errorf("%w: %q", ErrProjectNotFound, projectTitle)
		}
		p := &state.Projects[i]
		p.EnsureBuckets()
		bucket, j, found := p.FindTask(title)
		if !found {
			return fmt.Errorf("%w: %q", ErrTaskNotFound, title)
		}
		t := &p.Tasks[bucket][j]
		if index < 0 || index >= len(t.Comments) {
			return fmt.Errorf("%w: %d of %d", ErrCommentOutOfRange, index, len(t.Comments))
		}
		if check != nil {
			if err := check(state, p, t.Comments[index]); err != nil {
				return err
			}
		}
		fn(t)
		return nil
	})
}

func (s *Service) viewProject(ctx context.Context, projectTitle string, fn func(*domain.Project) error) error {
	return s.repo.View(ctx, func(state *repository.State) error {
		i := project.FindByTitle(state, projectTitle)
		if i < 0 {
			return fmt.Errorf("%w: %q", ErrProjectNotFound, projectTitle)
		}
		return fn(&state.Projects[i])
	})
}

func (s *Service) updateProject(ctx context.Context, projectTitle string, fn func(*domain.Project) error) error {
	return s.repo.Update(ctx, func(state *repository.State) error {
		i := project.FindByTitle(state, projectTitle)
		if i < 0 {
			return fmt.Errorf("%w: %q", ErrProjectNotFound, projectTitle)
		}
		p := &state.Projects[i]
		p.EnsureBuckets()
		return fn(p)
	})
}

func (s *Service) updateTask(ctx context.Context, projectTitle, title string, fn func(*domain.Project, *domain.Task) error) error {
	return s.updateProject(ctx, projectTitle, func(p *domain.Project) error {
		bucket, i, found := p.FindTask(title)
		if !found {
			return fmt.Errorf("%w: %q", ErrTaskNotFound, title)
		}
		return fn(p, &p.Tasks[bucket][i])
	})
}

func (s *Service) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
