package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/rpggio/taskboard/internal/domain"
	"github.com/rpggio/taskboard/internal/repository"
)

// Service handles project operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new project service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create creates a new project owned by owner. startDate is dd/mm/yyyy.
func (s *Service) Create(ctx context.Context, title, startDate, owner string) (*domain.Project, error) {
	title = strings.TrimSpace(title)
	owner = strings.TrimSpace(owner)
	if title == "" || owner == "" {
		return nil, ErrInvalidInput
	}
	start, err := domain.ParseInputDate(startDate)
	if err != nil {
		return nil, err
	}

	proj := domain.Project{
		ID:        uuid.NewString(),
		Title:     title,
		StartDate: start,
		Owner:     owner,
		Members:   []domain.Member{{Username: owner, Role: domain.RoleOwner}},
	}
	proj.EnsureBuckets()

	err = s.repo.Update(ctx, func(state *repository.State) error {
		if FindByTitle(state, title) >= 0 {
			return fmt.Errorf("%w: %q", ErrProjectExists, title)
		}
		state.Projects = append(state.Projects, proj)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.debug("project created", "id", proj.ID, "title", title, "owner", owner)
	return &proj, nil
}

// Get fetches a project by title, or nil when there is none.
func (s *Service) Get(ctx context.Context, title string) (*domain.Project, error) {
	var found *domain.Project
	err := s.repo.View(ctx, func(state *repository.State) error {
		if i := FindByTitle(state, title); i >= 0 {
			p := state.Projects[i]
			found = &p
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return found, nil
}

// List returns every project. It never returns nil on success.
func (s *Service) List(ctx context.Context) ([]domain.Project, error) {
	return s.filter(ctx, func(domain.Project) bool { return true })
}

// ListForUser returns the projects username is a member of.
func (s *Service) ListForUser(ctx context.Context, username string) ([]domain.Project, error) {
	return s.filter(ctx, func(p domain.Project) bool { return p.MemberIndex(username) >= 0 })
}

// ListVisible returns what a user may see: everything for administrators,
// their own projects otherwise.
func (s *Service) ListVisible(ctx context.Context, username string, isAdmin bool) ([]domain.Project, error) {
	if isAdmin {
		return s.List(ctx)
	}
	return s.ListForUser(ctx, username)
}

// IsOwner reports whether username owns the project.
func (s *Service) IsOwner(ctx context.Context, title, username string) (bool, error) {
	p, err := s.mustGet(ctx, title)
	if err != nil {
		return false, err
	}
	return p.Owner == username, nil
}

// RequireOwner returns ErrNotOwner unless username owns the project.
func (s *Service) RequireOwner(ctx context.Context, title, username string) error {
	owner, err := s.IsOwner(ctx, title, username)
	if err != nil {
		return err
	}
	if !owner {
		return fmt.Errorf("%w: %q does not own %q", ErrNotOwner, username, title)
	}
	return nil
}

// MemberRole returns the user's role in the project, or "" for non-members.
func (s *Service) MemberRole(ctx context.Context, title, username string) (domain.Role, error) {
	p, err := s.mustGet(ctx, title)
	if err != nil {
		return "", err
	}
	return p.RoleOf(username), nil
}

// AddMember adds username with role (default member). An existing member is
// left as is and ErrAlreadyMember is returned.
func (s *Service) AddMember(ctx context.Context, title, username string, role domain.Role) error {
	role, err := memberRole(role)
	if err != nil {
		return err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrInvalidInput
	}

	err = s.update(ctx, title, func(p *domain.Project) error {
		if p.MemberIndex(username) >= 0 {
			return fmt.Errorf("%w: %q", ErrAlreadyMember, username)
		}
		p.Members = append(p.Members, domain.Member{Username: username, Role: role})
		return nil
	})
	if err != nil {
		return err
	}

	s.debug("member added", "project", title, "username", username, "role", role)
	return nil
}

// SetMemberRole changes a member's role. The owner's role cannot change.
func (s *Service) SetMemberRole(ctx context.Context, title, username string, role domain.Role) error {
	role, err := memberRole(role)
	if err != nil {
		return err
	}

	return s.update(ctx, title, func(p *domain.Project) error {
		i := p.MemberIndex(username)
		if i < 0 {
			return fmt.Errorf("%w: %q", ErrNotMember, username)
		}
		if username == p.Owner {
			return fmt.Errorf("%w: the owner's role is fixed", ErrInvalidInput)
		}
		p.Members[i].Role = role
		return nil
	})
}

// RemoveMember removes username from the project. The owner cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, title, username string) error {
	err := s.update(ctx, title, func(p *domain.Project) error {
		i := p.MemberIndex(username)
		if i < 0 {
			return fmt.Errorf("%w: %q", ErrNotMember, username)
		}
		if username == p.Owner {
			return fmt.Errorf("%w: the owner cannot leave the project", ErrInvalidInput)
		}
		p.Members = append(p.Members[:i], p.Members[i+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	s.debug("member removed", "project", title, "username", username)
	return nil
}

// Delete removes the project together with all of its tasks.
func (s *Service) Delete(ctx context.Context, title string) error {
	return s.delete(ctx, title, "")
}

// DeleteAs is Delete on behalf of username, who must own the project. The
// ownership check and the removal happen in one write.
func (s *Service) DeleteAs(ctx context.Context, title, username string) error {
	if username == "" {
		return fmt.Errorf("%w: %q", ErrNotOwner, title)
	}
	return s.delete(ctx, title, username)
}

func (s *Service) delete(ctx context.Context, title, owner string) error {
	err := s.repo.Update(ctx, func(state *repository.State) error {
		i := FindByTitle(state, title)
		if i < 0 {
			return fmt.Errorf("%w: %q", ErrProjectNotFound, title)
		}
		if owner != "" && state.Projects[i].Owner != owner {
			return fmt.Errorf("%w: %q does not own %q", ErrNotOwner, owner, title)
		}
		state.Projects = append(state.Projects[:i], state.Projects[i+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	s.debug("project deleted", "title", title)
	return nil
}

// FindByTitle returns the index of the project with title, or -1.
func FindByTitle(state *repository.State, title string) int {
	for i, p := range state.Projects {
		if p.Title == title {
			return i
		}
	}
	return -1
}

func (s *Service) filter(ctx context.Context, keep func(domain.Project) bool) ([]domain.Project, error) {
	projects := []domain.Project{}
	err := s.repo.View(ctx, func(state *repository.State) error {
		for _, p := range state.Projects {
			if keep(p) {
				projects = append(projects, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

func (s *Service) mustGet(ctx context.Context, title string) (*domain.Project, error) {
	p, err := s.Get(ctx, title)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrProjectNotFound, title)
	}
	return p, nil
}

func (s *Service) update(ctx context.Context, title string, fn func(*domain.Project) error) error {
	return s.repo.Update(ctx, func(state *repository.State) error {
		i := FindByTitle(state, title)
		if i < 0 {
			return fmt.Errorf("%w: %q", ErrProjectNotFound, title)
		}
		return fn(&state.Projects[i])
	})
}

func (s *Service) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

// memberRole validates a role that may be granted to a non-owner.
func memberRole(role domain.Role) (domain.Role, error) {
	parsed, err := domain.ParseRole(string(role))
	if err != nil {
		return "", err
	}
	if parsed == domain.RoleOwner {
		return "", fmt.Errorf("%w: the owner role is assigned at creation", ErrInvalidInput)
	}
	return parsed, nil
}
