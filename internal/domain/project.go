package domain

import (
	"encoding/json"
	"fmt"
)

// Role is a member's role within a project.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// ParseRole validates a role name. An empty name means RoleMember.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "":
		return RoleMember, nil
	case RoleOwner, RoleAdmin, RoleMember:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, s)
	}
}

// Member associates a username with a role in a project.
type Member struct {
	Username string
	Role     Role
}

// MarshalJSON encodes the member as a single-entry object {"<username>": "<role>"}.
func (m Member) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]Role{m.Username: m.Role})
}

// UnmarshalJSON accepts {"<username>": "<role>"} and the older bare "<username>" form.
// Bare usernames carry no role; the project codec assigns one after loading.
func (m *Member) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*m = Member{Username: name}
		return nil
	}
	var entry map[string]Role
	if err := json.Unmarshal(data, &entry); err != nil {
		return fmt.Errorf("member entry: %w", err)
	}
	if len(entry) != 1 {
		return fmt.Errorf("member entry: expected one username, got %d", len(entry))
	}
	for username, role := range entry {
		*m = Member{Username: username, Role: role}
	}
	return nil
}

// Project groups members and a board of tasks. Title is unique across
// projects and is the lookup key used by callers; ID is stable across renames.
type Project struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	StartDate Date              `json:"start_date"`
	Owner     string            `json:"owner"`
	Members   []Member          `json:"members"`
	Tasks     map[Status][]Task `json:"tasks"`
}

// MemberIndex returns the position of username in Members, or -1.
func (p *Project) MemberIndex(username string) int {
	for i, m := range p.Members {
		if m.Username == username {
			return i
		}
	}
	return -1
}

// RoleOf returns the member's role, or "" when username is not a member.
func (p *Project) RoleOf(username string) Role {
	if i := p.MemberIndex(username); i >= 0 {
		return p.Members[i].Role
	}
	return ""
}

// EnsureBuckets creates every missing status bucket.
func (p *Project) EnsureBuckets() {
	if p.Tasks == nil {
		p.Tasks = make(map[Status][]Task, len(Statuses))
	}
	for _, s := range Statuses {
		if p.Tasks[s] == nil {
			p.Tasks[s] = []Task{}
		}
	}
}

// FindTask locates a task by title across all buckets.
func (p *Project) FindTask(title string) (Status, int, bool) {
	for _, s := range Statuses {
		for i, t := range p.Tasks[s] {
			if t.Title == title {
				return s, i, true
			}
		}
	}
	return "", 0, false
}

// AllTasks flattens the board in bucket order.
func (p *Project) AllTasks() []Task {
	tasks := []Task{}
	for _, s := range Statuses {
		tasks = append(tasks, p.Tasks[s]...)
	}
	return tasks
}
