package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rpggio/taskboard/internal/domain"
)

// Document names, shared by every backend.
const (
	UsersDocument    = "users"
	ProjectsDocument = "data"
)

type usersDocument struct {
	Users []domain.User `json:"users"`
}

type projectsDocument struct {
	Projects []domain.Project `json:"projects"`
}

// DecodeUsers parses a users document. Empty input is an empty document.
func DecodeUsers(data []byte) ([]domain.User, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []domain.User{}, nil
	}
	var doc usersDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, UsersDocument, err)
	}
	if doc.Users == nil {
		doc.Users = []domain.User{}
	}
	return doc.Users, nil
}

// EncodeUsers renders the users document with two-space indentation.
func EncodeUsers(users []domain.User) ([]byte, error) {
	if users == nil {
		users = []domain.User{}
	}
	data, err := json.MarshalIndent(usersDocument{Users: users}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s document: %w", UsersDocument, err)
	}
	return data, nil
}

// DecodeProjects parses a projects document and normalizes every project:
// all status buckets exist, each task's status matches its bucket, tasks
// without an id get one derived from project id and title, and members
// carry roles with the owner present.
func DecodeProjects(data []byte) ([]domain.Project, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []domain.Project{}, nil
	}
	var doc projectsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, ProjectsDocument, err)
	}
	if doc.Projects == nil {
		doc.Projects = []domain.Project{}
	}
	for i := range doc.Projects {
		if err := normalizeProject(&doc.Projects[i]); err != nil {
			return nil, err
		}
	}
	return doc.Projects, nil
}

// EncodeProjects renders the projects document with two-space indentation.
// Every status bucket is written, even when empty.
func EncodeProjects(projects []domain.Project) ([]byte, error) {
	if projects == nil {
		projects = []domain.Project{}
	}
	for i := range projects {
		projects[i].EnsureBuckets()
		if projects[i].Members == nil {
			projects[i].Members = []domain.Member{}
		}
	}
	data, err := json.MarshalIndent(projectsDocument{Projects: projects}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s document: %w", ProjectsDocument, err)
	}
	return data, nil
}

func normalizeProject(p *domain.Project) error {
	known := make(map[domain.Status]bool, len(domain.Statuses))
	for _, s := range domain.Statuses {
		known[s] = true
	}
	for bucket := range p.Tasks {
		if !known[bucket] {
			return fmt.Errorf("%w: %s: project %q has unknown status bucket %q", ErrCorruptDocument, ProjectsDocument, p.Title, bucket)
		}
	}
	p.EnsureBuckets()

	for _, bucket := range domain.Statuses {
		tasks := p.Tasks[bucket]
		for i := range tasks {
			t := &tasks[i]
			t.Status = bucket
			if t.ID == "" {
				t.ID = legacyTaskID(p.ID, t.Title)
			}
			if t.Assignees == nil {
				t.Assignees = []string{}
			}
			if t.Comments == nil {
				t.Comments = []domain.Comment{}
			}
		}
	}

	members := make([]domain.Member, 0, len(p.Members)+1)
	seen := make(map[string]bool, len(p.Members))
	for _, m := range p.Members {
		if seen[m.Username] {
			continue
		}
		seen[m.Username] = true
		role, err := canonicalRole(m.Role)
		if err != nil {
			return fmt.Errorf("%w: %s: project %q member %q: %w", ErrCorruptDocument, ProjectsDocument, p.Title, m.Username, err)
		}
		switch {
		case m.Username == p.Owner:
			role = domain.RoleOwner
		case role == domain.RoleOwner:
			role = domain.RoleMember
		}
		m.Role = role
		members = append(members, m)
	}
	if p.Owner != "" && !seen[p.Owner] {
		members = append([]domain.Member{{Username: p.Owner, Role: domain.RoleOwner}}, members...)
	}
	p.Members = members
	return nil
}

// legacyRoles maps role names written by older tools onto the current set.
var legacyRoles = map[domain.Role]domain.Role{
	"manager": domain.RoleAdmin,
	"editor":  domain.RoleMember,
	"viewer":  domain.RoleMember,
}

// canonicalRole maps a stored role onto owner, admin or member. An empty role is member.
func canonicalRole(r domain.Role) (domain.Role, error) {
	if mapped, ok := legacyRoles[domain.Role(strings.ToLower(string(r)))]; ok {
		return mapped, nil
	}
	return domain.ParseRole(strings.ToLower(string(r)))
}

// legacyTaskID derives a stable id for tasks written before ids existed.
func legacyTaskID(projectID, title string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(projectID+"/"+title)).String()
}
