package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/taskboard/internal/domain"
	"github.com/rpggio/taskboard/internal/domain/task"
)

var (
	errNoUser       = fmt.Errorf("%w: no acting user", domain.ErrUnauthorized)
	errNotMember    = fmt.Errorf("%w: not a member of this project", domain.ErrUnauthorized)
	errNotManager   = fmt.Errorf("%w: only the owner or a project admin can manage members", domain.ErrUnauthorized)
)

type emptyParams struct{}

type projectParams struct {
	Project string `json:"project" jsonschema:"project title"`
}

type createProjectParams struct {
	Title     string `json:"title" jsonschema:"unique project title"`
	StartDate string `json:"start_date" jsonschema:"start date as dd/mm/yyyy"`
}

type memberParams struct {
	Project  string `json:"project" jsonschema:"project title"`
	Username string `json:"username" jsonschema:"member username"`
	Role     string `json:"role,omitempty" jsonschema:"admin or member (default member)"`
}

type addTaskParams struct {
	Project      string `json:"project" jsonschema:"project title"`
	Title        string `json:"title" jsonschema:"task title, unique within the project"`
	Description  string `json:"description,omitempty" jsonschema:"task description"`
	DurationDays int    `json:"duration_days" jsonschema:"duration in days, counted from today"`
	Priority     string `json:"priority,omitempty" jsonschema:"CRITICAL, HIGH, MEDIUM or LOW (default LOW)"`
	Status       string `json:"status,omitempty" jsonschema:"TODO, DOING, DONE, ARCHIVED or BACKLOG (default TODO)"`
}

type editTaskParams struct {
	Project        string  `json:"project" jsonschema:"project title"`
	Title          string  `json:"title" jsonschema:"current task title"`
	NewTitle       *string `json:"new_title,omitempty" jsonschema:"new task title"`
	NewDescription *string `json:"new_description,omitempty" jsonschema:"new description"`
	NewDuration    *int    `json:"new_duration_days,omitempty" jsonschema:"new duration in days, counted from the start date"`
	NewPriority    *string `json:"new_priority,omitempty" jsonschema:"new priority"`
}

type taskParams struct {
	Project string `json:"project" jsonschema:"project title"`
	Title   string `json:"title" jsonschema:"task title"`
}

type moveTaskParams struct {
	Project string `json:"project" jsonschema:"project title"`
	Title   string `json:"title" jsonschema:"task title"`
	Status  string `json:"status" jsonschema:"target bucket: TODO, DOING, DONE, ARCHIVED or BACKLOG"`
}

type assigneeParams struct {
	Project  string `json:"project" jsonschema:"project title"`
	Title    string `json:"title" jsonschema:"task title"`
	Username string `json:"username" jsonschema:"assignee username"`
}

type addCommentParams struct {
	Project string `json:"project" jsonschema:"project title"`
	Title   string `json:"title" jsonschema:"task title"`
	Text    string `json:"text" jsonschema:"comment text"`
}

type commentParams struct {
	Project string `json:"project" jsonschema:"project title"`
	Title   string `json:"title" jsonschema:"task title"`
	Index   int    `json:"index" jsonschema:"zero-based comment position"`
	Text    string `json:"text,omitempty" jsonschema:"replacement text (edit_comment only)"`
}

type whoamiResult struct {
	Username string  `json:"username"`
	Email    *string `json:"email,omitempty"`
	IsAdmin  bool    `json:"is_admin"`
	Known    bool    `json:"known"`
}

type okResult struct {
	OK bool `json:"ok"`
}

var okResponse = okResult{OK: true}

type toolHandlers struct {
	users    UserService
	projects ProjectService
	tasks    TaskService
}

// tool adapts fn into an SDK handler that requires an acting user and
// reports domain errors as tool errors.
func tool[In any](fn func(ctx context.Context, username string, in In) (any, error)) sdkmcp.ToolHandlerFor[In, any] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
		username := actingUser(ctx)
		if username == "" {
			return errorResult(errNoUser), nil, nil
		}
		out, err := fn(ctx, username, in)
		if err != nil {
			return errorResult(err), nil, nil
		}
		res, err := jsonResult(out)
		return res, nil, err
	}
}

func registerTools(server *sdkmcp.Server, services Services) {
	h := &toolHandlers{users: services.Users, projects: services.Projects, tasks: services.Tasks}

	// Identity
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "whoami", Description: "Show the acting user"}, tool(h.whoami))
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "list_members", Description: "List usernames that can be added to projects (non-admin users)"}, tool(h.listMembers))

	// Projects
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "create_project", Description: "Create a project owned by the acting user"}, tool(h.createProject))
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "list_projects", Description: "List projects visible to the acting user"}, tool(h.listProjects))
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "get_project", Description: "Get a project with its members and board"}, tool(h.getProject))
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "delete_project", Description: "Delete a project and all its tasks (owner only)"}, tool(h.deleteProject))
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "add_member", Description: "Add a user to a project"}, tool(h.addMember))
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "set_member_role", Description: "Change a member's role"}, tool(h.setMemberRole))
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "remove_member", Description: "Remove a member from a project"}, tool(h.removeMember))

	// Tasks
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "add_task", Description: "Add a task to a project board"}, tool(h.addTask))
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "edit_task", Description: "Change a task's title, description, duration or priority"}, tool(h.editTask))
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "move_task", Description: "Move a task to another bucket"}, tool(h.moveTask))
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "delete_task", Description: "Delete a task"}, tool(h.deleteTask))
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "assign_member", Description: "Assign a project member to a task"}, tool(h.assignMember))
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "remove_assignee", Description: "Remove an assignee from a task"}, tool(h.removeAssignee))
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "list_tasks", Description: "List a project's tasks grouped by bucket"}, tool(h.listTasks))
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "get_task", Description: "Get a task with its comments and assignees"}, tool(h.getTask))

	// Comments
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "add_comment", Description: "Comment on a task as the acting user"}, tool(h.addComment))
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "edit_comment", Description: "Replace the text of one of your comments"}, tool(h.editComment))
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: "delete_comment", Description: "Delete one of your comments"}, tool(h.deleteComment))
}

func (h *toolHandlers) whoami(ctx context.Context, username string, _ emptyParams) (any, error) {
	u, err := h.users.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return whoamiResult{Username: username}, nil
	}
	return whoamiResult{Username: u.Username, Email: u.Email, IsAdmin: u.IsAdmin, Known: true}, nil
}

func (h *toolHandlers) listMembers(ctx context.Context, _ string, _ emptyParams) (any, error) {
	return h.users.Members(ctx)
}

func (h *toolHandlers) createProject(ctx context.Context, username string, in createProjectParams) (any, error) {
	return h.projects.Create(ctx, in.Title, in.StartDate, username)
}

func (h *toolHandlers) listProjects(ctx context.Context, username string, _ emptyParams) (any, error) {
	isAdmin, err := h.isAdmin(ctx, username)
	if err != nil {
		return nil, err
	}
	return h.projects.ListVisible(ctx, username, isAdmin)
}

func (h *toolHandlers) getProject(ctx context.Context, username string, in projectParams) (any, error) {
	if _, err := h.requireMember(ctx, in.Project, username); err != nil {
		return nil, err
	}
	return h.projects.Get(ctx, in.Project)
}

func (h *toolHandlers) deleteProject(ctx context.Context, username string, in projectParams) (any, error) {
	return okResponse, h.projects.DeleteAs(ctx, in.Project, username)
}

func (h *toolHandlers) addMember(ctx context.Context, username string, in memberParams) (any, error) {
	if err := h.requireManager(ctx, in.Project, username); err != nil {
		return nil, err
	}
	return okResponse, h.projects.AddMember(ctx, in.Project, in.Username, domain.Role(in.Role))
}

func (h *toolHandlers) setMemberRole(ctx context.Context, username string, in memberParams) (any, error) {
	if err := h.projects.RequireOwner(ctx, in.Project, username); err != nil {
		return nil, err
	}
	return okResponse, h.projects.SetMemberRole(ctx, in.Project, in.Username, domain.Role(in.Role))
}

func (h *toolHandlers) removeMember(ctx context.Context, username string, in memberParams) (any, error) {
	if err := h.requireManager(ctx, in.Project, username); err != nil {
		return nil, err
	}
	return okResponse, h.projects.RemoveMember(ctx, in.Project, in.Username)
}

func (h *toolHandlers) addTask(ctx context.Context, username string, in addTaskParams) (any, error) {
	if _, err := h.requireMember(ctx, in.Project, username); err != nil {
		return nil, err
	}
	return h.tasks.Add(ctx, task.AddRequest{
		Project:      in.Project,
		Title:        in.Title,
		Description:  in.Description,
		DurationDays: in.DurationDays,
		Priority:     domain.Priority(in.Priority),
		Status:       domain.Status(in.Status),
	})
}

func (h *toolHandlers) editTask(ctx context.Context, username string, in editTaskParams) (any, error) {
	if _, err := h.requireMember(ctx, in.Project, username); err != nil {
		return nil, err
	}
	req := task.EditRequest{
		Project:        in.Project,
		Title:          in.Title,
		NewTitle:       in.NewTitle,
		NewDescription: in.NewDescription,
		NewDuration:    in.NewDuration,
	}
	if in.NewPriority != nil {
		p := domain.Priority(*in.NewPriority)
		req.NewPriority = &p
	}
	return okResponse, h.tasks.Edit(ctx, req)
}

func (h *toolHandlers) moveTask(ctx context.Context, username string, in moveTaskParams) (any, error) {
	if _, err := h.requireMember(ctx, in.Project, username); err != nil {
		return nil, err
	}
	return okResponse, h.tasks.Move(ctx, in.Project, in.Title, domain.Status(in.Status))
}

func (h *toolHandlers) deleteTask(ctx context.Context, username string, in taskParams) (any, error) {
	if _, err := h.requireMember(ctx, in.Project, username); err != nil {
		return nil, err
	}
	return okResponse, h.tasks.Delete(ctx, in.Project, in.Title)
}

func (h *toolHandlers) assignMember(ctx context.Context, username string, in assigneeParams) (any, error) {
	if _, err := h.requireMember(ctx, in.Project, username); err != nil {
		return nil, err
	}
	return okResponse, h.tasks.Assign(ctx, in.Project, in.Title, in.Username)
}

func (h *toolHandlers) removeAssignee(ctx context.Context, username string, in assigneeParams) (any, error) {
	if _, err := h.requireMember(ctx, in.Project, username); err != nil {
		return nil, err
	}
	return okResponse, h.tasks.Unassign(ctx, in.Project, in.Title, in.Username)
}

func (h *toolHandlers) listTasks(ctx context.Context, username string, in projectParams) (any, error) {
	if _, err := h.requireMember(ctx, in.Project, username); err != nil {
		return nil, err
	}
	return h.tasks.Board(ctx, in.Project)
}

func (h *toolHandlers) getTask(ctx context.Context, username string, in taskParams) (any, error) {
	if _, err := h.requireMember(ctx, in.Project, username); err != nil {
		return nil, err
	}
	t, err := h.tasks.Get(ctx, in.Project, in.Title)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: %q", task.ErrTaskNotFound, in.Title)
	}
	return t, nil
}

func (h *toolHandlers) addComment(ctx context.Context, username string, in addCommentParams) (any, error) {
	if _, err := h.requireMember(ctx, in.Project, username); err != nil {
		return nil, err
	}
	return okResponse, h.tasks.AddComment(ctx, in.Project, in.Title, in.Text, username)
}

func (h *toolHandlers) editComment(ctx context.Context, username string, in commentParams) (any, error) {
	if _, err := h.requireMember(ctx, in.Project, username); err != nil {
		return nil, err
	}
	return okResponse, h.tasks.EditCommentAs(ctx, in.Project, in.Title, in.Index, in.Text, username)
}

func (h *toolHandlers) deleteComment(ctx context.Context, username string, in commentParams) (any, error) {
	if _, err := h.requireMember(ctx, in.Project, username); err != nil {
		return nil, err
	}
	return okResponse, h.tasks.DeleteCommentAs(ctx, in.Project, in.Title, in.Index, username)
}

func (h *toolHandlers) isAdmin(ctx context.Context, username string) (bool, error) {
	u, err := h.users.Get(ctx, username)
	if err != nil {
		return false, err
	}
	return u != nil && u.IsAdmin, nil
}

// requireMember returns the user's project role. Site admins pass as RoleAdmin
// on projects they don't belong to.
func (h *toolHandlers) requireMember(ctx context.Context, projectTitle, username string) (domain.Role, error) {
	role, err := h.projects.MemberRole(ctx, projectTitle, username)
	if err != nil {
		return "", err
	}
	if role != "" {
		return role, nil
	}
	admin, err := h.isAdmin(ctx, username)
	if err != nil {
		return "", err
	}
	if admin {
		return domain.RoleAdmin, nil
	}
	return "", fmt.Errorf("%w: %q", errNotMember, projectTitle)
}

func (h *toolHandlers) requireManager(ctx context.Context, projectTitle, username string) error {
	role, err := h.requireMember(ctx, projectTitle, username)
	if err != nil {
		return err
	}
	if role != domain.RoleOwner && role != domain.RoleAdmin {
		return errNotManager
	}
	return nil
}
