package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/taskboard/internal/config"
	"github.com/rpggio/taskboard/internal/domain"
	"github.com/rpggio/taskboard/internal/domain/task"
)

// UserService defines user operations needed by MCP.
type UserService interface {
	Get(ctx context.Context, username string) (*domain.User, error)
	Members(ctx context.Context) ([]string, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
}

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	Create(ctx context.Context, title, startDate, owner string) (*domain.Project, error)
	Get(ctx context.Context, title string) (*domain.Project, error)
	ListVisible(ctx context.Context, username string, isAdmin bool) ([]domain.Project, error)
	MemberRole(ctx context.Context, title, username string) (domain.Role, error)
	RequireOwner(ctx context.Context, title, username string) error
	AddMember(ctx context.Context, title, username string, role domain.Role) error
	SetMemberRole(ctx context.Context, title, username string, role domain.Role) error
	RemoveMember(ctx context.Context, title, username string) error
	DeleteAs(ctx context.Context, title, username string) error
}

// TaskService defines task operations needed by MCP.
type TaskService interface {
	Add(ctx context.Context, req task.AddRequest) (*domain.Task, error)
	Edit(ctx context.Context, req task.EditRequest) error
	Move(ctx context.Context, projectTitle, title string, status domain.Status) error
	Delete(ctx context.Context, projectTitle, title string) error
	Assign(ctx context.Context, projectTitle, title, username string) error
	Unassign(ctx context.Context, projectTitle, title, username string) error
	Board(ctx context.Context, projectTitle string) (map[domain.Status][]domain.Task, error)
	Get(ctx context.Context, projectTitle, title string) (*domain.Task, error)
	AddComment(ctx context.Context, projectTitle, title, text, author string) error
	EditCommentAs(ctx context.Context, projectTitle, title string, index int, text, actor string) error
	DeleteCommentAs(ctx context.Context, projectTitle, title string, index int, actor string) error
}

// Services contains all domain services needed by MCP.
type Services struct {
	Users    UserService
	Projects ProjectService
	Tasks    TaskService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	AuthEnabled   bool
	TransportMode string
	// DefaultUser acts for every request when credentials are not checked.
	DefaultUser string
	Logger      *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "taskboard",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is a local, single-user transport.
	identify := defaultUserMiddleware(cfg.DefaultUser)
	if cfg.TransportMode == config.TransportHTTP && cfg.AuthEnabled {
		identify = basicAuthMiddleware(cfg.Services.Users)
	}
	// Each call wraps the handler built so far, so both go in one call with
	// identification outermost and the traffic log able to see the user.
	server.AddReceivingMiddleware(identify, trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}
