package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `taskboard keeps project boards: Projects -> Tasks -> Comments.

- Project: unique title, an owner, members with a role (owner, admin, member) and a board.
- Board: five buckets TODO, DOING, DONE, ARCHIVED, BACKLOG. Every task sits in exactly one.
- Task: unique title within its project, a duration in days, a priority, assignees and comments.
- Comment: addressed by its zero-based position in the task's comment log.

Workflow:
1) Orient: whoami, then list_projects.
2) Read: list_tasks for the whole board, get_task for comments and assignees.
3) Write: add_task / move_task / edit_task; assign_member only accepts project members.
4) Discuss: add_comment; get_task before edit_comment or delete_comment since indices shift.

Errors come back as tool errors with a code: NOT_FOUND, DUPLICATE_KEY, INVALID_ARGUMENT,
OUT_OF_RANGE or UNAUTHORIZED.

Docs: taskboard://docs/guide
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "taskboard://docs/guide",
		Name:        "board_guide",
		Title:       "taskboard board guide",
		Description: "Buckets, roles, dates and permission rules for taskboard tools.",
		Content: `# taskboard: Board Guide

## Buckets

A project's board always has five buckets, rendered in this order:

| Bucket   | Meaning                          |
|----------|----------------------------------|
| TODO     | not started (default for new tasks) |
| DOING    | in progress                      |
| DONE     | finished                         |
| ARCHIVED | hidden from day-to-day views     |
| BACKLOG  | parked for later                 |

move_task accepts any transition, including back to TODO. A moved task goes to the end
of its new bucket.

## Dates

- Project start dates are given as dd/mm/yyyy and stored as yyyy-mm-dd.
- A task starts on the day it is added. Its end date is start + duration_days.
- edit_task with new_duration_days recomputes the end date from the original start date.

## Roles and permissions

| Action                              | Who                               |
|-------------------------------------|-----------------------------------|
| create_project                      | anyone; the caller becomes owner  |
| delete_project, set_member_role     | owner                             |
| add_member, remove_member           | owner or project admin            |
| task and comment tools              | any project member                |
| edit_comment, delete_comment        | comment author, owner or admin    |

Site admins can see and work on every project. The owner can never be removed.

## Comments

Comments are identified by position. Deleting comment 0 shifts every later comment down by
one, so fetch the task again before editing by index.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
