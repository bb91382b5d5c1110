package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/taskboard/internal/domain"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain error kinds to MCP error codes. Errors outside the
// domain taxonomy map to INTERNAL.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return &APIError{Code: "NOT_FOUND", Message: msg, RecoveryHint: "Check the title with list_projects or list_tasks"}
	case errors.Is(err, domain.ErrDuplicateKey):
		return &APIError{Code: "DUPLICATE_KEY", Message: msg, RecoveryHint: "Pick a different name or use the existing entry"}
	case errors.Is(err, domain.ErrInvalidArgument):
		return &APIError{Code: "INVALID_ARGUMENT", Message: msg, RecoveryHint: "Fix the argument and retry"}
	case errors.Is(err, domain.ErrOutOfRange):
		return &APIError{Code: "OUT_OF_RANGE", Message: msg, RecoveryHint: "Call get_task to see comment indices"}
	case errors.Is(err, domain.ErrUnauthorized):
		return &APIError{Code: "UNAUTHORIZED", Message: msg, RecoveryHint: "Ask the project owner for access"}
	default:
		return &APIError{Code: "INTERNAL", Message: msg}
	}
}

func errorResult(err error) *sdkmcp.CallToolResult {
	data, _ := json.Marshal(MapError(err))
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}

func jsonResult(v any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}
