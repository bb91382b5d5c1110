package mcp

import (
	"context"
	"fmt"
	"net/http"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const usernameKey contextKey = iota

// actingUser extracts the authenticated username from context.
func actingUser(ctx context.Context) string {
	v, _ := ctx.Value(usernameKey).(string)
	return v
}

// basicAuthMiddleware checks HTTP Basic credentials on tool and resource calls.
func basicAuthMiddleware(users UserService) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if method != "tools/call" && method != "resources/read" {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("unauthorized: missing headers")
			}
			username, password, ok := (&http.Request{Header: extra.Header}).BasicAuth()
			if !ok {
				return nil, fmt.Errorf("unauthorized: missing basic credentials")
			}

			u, err := users.Authenticate(ctx, username, password)
			if err != nil {
				return nil, fmt.Errorf("unauthorized: %w", err)
			}

			ctx = context.WithValue(ctx, usernameKey, u.Username)
			return next(ctx, method, req)
		}
	}
}

// defaultUserMiddleware acts as a fixed user when credentials are not checked.
func defaultUserMiddleware(username string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx = context.WithValue(ctx, usernameKey, username)
			return next(ctx, method, req)
		}
	}
}
