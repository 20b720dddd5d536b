package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpggio/groupbite/internal/auth"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const memberIDKey contextKey = iota

// getMemberID extracts the authenticated member ID from context.
func getMemberID(ctx context.Context) string {
	v, _ := ctx.Value(memberIDKey).(string)
	return v
}

// WithMemberID returns a context carrying an authenticated member ID.
func WithMemberID(ctx context.Context, memberID string) context.Context {
	return context.WithValue(ctx, memberIDKey, memberID)
}

// authMiddleware implements bearer token authentication as MCP middleware.
func authMiddleware(resolver auth.MemberResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Skip auth for protocol methods
			if method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("unauthorized: missing headers")
			}

			header := extra.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if token == "" {
				return nil, fmt.Errorf("unauthorized: missing bearer token")
			}

			memberID, err := resolver.ResolveMember(ctx, token)
			if err != nil {
				return nil, fmt.Errorf("unauthorized: %w", err)
			}
			if memberID == "" {
				return nil, fmt.Errorf("unauthorized: invalid bearer token")
			}

			return next(WithMemberID(ctx, memberID), method, req)
		}
	}
}
