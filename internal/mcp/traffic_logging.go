package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxLoggedPayload caps the bytes of a params or result payload in a log line.
const maxLoggedPayload = 2048

// trafficLoggingMiddleware logs each MCP exchange at debug level: one line
// per request and one per response with its duration.
func trafficLoggingMiddleware(logger *slog.Logger, direction string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
				return next(ctx, method, req)
			}

			log := logger.With(
				"direction", direction,
				"method", method,
				"mcp_session", requestSession(req),
				"member_id", getMemberID(ctx),
			)
			log.Debug("mcp request", "params", payload(requestParams(req)))

			start := time.Now()
			result, err := next(ctx, method, req)
			if strings.HasPrefix(method, "notifications/") {
				return result, err
			}

			attrs := []any{"duration", time.Since(start), "result", payload(result)}
			if err != nil {
				attrs = append(attrs, "error", err)
			}
			log.Debug("mcp response", attrs...)
			return result, err
		}
	}
}

// requestSession and requestParams guard against requests whose session or params are
// typed nils, which panic on access.
func requestSession(req sdkmcp.Request) (id string) {
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	if req == nil {
		return ""
	}
	if s := req.GetSession(); s != nil {
		return s.ID()
	}
	return ""
}

func requestParams(req sdkmcp.Request) (p any) {
	defer func() {
		if recover() != nil {
			p = nil
		}
	}()
	if req == nil {
		return nil
	}
	return req.GetParams()
}

func payload(v any) string {
	if v == nil {
		return "<nil>"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%T", v)
	}
	if len(data) > maxLoggedPayload {
		return string(data[:maxLoggedPayload]) + "…"
	}
	return string(data)
}
