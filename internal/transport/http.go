package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/groupbite/internal/mcp"
	"github.com/rs/cors"
)

// RPCHandler handles method dispatch.
type RPCHandler interface {
	Handle(ctx context.Context, memberID, method string, params json.RawMessage) (any, error)
}

// Options configures the optional parts of the router.
type Options struct {
	// Auth wraps the authenticated routes. Nil leaves them open.
	Auth func(http.Handler) http.Handler
	// MCP is mounted at /mcp outside Auth; the MCP server authenticates itself.
	MCP http.Handler
	// Metrics is served at /metrics.
	Metrics http.Handler
	// Watch enables GET /sessions/{id}/watch.
	Watch *WatchHandler
	// CORSOrigins enables CORS for the listed origins.
	CORSOrigins []string
	Logger      *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	handler RPCHandler
	logger  *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(handler RPCHandler, opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "Mcp-Session-Id", "Mcp-Protocol-Version"},
			ExposedHeaders:   []string{"Mcp-Session-Id"},
			AllowCredentials: true,
		}).Handler)
	}

	srv := &Server{handler: handler, logger: logger}

	r.Get("/health", srv.handleHealth)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
		r.Handle("/mcp/*", opts.MCP)
	}

	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		r.Post("/rpc", srv.handleRPC)
		if opts.Watch != nil {
			r.Get("/sessions/{id}/watch", opts.Watch.ServeHTTP)
		}
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		if errors.Is(err, errInvalidRequest) {
			WriteError(w, req.ID, ErrInvalidReq, "invalid request", nil)
			return
		}
		WriteError(w, nil, ErrParseCode, "parse error", nil)
		return
	}

	memberID, _ := MemberFromContext(r.Context())

	result, err := s.handler.Handle(r.Context(), memberID, req.Method, req.Params)
	if err != nil {
		code, data := errorCode(err)
		message := err.Error()
		var apiErr *mcp.APIError
		if errors.As(err, &apiErr) {
			message = apiErr.Message
		}
		if code == ErrInternal {
			s.logger.Error("rpc failed", "method", req.Method, "member_id", memberID, "error", err)
		}
		WriteError(w, req.ID, code, message, data)
		return
	}

	s.logger.Debug("rpc handled", "method", req.Method, "member_id", memberID)
	WriteResult(w, req.ID, result)
}
