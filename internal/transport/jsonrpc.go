package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rpggio/groupbite/internal/mcp"
)

// JSON-RPC 2.0 error codes. ErrApplication carries a domain error; its
// data holds the domain code and recovery hint.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
	ErrApplication    = -32000
)

var errInvalidRequest = errors.New("invalid request")

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// AppErrorData is the data of an ErrApplication error.
type AppErrorData struct {
	Code         string `json:"code"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
	Details      any    `json:"details,omitempty"`
}

// ParseRequest decodes one request. Malformed JSON is a parse error;
// a missing version or method is an invalid request.
func ParseRequest(body io.Reader) (Request, error) {
	var req Request
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return Request{}, fmt.Errorf("parse error: %w", err)
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return req, errInvalidRequest
	}
	return req, nil
}

// WriteResult writes a success response.
func WriteResult(w http.ResponseWriter, id any, result any) {
	writeJSON(w, Response{JSONRPC: "2.0", Result: result, ID: id})
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, id any, code int, message string, data any) {
	writeJSON(w, Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message, Data: data},
		ID:      id,
	})
}

// errorCode maps a dispatch error to its JSON-RPC code and data.
func errorCode(err error) (int, any) {
	var apiErr *mcp.APIError
	switch {
	case errors.Is(err, mcp.ErrUnknownMethod):
		return ErrMethodNotFound, nil
	case errors.As(err, &apiErr):
		return ErrApplication, AppErrorData{
			Code:         apiErr.Code,
			RecoveryHint: apiErr.RecoveryHint,
			Details:      apiErr.Details,
		}
	default:
		return ErrInternal, nil
	}
}

// JSON-RPC errors travel in a 200 response.
func writeJSON(w http.ResponseWriter, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}
