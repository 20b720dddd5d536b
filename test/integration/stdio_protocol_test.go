package integration_test

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// TestStdioProtocolCompliance verifies the server works correctly over stdio transport
// using the official MCP SDK client. This catches protocol issues that shell-based
// tests might miss.
func serverBinary(t *testing.T) string {
	t.Helper()
	for _, path := range []string{"./bin/groupbite", "../../bin/groupbite"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Skip("Server binary not found. Run 'go build -o bin/groupbite ./cmd/server' first.")
	return ""
}

func stdioEnv() []string {
	return append(os.Environ(),
		"GROUPBITE_TRANSPORT_MODE=stdio",
		"GROUPBITE_DB_PATH=:memory:",
		"GROUPBITE_PLACES_API_KEY=",
	)
}

// TestStdioProtocolCompliance drives the server binary over stdio with the
// MCP SDK client.
func TestStdioProtocolCompliance(t *testing.T) {
	binaryPath := serverBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath)
	cmd.Env = stdioEnv()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, &sdkmcp.CommandTransport{Command: cmd}, nil)
	require.NoError(t, err, "Failed to connect to server")
	defer session.Close()

	t.Run("ServerInfo", func(t *testing.T) {
		initResult := session.InitializeResult()
		require.NotNil(t, initResult)
		require.NotNil(t, initResult.ServerInfo)
		require.Equal(t, "groupbite", initResult.ServerInfo.Name)
		require.Equal(t, "0.1.0", initResult.ServerInfo.Version)
	})

	t.Run("ListTools", func(t *testing.T) {
		tools, err := session.ListTools(ctx, nil)
		require.NoError(t, err, "tools/list failed")

		toolNames := make(map[string]bool)
		for _, tool := range tools.Tools {
			toolNames[tool.Name] = true
		}
		for _, name := range []string{"create_group", "join_group", "create_session", "record_vote", "get_matches"} {
			require.True(t, toolNames[name], "Missing expected tool: %s", name)
		}
	})

	// Stdio never authenticates, so members name themselves.
	call := func(t *testing.T, name string, args map[string]any) map[string]any {
		t.Helper()
		result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
		require.NoError(t, err, "tools/call %s failed", name)
		require.NotEmpty(t, result.Content)
		text, ok := result.Content[0].(*sdkmcp.TextContent)
		require.True(t, ok)
		require.False(t, result.IsError, "%s returned error: %s", name, text.Text)

		var out map[string]any
		require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
		return out
	}

	t.Run("VoteToMatch", func(t *testing.T) {
		g := call(t, "create_group", map[string]any{"name": "Lunch", "member_id": "alice"})
		call(t, "join_group", map[string]any{"invite_code": g["invite_code"], "member_id": "bob"})

		sess := call(t, "create_session", map[string]any{
			"group_id":  g["id"],
			"member_id": "alice",
			"filters":   map[string]any{"keyword": "pizza"},
		})
		candidates := sess["candidates"].([]any)
		require.NotEmpty(t, candidates)
		first := candidates[0].(map[string]any)["id"]

		for _, member := range []string{"alice", "bob"} {
			call(t, "record_vote", map[string]any{
				"session_id":   sess["id"],
				"candidate_id": first,
				"value":        "approve",
				"member_id":    member,
			})
		}

		matches := call(t, "get_matches", map[string]any{"session_id": sess["id"]})
		require.Len(t, matches["matches"], 1)
	})
}

// TestStdioProtocol_StdoutHygiene verifies that the server doesn't write
// anything to stdout except valid JSON-RPC messages.
func TestStdioProtocol_StdoutHygiene(t *testing.T) {
	binaryPath := serverBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Run server with a simple initialize request and capture stdout/stderr
	cmd := exec.CommandContext(ctx, binaryPath)
	cmd.Env = stdioEnv()

	stdin, err := cmd.StdinPipe()
	require.NoError(t, err)

	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)

	stderr, err := cmd.StderrPipe()
	require.NoError(t, err)

	err = cmd.Start()
	require.NoError(t, err)

	// Send initialize request and keep stdin open for a bit
	initReq := `{"jsonrpc":"2.0","method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}},"id":1}`
	_, err = stdin.Write([]byte(initReq + "\n"))
	require.NoError(t, err)

	// Read output with timeout (don't close stdin yet)
	done := make(chan struct{})
	var stdoutBytes, stderrBytes []byte

	go func() {
		stdoutBytes, _ = readWithTimeout(stdout, 2*time.Second)
		stderrBytes, _ = readWithTimeout(stderr, 2*time.Second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		cmd.Process.Kill()
		t.Fatal("Timeout waiting for server response")
	}

	// Now close stdin
	stdin.Close()
	cmd.Process.Kill()
	cmd.Wait()

	// Verify stdout starts with valid JSON
	require.NotEmpty(t, stdoutBytes, "Server produced no stdout output")
	require.True(t, stdoutBytes[0] == '{', "First character of stdout should be '{', got: %q", string(stdoutBytes[:min(50, len(stdoutBytes))]))

	// Logs should be on stderr (if any)
	t.Logf("Stderr output (logs): %s", string(stderrBytes))
}

func readWithTimeout(r interface{ Read([]byte) (int, error) }, timeout time.Duration) ([]byte, error) {
	result := make([]byte, 0, 4096)
	buf := make([]byte, 1024)

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		// Try to read
		done := make(chan struct{})
		var n int
		var err error
		go func() {
			n, err = r.Read(buf)
			close(done)
		}()

		select {
		case <-done:
			if n > 0 {
				result = append(result, buf[:n]...)
			}
			if err != nil {
				return result, err
			}
		case <-time.After(100 * time.Millisecond):
			// No data available, check if we have enough
			if len(result) > 0 {
				return result, nil
			}
		}
	}
	return result, nil
}
