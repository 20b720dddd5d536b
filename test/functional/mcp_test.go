package functional_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/groupbite/internal/domain/session"
	"github.com/rpggio/groupbite/internal/testserver"
	"github.com/stretchr/testify/require"
)

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      any             `json:"id,omitempty"`
}

type rpcError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func rpcCall(t *testing.T, ts *testserver.TestServer, token, method string, params any) rpcResponse {
	t.Helper()

	payload := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"id":      1,
	}
	if params != nil {
		payload["params"] = params
	}

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(bodyBytes))
	}

	var result rpcResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

// call makes an RPC call that must succeed and decodes its result into out.
func call(t *testing.T, ts *testserver.TestServer, token, method string, params, out any) {
	t.Helper()
	resp := rpcCall(t, ts, token, method, params)
	require.Nil(t, resp.Error, "%s failed: %+v", method, resp.Error)
	if out != nil {
		require.NoError(t, json.Unmarshal(resp.Result, out))
	}
}

type groupResult struct {
	ID         string   `json:"id"`
	InviteCode string   `json:"invite_code"`
	Members    []string `json:"members"`
}

type candidateResult struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type sessionResult struct {
	ID         string            `json:"id"`
	GroupID    string            `json:"group_id"`
	Active     bool              `json:"active"`
	Status     string            `json:"status"`
	Candidates []candidateResult `json:"candidates"`
	Matches    []candidateResult `json:"matches"`
}

// newLunch creates a group owned by the test server's member and joined by bob.
func newLunch(t *testing.T, ts *testserver.TestServer) (groupResult, string) {
	t.Helper()
	require.NoError(t, ts.AddAPIKey("bob-token", "bob"))

	var g groupResult
	call(t, ts, ts.Token, "create_group", map[string]any{"name": "Lunch"}, &g)
	call(t, ts, "bob-token", "join_group", map[string]any{"invite_code": strings.ToLower(g.InviteCode)}, &g)
	require.Equal(t, []string{ts.MemberID, "bob"}, g.Members)
	return g, "bob-token"
}

func TestFunctional_Authentication(t *testing.T) {
	ts := testserver.New(t, "token", "alice")

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewBufferString(`{"jsonrpc":"2.0","method":"list_groups","id":1}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := ts.JWT.Generate("carol", "Carol")
	require.NoError(t, err)
	var g groupResult
	call(t, ts, token, "create_group", map[string]any{"name": "Dinner", "member_id": "mallory"}, &g)
	require.Equal(t, []string{"carol"}, g.Members)
}

func TestFunctional_VoteToMatch(t *testing.T) {
	ts := testserver.New(t, "token", "alice")
	g, bob := newLunch(t, ts)

	var sess sessionResult
	call(t, ts, ts.Token, "create_session", map[string]any{
		"group_id": g.ID,
		"filters":  map[string]any{"types": []string{"japanese"}},
	}, &sess)
	require.True(t, sess.Active)
	require.Equal(t, "active", sess.Status)
	require.Len(t, sess.Candidates, 2)
	require.Empty(t, sess.Matches)

	sushi, ramen := sess.Candidates[0].ID, sess.Candidates[1].ID

	call(t, ts, ts.Token, "record_vote", map[string]any{"session_id": sess.ID, "candidate_id": sushi, "value": "approve"}, nil)
	call(t, ts, ts.Token, "record_vote", map[string]any{"session_id": sess.ID, "candidate_id": ramen, "value": "like"}, nil)
	call(t, ts, bob, "record_vote", map[string]any{"group_id": g.ID, "candidate_id": sushi, "value": "approve"}, nil)
	call(t, ts, bob, "record_vote", map[string]any{"group_id": g.ID, "candidate_id": ramen, "value": "reject"}, &sess)
	require.Len(t, sess.Matches, 1)
	require.Equal(t, sushi, sess.Matches[0].ID)

	var matches struct {
		Matches []candidateResult `json:"matches"`
	}
	call(t, ts, bob, "get_matches", map[string]any{"session_id": sess.ID}, &matches)
	require.Equal(t, []candidateResult{{ID: sushi, Name: "Sushi Master"}}, matches.Matches)

	call(t, ts, ts.Token, "conclude_session", map[string]any{"session_id": sess.ID}, &sess)
	require.Equal(t, "concluded", sess.Status)

	resp := rpcCall(t, ts, bob, "record_vote", map[string]any{"session_id": sess.ID, "candidate_id": ramen, "value": "approve"})
	require.NotNil(t, resp.Error)
	require.Equal(t, "SESSION_INACTIVE", resp.Error.Data["code"])
}

func TestFunctional_ErrorCodes(t *testing.T) {
	ts := testserver.New(t, "token", "alice")
	g, _ := newLunch(t, ts)

	resp := rpcCall(t, ts, ts.Token, "create_session", map[string]any{
		"group_id": g.ID,
		"filters":  map[string]any{"keyword": "no-such-cuisine-anywhere"},
	})
	require.NotNil(t, resp.Error)
	require.Equal(t, "EMPTY_CANDIDATE_SET", resp.Error.Data["code"])

	resp = rpcCall(t, ts, ts.Token, "get_active_session", map[string]any{"group_id": g.ID})
	require.Equal(t, "NO_ACTIVE_SESSION", resp.Error.Data["code"])

	var sess sessionResult
	call(t, ts, ts.Token, "create_session", map[string]any{"group_id": g.ID}, &sess)

	resp = rpcCall(t, ts, ts.Token, "record_vote", map[string]any{"session_id": sess.ID, "candidate_id": "nope", "value": "approve"})
	require.Equal(t, "INVALID_CANDIDATE", resp.Error.Data["code"])

	resp = rpcCall(t, ts, ts.Token, "record_vote", map[string]any{"session_id": sess.ID, "candidate_id": sess.Candidates[0].ID, "value": "maybe"})
	require.Equal(t, "INVALID_INPUT", resp.Error.Data["code"])

	resp = rpcCall(t, ts, ts.Token, "join_group", map[string]any{"invite_code": "ZZZZZZZZ"})
	require.Equal(t, "INVITE_NOT_FOUND", resp.Error.Data["code"])

	resp = rpcCall(t, ts, ts.Token, "no_such_method", nil)
	require.Equal(t, -32601, resp.Error.Code)
}

func TestFunctional_SupersededSessionStaysReadable(t *testing.T) {
	ts := testserver.New(t, "token", "alice", testserver.WithRedisVotes())
	g, bob := newLunch(t, ts)

	var first, second sessionResult
	call(t, ts, ts.Token, "create_session", map[string]any{"group_id": g.ID}, &first)
	call(t, ts, ts.Token, "record_vote", map[string]any{"session_id": first.ID, "candidate_id": first.Candidates[0].ID, "value": "approve"}, nil)
	call(t, ts, bob, "record_vote", map[string]any{"session_id": first.ID, "candidate_id": first.Candidates[0].ID, "value": "approve"}, nil)

	call(t, ts, bob, "create_session", map[string]any{"group_id": g.ID}, &second)

	var active sessionResult
	call(t, ts, ts.Token, "get_active_session", map[string]any{"group_id": g.ID}, &active)
	require.Equal(t, second.ID, active.ID)

	var old sessionResult
	call(t, ts, ts.Token, "get_session", map[string]any{"session_id": first.ID}, &old)
	require.False(t, old.Active)
	require.Len(t, old.Matches, 1)

	var history []map[string]any
	call(t, ts, ts.Token, "list_sessions", map[string]any{"group_id": g.ID}, &history)
	require.Len(t, history, 2)
}

func TestFunctional_Swipes(t *testing.T) {
	ts := testserver.New(t, "token", "alice")
	g, bob := newLunch(t, ts)

	for _, token := range []string{ts.Token, bob} {
		call(t, ts, token, "record_swipe", map[string]any{"group_id": g.ID, "candidate_id": "place-1", "value": "like"}, nil)
	}
	call(t, ts, bob, "record_swipe", map[string]any{"group_id": g.ID, "candidate_id": "place-2", "value": "like"}, nil)

	var matches struct {
		GroupID string            `json:"group_id"`
		Matches []candidateResult `json:"matches"`
	}
	call(t, ts, ts.Token, "get_group_matches", map[string]any{"group_id": g.ID}, &matches)
	require.Equal(t, []candidateResult{{ID: "place-1"}}, matches.Matches)
}

func TestFunctional_WatchStreamsVotes(t *testing.T) {
	ts := testserver.New(t, "token", "alice")
	g, bob := newLunch(t, ts)

	var sess sessionResult
	call(t, ts, ts.Token, "create_session", map[string]any{"group_id": g.ID}, &sess)

	url := "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/sessions/" + sess.ID + "/watch?access_token=" + ts.Token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })

	read := func() session.Event {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var ev session.Event
		require.NoError(t, conn.ReadJSON(&ev))
		return ev
	}

	require.Equal(t, session.EventType("snapshot"), read().Type)
	require.Eventually(t, func() bool { return ts.Hub.Subscribers(sess.ID) == 1 }, time.Second, 10*time.Millisecond)

	call(t, ts, bob, "record_vote", map[string]any{"session_id": sess.ID, "candidate_id": sess.Candidates[0].ID, "value": "approve"}, nil)
	ev := read()
	require.Equal(t, session.EventVote, ev.Type)
	v, ok := ev.Session.Votes.Get("bob", sess.Candidates[0].ID)
	require.True(t, ok)
	require.Equal(t, "approve", string(v))

	call(t, ts, ts.Token, "create_session", map[string]any{"group_id": g.ID}, nil)
	require.Equal(t, session.EventSuperseded, read().Type)
}

func TestFunctional_Metrics(t *testing.T) {
	ts := testserver.New(t, "token", "alice")
	g, _ := newLunch(t, ts)
	call(t, ts, ts.Token, "create_session", map[string]any{"group_id": g.ID}, nil)

	resp, err := http.Get(ts.Server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "groupbite_sessions_created_total 1")
}

type bearerTransport struct {
	token string
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return http.DefaultTransport.RoundTrip(req)
}

func TestFunctional_MCPOverHTTP(t *testing.T) {
	ts := testserver.New(t, "token", "alice")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	cs, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearerTransport{token: ts.Token}},
	}, nil)
	require.NoError(t, err)
	defer cs.Close()

	result, err := cs.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "create_group",
		Arguments: map[string]any{"name": "Brunch", "member_id": "mallory"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	text := result.Content[0].(*sdkmcp.TextContent).Text

	var g groupResult
	require.NoError(t, json.Unmarshal([]byte(text), &g))
	require.Equal(t, []string{"alice"}, g.Members)

	var listed []map[string]any
	call(t, ts, ts.Token, "list_groups", nil, &listed)
	require.Len(t, listed, 1)
}

func TestFunctional_MCPRequiresToken(t *testing.T) {
	ts := testserver.New(t, "token", "alice")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	cs, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{Endpoint: ts.Server.URL + "/mcp"}, nil)
	require.NoError(t, err)
	defer cs.Close()

	_, err = cs.CallTool(ctx, &sdkmcp.CallToolParams{Name: "list_groups"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unauthorized")
}
