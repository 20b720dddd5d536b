package mcp

import (
	"context"
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerTools exposes every handler command as an MCP tool.
func registerTools(server *sdkmcp.Server, h *Handler) {
	// Groups
	addTool(server, h, "create_group",
		"Create a group. The caller becomes its first member and receives an invite code to share.",
		(*Handler).createGroup)
	addTool(server, h, "get_group",
		"Get a group's members, invite code and current session pointer.",
		(*Handler).getGroup)
	addTool(server, h, "join_group",
		"Join a group using its invite code. Rejoining an emptied group reactivates it.",
		(*Handler).joinGroup)
	addTool(server, h, "leave_group",
		"Leave a group. A group with no members left is flagged inactive.",
		(*Handler).leaveGroup)
	addTool(server, h, "list_groups",
		"List the groups the caller belongs to.",
		(*Handler).listGroups)

	// Sessions
	addTool(server, h, "create_session",
		"Fetch nearby restaurants and start a voting session for the group. Supersedes any active session.",
		(*Handler).createSession)
	addTool(server, h, "get_active_session",
		"Get the group's active session with its candidates, votes and current matches.",
		(*Handler).getActiveSession)
	addTool(server, h, "get_session",
		"Get any session by id, including concluded and superseded ones.",
		(*Handler).getSession)
	addTool(server, h, "list_sessions",
		"List a group's sessions, newest first.",
		(*Handler).listSessions)
	addTool(server, h, "record_vote",
		"Approve or reject one candidate in a session. Voting again on the same candidate overwrites the earlier vote.",
		(*Handler).recordVote)
	addTool(server, h, "conclude_session",
		"End voting on a session. Concluding an already concluded session is a no-op.",
		(*Handler).concludeSession)
	addTool(server, h, "get_matches",
		"List the candidates every voter approved. Needs at least two voters.",
		(*Handler).getMatches)

	// Swipe log
	addTool(server, h, "record_swipe",
		"Append a swipe to the group's log, optionally tied to a session.",
		(*Handler).recordSwipe)
	addTool(server, h, "get_group_matches",
		"Resolve matches from the group's swipe log. The latest swipe per member and candidate wins.",
		(*Handler).getGroupMatches)
}

func addTool[In any](server *sdkmcp.Server, h *Handler, name, description string, fn command[In]) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        name,
		Description: description,
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
		result, err := fn(h, ctx, getMemberID(ctx), in)
		if err != nil {
			return errorResult(mapError(err)), nil, nil
		}
		return jsonResult(result), nil, nil
	})
}

func jsonResult(v any) *sdkmcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}

func errorResult(err error) *sdkmcp.CallToolResult {
	text := err.Error()
	if apiErr, ok := err.(*APIError); ok {
		if data, marshalErr := json.Marshal(apiErr); marshalErr == nil {
			text = string(data)
		}
	}
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}},
	}
}
