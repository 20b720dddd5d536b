package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `groupbite helps a group of people agree on where to eat.

Core concepts:
- Group: members plus an 8 character invite code. Join with join_group.
- Session: one round of voting over a frozen list of nearby restaurants (candidates).
  A group has at most one active session; starting a new one supersedes the old one.
- Vote: approve or reject, one per member per candidate. Voting again overwrites.
- Match: a candidate every voter approved. Matches need at least two voters.

Default workflow:
1) create_group or join_group; list_groups to find groups.
2) create_session with optional filters (radius, price_level, types, keyword) and lat/lng.
3) Every member calls record_vote for the candidates they like or dislike.
4) get_matches (or get_active_session, which includes matches) to see agreement.
5) conclude_session when the group has decided.

Identity:
- HTTP with auth: the bearer token identifies the member.
- Otherwise pass member_id in tool arguments (defaults to "local").

Docs:
- groupbite://docs/index
- groupbite://docs/matching
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
		URI:         "groupbite://docs/index",
		Name:        "docs_index",
		Title:       "groupbite docs index",
		Description: "Entry point: tools, session lifecycle and error codes.",
		Content: `# groupbite: Docs Index

## Tools

| Tool | Purpose |
|---|---|
| ` + "`create_group`" + ` / ` + "`join_group`" + ` / ` + "`leave_group`" + ` | membership |
| ` + "`get_group`" + ` / ` + "`list_groups`" + ` | browse groups |
| ` + "`create_session`" + ` | fetch candidates and open voting |
| ` + "`get_active_session`" + ` / ` + "`get_session`" + ` / ` + "`list_sessions`" + ` | read sessions |
| ` + "`record_vote`" + ` | approve or reject a candidate |
| ` + "`conclude_session`" + ` | close voting |
| ` + "`get_matches`" + ` | unanimous approvals |
| ` + "`record_swipe`" + ` / ` + "`get_group_matches`" + ` | session-less swipe log |

## Session lifecycle

No active session, then Active, then Concluded. Creating a session while one is active
concludes the old one (superseded). Superseded and concluded sessions stay readable by id
but refuse votes with ` + "`SESSION_INACTIVE`" + `.

## Error codes

- ` + "`GROUP_NOT_FOUND`" + `, ` + "`INVITE_NOT_FOUND`" + `, ` + "`ALREADY_MEMBER`" + `, ` + "`NOT_MEMBER`" + `
- ` + "`SESSION_NOT_FOUND`" + `, ` + "`NO_ACTIVE_SESSION`" + `, ` + "`SESSION_INACTIVE`" + `
- ` + "`INVALID_CANDIDATE`" + `: the candidate id is not in the session's list
- ` + "`EMPTY_CANDIDATE_SET`" + `: no restaurants matched; widen the filters
- ` + "`CONFLICT`" + `: concurrent update, retry
- ` + "`INVALID_INPUT`" + `
`,
	},
	{
		URI:         "groupbite://docs/matching",
		Name:        "docs_matching",
		Title:       "How matches are computed",
		Description: "Voter set, unanimity rule and ordering of matches.",
		Content: `# Matching

1. Voters are the members with at least one vote in the session.
2. Fewer than two voters: no matches.
3. A candidate matches when every voter approved it. A missing vote counts against it.
4. Matches keep the order of the session's candidate list.

The swipe log (` + "`record_swipe`" + `) is resolved the same way after folding swipes:
the latest swipe per member and candidate wins.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

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
