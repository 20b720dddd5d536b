// Package match computes the candidates every participating member approved.
//
// Two vote sources feed the same aggregation: a session's per-cell vote
// table (SessionSnapshot) and a stream of standalone swipe records
// (RawVoteStream). Both are reduced to a vote.Table before resolution, so the
// matching rule lives in one place.
package match

import (
	"github.com/rpggio/groupbite/internal/domain/candidate"
	"github.com/rpggio/groupbite/internal/domain/vote"
)

// MinVoters is the number of distinct voters a group match requires.
const MinVoters = 2

// Input is the tagged variant accepted by Resolve.
type Input interface {
	resolve() ([]candidate.Candidate, vote.Table)
}

// SessionSnapshot is a point-in-time read of a session.
type SessionSnapshot struct {
	Candidates []candidate.Candidate
	Votes      vote.Table
}

func (s SessionSnapshot) resolve() ([]candidate.Candidate, vote.Table) {
	return s.Candidates, s.Votes
}

// RawVoteStream is a set of standalone swipe records. The latest record per
// (member, candidate) wins; equal timestamps fall back to stream order. When
// Candidates is empty the order is the first appearance of each candidate ID
// and the returned candidates carry only their ID.
type RawVoteStream struct {
	Candidates []candidate.Candidate
	Votes      []vote.Vote
}

func (s RawVoteStream) resolve() ([]candidate.Candidate, vote.Table) {
	table := make(vote.Table)
	type cell struct{ member, candidate string }
	latest := make(map[cell]int, len(s.Votes))

	candidates := s.Candidates
	derive := len(candidates) == 0
	seen := make(map[string]bool)

	for i, v := range s.Votes {
		if derive && !seen[v.CandidateID] {
			seen[v.CandidateID] = true
			candidates = append(candidates, candidate.Candidate{ID: v.CandidateID})
		}
		key := cell{v.MemberID, v.CandidateID}
		if prev, ok := latest[key]; ok && s.Votes[prev].CreatedAt.After(v.CreatedAt) {
			continue
		}
		latest[key] = i
		table.Set(v.MemberID, v.CandidateID, v.Value)
	}
	return candidates, table
}

// Resolve returns the candidates approved by every member who cast at least
// one vote, in candidate order. Fewer than MinVoters voters
// never match. The result is never nil.
func Resolve(in Input) []candidate.Candidate {
	matches := []candidate.Candidate{}
	if in == nil {
		return matches
	}
	candidates, table := in.resolve()

	voters := table.Voters()
	if len(voters) < MinVoters {
		return matches
	}

	for _, c := range candidates {
		if approvedByAll(table, voters, c.ID) {
			matches = append(matches, c)
		}
	}
	return matches
}

func approvedByAll(table vote.Table, voters []string, candidateID string) bool {
	for _, member := range voters {
		if v, ok := table.Get(member, candidateID); !ok || v != vote.Approve {
			return false
		}
	}
	return true
}
