package swipe

import (
	"time"

	"github.com/dukerupert/wevy/internal/model"
)

type voteKey struct {
	member int64
	recipe int64
}

// effectiveVote is a member's most recent vote on a candidate. seq is the
// vote's index in the log and breaks timestamp ties.
type effectiveVote struct {
	direction model.Direction
	at        time.Time
	seq       int
}

func (e effectiveVote) after(o effectiveVote) bool {
	if e.at.Equal(o.at) {
		return e.seq > o.seq
	}
	return e.at.After(o.at)
}

// effectiveVotes reduces the log to the latest vote per (member, recipe).
// votes must be in submission order.
func effectiveVotes(votes []model.Vote) map[voteKey]effectiveVote {
	latest := make(map[voteKey]effectiveVote, len(votes))
	for i, v := range votes {
		k := voteKey{member: v.MemberID, recipe: v.RecipeID}
		e := effectiveVote{direction: v.Direction, at: v.Timestamp, seq: i}
		if cur, ok := latest[k]; !ok || e.after(cur) {
			latest[k] = e
		}
	}
	return latest
}

// Evaluate returns the matched candidate, if any. A candidate matches when
// every id in members has an effective approve vote on it. When several match,
// the one whose last needed approval came earliest wins, then the earliest in
// candidates. An empty membership never matches.
func Evaluate(candidates []int64, votes []model.Vote, members []int64) (int64, bool) {
	if len(members) == 0 {
		return 0, false
	}
	latest := effectiveVotes(votes)

	var (
		best       int64
		bestSealed effectiveVote
		found      bool
	)
	for _, recipeID := range candidates {
		sealed, ok := sealedBy(latest, recipeID, members)
		if !ok {
			continue
		}
		if !found || bestSealed.at.After(sealed.at) {
			best, bestSealed, found = recipeID, sealed, true
		}
	}
	return best, found
}

// sealedBy reports whether every member approves recipeID and, if so, returns
// the approval that completed unanimity.
func sealedBy(latest map[voteKey]effectiveVote, recipeID int64, members []int64) (effectiveVote, bool) {
	var last effectiveVote
	for i, m := range members {
		e, ok := latest[voteKey{member: m, recipe: recipeID}]
		if !ok || e.direction != model.DirectionApprove {
			return effectiveVote{}, false
		}
		if i == 0 || e.after(last) {
			last = e
		}
	}
	return last, true
}

// CandidateProgress summarizes how close a candidate is to unanimity.
type CandidateProgress struct {
	RecipeID  int64   `json:"recipe_id"`
	Approvals int     `json:"approvals"`
	Required  int     `json:"required"`
	Pending   []int64 `json:"pending"`
}

// Progress reports, per candidate, how many current members approve it and
// which members have not yet voted on it.
func Progress(candidates []int64, votes []model.Vote, members []int64) []CandidateProgress {
	latest := effectiveVotes(votes)
	out := make([]CandidateProgress, 0, len(candidates))
	for _, recipeID := range candidates {
		p := CandidateProgress{RecipeID: recipeID, Required: len(members), Pending: []int64{}}
		for _, m := range members {
			e, ok := latest[voteKey{member: m, recipe: recipeID}]
			switch {
			case !ok:
				p.Pending = append(p.Pending, m)
			case e.direction == model.DirectionApprove:
				p.Approvals++
			}
		}
		out = append(out, p)
	}
	return out
}
