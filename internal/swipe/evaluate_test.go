package swipe

import (
	"testing"
	"time"

	"github.com/dukerupert/wevy/internal/model"
)

var t0 = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

func vote(member, recipe int64, dir model.Direction, offset time.Duration) model.Vote {
	return model.Vote{MemberID: member, RecipeID: recipe, Direction: dir, Timestamp: t0.Add(offset)}
}

const (
	approve = model.DirectionApprove
	reject  = model.DirectionReject
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		candidates []int64
		votes      []model.Vote
		members    []int64
		want       int64
		wantOK     bool
	}{
		{
			name:       "no votes",
			candidates: []int64{1, 2},
			members:    []int64{10, 20},
		},
		{
			name:       "one of two approves",
			candidates: []int64{1, 2},
			votes:      []model.Vote{vote(10, 1, approve, 0)},
			members:    []int64{10, 20},
		},
		{
			name:       "unanimous",
			candidates: []int64{1, 2},
			votes:      []model.Vote{vote(10, 1, approve, 0), vote(20, 1, approve, time.Second)},
			members:    []int64{10, 20},
			want:       1,
			wantOK:     true,
		},
		{
			name:       "correction to approve",
			candidates: []int64{1, 2},
			votes: []model.Vote{
				vote(10, 1, approve, 0),
				vote(20, 1, reject, time.Second),
				vote(20, 1, approve, 2*time.Second),
			},
			members: []int64{10, 20},
			want:    1,
			wantOK:  true,
		},
		{
			name:       "correction to reject",
			candidates: []int64{1},
			votes: []model.Vote{
				vote(10, 1, approve, 0),
				vote(20, 1, approve, time.Second),
				vote(20, 1, reject, 2*time.Second),
			},
			members: []int64{10, 20},
		},
		{
			name:       "empty membership never matches",
			candidates: []int64{1},
			votes:      []model.Vote{vote(10, 1, approve, 0)},
		},
		{
			name:       "non-member approvals do not substitute",
			candidates: []int64{1},
			votes:      []model.Vote{vote(10, 1, approve, 0), vote(99, 1, approve, time.Second)},
			members:    []int64{10, 20},
		},
		{
			name:       "departed member no longer required",
			candidates: []int64{1},
			votes:      []model.Vote{vote(10, 1, approve, 0), vote(20, 1, reject, time.Second)},
			members:    []int64{10},
			want:       1,
			wantOK:     true,
		},
		{
			name:       "earliest sealed candidate wins",
			candidates: []int64{1, 2},
			votes: []model.Vote{
				vote(10, 1, approve, 0),
				vote(10, 2, approve, time.Second),
				vote(20, 2, approve, 2*time.Second),
				vote(20, 1, approve, 3*time.Second),
			},
			members: []int64{10, 20},
			want:    2,
			wantOK:  true,
		},
		{
			name:       "equal seal time falls back to candidate order",
			candidates: []int64{2, 1},
			votes: []model.Vote{
				vote(10, 1, approve, 0),
				vote(10, 2, approve, 0),
				vote(20, 1, approve, time.Second),
				vote(20, 2, approve, time.Second),
			},
			members: []int64{10, 20},
			want:    2,
			wantOK:  true,
		},
		{
			name:       "same timestamp resolved by submission order",
			candidates: []int64{1},
			votes: []model.Vote{
				vote(10, 1, approve, 0),
				vote(20, 1, approve, time.Second),
				vote(20, 1, reject, time.Second),
			},
			members: []int64{10, 20},
		},
		{
			name:       "later submission with older timestamp does not supersede",
			candidates: []int64{1},
			votes: []model.Vote{
				vote(10, 1, approve, 0),
				vote(20, 1, approve, 2*time.Second),
				vote(20, 1, reject, time.Second),
			},
			members: []int64{10, 20},
			want:    1,
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Evaluate(tt.candidates, tt.votes, tt.members)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Evaluate() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestEvaluateRepeatedVoteIsIdempotent(t *testing.T) {
	candidates := []int64{1, 2}
	members := []int64{10, 20}
	votes := []model.Vote{vote(10, 1, approve, 0), vote(20, 2, approve, time.Second)}

	before, beforeOK := Evaluate(candidates, votes, members)
	votes = append(votes, vote(10, 1, approve, 2*time.Second))
	after, afterOK := Evaluate(candidates, votes, members)

	if before != after || beforeOK != afterOK {
		t.Errorf("repeat vote changed outcome: (%d, %v) -> (%d, %v)", before, beforeOK, after, afterOK)
	}
}

func TestProgress(t *testing.T) {
	votes := []model.Vote{
		vote(10, 1, approve, 0),
		vote(20, 1, reject, time.Second),
		vote(10, 2, approve, 2*time.Second),
	}
	got := Progress([]int64{1, 2}, votes, []int64{10, 20})

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Approvals != 1 || got[0].Required != 2 || len(got[0].Pending) != 0 {
		t.Errorf("recipe 1 progress = %+v", got[0])
	}
	if got[1].Approvals != 1 || len(got[1].Pending) != 1 || got[1].Pending[0] != 20 {
		t.Errorf("recipe 2 progress = %+v", got[1])
	}
}
