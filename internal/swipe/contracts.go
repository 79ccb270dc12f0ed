package swipe

import (
	"context"
	"time"

	"github.com/dukerupert/wevy/internal/model"
)

// MembershipProvider reports who currently belongs to a household.
type MembershipProvider interface {
	CurrentMembers(ctx context.Context, householdID int64) ([]int64, error)
}

// RecipeCatalog resolves recipe ids. Unknown ids are absent from the result.
type RecipeCatalog interface {
	Exists(ctx context.Context, ids []int64) (map[int64]model.RecipeInfo, error)
}

// Store persists sessions. Get and GetByID return nil, nil when nothing is stored.
type Store interface {
	Get(ctx context.Context, householdID int64, date string) (*model.SwipeSession, error)
	GetByID(ctx context.Context, id string) (*model.SwipeSession, error)
	UpsertIfAbsent(ctx context.Context, s *model.SwipeSession) (*model.SwipeSession, bool, error)
	// AppendVoteAndMaybeTransition must apply the vote and the optional match
	// atomically, and report false without writing if the session is not active.
	AppendVoteAndMaybeTransition(ctx context.Context, sessionID string, vote *model.Vote, matchedRecipeID *int64) (bool, error)
	MarkExpired(ctx context.Context, id string) (bool, error)
	ListExpirable(ctx context.Context, now time.Time) ([]string, error)
	ListMatched(ctx context.Context, householdID int64, limit int) ([]model.SwipeSession, error)
}

type EventType string

const (
	EventCreated EventType = "created"
	EventVote    EventType = "vote"
	EventMatched EventType = "matched"
	EventExpired EventType = "expired"
)

// Event describes a change to a session after it has been stored.
type Event struct {
	Type    EventType
	Session model.SwipeSession
	Vote    *model.Vote
}

// Notifier receives session events. Notify must not block.
type Notifier interface {
	Notify(Event)
}

type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }
