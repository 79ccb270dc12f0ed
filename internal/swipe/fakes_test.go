package swipe

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/dukerupert/wevy/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeMembers struct {
	mu      sync.Mutex
	members map[int64][]int64
	err     error
	// onCall runs, outside the lock, each time membership is read.
	onCall func()
}

func (f *fakeMembers) CurrentMembers(ctx context.Context, householdID int64) ([]int64, error) {
	f.mu.Lock()
	hook := f.onCall
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return slices.Clone(f.members[householdID]), nil
}

func (f *fakeMembers) set(householdID int64, ids ...int64) {
	f.mu.Lock()
	f.members[householdID] = ids
	f.mu.Unlock()
}

type fakeCatalog struct {
	recipes map[int64]model.RecipeInfo
	err     error
	// When release is set, Exists signals entered and waits for release or
	// for its context to end.
	entered chan struct{}
	release chan struct{}
}

func (f *fakeCatalog) Exists(ctx context.Context, ids []int64) (map[int64]model.RecipeInfo, error) {
	if f.release != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[int64]model.RecipeInfo)
	for _, id := range ids {
		if r, ok := f.recipes[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

// memStore is an in-memory Store guarded by one mutex.
type memStore struct {
	mu        sync.Mutex
	sessions  map[string]*model.SwipeSession
	byKey     map[string]string
	nextVote  int64
	appendErr error
	getErr    error
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]*model.SwipeSession), byKey: make(map[string]string)}
}

func memKey(householdID int64, date string) string {
	return creationKey(householdID, date, nil)
}

func (s *memStore) Get(ctx context.Context, householdID int64, date string) (*model.SwipeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	id, ok := s.byKey[memKey(householdID, date)]
	if !ok {
		return nil, nil
	}
	return cloneSession(s.sessions[id]), nil
}

func (s *memStore) GetByID(ctx context.Context, id string) (*model.SwipeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return cloneSession(sess), nil
}

func (s *memStore) UpsertIfAbsent(ctx context.Context, sess *model.SwipeSession) (*model.SwipeSession, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memKey(sess.HouseholdID, sess.Date)
	if id, ok := s.byKey[key]; ok {
		return cloneSession(s.sessions[id]), false, nil
	}
	stored := cloneSession(sess)
	stored.Votes = []model.Vote{}
	s.sessions[stored.ID] = stored
	s.byKey[key] = stored.ID
	return cloneSession(stored), true, nil
}

func (s *memStore) AppendVoteAndMaybeTransition(ctx context.Context, sessionID string, vote *model.Vote, matchedRecipeID *int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s.appendErr != nil {
		return false, s.appendErr
	}
	sess, ok := s.sessions[sessionID]
	if !ok || sess.Status != model.SessionActive {
		return false, nil
	}
	s.nextVote++
	vote.ID = s.nextVote
	sess.Votes = append(sess.Votes, *vote)
	if matchedRecipeID != nil {
		id := *matchedRecipeID
		sess.Status = model.SessionMatched
		sess.MatchedRecipeID = &id
	}
	return true, nil
}

func (s *memStore) MarkExpired(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.Status != model.SessionActive {
		return false, nil
	}
	sess.Status = model.SessionExpired
	return true, nil
}

func (s *memStore) ListExpirable(ctx context.Context, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, sess := range s.sessions {
		if sess.Status == model.SessionActive && now.After(sess.ExpiresAt) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *memStore) ListMatched(ctx context.Context, householdID int64, limit int) ([]model.SwipeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.SwipeSession
	for _, sess := range s.sessions {
		if sess.HouseholdID == householdID && sess.Status == model.SessionMatched {
			out = append(out, *cloneSession(sess))
		}
	}
	slices.SortFunc(out, func(a, b model.SwipeSession) int {
		switch {
		case a.Date > b.Date:
			return -1
		case a.Date < b.Date:
			return 1
		}
		return 0
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) voteCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions[id].Votes)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingNotifier) Notify(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingNotifier) count(t EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

var errBoom = errors.New("boom")
