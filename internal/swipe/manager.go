package swipe

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dukerupert/wevy/internal/model"
)

const (
	DefaultTTL          = 24 * time.Hour
	DefaultHistoryLimit = 30

	// createTimeout bounds a shared session creation once detached from the
	// callers that started it.
	createTimeout = 30 * time.Second
)

type Config struct {
	// TTL is how long a session accepts votes after creation.
	TTL time.Duration
	// Location is the household reference timezone used for "today".
	Location *time.Location
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Manager creates sessions, collects votes and evaluates matches.
type Manager struct {
	store    Store
	members  MembershipProvider
	recipes  RecipeCatalog
	notifier Notifier
	logger   *slog.Logger

	ttl   time.Duration
	loc   *time.Location
	now   func() time.Time
	locks *keyedLock
	group singleflight.Group
}

func NewManager(cfg Config, store Store, members MembershipProvider, recipes RecipeCatalog, notifier Notifier, logger *slog.Logger) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:    store,
		members:  members,
		recipes:  recipes,
		notifier: notifier,
		logger:   logger,
		ttl:      cfg.TTL,
		loc:      cfg.Location,
		now:      cfg.Now,
		locks:    newKeyedLock(),
	}
}

// Today returns the current date in the household reference timezone.
func (m *Manager) Today() string {
	return m.now().In(m.loc).Format(model.SessionDateLayout)
}

// NormalizeDate validates a session date. Empty and "today" resolve to Today.
func (m *Manager) NormalizeDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" || strings.EqualFold(date, "today") {
		return m.Today(), nil
	}
	d, err := time.Parse(model.SessionDateLayout, date)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return d.Format(model.SessionDateLayout), nil
}

// GetOrCreateSession returns the session for the household and date, creating
// it from candidates if none exists. An existing session keeps its own
// candidate list.
func (m *Manager) GetOrCreateSession(ctx context.Context, householdID int64, date string, candidates []int64) (*model.SwipeSession, error) {
	date, err := m.NormalizeDate(date)
	if err != nil {
		return nil, err
	}

	existing, err := m.store.Get(ctx, householdID, date)
	if err != nil {
		return nil, providerErr("get session", err)
	}
	if existing != nil {
		return m.expireIfDue(ctx, existing)
	}

	candidates = dedupe(candidates)
	key := creationKey(householdID, date, candidates)
	// Collapsed callers share one creation, so it must not inherit any single
	// caller's cancellation. Each caller still stops waiting on its own ctx.
	ch := m.group.DoChan(key, func() (any, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), createTimeout)
		defer cancel()
		return m.create(cctx, householdID, date, candidates)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		s := res.Val.(*model.SwipeSession)
		return m.expireIfDue(ctx, cloneSession(s))
	}
}

func (m *Manager) create(ctx context.Context, householdID int64, date string, candidates []int64) (*model.SwipeSession, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", ErrInvalidCandidateSet)
	}

	found, err := m.recipes.Exists(ctx, candidates)
	if err != nil {
		return nil, providerErr("resolve recipes", err)
	}
	var missing []string
	for _, id := range candidates {
		info, ok := found[id]
		if !ok || info.HouseholdID != householdID {
			missing = append(missing, strconv.FormatInt(id, 10))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: unknown recipes %s", ErrInvalidCandidateSet, strings.Join(missing, ", "))
	}

	now := m.now().UTC()
	s, created, err := m.store.UpsertIfAbsent(ctx, &model.SwipeSession{
		ID:                 uuid.New().String(),
		HouseholdID:        householdID,
		Date:               date,
		Status:             model.SessionActive,
		CandidateRecipeIDs: candidates,
		CreatedAt:          now,
		ExpiresAt:          now.Add(m.ttl),
	})
	if err != nil {
		return nil, providerErr("create session", err)
	}
	if created {
		m.logger.Info("swipe session created", "session_id", s.ID, "household_id", householdID, "date", date, "candidates", len(candidates))
		m.notify(Event{Type: EventCreated, Session: *cloneSession(s)})
	}
	return s, nil
}

// GetSession returns the household's session for date, expiring it first if
// it is past its expiry.
func (m *Manager) GetSession(ctx context.Context, householdID int64, date string) (*model.SwipeSession, error) {
	date, err := m.NormalizeDate(date)
	if err != nil {
		return nil, err
	}
	s, err := m.store.Get(ctx, householdID, date)
	if err != nil {
		return nil, providerErr("get session", err)
	}
	if s == nil {
		return nil, ErrNotFound
	}
	return m.expireIfDue(ctx, s)
}

// GetSessionByID is GetSession keyed by session id.
func (m *Manager) GetSessionByID(ctx context.Context, id string) (*model.SwipeSession, error) {
	s, err := m.store.GetByID(ctx, id)
	if err != nil {
		return nil, providerErr("get session", err)
	}
	if s == nil {
		return nil, ErrNotFound
	}
	return m.expireIfDue(ctx, s)
}

// SubmitVote appends one member's vote and evaluates the session. On
// ErrSessionClosed the current session is returned alongside the error.
func (m *Manager) SubmitVote(ctx context.Context, sessionID string, memberID, recipeID int64, direction model.Direction) (*model.SwipeSession, error) {
	if direction != model.DirectionApprove && direction != model.DirectionReject {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}

	unlock, err := m.locks.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, err := m.store.GetByID(ctx, sessionID)
	if err != nil {
		return nil, providerErr("get session", err)
	}
	if s == nil {
		return nil, ErrNotFound
	}
	// One clock reading decides expiry and stamps the vote.
	now := m.now()
	if s, err = m.expireAt(ctx, s, now); err != nil {
		return nil, err
	}
	if s.Status != model.SessionActive {
		m.logger.Debug("vote rejected", "session_id", sessionID, "member_id", memberID, "status", s.Status)
		return s, ErrSessionClosed
	}

	members, err := m.members.CurrentMembers(ctx, s.HouseholdID)
	if err != nil {
		return nil, providerErr("current members", err)
	}
	if !slices.Contains(members, memberID) {
		m.logger.Debug("vote rejected", "session_id", sessionID, "member_id", memberID, "reason", "not a member")
		return nil, fmt.Errorf("%w: member %d", ErrNotAMember, memberID)
	}
	if !slices.Contains(s.CandidateRecipeIDs, recipeID) {
		return nil, fmt.Errorf("%w: recipe %d", ErrUnknownCandidate, recipeID)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vote := model.Vote{
		SessionID: s.ID,
		MemberID:  memberID,
		RecipeID:  recipeID,
		Direction: direction,
		Timestamp: now.UTC(),
	}
	pending := append(slices.Clip(s.Votes), vote)

	var matched *int64
	if id, ok := Evaluate(s.CandidateRecipeIDs, pending, members); ok {
		matched = &id
	}

	ok, err := m.store.AppendVoteAndMaybeTransition(ctx, s.ID, &vote, matched)
	if err != nil {
		return nil, providerErr("append vote", err)
	}
	if !ok {
		current, err := m.store.GetByID(ctx, s.ID)
		if err != nil {
			return nil, providerErr("get session", err)
		}
		return current, ErrSessionClosed
	}

	s.Votes = append(s.Votes, vote)
	m.notify(Event{Type: EventVote, Session: *cloneSession(s), Vote: &vote})
	if matched != nil {
		s.Status = model.SessionMatched
		s.MatchedRecipeID = matched
		m.logger.Info("swipe session matched", "session_id", s.ID, "household_id", s.HouseholdID, "recipe_id", *matched, "votes", len(s.Votes))
		m.notify(Event{Type: EventMatched, Session: *cloneSession(s)})
	}
	return s, nil
}

// History lists the household's matched sessions, newest first.
func (m *Manager) History(ctx context.Context, householdID int64, limit int) ([]model.SwipeSession, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	sessions, err := m.store.ListMatched(ctx, householdID, limit)
	if err != nil {
		return nil, providerErr("list history", err)
	}
	return sessions, nil
}

// ExpireDue expires every active session past its expiry and returns how many
// it transitioned.
func (m *Manager) ExpireDue(ctx context.Context) (int, error) {
	ids, err := m.store.ListExpirable(ctx, m.now())
	if err != nil {
		return 0, providerErr("list expirable", err)
	}
	count := 0
	for _, id := range ids {
		changed, err := m.expireByID(ctx, id)
		if err != nil {
			return count, err
		}
		if changed {
			count++
		}
	}
	return count, nil
}

func (m *Manager) expireByID(ctx context.Context, id string) (bool, error) {
	unlock, err := m.locks.Lock(ctx, id)
	if err != nil {
		return false, err
	}
	defer unlock()

	s, err := m.store.GetByID(ctx, id)
	if err != nil {
		return false, providerErr("get session", err)
	}
	if s == nil || s.Status != model.SessionActive {
		return false, nil
	}
	s, err = m.expireIfDue(ctx, s)
	if err != nil {
		return false, err
	}
	return s.Status == model.SessionExpired, nil
}

// expireIfDue flips an overdue active session to expired. Concurrent callers
// may both try; the store makes the transition once.
func (m *Manager) expireIfDue(ctx context.Context, s *model.SwipeSession) (*model.SwipeSession, error) {
	return m.expireAt(ctx, s, m.now())
}

func (m *Manager) expireAt(ctx context.Context, s *model.SwipeSession, now time.Time) (*model.SwipeSession, error) {
	if s.Status != model.SessionActive || !now.After(s.ExpiresAt) {
		return s, nil
	}
	changed, err := m.store.MarkExpired(ctx, s.ID)
	if err != nil {
		return nil, providerErr("expire session", err)
	}
	if !changed {
		current, err := m.store.GetByID(ctx, s.ID)
		if err != nil {
			return nil, providerErr("get session", err)
		}
		if current == nil {
			return nil, ErrNotFound
		}
		return current, nil
	}
	s.Status = model.SessionExpired
	m.logger.Info("swipe session expired", "session_id", s.ID, "household_id", s.HouseholdID, "date", s.Date)
	m.notify(Event{Type: EventExpired, Session: *cloneSession(s)})
	return s, nil
}

func (m *Manager) notify(e Event) {
	if m.notifier != nil {
		m.notifier.Notify(e)
	}
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func creationKey(householdID int64, date string, candidates []int64) string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatInt(householdID, 10))
	sb.WriteByte('|')
	sb.WriteString(date)
	for _, id := range candidates {
		sb.WriteByte('|')
		sb.WriteString(strconv.FormatInt(id, 10))
	}
	return sb.String()
}

func cloneSession(s *model.SwipeSession) *model.SwipeSession {
	c := *s
	c.CandidateRecipeIDs = slices.Clone(s.CandidateRecipeIDs)
	c.Votes = slices.Clone(s.Votes)
	if s.MatchedRecipeID != nil {
		id := *s.MatchedRecipeID
		c.MatchedRecipeID = &id
	}
	return &c
}
