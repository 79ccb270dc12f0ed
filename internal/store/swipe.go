package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/wevy/internal/model"
)

// SwipeStore persists swipe sessions, their candidate lists and their vote logs.
type SwipeStore struct {
	db *sql.DB
}

func NewSwipeStore(db *sql.DB) *SwipeStore {
	return &SwipeStore{db: db}
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const swipeSessionCols = `id, household_id, session_date, status, matched_recipe_id, created_at, expires_at`

func scanSwipeSession(scanner interface{ Scan(...any) error }) (*model.SwipeSession, error) {
	var s model.SwipeSession
	var matched sql.NullInt64
	err := scanner.Scan(&s.ID, &s.HouseholdID, &s.Date, &s.Status, &matched, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if matched.Valid {
		s.MatchedRecipeID = &matched.Int64
	}
	return &s, nil
}

// Get returns the session for a household and date, or nil if none exists.
func (s *SwipeStore) Get(ctx context.Context, householdID int64, date string) (*model.SwipeSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+swipeSessionCols+` FROM swipe_sessions WHERE household_id = ? AND session_date = ?`,
		householdID, date,
	)
	return s.loadSession(ctx, s.db, row)
}

// GetByID returns the session with the given id, or nil if none exists.
func (s *SwipeStore) GetByID(ctx context.Context, id string) (*model.SwipeSession, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+swipeSessionCols+` FROM swipe_sessions WHERE id = ?`, id)
	return s.loadSession(ctx, s.db, row)
}

func (s *SwipeStore) loadSession(ctx context.Context, q querier, row *sql.Row) (*model.SwipeSession, error) {
	sess, err := scanSwipeSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get swipe session: %w", err)
	}
	if err := loadSessionDetails(ctx, q, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func loadSessionDetails(ctx context.Context, q querier, sess *model.SwipeSession) error {
	rows, err := q.QueryContext(ctx,
		`SELECT recipe_id FROM swipe_session_candidates WHERE session_id = ? ORDER BY position`,
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("query candidates: %w", err)
	}
	sess.CandidateRecipeIDs = []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan candidate: %w", err)
		}
		sess.CandidateRecipeIDs = append(sess.CandidateRecipeIDs, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate candidates: %w", err)
	}
	rows.Close()

	rows, err = q.QueryContext(ctx,
		`SELECT id, session_id, member_id, recipe_id, direction, created_at
		 FROM swipe_votes WHERE session_id = ? ORDER BY id`,
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("query votes: %w", err)
	}
	defer rows.Close()

	sess.Votes = []model.Vote{}
	for rows.Next() {
		var v model.Vote
		if err := rows.Scan(&v.ID, &v.SessionID, &v.MemberID, &v.RecipeID, &v.Direction, &v.Timestamp); err != nil {
			return fmt.Errorf("scan vote: %w", err)
		}
		sess.Votes = append(sess.Votes, v)
	}
	return rows.Err()
}

// UpsertIfAbsent inserts the session unless one already exists for its
// (household, date). It returns the stored session and whether it was created.
func (s *SwipeStore) UpsertIfAbsent(ctx context.Context, sess *model.SwipeSession) (*model.SwipeSession, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO swipe_sessions (id, household_id, session_date, status, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (household_id, session_date) DO NOTHING`,
		sess.ID, sess.HouseholdID, sess.Date, model.SessionActive, sess.CreatedAt.UTC(), sess.ExpiresAt.UTC(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert swipe session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		row := tx.QueryRowContext(ctx,
			`SELECT `+swipeSessionCols+` FROM swipe_sessions WHERE household_id = ? AND session_date = ?`,
			sess.HouseholdID, sess.Date,
		)
		existing, err := s.loadSession(ctx, tx, row)
		if err != nil {
			return nil, false, err
		}
		return existing, false, tx.Commit()
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO swipe_session_candidates (session_id, position, recipe_id) VALUES (?, ?, ?)`)
	if err != nil {
		return nil, false, fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for i, id := range sess.CandidateRecipeIDs {
		if _, err := stmt.ExecContext(ctx, sess.ID, i, id); err != nil {
			return nil, false, fmt.Errorf("insert candidate %d: %w", id, err)
		}
	}

	row := tx.QueryRowContext(ctx, `SELECT `+swipeSessionCols+` FROM swipe_sessions WHERE id = ?`, sess.ID)
	created, err := s.loadSession(ctx, tx, row)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}
	return created, true, nil
}

// AppendVoteAndMaybeTransition appends the vote and, when matchedRecipeID is
// set, moves the session to matched, all in one transaction. It reports false
// and writes nothing if the session is no longer active. On success vote.ID is
// set to the vote's position in the log.
func (s *SwipeStore) AppendVoteAndMaybeTransition(ctx context.Context, sessionID string, vote *model.Vote, matchedRecipeID *int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var status model.SessionStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM swipe_sessions WHERE id = ?`, sessionID).Scan(&status)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get session status: %w", err)
	}
	if status != model.SessionActive {
		return false, nil
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO swipe_votes (session_id, member_id, recipe_id, direction, created_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, vote.MemberID, vote.RecipeID, vote.Direction, vote.Timestamp.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("insert vote: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("last insert id: %w", err)
	}

	if matchedRecipeID != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE swipe_sessions SET status = ?, matched_recipe_id = ? WHERE id = ? AND status = ?`,
			model.SessionMatched, *matchedRecipeID, sessionID, model.SessionActive,
		); err != nil {
			return false, fmt.Errorf("mark matched: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	vote.ID = id
	vote.SessionID = sessionID
	return true, nil
}

// MarkExpired moves an active session to expired. It reports whether this call
// made the transition.
func (s *SwipeStore) MarkExpired(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE swipe_sessions SET status = ? WHERE id = ? AND status = ?`,
		model.SessionExpired, id, model.SessionActive,
	)
	if err != nil {
		return false, fmt.Errorf("mark expired: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListExpirable returns the ids of active sessions whose expiry is before now.
func (s *SwipeStore) ListExpirable(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, expires_at FROM swipe_sessions WHERE status = ? ORDER BY expires_at`,
		model.SessionActive,
	)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		var expiresAt time.Time
		if err := rows.Scan(&id, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan active session: %w", err)
		}
		if now.After(expiresAt) {
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}

// ListMatched returns a household's matched sessions, most recent date first.
func (s *SwipeStore) ListMatched(ctx context.Context, householdID int64, limit int) ([]model.SwipeSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+swipeSessionCols+` FROM swipe_sessions
		 WHERE household_id = ? AND status = ?
		 ORDER BY session_date DESC LIMIT ?`,
		householdID, model.SessionMatched, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list matched sessions: %w", err)
	}

	var sessions []model.SwipeSession
	for rows.Next() {
		sess, err := scanSwipeSession(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan swipe session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate swipe sessions: %w", err)
	}
	rows.Close()

	for i := range sessions {
		if err := loadSessionDetails(ctx, s.db, &sessions[i]); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}
