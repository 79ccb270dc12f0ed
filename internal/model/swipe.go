package model

import "time"

type SessionStatus string

const (
	SessionActive  SessionStatus = "active"
	SessionMatched SessionStatus = "matched"
	SessionExpired SessionStatus = "expired"
)

type Direction string

const (
	DirectionApprove Direction = "approve"
	DirectionReject  Direction = "reject"
)

// SessionDateLayout is the layout of SwipeSession.Date.
const SessionDateLayout = "2006-01-02"

// SwipeSession is one household's voting round for one calendar day.
type SwipeSession struct {
	ID                 string        `json:"id"`
	HouseholdID        int64         `json:"household_id"`
	Date               string        `json:"date"`
	Status             SessionStatus `json:"status"`
	CandidateRecipeIDs []int64       `json:"candidate_recipe_ids"`
	Votes              []Vote        `json:"votes"`
	MatchedRecipeID    *int64        `json:"matched_recipe_id"`
	CreatedAt          time.Time     `json:"created_at"`
	ExpiresAt          time.Time     `json:"expires_at"`
}

// Vote is one member's decision on one candidate. ID is the submission order.
type Vote struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	MemberID  int64     `json:"member_id"`
	RecipeID  int64     `json:"recipe_id"`
	Direction Direction `json:"direction"`
	Timestamp time.Time `json:"timestamp"`
}
