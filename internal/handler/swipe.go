package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/wevy/internal/middleware"
	"github.com/dukerupert/wevy/internal/model"
	"github.com/dukerupert/wevy/internal/store"
	"github.com/dukerupert/wevy/internal/swipe"
)

// libraryCandidateLimit caps the candidate set drawn from a household's
// library when the caller supplies no recipe ids.
const libraryCandidateLimit = 20

type SwipeHandler struct {
	manager    *swipe.Manager
	households *store.HouseholdStore
	recipes    *store.RecipeStore
	logger     *slog.Logger
}

func NewSwipeHandler(m *swipe.Manager, hs *store.HouseholdStore, rs *store.RecipeStore, logger *slog.Logger) *SwipeHandler {
	return &SwipeHandler{manager: m, households: hs, recipes: rs, logger: logger}
}

// sessionView is a session plus per-candidate progress against the
// household's current members.
type sessionView struct {
	*model.SwipeSession
	Progress []swipe.CandidateProgress `json:"progress"`
}

func (h *SwipeHandler) view(r *http.Request, s *model.SwipeSession) sessionView {
	v := sessionView{SwipeSession: s, Progress: []swipe.CandidateProgress{}}
	members, err := h.households.CurrentMembers(r.Context(), s.HouseholdID)
	if err != nil {
		middleware.Logger(r.Context()).Warn("load members for progress", "session_id", s.ID, "error", err)
		return v
	}
	v.Progress = swipe.Progress(s.CandidateRecipeIDs, s.Votes, members)
	return v
}

func (h *SwipeHandler) writeSwipeErr(w http.ResponseWriter, r *http.Request, s *model.SwipeSession, err error) {
	status := swipeStatus(err)
	switch {
	case status == statusClientClosedRequest:
		middleware.Logger(r.Context()).Info("swipe request abandoned", "error", err)
		writeErr(w, status, "request cancelled")
		return
	case status == http.StatusConflict && s != nil:
		writeJSON(w, status, closedResponse{Error: err.Error(), Session: s})
		return
	case status >= http.StatusInternalServerError:
		middleware.Logger(r.Context()).Error("swipe session", "error", err)
		if status == http.StatusServiceUnavailable {
			writeErr(w, status, "service temporarily unavailable")
		} else {
			writeErr(w, status, "internal error")
		}
		return
	}
	writeErr(w, status, err.Error())
}

type createSessionRequest struct {
	Date      string  `json:"date"`
	RecipeIDs []int64 `json:"recipe_ids"`
}

// Create returns the household's session for the date, creating it when
// absent. Without explicit recipe ids the candidates come from the
// household's library, filtered by the recipe query parameters.
func (h *SwipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	household, ok := lookupHousehold(w, r, h.households)
	if !ok {
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	date, err := h.manager.NormalizeDate(req.Date)
	if err != nil {
		h.writeSwipeErr(w, r, nil, err)
		return
	}

	candidates := req.RecipeIDs
	if len(candidates) == 0 {
		existing, err := h.manager.GetSession(r.Context(), household.ID, date)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, h.view(r, existing))
			return
		case !errors.Is(err, swipe.ErrNotFound):
			h.writeSwipeErr(w, r, nil, err)
			return
		}

		filter, err := parseRecipeFilter(r.URL.Query())
		if err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		if filter.Limit == 0 || filter.Limit > libraryCandidateLimit {
			filter.Limit = libraryCandidateLimit
		}
		recipes, err := h.recipes.List(household.ID, filter)
		if err != nil {
			middleware.Logger(r.Context()).Error("list library candidates", "household_id", household.ID, "error", err)
			writeErr(w, http.StatusServiceUnavailable, "service temporarily unavailable")
			return
		}
		if len(recipes) == 0 {
			writeErr(w, http.StatusBadRequest, "no recipes match; add recipes or pass recipe_ids")
			return
		}
		for _, rec := range recipes {
			candidates = append(candidates, rec.ID)
		}
	}

	s, err := h.manager.GetOrCreateSession(r.Context(), household.ID, date, candidates)
	if err != nil {
		h.writeSwipeErr(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(r, s))
}

func (h *SwipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	household, ok := lookupHousehold(w, r, h.households)
	if !ok {
		return
	}

	s, err := h.manager.GetSession(r.Context(), household.ID, r.PathValue("date"))
	if err != nil {
		h.writeSwipeErr(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(r, s))
}

type voteRequest struct {
	MemberID  int64  `json:"member_id"`
	RecipeID  int64  `json:"recipe_id"`
	Direction string `json:"direction"`
}

// parseDirection accepts the stored direction names and the swipe gestures
// that produce them.
func parseDirection(s string) model.Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve", "right":
		return model.DirectionApprove
	case "reject", "left":
		return model.DirectionReject
	}
	return model.Direction(s)
}

func (h *SwipeHandler) Vote(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		writeErr(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.MemberID <= 0 || req.RecipeID <= 0 {
		writeErr(w, http.StatusBadRequest, "member_id and recipe_id are required")
		return
	}

	s, err := h.manager.SubmitVote(r.Context(), sessionID, req.MemberID, req.RecipeID, parseDirection(req.Direction))
	if err != nil {
		h.writeSwipeErr(w, r, s, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(r, s))
}

func (h *SwipeHandler) History(w http.ResponseWriter, r *http.Request) {
	household, ok := lookupHousehold(w, r, h.households)
	if !ok {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeErr(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	sessions, err := h.manager.History(r.Context(), household.ID, limit)
	if err != nil {
		h.writeSwipeErr(w, r, nil, err)
		return
	}
	if sessions == nil {
		sessions = []model.SwipeSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}
