package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/wevy/internal/database"
	"github.com/dukerupert/wevy/internal/model"
	"github.com/dukerupert/wevy/internal/store"
	"github.com/dukerupert/wevy/internal/swipe"
)

type testEnv struct {
	mux        *http.ServeMux
	households *store.HouseholdStore
	recipes    *store.RecipeStore
	now        time.Time
}

func setupHandlers(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		households: store.NewHouseholdStore(db),
		recipes:    store.NewRecipeStore(db),
		now:        time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC),
	}
	logger := slog.Default()
	manager := swipe.NewManager(
		swipe.Config{TTL: time.Hour, Now: func() time.Time { return env.now }},
		store.NewSwipeStore(db), env.households, env.recipes, nil, logger,
	)

	hh := NewHouseholdHandler(env.households, logger)
	rh := NewRecipeHandler(env.recipes, env.households, logger)
	sh := NewSwipeHandler(manager, env.households, env.recipes, logger)
	shop := NewShoppingHandler(store.NewShoppingStore(db), env.recipes, env.households, manager, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/households", hh.Create)
	mux.HandleFunc("POST /api/households/join", hh.Join)
	mux.HandleFunc("GET /api/households/{id}", hh.Get)
	mux.HandleFunc("GET /api/households/{id}/members", hh.ListMembers)
	mux.HandleFunc("DELETE /api/households/{id}/members/{user_id}", hh.RemoveMember)
	mux.HandleFunc("POST /api/households/{id}/recipes", rh.Create)
	mux.HandleFunc("GET /api/households/{id}/recipes", rh.List)
	mux.HandleFunc("GET /api/households/{id}/recipes/{recipe_id}", rh.Get)
	mux.HandleFunc("PUT /api/households/{id}/recipes/{recipe_id}", rh.Update)
	mux.HandleFunc("DELETE /api/households/{id}/recipes/{recipe_id}", rh.Delete)
	mux.HandleFunc("POST /api/households/{id}/recipes/{recipe_id}/cooked", rh.Cooked)
	mux.HandleFunc("POST /api/households/{id}/recipes/{recipe_id}/favorite", rh.Favorite)
	mux.HandleFunc("GET /api/households/{id}/shopping-list", shop.Get)
	mux.HandleFunc("PUT /api/households/{id}/shopping-list", shop.ReplaceItems)
	mux.HandleFunc("POST /api/households/{id}/shopping-list/recipes", shop.AddRecipe)
	mux.HandleFunc("POST /api/households/{id}/shopping-list/items/{item_id}/toggle", shop.ToggleItem)
	mux.HandleFunc("DELETE /api/households/{id}/shopping-list/items", shop.Clear)
	mux.HandleFunc("POST /api/households/{id}/shopping-list/complete", shop.Complete)
	mux.HandleFunc("POST /api/households/{id}/swipe-sessions", sh.Create)
	mux.HandleFunc("GET /api/households/{id}/swipe-sessions/history", sh.History)
	mux.HandleFunc("GET /api/households/{id}/swipe-sessions/{date}", sh.Get)
	mux.HandleFunc("POST /api/swipe-sessions/{id}/votes", sh.Vote)
	env.mux = mux
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

// seedHousehold creates a household with members 100 and 200 and two recipes.
func (e *testEnv) seedHousehold(t *testing.T) (*model.Household, []int64) {
	t.Helper()
	h, err := e.households.Create("Smiths")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	for _, uid := range []int64{100, 200} {
		if _, err := e.households.AddMember(h.ID, uid, "", model.RoleMember); err != nil {
			t.Fatalf("add member: %v", err)
		}
	}
	var ids []int64
	for _, title := range []string{"Tacos", "Curry"} {
		r, err := e.recipes.Create(model.Recipe{HouseholdID: h.ID, Title: title, MealType: "dinner"})
		if err != nil {
			t.Fatalf("create recipe: %v", err)
		}
		ids = append(ids, r.ID)
	}
	return h, ids
}

type sessionResponse struct {
	model.SwipeSession
	Progress []swipe.CandidateProgress `json:"progress"`
}

func TestHouseholdCreateAndJoin(t *testing.T) {
	env := setupHandlers(t)

	rec := env.do(t, "POST", "/api/households", map[string]any{"name": "Smiths", "user_id": 100, "display_name": "Alice"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body)
	}
	created := decode[createHouseholdResponse](t, rec)
	if created.Member.Role != model.RoleAdmin {
		t.Errorf("creator role = %q, want %q", created.Member.Role, model.RoleAdmin)
	}

	rec = env.do(t, "POST", "/api/households/join", map[string]any{"invite_code": created.Household.InviteCode, "user_id": 200})
	if rec.Code != http.StatusCreated {
		t.Fatalf("join status = %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body)
	}

	rec = env.do(t, "POST", "/api/households/join", map[string]any{"invite_code": created.Household.InviteCode, "user_id": 200})
	if rec.Code != http.StatusConflict {
		t.Errorf("rejoin status = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = env.do(t, "POST", "/api/households/join", map[string]any{"invite_code": "ZZZZZZ", "user_id": 300})
	if rec.Code != http.StatusNotFound {
		t.Errorf("bad code status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = env.do(t, "GET", fmt.Sprintf("/api/households/%d/members", created.Household.ID), nil)
	members := decode[[]model.HouseholdMember](t, rec)
	if len(members) != 2 {
		t.Fatalf("members = %d, want 2", len(members))
	}

	rec = env.do(t, "DELETE", fmt.Sprintf("/api/households/%d/members/200", created.Household.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("remove status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	rec = env.do(t, "DELETE", fmt.Sprintf("/api/households/%d/members/200", created.Household.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second remove status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHouseholdValidation(t *testing.T) {
	env := setupHandlers(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing name", "POST", "/api/households", map[string]any{"user_id": 1}, http.StatusBadRequest},
		{"missing user", "POST", "/api/households", map[string]any{"name": "x"}, http.StatusBadRequest},
		{"bad id", "GET", "/api/households/abc", nil, http.StatusBadRequest},
		{"unknown household", "GET", "/api/households/999", nil, http.StatusNotFound},
		{"join without code", "POST", "/api/households/join", map[string]any{"user_id": 1}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRecipeCreateAndList(t *testing.T) {
	env := setupHandlers(t)
	h, _ := env.seedHousehold(t)
	base := fmt.Sprintf("/api/households/%d/recipes", h.ID)

	rec := env.do(t, "POST", base, map[string]any{"title": "Oatmeal", "meal_type": "Breakfast", "difficulty": "easy", "total_time": 10})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body)
	}
	r := decode[model.Recipe](t, rec)
	if r.MealType != "breakfast" {
		t.Errorf("meal_type = %q, want %q", r.MealType, "breakfast")
	}

	rec = env.do(t, "POST", base, map[string]any{"title": "x", "difficulty": "extreme"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad difficulty status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = env.do(t, "GET", base+"?meal_type=dinner", nil)
	dinners := decode[[]model.Recipe](t, rec)
	if len(dinners) != 2 {
		t.Errorf("dinner recipes = %d, want 2", len(dinners))
	}

	rec = env.do(t, "GET", base+"?max_time=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad max_time status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSwipeFlowToMatch(t *testing.T) {
	env := setupHandlers(t)
	h, ids := env.seedHousehold(t)

	rec := env.do(t, "POST", fmt.Sprintf("/api/households/%d/swipe-sessions", h.ID), map[string]any{"recipe_ids": ids})
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body)
	}
	s := decode[sessionResponse](t, rec)
	if s.Status != model.SessionActive || s.Date != "2026-03-01" {
		t.Fatalf("session = %s on %s, want active on 2026-03-01", s.Status, s.Date)
	}
	if len(s.Progress) != 2 || s.Progress[0].Required != 2 {
		t.Errorf("progress = %+v, want 2 candidates requiring 2 approvals", s.Progress)
	}

	votes := "/api/swipe-sessions/" + s.ID + "/votes"
	rec = env.do(t, "POST", votes, map[string]any{"member_id": 100, "recipe_id": ids[1], "direction": "right"})
	if rec.Code != http.StatusOK {
		t.Fatalf("vote status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body)
	}
	rec = env.do(t, "POST", votes, map[string]any{"member_id": 200, "recipe_id": ids[1], "direction": "approve"})
	s = decode[sessionResponse](t, rec)
	if s.Status != model.SessionMatched || s.MatchedRecipeID == nil || *s.MatchedRecipeID != ids[1] {
		t.Fatalf("after votes: status = %s, matched = %v; want matched %d", s.Status, s.MatchedRecipeID, ids[1])
	}

	rec = env.do(t, "POST", votes, map[string]any{"member_id": 100, "recipe_id": ids[0], "direction": "left"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("vote on matched status = %d, want %d", rec.Code, http.StatusConflict)
	}
	closed := decode[closedResponse](t, rec)
	if closed.Session == nil || closed.Session.Status != model.SessionMatched {
		t.Errorf("conflict body session = %+v, want matched session", closed.Session)
	}

	rec = env.do(t, "GET", fmt.Sprintf("/api/households/%d/swipe-sessions/today", h.ID), nil)
	got := decode[sessionResponse](t, rec)
	if got.ID != s.ID {
		t.Errorf("today session = %s, want %s", got.ID, s.ID)
	}

	rec = env.do(t, "GET", fmt.Sprintf("/api/households/%d/swipe-sessions/history", h.ID), nil)
	history := decode[[]model.SwipeSession](t, rec)
	if len(history) != 1 || history[0].ID != s.ID {
		t.Errorf("history = %+v, want [%s]", history, s.ID)
	}
}

func TestSwipeCreateFromLibrary(t *testing.T) {
	env := setupHandlers(t)
	h, ids := env.seedHousehold(t)

	rec := env.do(t, "POST", fmt.Sprintf("/api/households/%d/swipe-sessions", h.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body)
	}
	s := decode[sessionResponse](t, rec)
	if len(s.CandidateRecipeIDs) != len(ids) {
		t.Errorf("candidates = %v, want %d library recipes", s.CandidateRecipeIDs, len(ids))
	}

	// A second call returns the same session even with different candidates.
	rec = env.do(t, "POST", fmt.Sprintf("/api/households/%d/swipe-sessions", h.ID), map[string]any{"recipe_ids": ids[:1]})
	again := decode[sessionResponse](t, rec)
	if again.ID != s.ID || len(again.CandidateRecipeIDs) != len(ids) {
		t.Errorf("second create = %s %v, want %s %v", again.ID, again.CandidateRecipeIDs, s.ID, s.CandidateRecipeIDs)
	}
}

func TestSwipeErrors(t *testing.T) {
	env := setupHandlers(t)
	h, ids := env.seedHousehold(t)
	other, err := env.households.Create("Others")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	rec := env.do(t, "POST", fmt.Sprintf("/api/households/%d/swipe-sessions", other.ID), nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty library status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = env.do(t, "POST", fmt.Sprintf("/api/households/%d/swipe-sessions", other.ID), map[string]any{"recipe_ids": ids})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("foreign recipes status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = env.do(t, "POST", fmt.Sprintf("/api/households/%d/swipe-sessions", h.ID), map[string]any{"date": "03/01/2026", "recipe_ids": ids})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = env.do(t, "GET", fmt.Sprintf("/api/households/%d/swipe-sessions/2026-01-01", h.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing session status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = env.do(t, "POST", fmt.Sprintf("/api/households/%d/swipe-sessions", h.ID), map[string]any{"recipe_ids": ids})
	s := decode[sessionResponse](t, rec)
	votes := "/api/swipe-sessions/" + s.ID + "/votes"

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"not a member", map[string]any{"member_id": 999, "recipe_id": ids[0], "direction": "approve"}, http.StatusForbidden},
		{"unknown candidate", map[string]any{"member_id": 100, "recipe_id": 9999, "direction": "approve"}, http.StatusBadRequest},
		{"bad direction", map[string]any{"member_id": 100, "recipe_id": ids[0], "direction": "up"}, http.StatusBadRequest},
		{"missing ids", map[string]any{"direction": "approve"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, "POST", votes, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body)
			}
		})
	}

	rec = env.do(t, "POST", "/api/swipe-sessions/does-not-exist/votes", map[string]any{"member_id": 100, "recipe_id": ids[0], "direction": "approve"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown session status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSwipeVoteAfterExpiry(t *testing.T) {
	env := setupHandlers(t)
	h, ids := env.seedHousehold(t)

	rec := env.do(t, "POST", fmt.Sprintf("/api/households/%d/swipe-sessions", h.ID), map[string]any{"recipe_ids": ids})
	s := decode[sessionResponse](t, rec)

	env.now = env.now.Add(2 * time.Hour)

	rec = env.do(t, "POST", "/api/swipe-sessions/"+s.ID+"/votes", map[string]any{"member_id": 100, "recipe_id": ids[0], "direction": "approve"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	closed := decode[closedResponse](t, rec)
	if closed.Session.Status != model.SessionExpired {
		t.Errorf("status = %s, want expired", closed.Session.Status)
	}
	if len(closed.Session.Votes) != 0 {
		t.Errorf("votes = %d, want 0", len(closed.Session.Votes))
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want model.Direction
	}{
		{"approve", model.DirectionApprove},
		{"RIGHT", model.DirectionApprove},
		{"reject", model.DirectionReject},
		{" left ", model.DirectionReject},
		{"up", model.Direction("up")},
	}
	for _, tt := range tests {
		if got := parseDirection(tt.in); got != tt.want {
			t.Errorf("parseDirection(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSwipeStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid candidates", fmt.Errorf("%w: none", swipe.ErrInvalidCandidateSet), http.StatusBadRequest},
		{"unknown candidate", swipe.ErrUnknownCandidate, http.StatusBadRequest},
		{"invalid direction", swipe.ErrInvalidDirection, http.StatusBadRequest},
		{"invalid date", swipe.ErrInvalidDate, http.StatusBadRequest},
		{"not a member", swipe.ErrNotAMember, http.StatusForbidden},
		{"not found", swipe.ErrNotFound, http.StatusNotFound},
		{"closed", swipe.ErrSessionClosed, http.StatusConflict},
		{"provider", &swipe.ProviderError{Op: "get session", Err: errors.New("disk")}, http.StatusServiceUnavailable},
		{"caller gone", context.Canceled, statusClientClosedRequest},
		{"wrapped caller gone", fmt.Errorf("lock session: %w", context.Canceled), statusClientClosedRequest},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"other", errors.New("unexpected"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := swipeStatus(tt.err); got != tt.want {
				t.Errorf("swipeStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestSwipeVoteCancelledRequest(t *testing.T) {
	env := setupHandlers(t)
	h, ids := env.seedHousehold(t)

	rec := env.do(t, "POST", fmt.Sprintf("/api/households/%d/swipe-sessions", h.ID), map[string]any{"recipe_ids": ids})
	s := decode[sessionResponse](t, rec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	body := strings.NewReader(fmt.Sprintf(`{"member_id": 100, "recipe_id": %d, "direction": "approve"}`, ids[0]))
	req := httptest.NewRequest("POST", "/api/swipe-sessions/"+s.ID+"/votes", body).WithContext(ctx)
	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)

	if rec.Code != statusClientClosedRequest {
		t.Errorf("status = %d, want %d", rec.Code, statusClientClosedRequest)
	}
}

func TestRecipeGetUpdateDelete(t *testing.T) {
	env := setupHandlers(t)
	h, ids := env.seedHousehold(t)
	other, _ := env.households.Create("Neighbors")
	item := fmt.Sprintf("/api/households/%d/recipes/%d", h.ID, ids[0])

	rec := env.do(t, "GET", item, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body)
	}
	if got := decode[model.Recipe](t, rec); got.Title != "Tacos" || got.Ingredients == nil {
		t.Errorf("get = %q with ingredients %v, want Tacos with empty slice", got.Title, got.Ingredients)
	}

	rec = env.do(t, "PUT", item, map[string]any{
		"title":       "Fish Tacos",
		"difficulty":  "medium",
		"meal_type":   "dinner",
		"total_time":  35,
		"ingredients": []map[string]string{{"name": " cod ", "quantity": "500", "unit": "g"}, {"name": "tortillas"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body)
	}
	updated := decode[model.Recipe](t, rec)
	if updated.Title != "Fish Tacos" || updated.TotalTime != 35 {
		t.Errorf("updated = %q/%d, want Fish Tacos/35", updated.Title, updated.TotalTime)
	}
	if len(updated.Ingredients) != 2 || updated.Ingredients[0].Name != "cod" {
		t.Errorf("ingredients = %+v, want cod and tortillas", updated.Ingredients)
	}

	rec = env.do(t, "PUT", item, map[string]any{"title": "Tacos", "ingredients": []map[string]string{{"name": " "}}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank ingredient status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = env.do(t, "GET", fmt.Sprintf("/api/households/%d/recipes/%d", other.ID, ids[0]), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-household get status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	rec = env.do(t, "DELETE", fmt.Sprintf("/api/households/%d/recipes/%d", other.ID, ids[0]), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-household delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = env.do(t, "DELETE", item, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	rec = env.do(t, "DELETE", item, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	rec = env.do(t, "GET", item, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestRecipeCookedAndFavorite(t *testing.T) {
	env := setupHandlers(t)
	h, ids := env.seedHousehold(t)
	item := fmt.Sprintf("/api/households/%d/recipes/%d", h.ID, ids[1])

	env.do(t, "POST", item+"/cooked", nil)
	rec := env.do(t, "POST", item+"/cooked", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cooked status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body)
	}
	cooked := decode[model.Recipe](t, rec)
	if cooked.TimesCooked != 2 || cooked.LastCookedAt == nil {
		t.Errorf("cooked = %d at %v, want 2 with a timestamp", cooked.TimesCooked, cooked.LastCookedAt)
	}

	rec = env.do(t, "POST", item+"/favorite", nil)
	if fav := decode[model.Recipe](t, rec); !fav.IsFavorite {
		t.Error("is_favorite = false after toggle, want true")
	}

	rec = env.do(t, "GET", fmt.Sprintf("/api/households/%d/recipes?favorite=true", h.ID), nil)
	favorites := decode[[]model.Recipe](t, rec)
	if len(favorites) != 1 || favorites[0].ID != ids[1] {
		t.Errorf("favorites = %+v, want only recipe %d", favorites, ids[1])
	}

	rec = env.do(t, "POST", fmt.Sprintf("/api/households/%d/recipes/999/cooked", h.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cooked unknown status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	rec = env.do(t, "POST", fmt.Sprintf("/api/households/%d/recipes/abc/favorite", h.ID), nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("favorite bad id status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestShoppingListFromMatchedSession(t *testing.T) {
	env := setupHandlers(t)
	h, ids := env.seedHousehold(t)
	list := fmt.Sprintf("/api/households/%d/shopping-list", h.ID)

	env.do(t, "PUT", fmt.Sprintf("/api/households/%d/recipes/%d", h.ID, ids[1]), map[string]any{
		"title":       "Curry",
		"meal_type":   "dinner",
		"ingredients": []map[string]string{{"name": "chickpeas"}, {"name": "coconut milk", "quantity": "1", "unit": "can"}},
	})

	rec := env.do(t, "POST", fmt.Sprintf("/api/households/%d/swipe-sessions", h.ID), map[string]any{"recipe_ids": ids})
	s := decode[sessionResponse](t, rec)

	rec = env.do(t, "POST", list+"/recipes", map[string]any{"session_id": s.ID})
	if rec.Code != http.StatusConflict {
		t.Errorf("unmatched session status = %d, want %d", rec.Code, http.StatusConflict)
	}

	votes := "/api/swipe-sessions/" + s.ID + "/votes"
	env.do(t, "POST", votes, map[string]any{"member_id": 100, "recipe_id": ids[1], "direction": "approve"})
	env.do(t, "POST", votes, map[string]any{"member_id": 200, "recipe_id": ids[1], "direction": "approve"})

	rec = env.do(t, "POST", list+"/recipes", map[string]any{"session_id": s.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("add from session status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body)
	}
	got := decode[model.ShoppingList](t, rec)
	if len(got.Items) != 2 || got.Items[1].RecipeName != "Curry" || got.Items[1].Unit != "can" {
		t.Errorf("items = %+v, want chickpeas and coconut milk from Curry", got.Items)
	}
	if len(got.RecipeIDs) != 1 || got.RecipeIDs[0] != ids[1] {
		t.Errorf("recipe_ids = %v, want [%d]", got.RecipeIDs, ids[1])
	}

	other, _ := env.households.Create("Neighbors")
	rec = env.do(t, "POST", fmt.Sprintf("/api/households/%d/shopping-list/recipes", other.ID), map[string]any{"session_id": s.ID})
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign session status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestShoppingListLifecycle(t *testing.T) {
	env := setupHandlers(t)
	h, ids := env.seedHousehold(t)
	list := fmt.Sprintf("/api/households/%d/shopping-list", h.ID)

	rec := env.do(t, "POST", list+"/complete", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("complete without list status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = env.do(t, "GET", list, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body)
	}
	first := decode[model.ShoppingList](t, rec)
	if first.Status != model.ShoppingListActive || first.Items == nil {
		t.Errorf("new list = %q with items %v, want active with empty slice", first.Status, first.Items)
	}

	tests := []struct {
		name string
		body any
		want int
	}{
		{"neither", map[string]any{}, http.StatusBadRequest},
		{"both", map[string]any{"recipe_id": ids[0], "session_id": "abc"}, http.StatusBadRequest},
		{"unknown recipe", map[string]any{"recipe_id": 999}, http.StatusNotFound},
		{"unknown session", map[string]any{"session_id": "missing"}, http.StatusNotFound},
		{"recipe", map[string]any{"recipe_id": ids[0]}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, "POST", list+"/recipes", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body)
			}
		})
	}

	rec = env.do(t, "PUT", list, map[string]any{"items": []map[string]any{{"name": "milk"}, {"name": "bread", "checked": true}}})
	if rec.Code != http.StatusOK {
		t.Fatalf("replace status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body)
	}
	replaced := decode[model.ShoppingList](t, rec)
	if len(replaced.Items) != 2 || !replaced.Items[1].Checked {
		t.Fatalf("items = %+v, want milk and checked bread", replaced.Items)
	}

	rec = env.do(t, "PUT", list, map[string]any{"items": []map[string]any{{"name": ""}}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank item status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = env.do(t, "POST", fmt.Sprintf("%s/items/%d/toggle", list, replaced.Items[0].ID), nil)
	if toggled := decode[model.ShoppingItem](t, rec); !toggled.Checked {
		t.Error("milk checked = false after toggle, want true")
	}
	rec = env.do(t, "POST", list+"/items/999/toggle", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("toggle unknown item status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = env.do(t, "DELETE", list+"/items", nil)
	cleared := decode[model.ShoppingList](t, rec)
	if len(cleared.Items) != 0 || len(cleared.RecipeIDs) != 0 {
		t.Errorf("after clear: %d items, %d recipes; want 0, 0", len(cleared.Items), len(cleared.RecipeIDs))
	}

	rec = env.do(t, "POST", list+"/complete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body)
	}
	done := decode[model.ShoppingList](t, rec)
	if done.Status != model.ShoppingListCompleted || done.CompletedAt == nil {
		t.Errorf("completed list = %q at %v, want completed with timestamp", done.Status, done.CompletedAt)
	}

	rec = env.do(t, "GET", list, nil)
	if next := decode[model.ShoppingList](t, rec); next.ID == first.ID {
		t.Error("expected a fresh list after completion")
	}
}
