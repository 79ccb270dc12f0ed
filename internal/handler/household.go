package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/wevy/internal/middleware"
	"github.com/dukerupert/wevy/internal/model"
	"github.com/dukerupert/wevy/internal/store"
)

type HouseholdHandler struct {
	store  *store.HouseholdStore
	logger *slog.Logger
}

func NewHouseholdHandler(s *store.HouseholdStore, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{store: s, logger: logger}
}

type createHouseholdRequest struct {
	Name        string `json:"name"`
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
}

type createHouseholdResponse struct {
	Household *model.Household       `json:"household"`
	Member    *model.HouseholdMember `json:"member"`
}

// Create makes a household and adds the requesting user as its admin.
func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createHouseholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeErr(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.UserID <= 0 {
		writeErr(w, http.StatusBadRequest, "user_id is required")
		return
	}

	household, err := h.store.Create(req.Name)
	if err != nil {
		middleware.Logger(r.Context()).Error("create household", "error", err)
		writeErr(w, http.StatusInternalServerError, "failed to create household")
		return
	}

	member, err := h.store.AddMember(household.ID, req.UserID, strings.TrimSpace(req.DisplayName), model.RoleAdmin)
	if err != nil {
		middleware.Logger(r.Context()).Error("add household admin", "household_id", household.ID, "error", err)
		writeErr(w, http.StatusInternalServerError, "failed to add member")
		return
	}

	h.logger.Info("household created", "household_id", household.ID, "user_id", req.UserID)
	writeJSON(w, http.StatusCreated, createHouseholdResponse{Household: household, Member: member})
}

func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}

	household, err := h.store.GetByID(id)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "failed to get household")
		return
	}
	if household == nil {
		writeErr(w, http.StatusNotFound, "household not found")
		return
	}
	writeJSON(w, http.StatusOK, household)
}

type joinRequest struct {
	InviteCode  string `json:"invite_code"`
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
}

func (h *HouseholdHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.InviteCode) == "" || req.UserID <= 0 {
		writeErr(w, http.StatusBadRequest, "invite_code and user_id are required")
		return
	}

	household, err := h.store.GetByInviteCode(req.InviteCode)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "failed to look up invite code")
		return
	}
	if household == nil {
		writeErr(w, http.StatusNotFound, "invalid invite code")
		return
	}

	existing, err := h.store.GetMember(household.ID, req.UserID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "failed to check membership")
		return
	}
	if existing != nil {
		writeErr(w, http.StatusConflict, "already a member of this household")
		return
	}

	member, err := h.store.AddMember(household.ID, req.UserID, strings.TrimSpace(req.DisplayName), model.RoleMember)
	if err != nil {
		middleware.Logger(r.Context()).Error("join household", "household_id", household.ID, "error", err)
		writeErr(w, http.StatusInternalServerError, "failed to join household")
		return
	}

	h.logger.Info("member joined", "household_id", household.ID, "user_id", req.UserID)
	writeJSON(w, http.StatusCreated, member)
}

func (h *HouseholdHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	household, ok := lookupHousehold(w, r, h.store)
	if !ok {
		return
	}

	members, err := h.store.ListMembers(household.ID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.HouseholdMember{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *HouseholdHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	household, ok := lookupHousehold(w, r, h.store)
	if !ok {
		return
	}
	userID, err := parseIDParam(r, "user_id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid user_id")
		return
	}

	member, err := h.store.GetMember(household.ID, userID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if member == nil {
		writeErr(w, http.StatusNotFound, "member not found")
		return
	}

	if err := h.store.RemoveMember(household.ID, userID); err != nil {
		writeErr(w, http.StatusInternalServerError, "failed to remove member")
		return
	}

	h.logger.Info("member removed", "household_id", household.ID, "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

// lookupHousehold resolves the {id} path value, writing the error response
// itself when it cannot.
func lookupHousehold(w http.ResponseWriter, r *http.Request, hs *store.HouseholdStore) (*model.Household, bool) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid household id")
		return nil, false
	}
	household, err := hs.GetByID(id)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "failed to get household")
		return nil, false
	}
	if household == nil {
		writeErr(w, http.StatusNotFound, "household not found")
		return nil, false
	}
	return household, true
}
