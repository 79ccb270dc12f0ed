package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/wevy/internal/middleware"
	"github.com/dukerupert/wevy/internal/model"
	"github.com/dukerupert/wevy/internal/store"
	"github.com/dukerupert/wevy/internal/swipe"
)

// ShoppingHandler serves a household's active shopping list. Recipes reach
// the list directly or as the matched recipe of a swipe session.
type ShoppingHandler struct {
	shopping   *store.ShoppingStore
	recipes    *store.RecipeStore
	households *store.HouseholdStore
	manager    *swipe.Manager
	logger     *slog.Logger
}

func NewShoppingHandler(ss *store.ShoppingStore, rs *store.RecipeStore, hs *store.HouseholdStore, m *swipe.Manager, logger *slog.Logger) *ShoppingHandler {
	return &ShoppingHandler{shopping: ss, recipes: rs, households: hs, manager: m, logger: logger}
}

func (h *ShoppingHandler) Get(w http.ResponseWriter, r *http.Request) {
	household, ok := lookupHousehold(w, r, h.households)
	if !ok {
		return
	}

	list, err := h.shopping.GetOrCreateActive(household.ID)
	if err != nil {
		middleware.Logger(r.Context()).Error("get shopping list", "household_id", household.ID, "error", err)
		writeErr(w, http.StatusInternalServerError, "failed to get shopping list")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type addRecipeRequest struct {
	RecipeID  int64  `json:"recipe_id"`
	SessionID string `json:"session_id"`
}

// AddRecipe copies a recipe's ingredients onto the list. The recipe is named
// directly or by a matched swipe session of the same household.
func (h *ShoppingHandler) AddRecipe(w http.ResponseWriter, r *http.Request) {
	household, ok := lookupHousehold(w, r, h.households)
	if !ok {
		return
	}

	var req addRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)

	recipeID := req.RecipeID
	switch {
	case req.SessionID != "" && recipeID != 0:
		writeErr(w, http.StatusBadRequest, "pass recipe_id or session_id, not both")
		return
	case req.SessionID != "":
		s, err := h.manager.GetSessionByID(r.Context(), req.SessionID)
		if err != nil {
			status := swipeStatus(err)
			if status == http.StatusInternalServerError {
				middleware.Logger(r.Context()).Error("get session for shopping list", "session_id", req.SessionID, "error", err)
			}
			writeErr(w, status, err.Error())
			return
		}
		if s.HouseholdID != household.ID {
			writeErr(w, http.StatusNotFound, swipe.ErrNotFound.Error())
			return
		}
		if s.Status != model.SessionMatched || s.MatchedRecipeID == nil {
			writeErr(w, http.StatusConflict, "session has no matched recipe")
			return
		}
		recipeID = *s.MatchedRecipeID
	case recipeID <= 0:
		writeErr(w, http.StatusBadRequest, "recipe_id or session_id is required")
		return
	}

	recipe, err := h.recipes.GetByID(recipeID)
	if err != nil {
		middleware.Logger(r.Context()).Error("get recipe for shopping list", "recipe_id", recipeID, "error", err)
		writeErr(w, http.StatusInternalServerError, "failed to get recipe")
		return
	}
	if recipe == nil || recipe.HouseholdID != household.ID {
		writeErr(w, http.StatusNotFound, "recipe not found")
		return
	}

	list, err := h.shopping.AddRecipe(household.ID, recipe)
	if err != nil {
		middleware.Logger(r.Context()).Error("add recipe to shopping list", "household_id", household.ID, "recipe_id", recipe.ID, "error", err)
		writeErr(w, http.StatusInternalServerError, "failed to update shopping list")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type replaceItemsRequest struct {
	Items []model.ShoppingItem `json:"items"`
}

// ReplaceItems overwrites the list's items with the client's copy.
func (h *ShoppingHandler) ReplaceItems(w http.ResponseWriter, r *http.Request) {
	household, ok := lookupHousehold(w, r, h.households)
	if !ok {
		return
	}

	var req replaceItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	for i := range req.Items {
		req.Items[i].Name = strings.TrimSpace(req.Items[i].Name)
		if req.Items[i].Name == "" {
			writeErr(w, http.StatusBadRequest, "item name is required")
			return
		}
	}

	list, err := h.shopping.ReplaceItems(household.ID, req.Items)
	if err != nil {
		middleware.Logger(r.Context()).Error("replace shopping items", "household_id", household.ID, "error", err)
		writeErr(w, http.StatusInternalServerError, "failed to update shopping list")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ShoppingHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	household, ok := lookupHousehold(w, r, h.households)
	if !ok {
		return
	}
	itemID, err := parseIDParam(r, "item_id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.shopping.ToggleChecked(household.ID, itemID)
	if err != nil {
		middleware.Logger(r.Context()).Error("toggle shopping item", "item_id", itemID, "error", err)
		writeErr(w, http.StatusInternalServerError, "failed to toggle item")
		return
	}
	if item == nil {
		writeErr(w, http.StatusNotFound, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Complete closes the active list. The next read starts a new one.
func (h *ShoppingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	household, ok := lookupHousehold(w, r, h.households)
	if !ok {
		return
	}

	list, err := h.shopping.Complete(household.ID)
	if err != nil {
		middleware.Logger(r.Context()).Error("complete shopping list", "household_id", household.ID, "error", err)
		writeErr(w, http.StatusInternalServerError, "failed to complete shopping list")
		return
	}
	if list == nil {
		writeErr(w, http.StatusNotFound, "no active shopping list")
		return
	}
	h.logger.Info("shopping list completed", "household_id", household.ID, "list_id", list.ID, "items", len(list.Items))
	writeJSON(w, http.StatusOK, list)
}

// Clear removes every item and recipe from the active list.
func (h *ShoppingHandler) Clear(w http.ResponseWriter, r *http.Request) {
	household, ok := lookupHousehold(w, r, h.households)
	if !ok {
		return
	}

	list, err := h.shopping.Clear(household.ID)
	if err != nil {
		middleware.Logger(r.Context()).Error("clear shopping list", "household_id", household.ID, "error", err)
		writeErr(w, http.StatusInternalServerError, "failed to clear shopping list")
		return
	}
	writeJSON(w, http.StatusOK, list)
}
