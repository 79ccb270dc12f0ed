package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/wevy/internal/mealtype"
	"github.com/dukerupert/wevy/internal/middleware"
	"github.com/dukerupert/wevy/internal/model"
	"github.com/dukerupert/wevy/internal/store"
)

var validDifficulties = map[string]bool{
	"":       true,
	"easy":   true,
	"medium": true,
	"hard":   true,
}

var validMealTypes = map[string]bool{
	"":          true,
	"breakfast": true,
	"lunch":     true,
	"dinner":    true,
	"snack":     true,
	"dessert":   true,
}

type RecipeHandler struct {
	recipes    *store.RecipeStore
	households *store.HouseholdStore
	logger     *slog.Logger
}

func NewRecipeHandler(rs *store.RecipeStore, hs *store.HouseholdStore, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{recipes: rs, households: hs, logger: logger}
}

type recipeRequest struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Difficulty  string             `json:"difficulty"`
	MealType    string             `json:"meal_type"`
	TotalTime   int                `json:"total_time"`
	Ingredients []model.Ingredient `json:"ingredients"`
	CreatedBy   *int64             `json:"created_by"`
}

// normalize trims and validates the request in place. The returned message is
// suitable for a 400 response.
func (req *recipeRequest) normalize() (string, bool) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "title is required", false
	}
	req.Difficulty = strings.ToLower(strings.TrimSpace(req.Difficulty))
	if !validDifficulties[req.Difficulty] {
		return "difficulty must be easy, medium, or hard", false
	}
	req.MealType = strings.ToLower(strings.TrimSpace(req.MealType))
	if !validMealTypes[req.MealType] {
		return "invalid meal_type", false
	}
	if req.MealType == "" {
		req.MealType = mealtype.Infer(req.Title)
	}
	if req.TotalTime < 0 {
		return "total_time must not be negative", false
	}
	for i := range req.Ingredients {
		ing := &req.Ingredients[i]
		ing.Name = strings.TrimSpace(ing.Name)
		ing.Quantity = strings.TrimSpace(ing.Quantity)
		ing.Unit = strings.TrimSpace(ing.Unit)
		if ing.Name == "" {
			return "ingredient name is required", false
		}
	}
	return "", true
}

func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	household, ok := lookupHousehold(w, r, h.households)
	if !ok {
		return
	}

	var req recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg, ok := req.normalize(); !ok {
		writeErr(w, http.StatusBadRequest, msg)
		return
	}

	recipe, err := h.recipes.Create(model.Recipe{
		HouseholdID: household.ID,
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  req.Difficulty,
		MealType:    req.MealType,
		TotalTime:   req.TotalTime,
		Ingredients: req.Ingredients,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		middleware.Logger(r.Context()).Error("create recipe", "household_id", household.ID, "error", err)
		writeErr(w, http.StatusInternalServerError, "failed to create recipe")
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

// lookupRecipe resolves the {recipe_id} path value within the household,
// writing the error response itself when the recipe cannot be used.
func (h *RecipeHandler) lookupRecipe(w http.ResponseWriter, r *http.Request, household *model.Household) (*model.Recipe, bool) {
	id, err := parseIDParam(r, "recipe_id")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid recipe id")
		return nil, false
	}
	recipe, err := h.recipes.GetByID(id)
	if err != nil {
		middleware.Logger(r.Context()).Error("get recipe", "recipe_id", id, "error", err)
		writeErr(w, http.StatusInternalServerError, "failed to get recipe")
		return nil, false
	}
	if recipe == nil || recipe.HouseholdID != household.ID {
		writeErr(w, http.StatusNotFound, "recipe not found")
		return nil, false
	}
	return recipe, true
}

func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	household, ok := lookupHousehold(w, r, h.households)
	if !ok {
		return
	}
	recipe, ok := h.lookupRecipe(w, r, household)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

// Update replaces a recipe's editable fields and ingredients.
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	household, ok := lookupHousehold(w, r, h.households)
	if !ok {
		return
	}
	existing, ok := h.lookupRecipe(w, r, household)
	if !ok {
		return
	}

	var req recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg, ok := req.normalize(); !ok {
		writeErr(w, http.StatusBadRequest, msg)
		return
	}

	existing.Title = req.Title
	existing.Description = req.Description
	existing.Difficulty = req.Difficulty
	existing.MealType = req.MealType
	existing.TotalTime = req.TotalTime
	existing.Ingredients = req.Ingredients

	recipe, err := h.recipes.Update(*existing)
	if err != nil {
		middleware.Logger(r.Context()).Error("update recipe", "recipe_id", existing.ID, "error", err)
		writeErr(w, http.StatusInternalServerError, "failed to update recipe")
		return
	}
	if recipe == nil {
		writeErr(w, http.StatusNotFound, "recipe not found")
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	household, ok := lookupHousehold(w, r, h.households)
	if !ok {
		return
	}
	recipe, ok := h.lookupRecipe(w, r, household)
	if !ok {
		return
	}

	if err := h.recipes.Delete(recipe.ID); err != nil {
		middleware.Logger(r.Context()).Error("delete recipe", "recipe_id", recipe.ID, "error", err)
		writeErr(w, http.StatusInternalServerError, "failed to delete recipe")
		return
	}
	h.logger.Info("recipe deleted", "household_id", household.ID, "recipe_id", recipe.ID)
	w.WriteHeader(http.StatusNoContent)
}

// Cooked records that the household cooked the recipe.
func (h *RecipeHandler) Cooked(w http.ResponseWriter, r *http.Request) {
	household, ok := lookupHousehold(w, r, h.households)
	if !ok {
		return
	}
	recipe, ok := h.lookupRecipe(w, r, household)
	if !ok {
		return
	}

	updated, err := h.recipes.MarkCooked(recipe.ID, time.Now())
	if err != nil {
		middleware.Logger(r.Context()).Error("mark recipe cooked", "recipe_id", recipe.ID, "error", err)
		writeErr(w, http.StatusInternalServerError, "failed to update recipe")
		return
	}
	if updated == nil {
		writeErr(w, http.StatusNotFound, "recipe not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *RecipeHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	household, ok := lookupHousehold(w, r, h.households)
	if !ok {
		return
	}
	recipe, ok := h.lookupRecipe(w, r, household)
	if !ok {
		return
	}

	updated, err := h.recipes.ToggleFavorite(recipe.ID)
	if err != nil {
		middleware.Logger(r.Context()).Error("toggle favorite", "recipe_id", recipe.ID, "error", err)
		writeErr(w, http.StatusInternalServerError, "failed to update recipe")
		return
	}
	if updated == nil {
		writeErr(w, http.StatusNotFound, "recipe not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	household, ok := lookupHousehold(w, r, h.households)
	if !ok {
		return
	}

	filter, err := parseRecipeFilter(r.URL.Query())
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	recipes, err := h.recipes.List(household.ID, filter)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "failed to list recipes")
		return
	}
	if recipes == nil {
		recipes = []model.Recipe{}
	}
	writeJSON(w, http.StatusOK, recipes)
}

func parseRecipeFilter(q url.Values) (model.RecipeFilter, error) {
	f := model.RecipeFilter{
		Difficulty: strings.ToLower(strings.TrimSpace(q.Get("difficulty"))),
		MealType:   strings.ToLower(strings.TrimSpace(q.Get("meal_type"))),
		Search:     strings.TrimSpace(q.Get("search")),
	}
	if v := q.Get("favorite"); v != "" {
		fav, err := strconv.ParseBool(v)
		if err != nil {
			return f, errors.New("invalid favorite")
		}
		f.FavoritesOnly = fav
	}
	if !validDifficulties[f.Difficulty] {
		return f, errors.New("invalid difficulty")
	}
	if !validMealTypes[f.MealType] {
		return f, errors.New("invalid meal_type")
	}
	if v := q.Get("max_time"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, errors.New("invalid max_time")
		}
		f.MaxTime = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, errors.New("invalid limit")
		}
		f.Limit = n
	}
	return f, nil
}
