package model

import "time"

type Recipe struct {
	ID           int64        `json:"id"`
	HouseholdID  int64        `json:"household_id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Difficulty   string       `json:"difficulty"`
	MealType     string       `json:"meal_type"`
	TotalTime    int          `json:"total_time"`
	Ingredients  []Ingredient `json:"ingredients"`
	IsFavorite   bool         `json:"is_favorite"`
	TimesCooked  int          `json:"times_cooked"`
	LastCookedAt *time.Time   `json:"last_cooked_at"`
	CreatedBy    *int64       `json:"created_by"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
}

// RecipeInfo is the minimal recipe metadata needed to build a swipe session.
type RecipeInfo struct {
	ID          int64  `json:"id"`
	HouseholdID int64  `json:"household_id"`
	Title       string `json:"title"`
}

// RecipeFilter narrows a household's recipe library. Zero values are ignored.
type RecipeFilter struct {
	Difficulty    string
	MealType      string
	MaxTime       int
	Search        string
	FavoritesOnly bool
	Limit         int
}
