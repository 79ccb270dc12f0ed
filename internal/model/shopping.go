package model

import "time"

type ShoppingListStatus string

const (
	ShoppingListActive    ShoppingListStatus = "active"
	ShoppingListCompleted ShoppingListStatus = "completed"
)

// ShoppingList collects ingredients for the recipes a household plans to cook.
// A household has at most one active list at a time.
type ShoppingList struct {
	ID          int64              `json:"id"`
	HouseholdID int64              `json:"household_id"`
	Status      ShoppingListStatus `json:"status"`
	Items       []ShoppingItem     `json:"items"`
	RecipeIDs   []int64            `json:"recipe_ids"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	CompletedAt *time.Time         `json:"completed_at"`
}

type ShoppingItem struct {
	ID         int64  `json:"id"`
	ListID     int64  `json:"list_id"`
	Position   int    `json:"position"`
	Name       string `json:"name"`
	Quantity   string `json:"quantity"`
	Unit       string `json:"unit"`
	Checked    bool   `json:"checked"`
	RecipeID   *int64 `json:"recipe_id"`
	RecipeName string `json:"recipe_name"`
}
