package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/wevy/internal/model"
)

type RecipeStore struct {
	db *sql.DB
}

func NewRecipeStore(db *sql.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

const recipeCols = `id, household_id, title, description, difficulty, meal_type, total_time, is_favorite, times_cooked, last_cooked_at, created_by, created_at, updated_at`

func scanRecipe(scanner interface{ Scan(...any) error }) (*model.Recipe, error) {
	var r model.Recipe
	var favorite int
	var lastCooked sql.NullTime
	var createdBy sql.NullInt64
	err := scanner.Scan(&r.ID, &r.HouseholdID, &r.Title, &r.Description, &r.Difficulty, &r.MealType, &r.TotalTime,
		&favorite, &r.TimesCooked, &lastCooked, &createdBy, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.IsFavorite = favorite != 0
	if lastCooked.Valid {
		r.LastCookedAt = &lastCooked.Time
	}
	if createdBy.Valid {
		r.CreatedBy = &createdBy.Int64
	}
	r.Ingredients = []model.Ingredient{}
	return &r, nil
}

func (s *RecipeStore) Create(r model.Recipe) (*model.Recipe, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO recipes (household_id, title, description, difficulty, meal_type, total_time, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.HouseholdID, r.Title, r.Description, r.Difficulty, r.MealType, r.TotalTime, r.CreatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert recipe: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := insertIngredients(tx, id, r.Ingredients); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit recipe: %w", err)
	}
	return s.GetByID(id)
}

func insertIngredients(tx *sql.Tx, recipeID int64, ingredients []model.Ingredient) error {
	for i, ing := range ingredients {
		_, err := tx.Exec(
			`INSERT INTO recipe_ingredients (recipe_id, position, name, quantity, unit) VALUES (?, ?, ?, ?, ?)`,
			recipeID, i, ing.Name, ing.Quantity, ing.Unit,
		)
		if err != nil {
			return fmt.Errorf("insert ingredient: %w", err)
		}
	}
	return nil
}

func (s *RecipeStore) GetByID(id int64) (*model.Recipe, error) {
	row := s.db.QueryRow(`SELECT `+recipeCols+` FROM recipes WHERE id = ?`, id)
	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	byRecipe, err := s.ingredients([]int64{id})
	if err != nil {
		return nil, err
	}
	if ings, ok := byRecipe[id]; ok {
		r.Ingredients = ings
	}
	return r, nil
}

// ingredients returns the ingredient lists of the given recipes, in position order.
func (s *RecipeStore) ingredients(ids []int64) (map[int64][]model.Ingredient, error) {
	out := make(map[int64][]model.Ingredient, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.Query(
		`SELECT recipe_id, name, quantity, unit FROM recipe_ingredients
		 WHERE recipe_id IN (`+placeholders+`) ORDER BY recipe_id, position`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID int64
		var ing model.Ingredient
		if err := rows.Scan(&recipeID, &ing.Name, &ing.Quantity, &ing.Unit); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		out[recipeID] = append(out[recipeID], ing)
	}
	return out, rows.Err()
}

// Update replaces the editable fields and the ingredient list of a recipe.
// Returns nil if the recipe does not exist.
func (s *RecipeStore) Update(r model.Recipe) (*model.Recipe, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE recipes SET title = ?, description = ?, difficulty = ?, meal_type = ?, total_time = ?
		 WHERE id = ?`,
		r.Title, r.Description, r.Difficulty, r.MealType, r.TotalTime, r.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}
	if _, err := tx.Exec(`DELETE FROM recipe_ingredients WHERE recipe_id = ?`, r.ID); err != nil {
		return nil, fmt.Errorf("clear ingredients: %w", err)
	}
	if err := insertIngredients(tx, r.ID, r.Ingredients); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit recipe: %w", err)
	}
	return s.GetByID(r.ID)
}

func (s *RecipeStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM recipes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return nil
}

// MarkCooked bumps the cooked counter and records when it happened.
// Returns nil if the recipe does not exist.
func (s *RecipeStore) MarkCooked(id int64, at time.Time) (*model.Recipe, error) {
	result, err := s.db.Exec(
		`UPDATE recipes SET times_cooked = times_cooked + 1, last_cooked_at = ? WHERE id = ?`,
		at.UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("mark recipe cooked: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetByID(id)
}

// ToggleFavorite flips the favorite flag. Returns nil if the recipe does not exist.
func (s *RecipeStore) ToggleFavorite(id int64) (*model.Recipe, error) {
	result, err := s.db.Exec(`UPDATE recipes SET is_favorite = NOT is_favorite WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("toggle favorite: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetByID(id)
}

// Exists resolves the given ids. Ids with no recipe are absent from the result.
func (s *RecipeStore) Exists(ctx context.Context, ids []int64) (map[int64]model.RecipeInfo, error) {
	found := make(map[int64]model.RecipeInfo, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, household_id, title FROM recipes WHERE id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var info model.RecipeInfo
		if err := rows.Scan(&info.ID, &info.HouseholdID, &info.Title); err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		found[info.ID] = info
	}
	return found, rows.Err()
}

// List returns the household's recipes matching the filter, newest first.
func (s *RecipeStore) List(householdID int64, f model.RecipeFilter) ([]model.Recipe, error) {
	recipes, err := s.listRows(householdID, f)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(recipes))
	for i := range recipes {
		ids[i] = recipes[i].ID
	}
	byRecipe, err := s.ingredients(ids)
	if err != nil {
		return nil, err
	}
	for i := range recipes {
		if ings, ok := byRecipe[recipes[i].ID]; ok {
			recipes[i].Ingredients = ings
		}
	}
	return recipes, nil
}

// listRows drains the recipe rows before ingredients are queried; the pool holds one connection.
func (s *RecipeStore) listRows(householdID int64, f model.RecipeFilter) ([]model.Recipe, error) {
	query, args := buildRecipeQuery(householdID, f)
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []model.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, *r)
	}
	return recipes, rows.Err()
}

func buildRecipeQuery(householdID int64, f model.RecipeFilter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + recipeCols + ` FROM recipes WHERE household_id = ?`)
	args := []any{householdID}

	if f.Difficulty != "" {
		sb.WriteString(` AND difficulty = ?`)
		args = append(args, f.Difficulty)
	}
	if f.MealType != "" {
		sb.WriteString(` AND meal_type = ?`)
		args = append(args, f.MealType)
	}
	if f.MaxTime > 0 {
		sb.WriteString(` AND total_time > 0 AND total_time <= ?`)
		args = append(args, f.MaxTime)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		sb.WriteString(` AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ?)`)
		args = append(args, like, like)
	}
	if f.FavoritesOnly {
		sb.WriteString(` AND is_favorite = 1`)
	}

	sb.WriteString(` ORDER BY created_at DESC, id DESC`)
	if f.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, f.Limit)
	}
	return sb.String(), args
}
