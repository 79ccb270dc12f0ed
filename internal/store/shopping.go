package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/wevy/internal/model"
)

// ShoppingStore persists each household's shopping lists. A household has at
// most one active list; it is created on first use.
type ShoppingStore struct {
	db *sql.DB
}

func NewShoppingStore(db *sql.DB) *ShoppingStore {
	return &ShoppingStore{db: db}
}

// --- List methods ---

const shoppingListCols = `id, household_id, status, created_at, updated_at, completed_at`

func scanShoppingList(scanner interface{ Scan(...any) error }) (*model.ShoppingList, error) {
	var l model.ShoppingList
	var completedAt sql.NullTime
	err := scanner.Scan(&l.ID, &l.HouseholdID, &l.Status, &l.CreatedAt, &l.UpdatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		l.CompletedAt = &completedAt.Time
	}
	return &l, nil
}

// activeListID returns the household's active list id, creating the list if needed.
func activeListID(tx *sql.Tx, householdID int64) (int64, error) {
	if _, err := tx.Exec(`INSERT OR IGNORE INTO shopping_lists (household_id) VALUES (?)`, householdID); err != nil {
		return 0, fmt.Errorf("ensure shopping list: %w", err)
	}
	var id int64
	err := tx.QueryRow(
		`SELECT id FROM shopping_lists WHERE household_id = ? AND status = 'active'`, householdID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("get active shopping list: %w", err)
	}
	return id, nil
}

func touchList(tx *sql.Tx, listID int64) error {
	if _, err := tx.Exec(`UPDATE shopping_lists SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, listID); err != nil {
		return fmt.Errorf("touch shopping list: %w", err)
	}
	return nil
}

// withActiveList runs fn against the household's active list inside one
// transaction and returns the list as committed.
func (s *ShoppingStore) withActiveList(householdID int64, fn func(tx *sql.Tx, listID int64) error) (*model.ShoppingList, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	listID, err := activeListID(tx, householdID)
	if err != nil {
		return nil, err
	}
	if fn != nil {
		if err := fn(tx, listID); err != nil {
			return nil, err
		}
		if err := touchList(tx, listID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit shopping list: %w", err)
	}
	return s.GetByID(listID)
}

// GetOrCreateActive returns the household's active list, creating an empty one if none exists.
func (s *ShoppingStore) GetOrCreateActive(householdID int64) (*model.ShoppingList, error) {
	return s.withActiveList(householdID, nil)
}

func (s *ShoppingStore) GetByID(id int64) (*model.ShoppingList, error) {
	row := s.db.QueryRow(`SELECT `+shoppingListCols+` FROM shopping_lists WHERE id = ?`, id)
	l, err := scanShoppingList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shopping list: %w", err)
	}

	if l.Items, err = s.listItems(id); err != nil {
		return nil, err
	}
	if l.RecipeIDs, err = s.listRecipeIDs(id); err != nil {
		return nil, err
	}
	return l, nil
}

// AddRecipe copies the recipe's ingredients onto the active list. Adding a
// recipe that is already on the list leaves the items untouched.
func (s *ShoppingStore) AddRecipe(householdID int64, r *model.Recipe) (*model.ShoppingList, error) {
	return s.withActiveList(householdID, func(tx *sql.Tx, listID int64) error {
		result, err := tx.Exec(
			`INSERT OR IGNORE INTO shopping_list_recipes (list_id, recipe_id) VALUES (?, ?)`, listID, r.ID,
		)
		if err != nil {
			return fmt.Errorf("add list recipe: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return nil
		}

		recipeID := r.ID
		items := make([]model.ShoppingItem, len(r.Ingredients))
		for i, ing := range r.Ingredients {
			items[i] = model.ShoppingItem{
				Name:       ing.Name,
				Quantity:   ing.Quantity,
				Unit:       ing.Unit,
				RecipeID:   &recipeID,
				RecipeName: r.Title,
			}
		}
		return appendItems(tx, listID, items)
	})
}

// ReplaceItems overwrites the active list's items. The recipe set is kept.
func (s *ShoppingStore) ReplaceItems(householdID int64, items []model.ShoppingItem) (*model.ShoppingList, error) {
	return s.withActiveList(householdID, func(tx *sql.Tx, listID int64) error {
		if _, err := tx.Exec(`DELETE FROM shopping_items WHERE list_id = ?`, listID); err != nil {
			return fmt.Errorf("clear shopping items: %w", err)
		}
		return appendItems(tx, listID, items)
	})
}

// Clear empties the active list of both items and recipes.
func (s *ShoppingStore) Clear(householdID int64) (*model.ShoppingList, error) {
	return s.withActiveList(householdID, func(tx *sql.Tx, listID int64) error {
		if _, err := tx.Exec(`DELETE FROM shopping_items WHERE list_id = ?`, listID); err != nil {
			return fmt.Errorf("clear shopping items: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM shopping_list_recipes WHERE list_id = ?`, listID); err != nil {
			return fmt.Errorf("clear list recipes: %w", err)
		}
		return nil
	})
}

// Complete closes the household's active list. Returns nil if there is no active list.
// The next read starts a fresh one.
func (s *ShoppingStore) Complete(householdID int64) (*model.ShoppingList, error) {
	var id int64
	err := s.db.QueryRow(
		`SELECT id FROM shopping_lists WHERE household_id = ? AND status = 'active'`, householdID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active shopping list: %w", err)
	}

	_, err = s.db.Exec(
		`UPDATE shopping_lists
		 SET status = 'completed', completed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'active'`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("complete shopping list: %w", err)
	}
	return s.GetByID(id)
}

// --- Item methods ---

const shoppingItemCols = `id, list_id, position, name, quantity, unit, checked, recipe_id, recipe_name`

func scanShoppingItem(scanner interface{ Scan(...any) error }) (*model.ShoppingItem, error) {
	var item model.ShoppingItem
	var checked int
	var recipeID sql.NullInt64
	err := scanner.Scan(&item.ID, &item.ListID, &item.Position, &item.Name, &item.Quantity, &item.Unit,
		&checked, &recipeID, &item.RecipeName)
	if err != nil {
		return nil, err
	}
	item.Checked = checked != 0
	if recipeID.Valid {
		item.RecipeID = &recipeID.Int64
	}
	return &item, nil
}

func appendItems(tx *sql.Tx, listID int64, items []model.ShoppingItem) error {
	var next int
	err := tx.QueryRow(
		`SELECT COALESCE(MAX(position), -1) + 1 FROM shopping_items WHERE list_id = ?`, listID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("next item position: %w", err)
	}

	for i, item := range items {
		_, err := tx.Exec(
			`INSERT INTO shopping_items (list_id, position, name, quantity, unit, checked, recipe_id, recipe_name)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			listID, next+i, item.Name, item.Quantity, item.Unit, item.Checked, item.RecipeID, item.RecipeName,
		)
		if err != nil {
			return fmt.Errorf("insert shopping item: %w", err)
		}
	}
	return nil
}

func (s *ShoppingStore) listItems(listID int64) ([]model.ShoppingItem, error) {
	rows, err := s.db.Query(
		`SELECT `+shoppingItemCols+` FROM shopping_items WHERE list_id = ? ORDER BY position ASC, id ASC`, listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	defer rows.Close()

	items := []model.ShoppingItem{}
	for rows.Next() {
		item, err := scanShoppingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shopping item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *ShoppingStore) listRecipeIDs(listID int64) ([]int64, error) {
	rows, err := s.db.Query(`SELECT recipe_id FROM shopping_list_recipes WHERE list_id = ? ORDER BY recipe_id`, listID)
	if err != nil {
		return nil, fmt.Errorf("list shopping recipes: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan shopping recipe: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ToggleChecked flips an item on the household's active list.
// Returns nil if the item is not on that list.
func (s *ShoppingStore) ToggleChecked(householdID, itemID int64) (*model.ShoppingItem, error) {
	result, err := s.db.Exec(
		`UPDATE shopping_items SET checked = NOT checked
		 WHERE id = ? AND list_id IN (SELECT id FROM shopping_lists WHERE household_id = ? AND status = 'active')`,
		itemID, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("toggle shopping item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}

	row := s.db.QueryRow(`SELECT `+shoppingItemCols+` FROM shopping_items WHERE id = ?`, itemID)
	item, err := scanShoppingItem(row)
	if err != nil {
		return nil, fmt.Errorf("get shopping item: %w", err)
	}
	return item, nil
}
