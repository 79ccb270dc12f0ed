// Package seed loads households, members and recipes from a YAML fixture.
package seed

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dukerupert/wevy/internal/mealtype"
	"github.com/dukerupert/wevy/internal/model"
	"github.com/dukerupert/wevy/internal/store"
)

// Fixture models the on-disk seed file.
type Fixture struct {
	Households []Household `yaml:"households"`
}

type Household struct {
	Name    string   `yaml:"name"`
	Members []Member `yaml:"members"`
	Recipes []Recipe `yaml:"recipes"`
}

type Member struct {
	UserID      int64  `yaml:"user_id"`
	DisplayName string `yaml:"display_name"`
	Role        string `yaml:"role,omitempty"`
}

type Recipe struct {
	Title       string       `yaml:"title"`
	Description string       `yaml:"description,omitempty"`
	Difficulty  string       `yaml:"difficulty,omitempty"`
	MealType    string       `yaml:"meal_type,omitempty"`
	TotalTime   int          `yaml:"total_time,omitempty"`
	Ingredients []Ingredient `yaml:"ingredients,omitempty"`
}

type Ingredient struct {
	Name     string `yaml:"name"`
	Quantity string `yaml:"quantity,omitempty"`
	Unit     string `yaml:"unit,omitempty"`
}

// Result describes what Apply created.
type Result struct {
	Households []model.Household
	Members    int
	Recipes    int
}

// Load reads and validates a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates fixture YAML.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("seed: parse: %w", err)
	}
	f.normalize()
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return &f, nil
}

func (f *Fixture) normalize() {
	for i := range f.Households {
		h := &f.Households[i]
		h.Name = strings.TrimSpace(h.Name)
		for j := range h.Members {
			m := &h.Members[j]
			m.DisplayName = strings.TrimSpace(m.DisplayName)
			m.Role = strings.ToLower(strings.TrimSpace(m.Role))
			if m.Role == "" {
				m.Role = model.RoleMember
			}
		}
		for j := range h.Recipes {
			r := &h.Recipes[j]
			r.Title = strings.TrimSpace(r.Title)
			r.Difficulty = strings.ToLower(strings.TrimSpace(r.Difficulty))
			r.MealType = strings.ToLower(strings.TrimSpace(r.MealType))
			if r.MealType == "" {
				r.MealType = mealtype.Infer(r.Title)
			}
			for k := range r.Ingredients {
				ing := &r.Ingredients[k]
				ing.Name = strings.TrimSpace(ing.Name)
				ing.Quantity = strings.TrimSpace(ing.Quantity)
				ing.Unit = strings.TrimSpace(ing.Unit)
			}
		}
	}
}

func (f *Fixture) validate() error {
	if len(f.Households) == 0 {
		return errors.New("no households defined")
	}
	var errs []error
	for i, h := range f.Households {
		if h.Name == "" {
			errs = append(errs, fmt.Errorf("households[%d]: name is required", i))
		}
		seen := make(map[int64]bool, len(h.Members))
		for j, m := range h.Members {
			switch {
			case m.UserID <= 0:
				errs = append(errs, fmt.Errorf("households[%d].members[%d]: user_id must be positive", i, j))
			case seen[m.UserID]:
				errs = append(errs, fmt.Errorf("households[%d].members[%d]: duplicate user_id %d", i, j, m.UserID))
			}
			seen[m.UserID] = true
			if m.Role != model.RoleAdmin && m.Role != model.RoleMember {
				errs = append(errs, fmt.Errorf("households[%d].members[%d]: invalid role %q", i, j, m.Role))
			}
		}
		for j, r := range h.Recipes {
			if r.Title == "" {
				errs = append(errs, fmt.Errorf("households[%d].recipes[%d]: title is required", i, j))
			}
			if r.TotalTime < 0 {
				errs = append(errs, fmt.Errorf("households[%d].recipes[%d]: total_time must not be negative", i, j))
			}
			for k, ing := range r.Ingredients {
				if ing.Name == "" {
					errs = append(errs, fmt.Errorf("households[%d].recipes[%d].ingredients[%d]: name is required", i, j, k))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// Apply writes the fixture through the stores. Each household gets a fresh
// invite code; the fixture's recipes are owned by that household.
func Apply(f *Fixture, households *store.HouseholdStore, recipes *store.RecipeStore, logger *slog.Logger) (*Result, error) {
	res := &Result{}
	for _, h := range f.Households {
		household, err := households.Create(h.Name)
		if err != nil {
			return res, fmt.Errorf("seed household %q: %w", h.Name, err)
		}
		res.Households = append(res.Households, *household)

		for _, m := range h.Members {
			if _, err := households.AddMember(household.ID, m.UserID, m.DisplayName, m.Role); err != nil {
				return res, fmt.Errorf("seed member %d of %q: %w", m.UserID, h.Name, err)
			}
			res.Members++
		}

		for _, r := range h.Recipes {
			ings := make([]model.Ingredient, len(r.Ingredients))
			for k, ing := range r.Ingredients {
				ings[k] = model.Ingredient{Name: ing.Name, Quantity: ing.Quantity, Unit: ing.Unit}
			}
			_, err := recipes.Create(model.Recipe{
				HouseholdID: household.ID,
				Title:       r.Title,
				Description: r.Description,
				Difficulty:  r.Difficulty,
				MealType:    r.MealType,
				TotalTime:   r.TotalTime,
				Ingredients: ings,
			})
			if err != nil {
				return res, fmt.Errorf("seed recipe %q of %q: %w", r.Title, h.Name, err)
			}
			res.Recipes++
		}

		logger.Info("seeded household",
			"household_id", household.ID,
			"name", household.Name,
			"invite_code", household.InviteCode,
			"members", len(h.Members),
			"recipes", len(h.Recipes),
		)
	}
	return res, nil
}
