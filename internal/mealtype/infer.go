// Package mealtype guesses a recipe's meal type from its title.
package mealtype

import "strings"

const (
	Breakfast = "breakfast"
	Lunch     = "lunch"
	Dinner    = "dinner"
	Snack     = "snack"
	Dessert   = "dessert"
)

// Infer returns the meal type suggested by title, or "" when nothing matches.
// Exact titles are checked first, then keywords in order.
func Infer(title string) string {
	name := strings.ToLower(strings.TrimSpace(title))
	if name == "" {
		return ""
	}

	if mt, ok := exactMatch[name]; ok {
		return mt
	}

	for _, entry := range keywordMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.mealType
		}
	}
	return ""
}

var exactMatch = map[string]string{
	"pancakes":       Breakfast,
	"waffles":        Breakfast,
	"french toast":   Breakfast,
	"oatmeal":        Breakfast,
	"granola":        Breakfast,
	"eggs benedict":  Breakfast,
	"shakshuka":      Breakfast,
	"blt":            Lunch,
	"caesar salad":   Lunch,
	"grilled cheese": Lunch,
	"tacos":          Dinner,
	"lasagna":        Dinner,
	"chili":          Dinner,
	"pot roast":      Dinner,
	"hummus":         Snack,
	"guacamole":      Snack,
	"popcorn":        Snack,
	"tiramisu":       Dessert,
	"brownies":       Dessert,
	"cheesecake":     Dessert,
}

// keywordMatches is ordered more specific first: "breakfast burrito" must hit
// breakfast before "burrito" hits dinner, and "chocolate chip cookies" must
// hit dessert before "chip" hits snack.
var keywordMatches = []struct {
	keyword  string
	mealType string
}{
	// Breakfast
	{"breakfast", Breakfast},
	{"pancake", Breakfast},
	{"waffle", Breakfast},
	{"omelet", Breakfast},
	{"frittata", Breakfast},
	{"scrambled", Breakfast},
	{"porridge", Breakfast},
	{"overnight oats", Breakfast},
	{"smoothie bowl", Breakfast},
	{"muffin", Breakfast},
	{"bagel", Breakfast},

	// Dessert
	{"cookie", Dessert},
	{"cake", Dessert},
	{"pie", Dessert},
	{"brownie", Dessert},
	{"pudding", Dessert},
	{"ice cream", Dessert},
	{"sorbet", Dessert},
	{"crumble", Dessert},
	{"cobbler", Dessert},
	{"tart", Dessert},

	// Snack
	{"dip", Snack},
	{"chips", Snack},
	{"trail mix", Snack},
	{"energy bites", Snack},
	{"popcorn", Snack},
	{"nachos", Snack},

	// Lunch
	{"sandwich", Lunch},
	{"wrap", Lunch},
	{"salad", Lunch},
	{"soup", Lunch},
	{"panini", Lunch},
	{"quesadilla", Lunch},

	// Dinner
	{"roast", Dinner},
	{"stew", Dinner},
	{"curry", Dinner},
	{"casserole", Dinner},
	{"stir fry", Dinner},
	{"stir-fry", Dinner},
	{"pasta", Dinner},
	{"spaghetti", Dinner},
	{"risotto", Dinner},
	{"burrito", Dinner},
	{"enchilada", Dinner},
	{"steak", Dinner},
	{"salmon", Dinner},
	{"chicken", Dinner},
	{"pork", Dinner},
	{"lamb", Dinner},
}
