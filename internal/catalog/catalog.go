// Package catalog holds stateless helpers over the menu.
package catalog

import (
	"slices"
	"strings"

	"github.com/johiruljahid/nsultan/internal/model"
)

// All is the filter value that matches every category.
const All = "all"

// Filter returns items in the given category. An empty category or "all"
// returns items unchanged.
func Filter(items []model.FoodItem, category string) []model.FoodItem {
	if category == "" || category == All {
		return items
	}
	out := make([]model.FoodItem, 0, len(items))
	for _, it := range items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out
}

// Popular returns the items flagged as popular, in catalog order.
func Popular(items []model.FoodItem) []model.FoodItem {
	out := make([]model.FoodItem, 0)
	for _, it := range items {
		if it.IsPopular {
			out = append(out, it)
		}
	}
	return out
}

// Head returns at most n items.
func Head(items []model.FoodItem, n int) []model.FoodItem {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

// Find returns the item with id, or false.
func Find(items []model.FoodItem, id string) (model.FoodItem, bool) {
	i := slices.IndexFunc(items, func(it model.FoodItem) bool { return it.ID == id })
	if i < 0 {
		return model.FoodItem{}, false
	}
	return items[i], true
}

// NormalizeCategory lowercases and trims a category name.
func NormalizeCategory(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Validate checks a menu item before it is stored.
func Validate(item model.FoodItem) []string {
	var problems []string
	if strings.TrimSpace(item.NameEn) == "" && strings.TrimSpace(item.NameBn) == "" {
		problems = append(problems, "name_en or name_bn is required")
	}
	if item.Price < 0 {
		problems = append(problems, "price must not be negative")
	}
	if NormalizeCategory(item.Category) == "" {
		problems = append(problems, "category is required")
	}
	if item.SpicyLevel != nil && (*item.SpicyLevel < 0 || *item.SpicyLevel > 3) {
		problems = append(problems, "spicy_level must be between 0 and 3")
	}
	return problems
}
