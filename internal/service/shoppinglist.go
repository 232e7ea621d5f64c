package service

import (
	"context"
	"fmt"

	"foodgram/internal/models"
)

// Aggregate merges the line items of the given recipes into one entry per
// (ingredient name, measurement unit) pair, summing the amounts with
// decimal arithmetic. The same ingredient name in different units stays
// separate. Output order is the first-seen order of each pair across the
// traversal, so repeated downloads of the same selection produce the same
// list. Empty input yields an empty result.
//
// A line item with a blank name or unit, or a negative amount, aborts the
// whole aggregation: an incomplete shopping list must never be produced
// silently.
func Aggregate(recipes []*models.Recipe) ([]models.ShoppingListEntry, error) {
	type groupKey struct {
		name string
		unit string
	}

	index := make(map[groupKey]int)
	entries := []models.ShoppingListEntry{}

	for _, recipe := range recipes {
		for _, item := range recipe.Ingredients {
			if item.Name == "" || item.MeasurementUnit == "" {
				return nil, fmt.Errorf("recipe %q has an unresolved line item (ingredient_id=%d)",
					recipe.Name, item.IngredientID)
			}
			if item.Amount.IsNegative() {
				return nil, fmt.Errorf("recipe %q has a negative amount for %q",
					recipe.Name, item.Name)
			}

			key := groupKey{name: item.Name, unit: item.MeasurementUnit}
			if i, ok := index[key]; ok {
				entries[i].Total = entries[i].Total.Add(item.Amount)
				continue
			}

			index[key] = len(entries)
			entries = append(entries, models.ShoppingListEntry{
				Name:            item.Name,
				MeasurementUnit: item.MeasurementUnit,
				Total:           item.Amount,
			})
		}
	}

	return entries, nil
}

// ShoppingList aggregates the user's shopping cart into download entries.
// An empty cart yields ErrEmptySelection so the client can show a
// "nothing to download" message instead of an empty file.
func (s *Service) ShoppingList(ctx context.Context, userID int64) ([]models.ShoppingListEntry, error) {
	recipes, err := s.Recipes.InCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shopping cart: %w", err)
	}
	if len(recipes) == 0 {
		return nil, ErrEmptySelection
	}

	entries, err := Aggregate(recipes)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate shopping list: %w", err)
	}

	return entries, nil
}
