package service

import (
	"testing"

	"github.com/shopspring/decimal"

	"foodgram/internal/models"
)

func lineItem(name, unit string, amount int64) models.RecipeIngredient {
	return models.RecipeIngredient{
		Name:            name,
		MeasurementUnit: unit,
		Amount:          decimal.NewFromInt(amount),
	}
}

func recipeWith(name string, items ...models.RecipeIngredient) *models.Recipe {
	return &models.Recipe{Name: name, Ingredients: items}
}

func TestAggregate(t *testing.T) {
	t.Run("SumsMatchingNameAndUnit", func(t *testing.T) {
		recipes := []*models.Recipe{
			recipeWith("pancakes",
				lineItem("flour", "g", 200),
				lineItem("egg", "pcs", 2),
			),
			recipeWith("crepes",
				lineItem("flour", "g", 100),
				lineItem("milk", "ml", 250),
			),
		}

		entries, err := Aggregate(recipes)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		want := []struct {
			name  string
			unit  string
			total int64
		}{
			{"flour", "g", 300},
			{"egg", "pcs", 2},
			{"milk", "ml", 250},
		}
		if len(entries) != len(want) {
			t.Fatalf("Expected %d entries, got %d", len(want), len(entries))
		}
		for i, w := range want {
			if entries[i].Name != w.name || entries[i].MeasurementUnit != w.unit {
				t.Errorf("Entry %d: expected %s (%s), got %s (%s)",
					i, w.name, w.unit, entries[i].Name, entries[i].MeasurementUnit)
			}
			if !entries[i].Total.Equal(decimal.NewFromInt(w.total)) {
				t.Errorf("Entry %d (%s): expected total %d, got %s",
					i, w.name, w.total, entries[i].Total)
			}
		}
	})

	t.Run("SameNameDifferentUnitStaysSeparate", func(t *testing.T) {
		recipes := []*models.Recipe{
			recipeWith("soup", lineItem("water", "l", 1)),
			recipeWith("dough", lineItem("water", "ml", 200)),
		}

		entries, err := Aggregate(recipes)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("Expected 2 entries, got %d", len(entries))
		}
		if entries[0].MeasurementUnit != "l" || entries[1].MeasurementUnit != "ml" {
			t.Errorf("Expected units to stay separate, got %s and %s",
				entries[0].MeasurementUnit, entries[1].MeasurementUnit)
		}
	})

	t.Run("EmptyInput", func(t *testing.T) {
		entries, err := Aggregate(nil)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("Expected empty result, got %d entries", len(entries))
		}
	})

	t.Run("FirstSeenOrderIsStable", func(t *testing.T) {
		recipes := []*models.Recipe{
			recipeWith("a", lineItem("salt", "g", 5), lineItem("pepper", "g", 2)),
			recipeWith("b", lineItem("pepper", "g", 1), lineItem("salt", "g", 3)),
		}

		entries, err := Aggregate(recipes)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if entries[0].Name != "salt" || entries[1].Name != "pepper" {
			t.Errorf("Expected first-seen order [salt pepper], got [%s %s]",
				entries[0].Name, entries[1].Name)
		}
	})

	t.Run("TotalsIndependentOfRecipeOrder", func(t *testing.T) {
		a := recipeWith("a", lineItem("flour", "g", 200))
		b := recipeWith("b", lineItem("flour", "g", 100))

		forward, err := Aggregate([]*models.Recipe{a, b})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		reverse, err := Aggregate([]*models.Recipe{b, a})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !forward[0].Total.Equal(reverse[0].Total) {
			t.Errorf("Expected equal totals, got %s and %s", forward[0].Total, reverse[0].Total)
		}
	})

	t.Run("FractionalAmountsSumExactly", func(t *testing.T) {
		recipes := []*models.Recipe{
			recipeWith("a", models.RecipeIngredient{
				Name: "vanilla", MeasurementUnit: "tsp",
				Amount: decimal.RequireFromString("0.1"),
			}),
			recipeWith("b", models.RecipeIngredient{
				Name: "vanilla", MeasurementUnit: "tsp",
				Amount: decimal.RequireFromString("0.2"),
			}),
		}

		entries, err := Aggregate(recipes)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if got := entries[0].Total.String(); got != "0.3" {
			t.Errorf("Expected exact total 0.3, got %s", got)
		}
	})

	t.Run("BlankUnitAborts", func(t *testing.T) {
		recipes := []*models.Recipe{
			recipeWith("broken", models.RecipeIngredient{
				Name: "flour", MeasurementUnit: "", Amount: decimal.NewFromInt(100),
			}),
		}

		if _, err := Aggregate(recipes); err == nil {
			t.Fatal("Expected an error for a blank measurement unit, got nil")
		}
	})

	t.Run("NegativeAmountAborts", func(t *testing.T) {
		recipes := []*models.Recipe{
			recipeWith("broken", models.RecipeIngredient{
				Name: "flour", MeasurementUnit: "g", Amount: decimal.NewFromInt(-1),
			}),
		}

		if _, err := Aggregate(recipes); err == nil {
			t.Fatal("Expected an error for a negative amount, got nil")
		}
	})
}
