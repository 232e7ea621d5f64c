package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"foodgram/internal/models"
)

const testImage = "data:image/png;base64,aGVsbG8gd29ybGQ="

func (e *testEnv) mustSeedCatalog(t *testing.T) (tagID, flourID, eggID int64) {
	t.Helper()
	ctx := context.Background()

	tag, err := e.tags.Create(ctx, &models.Tag{Name: "Breakfast", Slug: "breakfast"})
	if err != nil {
		t.Fatalf("Failed to create tag: %v", err)
	}
	flour, err := e.ingredients.Create(ctx, &models.Ingredient{Name: "flour", MeasurementUnit: "g"})
	if err != nil {
		t.Fatalf("Failed to create ingredient: %v", err)
	}
	egg, err := e.ingredients.Create(ctx, &models.Ingredient{Name: "egg", MeasurementUnit: "pcs"})
	if err != nil {
		t.Fatalf("Failed to create ingredient: %v", err)
	}
	return tag.ID, flour.ID, egg.ID
}

func validRecipeInput(tagID, ingredientID int64) RecipeInput {
	return RecipeInput{
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		Image:       testImage,
		CookingTime: 15,
		TagIDs:      []int64{tagID},
		Ingredients: []IngredientAmount{{ID: ingredientID, Amount: decimal.NewFromInt(200)}},
	}
}

func TestCreateRecipe(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		env := newTestEnv(t)
		author := env.mustRegister(t, "anna", "anna@example.com")
		tagID, flourID, _ := env.mustSeedCatalog(t)

		recipe, err := env.svc.CreateRecipe(ctx, author, validRecipeInput(tagID, flourID))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if recipe.ID == 0 {
			t.Error("Expected a non-zero recipe id")
		}
		if len(recipe.Ingredients) != 1 || recipe.Ingredients[0].Name != "flour" {
			t.Errorf("Expected one resolved line item 'flour', got %+v", recipe.Ingredients)
		}

		code, err := env.svc.ShortCode(ctx, recipe.ID)
		if err != nil {
			t.Fatalf("Expected a short code, got %v", err)
		}
		if len(code) != shortCodeLength {
			t.Errorf("Expected a %d-character short code, got %q", shortCodeLength, code)
		}
	})

	t.Run("MissingImage", func(t *testing.T) {
		env := newTestEnv(t)
		author := env.mustRegister(t, "anna", "anna@example.com")
		tagID, flourID, _ := env.mustSeedCatalog(t)

		input := validRecipeInput(tagID, flourID)
		input.Image = ""
		if _, err := env.svc.CreateRecipe(ctx, author, input); !errors.Is(err, ErrValidation) {
			t.Fatalf("Expected ErrValidation for a missing image, got %v", err)
		}
	})

	t.Run("NoIngredients", func(t *testing.T) {
		env := newTestEnv(t)
		author := env.mustRegister(t, "anna", "anna@example.com")
		tagID, flourID, _ := env.mustSeedCatalog(t)

		input := validRecipeInput(tagID, flourID)
		input.Ingredients = nil
		if _, err := env.svc.CreateRecipe(ctx, author, input); !errors.Is(err, ErrValidation) {
			t.Fatalf("Expected ErrValidation for missing ingredients, got %v", err)
		}
	})

	t.Run("NoTags", func(t *testing.T) {
		env := newTestEnv(t)
		author := env.mustRegister(t, "anna", "anna@example.com")
		tagID, flourID, _ := env.mustSeedCatalog(t)

		input := validRecipeInput(tagID, flourID)
		input.TagIDs = nil
		if _, err := env.svc.CreateRecipe(ctx, author, input); !errors.Is(err, ErrValidation) {
			t.Fatalf("Expected ErrValidation for missing tags, got %v", err)
		}
	})

	t.Run("DuplicateIngredients", func(t *testing.T) {
		env := newTestEnv(t)
		author := env.mustRegister(t, "anna", "anna@example.com")
		tagID, flourID, _ := env.mustSeedCatalog(t)

		input := validRecipeInput(tagID, flourID)
		input.Ingredients = append(input.Ingredients, input.Ingredients[0])
		if _, err := env.svc.CreateRecipe(ctx, author, input); !errors.Is(err, ErrValidation) {
			t.Fatalf("Expected ErrValidation for duplicate ingredients, got %v", err)
		}
	})

	t.Run("UnknownIngredient", func(t *testing.T) {
		env := newTestEnv(t)
		author := env.mustRegister(t, "anna", "anna@example.com")
		tagID, _, _ := env.mustSeedCatalog(t)

		input := validRecipeInput(tagID, 9999)
		if _, err := env.svc.CreateRecipe(ctx, author, input); !errors.Is(err, ErrValidation) {
			t.Fatalf("Expected ErrValidation for an unknown ingredient, got %v", err)
		}
	})

	t.Run("CookingTimeTooLow", func(t *testing.T) {
		env := newTestEnv(t)
		author := env.mustRegister(t, "anna", "anna@example.com")
		tagID, flourID, _ := env.mustSeedCatalog(t)

		input := validRecipeInput(tagID, flourID)
		input.CookingTime = 0
		if _, err := env.svc.CreateRecipe(ctx, author, input); !errors.Is(err, ErrValidation) {
			t.Fatalf("Expected ErrValidation for cooking_time 0, got %v", err)
		}
	})
}

func TestUpdateRecipe(t *testing.T) {
	ctx := context.Background()

	t.Run("OnlyAuthorMayUpdate", func(t *testing.T) {
		env := newTestEnv(t)
		author := env.mustRegister(t, "anna", "anna@example.com")
		other := env.mustRegister(t, "bob", "bob@example.com")
		tagID, flourID, _ := env.mustSeedCatalog(t)

		recipe, err := env.svc.CreateRecipe(ctx, author, validRecipeInput(tagID, flourID))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		_, err = env.svc.UpdateRecipe(ctx, other, recipe.ID, validRecipeInput(tagID, flourID))
		if !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("Expected ErrPermissionDenied, got %v", err)
		}
	})

	t.Run("EmptyImageKeepsExisting", func(t *testing.T) {
		env := newTestEnv(t)
		author := env.mustRegister(t, "anna", "anna@example.com")
		tagID, flourID, _ := env.mustSeedCatalog(t)

		recipe, err := env.svc.CreateRecipe(ctx, author, validRecipeInput(tagID, flourID))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		input := validRecipeInput(tagID, flourID)
		input.Image = ""
		input.Name = "Thin pancakes"
		updated, err := env.svc.UpdateRecipe(ctx, author, recipe.ID, input)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if updated.Name != "Thin pancakes" {
			t.Errorf("Expected the name to change, got %q", updated.Name)
		}
		if updated.Image != recipe.Image {
			t.Errorf("Expected the image to be kept, got %q", updated.Image)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		env := newTestEnv(t)
		author := env.mustRegister(t, "anna", "anna@example.com")
		tagID, flourID, _ := env.mustSeedCatalog(t)

		_, err := env.svc.UpdateRecipe(ctx, author, 9999, validRecipeInput(tagID, flourID))
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestDeleteRecipe(t *testing.T) {
	ctx := context.Background()

	t.Run("OnlyAuthorMayDelete", func(t *testing.T) {
		env := newTestEnv(t)
		author := env.mustRegister(t, "anna", "anna@example.com")
		other := env.mustRegister(t, "bob", "bob@example.com")
		tagID, flourID, _ := env.mustSeedCatalog(t)

		recipe, err := env.svc.CreateRecipe(ctx, author, validRecipeInput(tagID, flourID))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if err := env.svc.DeleteRecipe(ctx, other, recipe.ID); !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("Expected ErrPermissionDenied, got %v", err)
		}
		if err := env.svc.DeleteRecipe(ctx, author, recipe.ID); err != nil {
			t.Fatalf("Expected the author delete to succeed, got %v", err)
		}
		if _, err := env.svc.GetRecipe(ctx, recipe.ID, 0); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Expected the recipe to be gone, got %v", err)
		}
	})
}

func TestFavorite(t *testing.T) {
	ctx := context.Background()

	t.Run("DuplicateFavorite", func(t *testing.T) {
		env := newTestEnv(t)
		author := env.mustRegister(t, "anna", "anna@example.com")
		tagID, flourID, _ := env.mustSeedCatalog(t)

		recipe, err := env.svc.CreateRecipe(ctx, author, validRecipeInput(tagID, flourID))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if _, err := env.svc.Favorite(ctx, author.ID, recipe.ID); err != nil {
			t.Fatalf("Expected the first favorite to succeed, got %v", err)
		}
		if _, err := env.svc.Favorite(ctx, author.ID, recipe.ID); !errors.Is(err, ErrValidation) {
			t.Fatalf("Expected ErrValidation for a repeated favorite, got %v", err)
		}
	})

	t.Run("UnknownRecipe", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.mustRegister(t, "anna", "anna@example.com")

		if _, err := env.svc.Favorite(ctx, user.ID, 9999); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UnfavoriteWithoutFavorite", func(t *testing.T) {
		env := newTestEnv(t)
		author := env.mustRegister(t, "anna", "anna@example.com")
		tagID, flourID, _ := env.mustSeedCatalog(t)

		recipe, err := env.svc.CreateRecipe(ctx, author, validRecipeInput(tagID, flourID))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if err := env.svc.Unfavorite(ctx, author.ID, recipe.ID); !errors.Is(err, ErrValidation) {
			t.Fatalf("Expected ErrValidation, got %v", err)
		}
	})
}

func TestShoppingList(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyCart", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.mustRegister(t, "anna", "anna@example.com")

		if _, err := env.svc.ShoppingList(ctx, user.ID); !errors.Is(err, ErrEmptySelection) {
			t.Fatalf("Expected ErrEmptySelection for an empty cart, got %v", err)
		}
	})

	t.Run("AggregatesCartRecipes", func(t *testing.T) {
		env := newTestEnv(t)
		author := env.mustRegister(t, "anna", "anna@example.com")
		tagID, flourID, eggID := env.mustSeedCatalog(t)

		first := validRecipeInput(tagID, flourID)
		pancakes, err := env.svc.CreateRecipe(ctx, author, first)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		second := validRecipeInput(tagID, flourID)
		second.Name = "Crepes"
		second.Ingredients = []IngredientAmount{
			{ID: flourID, Amount: decimal.NewFromInt(100)},
			{ID: eggID, Amount: decimal.NewFromInt(3)},
		}
		crepes, err := env.svc.CreateRecipe(ctx, author, second)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if _, err := env.svc.AddToCart(ctx, author.ID, pancakes.ID); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if _, err := env.svc.AddToCart(ctx, author.ID, crepes.ID); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		entries, err := env.svc.ShoppingList(ctx, author.ID)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("Expected 2 aggregated entries, got %d", len(entries))
		}
		if entries[0].Name != "flour" || !entries[0].Total.Equal(decimal.NewFromInt(300)) {
			t.Errorf("Expected flour total 300, got %s %s", entries[0].Name, entries[0].Total)
		}
		if entries[1].Name != "egg" || !entries[1].Total.Equal(decimal.NewFromInt(3)) {
			t.Errorf("Expected egg total 3, got %s %s", entries[1].Name, entries[1].Total)
		}
	})
}

func TestResolveShortCode(t *testing.T) {
	ctx := context.Background()

	t.Run("RoundTrip", func(t *testing.T) {
		env := newTestEnv(t)
		author := env.mustRegister(t, "anna", "anna@example.com")
		tagID, flourID, _ := env.mustSeedCatalog(t)

		recipe, err := env.svc.CreateRecipe(ctx, author, validRecipeInput(tagID, flourID))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		code, err := env.svc.ShortCode(ctx, recipe.ID)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		resolved, err := env.svc.ResolveShortCode(ctx, code)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if resolved.ID != recipe.ID {
			t.Errorf("Expected the code to resolve to recipe %d, got %d", recipe.ID, resolved.ID)
		}
	})

	t.Run("UnknownCode", func(t *testing.T) {
		env := newTestEnv(t)

		if _, err := env.svc.ResolveShortCode(ctx, "zzzzzz"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
	})
}
