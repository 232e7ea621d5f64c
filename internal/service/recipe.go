package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"foodgram/internal/models"
	"foodgram/internal/repository"
)

const (
	shortCodeLength   = 6
	shortCodeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	minCookingTime    = 1
)

// IngredientAmount is one requested line item of a recipe write.
type IngredientAmount struct {
	ID     int64
	Amount decimal.Decimal
}

// RecipeInput carries the fields of a recipe create or update request.
// Image holds a base64 data URL; on update an empty Image keeps the
// existing file.
type RecipeInput struct {
	Name        string
	Text        string
	Image       string
	CookingTime int
	TagIDs      []int64
	Ingredients []IngredientAmount
}

func (s *Service) validateRecipeInput(input RecipeInput) error {
	switch {
	case input.Name == "":
		return validationErr("name is required")
	case input.Text == "":
		return validationErr("text is required")
	case input.CookingTime < minCookingTime:
		return validationErr("cooking_time must be at least %d", minCookingTime)
	case len(input.Ingredients) == 0:
		return validationErr("at least one ingredient is required")
	case len(input.TagIDs) == 0:
		return validationErr("at least one tag is required")
	}

	seenIngredients := make(map[int64]bool, len(input.Ingredients))
	for _, item := range input.Ingredients {
		if seenIngredients[item.ID] {
			return validationErr("ingredients must be unique")
		}
		seenIngredients[item.ID] = true
		if item.Amount.LessThan(decimal.New(1, 0)) {
			return validationErr("ingredient amount must be at least 1")
		}
	}

	seenTags := make(map[int64]bool, len(input.TagIDs))
	for _, id := range input.TagIDs {
		if seenTags[id] {
			return validationErr("tags must be unique")
		}
		seenTags[id] = true
	}

	return nil
}

// resolveRelations loads the referenced ingredients and tags, preserving
// the request order of line items. A reference to a missing id aborts the
// whole write.
func (s *Service) resolveRelations(ctx context.Context, input RecipeInput) ([]models.RecipeIngredient, []models.Tag, error) {
	ids := make([]int64, len(input.Ingredients))
	for i, item := range input.Ingredients {
		ids[i] = item.ID
	}

	ingredients, err := s.Ingredients.GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve ingredients: %w", err)
	}
	byID := make(map[int64]*models.Ingredient, len(ingredients))
	for _, ingredient := range ingredients {
		byID[ingredient.ID] = ingredient
	}

	items := make([]models.RecipeIngredient, 0, len(input.Ingredients))
	for _, item := range input.Ingredients {
		ingredient, ok := byID[item.ID]
		if !ok {
			return nil, nil, validationErr("ingredient %d does not exist", item.ID)
		}
		items = append(items, models.RecipeIngredient{
			IngredientID:    ingredient.ID,
			Name:            ingredient.Name,
			MeasurementUnit: ingredient.MeasurementUnit,
			Amount:          item.Amount,
		})
	}

	tags, err := s.Tags.GetByIDs(ctx, input.TagIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve tags: %w", err)
	}
	if len(tags) != len(input.TagIDs) {
		return nil, nil, validationErr("one or more tags do not exist")
	}

	return items, tags, nil
}

// CreateRecipe publishes a new recipe for the author.
func (s *Service) CreateRecipe(ctx context.Context, author *models.User, input RecipeInput) (*models.Recipe, error) {
	if err := s.validateRecipeInput(input); err != nil {
		return nil, err
	}
	if input.Image == "" {
		return nil, validationErr("image is required")
	}

	items, tags, err := s.resolveRelations(ctx, input)
	if err != nil {
		return nil, err
	}

	imagePath, err := s.media.SaveBase64("recipes", input.Image)
	if err != nil {
		return nil, validationErr("%v", err)
	}

	code, err := s.newShortCode(ctx)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        input.Name,
		Image:       imagePath,
		Text:        input.Text,
		CookingTime: input.CookingTime,
		ShortCode:   code,
		Tags:        tags,
		Ingredients: items,
	}

	recipe, err = s.Recipes.Create(ctx, recipe)
	if err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	s.logger.Infof("User %q published recipe %q (id=%d)", author.Username, recipe.Name, recipe.ID)
	return s.GetRecipe(ctx, recipe.ID, author.ID)
}

// UpdateRecipe replaces the recipe's fields, line items and tags. Only
// the author may update a recipe.
func (s *Service) UpdateRecipe(ctx context.Context, user *models.User, id int64, input RecipeInput) (*models.Recipe, error) {
	existing, err := s.Recipes.GetByID(ctx, id, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	if existing.AuthorID != user.ID {
		return nil, ErrPermissionDenied
	}

	if err := s.validateRecipeInput(input); err != nil {
		return nil, err
	}

	items, tags, err := s.resolveRelations(ctx, input)
	if err != nil {
		return nil, err
	}

	image := existing.Image
	if input.Image != "" {
		image, err = s.media.SaveBase64("recipes", input.Image)
		if err != nil {
			return nil, validationErr("%v", err)
		}
		if existing.Image != "" {
			if err := s.media.Remove(existing.Image); err != nil {
				s.logger.WithError(err).Warn("failed to remove replaced recipe image")
			}
		}
	}

	recipe := &models.Recipe{
		ID:          id,
		AuthorID:    existing.AuthorID,
		Name:        input.Name,
		Image:       image,
		Text:        input.Text,
		CookingTime: input.CookingTime,
		Tags:        tags,
		Ingredients: items,
	}

	if _, err := s.Recipes.Update(ctx, recipe); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}

	return s.GetRecipe(ctx, id, user.ID)
}

// DeleteRecipe removes the recipe and its image. Only the author may
// delete a recipe.
func (s *Service) DeleteRecipe(ctx context.Context, user *models.User, id int64) error {
	recipe, err := s.Recipes.GetByID(ctx, id, user.ID)
	if err != nil {
		return fmt.Errorf("failed to get recipe: %w", err)
	}
	if recipe == nil {
		return ErrNotFound
	}
	if recipe.AuthorID != user.ID {
		return ErrPermissionDenied
	}

	if err := s.Recipes.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	if recipe.Image != "" {
		if err := s.media.Remove(recipe.Image); err != nil {
			s.logger.WithError(err).Warn("failed to remove recipe image")
		}
	}

	return nil
}

// GetRecipe returns one recipe with viewer-relative flags.
func (s *Service) GetRecipe(ctx context.Context, id, viewerID int64) (*models.Recipe, error) {
	recipe, err := s.Recipes.GetByID(ctx, id, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	if recipe == nil {
		return nil, ErrNotFound
	}
	return recipe, nil
}

// ListRecipes returns a filtered page of recipes with the total count.
func (s *Service) ListRecipes(ctx context.Context, filters repository.RecipeFilters) ([]*models.Recipe, int, error) {
	recipes, total, err := s.Recipes.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, total, nil
}

// Favorite adds the recipe to the user's favorites.
func (s *Service) Favorite(ctx context.Context, userID, recipeID int64) (*models.Recipe, error) {
	return s.addRecipeRelation(ctx, userID, recipeID, s.Recipes.AddFavorite, "recipe is already in favorites")
}

// Unfavorite removes the recipe from the user's favorites.
func (s *Service) Unfavorite(ctx context.Context, userID, recipeID int64) error {
	return s.removeRecipeRelation(ctx, userID, recipeID, s.Recipes.RemoveFavorite, "recipe is not in favorites")
}

// AddToCart puts the recipe into the user's shopping cart.
func (s *Service) AddToCart(ctx context.Context, userID, recipeID int64) (*models.Recipe, error) {
	return s.addRecipeRelation(ctx, userID, recipeID, s.Recipes.AddToCart, "recipe is already in the shopping cart")
}

// RemoveFromCart removes the recipe from the user's shopping cart.
func (s *Service) RemoveFromCart(ctx context.Context, userID, recipeID int64) error {
	return s.removeRecipeRelation(ctx, userID, recipeID, s.Recipes.RemoveFromCart, "recipe is not in the shopping cart")
}

type relationFunc func(ctx context.Context, userID, recipeID int64) error

func (s *Service) addRecipeRelation(ctx context.Context, userID, recipeID int64, add relationFunc, dupMsg string) (*models.Recipe, error) {
	recipe, err := s.Recipes.GetByID(ctx, recipeID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	if recipe == nil {
		return nil, ErrNotFound
	}

	if err := add(ctx, userID, recipeID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, validationErr("%s", dupMsg)
		}
		return nil, err
	}

	return recipe, nil
}

func (s *Service) removeRecipeRelation(ctx context.Context, userID, recipeID int64, remove relationFunc, missingMsg string) error {
	recipe, err := s.Recipes.GetByID(ctx, recipeID, userID)
	if err != nil {
		return fmt.Errorf("failed to get recipe: %w", err)
	}
	if recipe == nil {
		return ErrNotFound
	}

	if err := remove(ctx, userID, recipeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return validationErr("%s", missingMsg)
		}
		return err
	}

	return nil
}

// ShortCode returns the short code of a recipe for link sharing.
func (s *Service) ShortCode(ctx context.Context, recipeID int64) (string, error) {
	recipe, err := s.Recipes.GetByID(ctx, recipeID, 0)
	if err != nil {
		return "", fmt.Errorf("failed to get recipe: %w", err)
	}
	if recipe == nil {
		return "", ErrNotFound
	}
	return recipe.ShortCode, nil
}

// ResolveShortCode returns the recipe behind a short link code.
func (s *Service) ResolveShortCode(ctx context.Context, code string) (*models.Recipe, error) {
	recipe, err := s.Recipes.GetByShortCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve short code: %w", err)
	}
	if recipe == nil {
		return nil, ErrNotFound
	}
	return recipe, nil
}

// newShortCode generates a random short code, retrying on the unlikely
// collision with an existing recipe.
func (s *Service) newShortCode(ctx context.Context) (string, error) {
	for {
		buf := make([]byte, shortCodeLength)
		for i := range buf {
			buf[i] = shortCodeAlphabet[rand.IntN(len(shortCodeAlphabet))]
		}
		code := string(buf)

		exists, err := s.Recipes.ShortCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check short code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
}
