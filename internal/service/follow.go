package service

import (
	"context"
	"errors"
	"fmt"

	"foodgram/internal/models"
	"foodgram/internal/repository"
)

// SubscriptionItem is one entry of the subscriptions listing: an author
// with a preview of their recipes and the total recipe count.
type SubscriptionItem struct {
	User         *models.User
	Recipes      []*models.Recipe
	RecipesCount int
}

// Subscribe makes the user follow the author's recipes and returns the
// author with a recipe preview, the same shape the subscriptions listing
// uses.
func (s *Service) Subscribe(ctx context.Context, userID, authorID int64, recipesLimit int) (*SubscriptionItem, error) {
	if userID == authorID {
		return nil, ErrSelfFollow
	}

	author, err := s.Users.GetByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get author: %w", err)
	}
	if author == nil {
		return nil, ErrNotFound
	}

	if err := s.Follows.Create(ctx, userID, authorID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, validationErr("already subscribed to this user")
		}
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	author.IsSubscribed = true
	s.logger.Infof("User %d subscribed to author %d", userID, authorID)

	item, err := s.subscriptionItem(ctx, userID, author, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Unsubscribe removes the subscription. A missing subscription is a
// client error, not a server fault.
func (s *Service) Unsubscribe(ctx context.Context, userID, authorID int64) error {
	author, err := s.Users.GetByID(ctx, authorID)
	if err != nil {
		return fmt.Errorf("failed to get author: %w", err)
	}
	if author == nil {
		return ErrNotFound
	}

	if err := s.Follows.Delete(ctx, userID, authorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return validationErr("not subscribed to this user")
		}
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}

	return nil
}

// Subscriptions returns a page of the user's followed authors, each with
// up to recipesLimit of their recipes (0 means all).
func (s *Service) Subscriptions(ctx context.Context, userID int64, limit, offset, recipesLimit int) ([]SubscriptionItem, int, error) {
	authors, total, err := s.Follows.Authors(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	items := make([]SubscriptionItem, 0, len(authors))
	for _, author := range authors {
		item, err := s.subscriptionItem(ctx, userID, author, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}

	return items, total, nil
}

// subscriptionItem builds one listing entry: the author, their recipe
// count and up to recipesLimit of their recipes (0 means all).
func (s *Service) subscriptionItem(ctx context.Context, viewerID int64, author *models.User, recipesLimit int) (SubscriptionItem, error) {
	count, err := s.Recipes.CountByAuthor(ctx, author.ID)
	if err != nil {
		return SubscriptionItem{}, fmt.Errorf("failed to count author recipes: %w", err)
	}

	previewLimit := count
	if recipesLimit > 0 && recipesLimit < count {
		previewLimit = recipesLimit
	}

	var recipes []*models.Recipe
	if previewLimit > 0 {
		authorID := author.ID
		recipes, _, err = s.Recipes.List(ctx, repository.RecipeFilters{
			AuthorID: &authorID,
			ViewerID: viewerID,
			Limit:    previewLimit,
		})
		if err != nil {
			return SubscriptionItem{}, fmt.Errorf("failed to list author recipes: %w", err)
		}
	}

	return SubscriptionItem{
		User:         author,
		Recipes:      recipes,
		RecipesCount: count,
	}, nil
}
