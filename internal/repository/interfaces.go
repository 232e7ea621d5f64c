package repository

import (
	"context"
	"errors"

	"foodgram/internal/models"
)

// ErrDuplicate is returned when an insert violates a uniqueness constraint
// (e.g. favoriting the same recipe twice). ErrNotFound is returned when a
// targeted update or delete affected no rows.
var (
	ErrDuplicate = errors.New("duplicate entry")
	ErrNotFound  = errors.New("entry not found")
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, filters UserFilters) ([]*models.User, int, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
}

// TokenRepository defines the interface for auth token operations
type TokenRepository interface {
	Create(ctx context.Context, token *models.AuthToken) error
	GetByKey(ctx context.Context, key string) (*models.AuthToken, error)
	Delete(ctx context.Context, key string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// TagRepository defines the interface for tag data operations
type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) (*models.Tag, error)
	GetByID(ctx context.Context, id int64) (*models.Tag, error)
	GetByIDs(ctx context.Context, ids []int64) ([]models.Tag, error)
	List(ctx context.Context) ([]*models.Tag, error)
}

// IngredientRepository defines the interface for ingredient dictionary
// operations
type IngredientRepository interface {
	Create(ctx context.Context, ingredient *models.Ingredient) (*models.Ingredient, error)
	GetByID(ctx context.Context, id int64) (*models.Ingredient, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*models.Ingredient, error)
	List(ctx context.Context, filters IngredientFilters) ([]*models.Ingredient, error)
}

// RecipeRepository defines the interface for recipe data operations,
// including the per-user favorite and shopping cart relations.
type RecipeRepository interface {
	Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)
	GetByID(ctx context.Context, id int64, viewerID int64) (*models.Recipe, error)
	GetByShortCode(ctx context.Context, code string) (*models.Recipe, error)
	List(ctx context.Context, filters RecipeFilters) ([]*models.Recipe, int, error)
	Update(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)
	Delete(ctx context.Context, id int64) error
	ShortCodeExists(ctx context.Context, code string) (bool, error)
	CountByAuthor(ctx context.Context, authorID int64) (int, error)

	AddFavorite(ctx context.Context, userID, recipeID int64) error
	RemoveFavorite(ctx context.Context, userID, recipeID int64) error
	AddToCart(ctx context.Context, userID, recipeID int64) error
	RemoveFromCart(ctx context.Context, userID, recipeID int64) error

	// InCart returns the viewer's shopping cart recipes with their line
	// items resolved, ordered by when each recipe was added to the cart.
	InCart(ctx context.Context, userID int64) ([]*models.Recipe, error)
}

// FollowRepository defines the interface for subscription operations
type FollowRepository interface {
	Create(ctx context.Context, userID, authorID int64) error
	Delete(ctx context.Context, userID, authorID int64) error
	Exists(ctx context.Context, userID, authorID int64) (bool, error)
	// Authors returns the users the given user is subscribed to, ordered
	// by id, with the total count for pagination.
	Authors(ctx context.Context, userID int64, limit, offset int) ([]*models.User, int, error)
}

// UserFilters represents pagination options for listing users
type UserFilters struct {
	Limit  int
	Offset int
}

// IngredientFilters represents filters for the ingredient dictionary
type IngredientFilters struct {
	// Name restricts the result to ingredients whose name starts with the
	// given prefix (case-insensitive).
	Name string
}

// RecipeFilters represents filters for querying recipes
type RecipeFilters struct {
	AuthorID    *int64
	TagSlugs    []string
	FavoritedBy *int64
	InCartOf    *int64
	// ViewerID controls the is_favorited / is_in_shopping_cart flags;
	// zero means anonymous.
	ViewerID int64
	Limit    int
	Offset   int
}
