package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"foodgram/internal/models"
	"foodgram/internal/repository"
)

type recipeRepository struct {
	db *sql.DB
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *sql.DB) repository.RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO recipes (author_id, name, image, text, cooking_time, short_code, pub_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	recipe.PubDate = time.Now()

	err = tx.QueryRowContext(ctx, query,
		recipe.AuthorID,
		recipe.Name,
		recipe.Image,
		recipe.Text,
		recipe.CookingTime,
		recipe.ShortCode,
		recipe.PubDate,
	).Scan(&recipe.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	if err := insertRelations(ctx, tx, recipe); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit recipe: %w", err)
	}

	return recipe, nil
}

func (r *recipeRepository) Update(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE recipes
		SET name = $2, image = $3, text = $4, cooking_time = $5
		WHERE id = $1`

	result, err := tx.ExecContext(ctx, query,
		recipe.ID,
		recipe.Name,
		recipe.Image,
		recipe.Text,
		recipe.CookingTime,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, repository.ErrNotFound
	}

	// Line items and tag links are replaced wholesale on update.
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipe.ID); err != nil {
		return nil, fmt.Errorf("failed to clear recipe ingredients: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = $1`, recipe.ID); err != nil {
		return nil, fmt.Errorf("failed to clear recipe tags: %w", err)
	}

	if err := insertRelations(ctx, tx, recipe); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit recipe update: %w", err)
	}

	return recipe, nil
}

func insertRelations(ctx context.Context, tx *sql.Tx, recipe *models.Recipe) error {
	for _, item := range recipe.Ingredients {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount)
			VALUES ($1, $2, $3)`,
			recipe.ID, item.IngredientID, item.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert recipe ingredient: %w", err)
		}
	}

	for _, tag := range recipe.Tags {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO recipe_tags (recipe_id, tag_id)
			VALUES ($1, $2)`,
			recipe.ID, tag.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert recipe tag: %w", err)
		}
	}

	return nil
}

// recipeColumns returns the select list for a recipe row with its author
// and the viewer-relative flags. viewerArg is the placeholder index that
// carries the viewer's user id.
func recipeColumns(viewerArg int) string {
	return fmt.Sprintf(`
	r.id, r.author_id, r.name, r.image, r.text, r.cooking_time, r.short_code, r.pub_date,
	u.id, u.email, u.username, u.first_name, u.last_name, u.avatar,
	EXISTS (SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = $%d),
	EXISTS (SELECT 1 FROM shopping_cart sc WHERE sc.recipe_id = r.id AND sc.user_id = $%d),
	EXISTS (SELECT 1 FROM follows fw WHERE fw.author_id = r.author_id AND fw.user_id = $%d)`,
		viewerArg, viewerArg, viewerArg)
}

func scanRecipe(row interface{ Scan(...any) error }) (*models.Recipe, error) {
	recipe := &models.Recipe{Author: &models.User{}}
	err := row.Scan(
		&recipe.ID,
		&recipe.AuthorID,
		&recipe.Name,
		&recipe.Image,
		&recipe.Text,
		&recipe.CookingTime,
		&recipe.ShortCode,
		&recipe.PubDate,
		&recipe.Author.ID,
		&recipe.Author.Email,
		&recipe.Author.Username,
		&recipe.Author.FirstName,
		&recipe.Author.LastName,
		&recipe.Author.Avatar,
		&recipe.IsFavorited,
		&recipe.IsInShoppingCart,
		&recipe.Author.IsSubscribed,
	)
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

func (r *recipeRepository) GetByID(ctx context.Context, id int64, viewerID int64) (*models.Recipe, error) {
	query := `
		SELECT ` + recipeColumns(1) + `
		FROM recipes r
		JOIN users u ON u.id = r.author_id
		WHERE r.id = $2`

	recipe, err := scanRecipe(r.db.QueryRowContext(ctx, query, viewerID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	if err := r.attachRelations(ctx, []*models.Recipe{recipe}); err != nil {
		return nil, err
	}

	return recipe, nil
}

func (r *recipeRepository) GetByShortCode(ctx context.Context, code string) (*models.Recipe, error) {
	query := `
		SELECT id, author_id, name, image, text, cooking_time, short_code, pub_date
		FROM recipes
		WHERE short_code = $1`

	recipe := &models.Recipe{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&recipe.ID,
		&recipe.AuthorID,
		&recipe.Name,
		&recipe.Image,
		&recipe.Text,
		&recipe.CookingTime,
		&recipe.ShortCode,
		&recipe.PubDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe by short code: %w", err)
	}

	return recipe, nil
}

func (r *recipeRepository) List(ctx context.Context, filters repository.RecipeFilters) ([]*models.Recipe, int, error) {
	where := []string{}
	args := []any{}

	if filters.AuthorID != nil {
		args = append(args, *filters.AuthorID)
		where = append(where, fmt.Sprintf("r.author_id = $%d", len(args)))
	}
	if len(filters.TagSlugs) > 0 {
		args = append(args, pq.Array(filters.TagSlugs))
		where = append(where, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM recipe_tags rt
			JOIN tags t ON t.id = rt.tag_id
			WHERE rt.recipe_id = r.id AND t.slug = ANY($%d))`, len(args)))
	}
	if filters.FavoritedBy != nil {
		args = append(args, *filters.FavoritedBy)
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM favorites f2 WHERE f2.recipe_id = r.id AND f2.user_id = $%d)", len(args)))
	}
	if filters.InCartOf != nil {
		args = append(args, *filters.InCartOf)
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM shopping_cart sc2 WHERE sc2.recipe_id = r.id AND sc2.user_id = $%d)", len(args)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM recipes r` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	args = append(args, filters.ViewerID, filters.Limit, filters.Offset)
	viewerArg := len(args) - 2
	query := `
		SELECT ` + recipeColumns(viewerArg) + `
		FROM recipes r
		JOIN users u ON u.id = r.author_id` + whereClause + `
		ORDER BY r.pub_date DESC
		LIMIT $` + fmt.Sprint(len(args)-1) + ` OFFSET $` + fmt.Sprint(len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	var recipes []*models.Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachRelations(ctx, recipes); err != nil {
		return nil, 0, err
	}

	return recipes, total, nil
}

// attachRelations loads tags and ingredient line items for each recipe.
func (r *recipeRepository) attachRelations(ctx context.Context, recipes []*models.Recipe) error {
	for _, recipe := range recipes {
		tags, err := r.recipeTags(ctx, recipe.ID)
		if err != nil {
			return err
		}
		recipe.Tags = tags

		items, err := r.recipeIngredients(ctx, recipe.ID)
		if err != nil {
			return err
		}
		recipe.Ingredients = items
	}
	return nil
}

func (r *recipeRepository) recipeTags(ctx context.Context, recipeID int64) ([]models.Tag, error) {
	query := `
		SELECT t.id, t.name, t.slug
		FROM tags t
		JOIN recipe_tags rt ON rt.tag_id = t.id
		WHERE rt.recipe_id = $1
		ORDER BY t.name`

	rows, err := r.db.QueryContext(ctx, query, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe tags: %w", err)
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan recipe tag: %w", err)
		}
		tags = append(tags, tag)
	}

	return tags, rows.Err()
}

func (r *recipeRepository) recipeIngredients(ctx context.Context, recipeID int64) ([]models.RecipeIngredient, error) {
	query := `
		SELECT i.id, i.name, i.measurement_unit, ri.amount
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = $1
		ORDER BY ri.id`

	rows, err := r.db.QueryContext(ctx, query, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe ingredients: %w", err)
	}
	defer rows.Close()

	items := []models.RecipeIngredient{}
	for rows.Next() {
		var item models.RecipeIngredient
		if err := rows.Scan(&item.IngredientID, &item.Name, &item.MeasurementUnit, &item.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan recipe ingredient: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *recipeRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *recipeRepository) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM recipes WHERE short_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check short code: %w", err)
	}
	return exists, nil
}

func (r *recipeRepository) CountByAuthor(ctx context.Context, authorID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipes WHERE author_id = $1`, authorID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}

func (r *recipeRepository) AddFavorite(ctx context.Context, userID, recipeID int64) error {
	return r.addRelation(ctx, "favorites", userID, recipeID)
}

func (r *recipeRepository) RemoveFavorite(ctx context.Context, userID, recipeID int64) error {
	return r.removeRelation(ctx, "favorites", userID, recipeID)
}

func (r *recipeRepository) AddToCart(ctx context.Context, userID, recipeID int64) error {
	return r.addRelation(ctx, "shopping_cart", userID, recipeID)
}

func (r *recipeRepository) RemoveFromCart(ctx context.Context, userID, recipeID int64) error {
	return r.removeRelation(ctx, "shopping_cart", userID, recipeID)
}

func (r *recipeRepository) addRelation(ctx context.Context, table string, userID, recipeID int64) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, recipe_id, created_at)
		VALUES ($1, $2, $3)`, table)

	_, err := r.db.ExecContext(ctx, query, userID, recipeID, time.Now())
	if err != nil {
		if dup := asDuplicate(err); dup == repository.ErrDuplicate {
			return dup
		}
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}

	return nil
}

func (r *recipeRepository) removeRelation(ctx context.Context, table string, userID, recipeID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND recipe_id = $2`, table)

	result, err := r.db.ExecContext(ctx, query, userID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *recipeRepository) InCart(ctx context.Context, userID int64) ([]*models.Recipe, error) {
	query := `
		SELECT r.id, r.author_id, r.name, r.image, r.text, r.cooking_time, r.short_code, r.pub_date
		FROM recipes r
		JOIN shopping_cart sc ON sc.recipe_id = r.id
		WHERE sc.user_id = $1
		ORDER BY sc.created_at, sc.id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shopping cart: %w", err)
	}
	defer rows.Close()

	var recipes []*models.Recipe
	for rows.Next() {
		recipe := &models.Recipe{}
		if err := rows.Scan(
			&recipe.ID,
			&recipe.AuthorID,
			&recipe.Name,
			&recipe.Image,
			&recipe.Text,
			&recipe.CookingTime,
			&recipe.ShortCode,
			&recipe.PubDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cart recipe: %w", err)
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, recipe := range recipes {
		items, err := r.recipeIngredients(ctx, recipe.ID)
		if err != nil {
			return nil, err
		}
		recipe.Ingredients = items
	}

	return recipes, nil
}
