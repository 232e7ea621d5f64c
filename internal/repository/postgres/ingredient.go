package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"foodgram/internal/models"
	"foodgram/internal/repository"
)

type ingredientRepository struct {
	db *sql.DB
}

// NewIngredientRepository creates a new ingredient repository
func NewIngredientRepository(db *sql.DB) repository.IngredientRepository {
	return &ingredientRepository{db: db}
}

func (r *ingredientRepository) Create(ctx context.Context, ingredient *models.Ingredient) (*models.Ingredient, error) {
	query := `
		INSERT INTO ingredients (name, measurement_unit)
		VALUES ($1, $2)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		ingredient.Name,
		ingredient.MeasurementUnit,
	).Scan(&ingredient.ID)

	if err != nil {
		if dup := asDuplicate(err); dup == repository.ErrDuplicate {
			return nil, dup
		}
		return nil, fmt.Errorf("failed to create ingredient: %w", err)
	}

	return ingredient, nil
}

func (r *ingredientRepository) GetByID(ctx context.Context, id int64) (*models.Ingredient, error) {
	query := `SELECT id, name, measurement_unit FROM ingredients WHERE id = $1`

	ingredient := &models.Ingredient{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ingredient.ID,
		&ingredient.Name,
		&ingredient.MeasurementUnit,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}

	return ingredient, nil
}

func (r *ingredientRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.Ingredient, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id, name, measurement_unit FROM ingredients WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer rows.Close()

	return scanIngredients(rows)
}

func (r *ingredientRepository) List(ctx context.Context, filters repository.IngredientFilters) ([]*models.Ingredient, error) {
	query := `SELECT id, name, measurement_unit FROM ingredients`
	args := []any{}

	if filters.Name != "" {
		query += ` WHERE name ILIKE $1 || '%'`
		args = append(args, filters.Name)
	}

	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer rows.Close()

	return scanIngredients(rows)
}

func scanIngredients(rows *sql.Rows) ([]*models.Ingredient, error) {
	var ingredients []*models.Ingredient
	for rows.Next() {
		ingredient := &models.Ingredient{}
		if err := rows.Scan(
			&ingredient.ID,
			&ingredient.Name,
			&ingredient.MeasurementUnit,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ingredients = append(ingredients, ingredient)
	}

	return ingredients, rows.Err()
}
