package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"foodgram/internal/models"
	"foodgram/internal/repository"
)

type followRepository struct {
	db *sql.DB
}

// NewFollowRepository creates a new subscription repository
func NewFollowRepository(db *sql.DB) repository.FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Create(ctx context.Context, userID, authorID int64) error {
	query := `
		INSERT INTO follows (user_id, author_id, created_at)
		VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, userID, authorID, time.Now())
	if err != nil {
		if dup := asDuplicate(err); dup == repository.ErrDuplicate {
			return dup
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

func (r *followRepository) Delete(ctx context.Context, userID, authorID int64) error {
	query := `DELETE FROM follows WHERE user_id = $1 AND author_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, authorID)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
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

func (r *followRepository) Exists(ctx context.Context, userID, authorID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM follows WHERE user_id = $1 AND author_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, authorID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check subscription: %w", err)
	}

	return exists, nil
}

func (r *followRepository) Authors(ctx context.Context, userID int64, limit, offset int) ([]*models.User, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM follows WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	query := `
		SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.avatar, u.created_at, u.updated_at
		FROM users u
		JOIN follows f ON f.author_id = u.id
		WHERE f.user_id = $1
		ORDER BY u.id
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var authors []*models.User
	for rows.Next() {
		author := &models.User{IsSubscribed: true}
		if err := rows.Scan(
			&author.ID,
			&author.Email,
			&author.Username,
			&author.FirstName,
			&author.LastName,
			&author.Avatar,
			&author.CreatedAt,
			&author.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan subscription author: %w", err)
		}
		authors = append(authors, author)
	}

	return authors, total, rows.Err()
}
