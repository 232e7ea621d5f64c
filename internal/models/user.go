package models

import "time"

// User represents a registered account that can publish recipes, favorite
// other users' recipes and subscribe to authors.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Username     string    `json:"username" db:"username"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Avatar       string    `json:"avatar" db:"avatar"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"-" db:"created_at"`
	UpdatedAt    time.Time `json:"-" db:"updated_at"`

	// IsSubscribed reports whether the requesting user follows this one.
	// Computed per request, never persisted.
	IsSubscribed bool `json:"is_subscribed" db:"-"`
}
