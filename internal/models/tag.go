package models

// Tag is a label recipes can be filtered by (e.g. breakfast, dinner).
type Tag struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}
