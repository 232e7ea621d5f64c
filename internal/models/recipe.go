package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts serialize as JSON numbers ("amount": 200), not quoted
	// strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Recipe is a published dish definition with an ordered list of ingredient
// line items.
type Recipe struct {
	ID          int64     `json:"id" db:"id"`
	AuthorID    int64     `json:"-" db:"author_id"`
	Name        string    `json:"name" db:"name"`
	Image       string    `json:"image" db:"image"`
	Text        string    `json:"text" db:"text"`
	CookingTime int       `json:"cooking_time" db:"cooking_time"`
	ShortCode   string    `json:"-" db:"short_code"`
	PubDate     time.Time `json:"-" db:"pub_date"`

	Author      *User              `json:"author,omitempty"`
	Tags        []Tag              `json:"tags"`
	Ingredients []RecipeIngredient `json:"ingredients"`

	// Per-request flags relative to the authenticated viewer.
	IsFavorited      bool `json:"is_favorited" db:"-"`
	IsInShoppingCart bool `json:"is_in_shopping_cart" db:"-"`
}

// RecipeIngredient is one line item of a recipe: an ingredient reference
// with the required amount in the ingredient's measurement unit.
type RecipeIngredient struct {
	IngredientID    int64           `json:"id" db:"ingredient_id"`
	Name            string          `json:"name" db:"name"`
	MeasurementUnit string          `json:"measurement_unit" db:"measurement_unit"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
}
