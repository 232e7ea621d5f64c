package models

import "github.com/shopspring/decimal"

// ShoppingListEntry is a derived aggregation result: the total amount of
// one (ingredient name, measurement unit) pair across the recipes in a
// user's shopping cart. Entries are recomputed on every download and are
// never persisted.
type ShoppingListEntry struct {
	Name            string          `json:"name"`
	MeasurementUnit string          `json:"measurement_unit"`
	Total           decimal.Decimal `json:"total"`
}
