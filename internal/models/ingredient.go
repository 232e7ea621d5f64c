package models

// Ingredient is a shared dictionary entry reused across recipes. The pair
// (name, measurement unit) is unique: the same product measured in grams
// and in milliliters is two distinct ingredients.
type Ingredient struct {
	ID              int64  `json:"id" db:"id"`
	Name            string `json:"name" db:"name"`
	MeasurementUnit string `json:"measurement_unit" db:"measurement_unit"`
}
