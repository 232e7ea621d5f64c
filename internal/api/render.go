package api

import (
	"bytes"
	"fmt"

	"foodgram/internal/models"
)

// renderShoppingList formats aggregated entries as the downloadable text
// artifact. Entry order is preserved as produced by the aggregation.
func renderShoppingList(entries []models.ShoppingListEntry) []byte {
	var buf bytes.Buffer
	buf.WriteString("Shopping list\n\n")
	for _, entry := range entries {
		fmt.Fprintf(&buf, "%s - %s (%s)\n", entry.Name, entry.Total.String(), entry.MeasurementUnit)
	}
	return buf.Bytes()
}
