package suggestproducts

import (
	"storefront-workers/internal/models"
	"storefront-workers/internal/search"
)

type Input struct {
	Query         string `json:"query"`
	Limit         int    `json:"limit,omitempty"`
	RecordHistory bool   `json:"recordHistory,omitempty"`
}

// Output carries popular products and recent queries only for an empty query.
type Output struct {
	State       search.State     `json:"state"`
	Suggestions []models.Product `json:"suggestions"`
	Popular     []models.Product `json:"popular,omitempty"`
	History     []string         `json:"history,omitempty"`
}
