// Package search implements product suggestions for the storefront search box, the
// recent-query history and the debounced live-search session.
package search

import (
	"sort"
	"strings"

	"storefront-workers/internal/models"
)

// DefaultMaxSuggestions is the number of suggestions shown under the search box.
const DefaultMaxSuggestions = 8

// State distinguishes an empty query from a query with no matches.
type State string

const (
	// StateIdle means the query was empty; callers show popular products and history.
	StateIdle      State = "idle"
	StateResults   State = "results"
	StateNoResults State = "no_results"
)

// Result is recomputed per query and never stored.
type Result struct {
	State    State            `json:"state"`
	Products []models.Product `json:"suggestions"`
}

// Tokenize lower-cases the query and splits it on whitespace.
func Tokenize(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Suggest ranks catalog against query with the default limit.
func Suggest(query string, catalog []models.Product) Result {
	return Engine{MaxSuggestions: DefaultMaxSuggestions}.Suggest(query, catalog)
}

// Engine holds the tunables for Suggest.
type Engine struct {
	MaxSuggestions int
}

func NewEngine(maxSuggestions int) Engine {
	if maxSuggestions <= 0 {
		maxSuggestions = DefaultMaxSuggestions
	}
	return Engine{MaxSuggestions: maxSuggestions}
}

// Suggest keeps products where every token occurs in the title, category or brand.
// Titles containing the whole query rank first, then rating descending; equal products
// keep catalog order.
func (e Engine) Suggest(query string, catalog []models.Product) Result {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return Result{State: StateIdle, Products: []models.Product{}}
	}
	whole := strings.ToLower(strings.TrimSpace(query))

	type candidate struct {
		product models.Product
		exact   bool
	}
	matches := make([]candidate, 0, len(catalog))
	for _, p := range catalog {
		if !matchesAll(p, tokens) {
			continue
		}
		matches = append(matches, candidate{
			product: p,
			exact:   strings.Contains(strings.ToLower(p.Title), whole),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].exact != matches[j].exact {
			return matches[i].exact
		}
		return matches[i].product.Rating > matches[j].product.Rating
	})

	limit := e.MaxSuggestions
	if limit <= 0 {
		limit = DefaultMaxSuggestions
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]models.Product, len(matches))
	for i, m := range matches {
		out[i] = m.product
	}
	if len(out) == 0 {
		return Result{State: StateNoResults, Products: out}
	}
	return Result{State: StateResults, Products: out}
}

func matchesAll(p models.Product, tokens []string) bool {
	title := strings.ToLower(p.Title)
	category := strings.ToLower(p.Category)
	brand := strings.ToLower(p.Brand)

	for _, tok := range tokens {
		if !strings.Contains(title, tok) && !strings.Contains(category, tok) && !strings.Contains(brand, tok) {
			return false
		}
	}
	return true
}

// Popular returns the n highest-rated products for the idle state.
func Popular(catalog []models.Product, n int) []models.Product {
	sorted := make([]models.Product, len(catalog))
	copy(sorted, catalog)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rating > sorted[j].Rating
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
