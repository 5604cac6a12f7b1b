package catalog

import (
	"sort"
	"strings"

	"github.com/urbanfrill/storefront/internal/domain/product"
)

// AllCategories is the category selection that disables category filtering.
const AllCategories = "All"

// SortOrder selects how filtered products are ordered.
type SortOrder string

const (
	SortRelevance SortOrder = "relevance"
	SortPriceAsc  SortOrder = "price-asc"
	SortPriceDesc SortOrder = "price-desc"
)

// ParseSortOrder maps unknown values to SortRelevance.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(s) {
	case SortPriceAsc, SortPriceDesc:
		return SortOrder(s)
	default:
		return SortRelevance
	}
}

// Selection is the shopper's current filter state. Both price bounds are
// inclusive.
type Selection struct {
	Category string    `json:"category"`
	Query    string    `json:"query"`
	MinPrice float64   `json:"min"`
	MaxPrice float64   `json:"max"`
	Sort     SortOrder `json:"sort"`
}

// Matches reports whether p passes every filter in sel.
func (sel Selection) Matches(p product.Product) bool {
	if sel.Category != "" && sel.Category != AllCategories && p.Category != sel.Category {
		return false
	}

	price := p.EffectivePrice()
	if price < sel.MinPrice || price > sel.MaxPrice {
		return false
	}

	q := strings.ToLower(strings.TrimSpace(sel.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}

// Apply filters products and orders the result. The input slice is not
// modified.
func Apply(products []product.Product, sel Selection) []product.Product {
	out := make([]product.Product, 0, len(products))
	for _, p := range products {
		if sel.Matches(p) {
			out = append(out, p)
		}
	}

	switch sel.Sort {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].EffectivePrice() < out[j].EffectivePrice()
		})
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].EffectivePrice() > out[j].EffectivePrice()
		})
	}
	return out
}
