// Package catalog answers browsing queries over the static product catalog.
package catalog

import (
	"github.com/urbanfrill/storefront/internal/domain/product"
)

// Service serves catalog reads. It is safe for concurrent use because the
// catalog never changes.
type Service struct {
	catalog *product.Catalog
}

func NewService(c *product.Catalog) *Service {
	return &Service{catalog: c}
}

// Facets describes the filter controls a storefront page offers.
type Facets struct {
	Categories []string `json:"categories"`
	MinPrice   float64  `json:"min_price"`
	MaxPrice   float64  `json:"max_price"`
}

// Search applies sel after filling unset price bounds with the catalog's own
// bounds. A zero bound counts as unset.
func (s *Service) Search(sel Selection) []product.Product {
	min, max := s.catalog.PriceBounds()
	if sel.MinPrice == 0 {
		sel.MinPrice = min
	}
	if sel.MaxPrice == 0 {
		sel.MaxPrice = max
	}
	return Apply(s.catalog.All(), sel)
}

func (s *Service) Get(id int) (product.Product, error) {
	return s.catalog.Get(id)
}

// Facets lists the "All" sentinel followed by every category, plus the price
// bounds.
func (s *Service) Facets() Facets {
	min, max := s.catalog.PriceBounds()
	return Facets{
		Categories: append([]string{AllCategories}, s.catalog.Categories()...),
		MinPrice:   min,
		MaxPrice:   max,
	}
}
