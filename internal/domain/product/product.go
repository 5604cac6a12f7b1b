package product

import (
	"errors"
	"math"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// Product is an immutable catalog entry.
type Product struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"desc"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Images      []string `json:"images"`
}

// EffectivePrice is the price used for filtering, sorting and totals.
// Negative or non-finite prices count as 0.
func (p Product) EffectivePrice() float64 {
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price < 0 {
		return 0
	}
	return p.Price
}

// PrimaryImage returns the first image reference, or "" when there is none.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
