package catalog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/urbanfrill/storefront/internal/domain/product"
)

func fiveProducts() []product.Product {
	return []product.Product{
		{ID: 1, Name: "Sheer Curtain", Description: "Light linen", Price: 100, Category: "Curtains"},
		{ID: 2, Name: "Blackout Curtain", Description: "Thermal lining", Price: 200, Category: "Curtains"},
		{ID: 3, Name: "Floral Wallpaper", Description: "Vinyl finish", Price: 300, Category: "Wallpapers"},
		{ID: 4, Name: "Stripe Wallpaper", Description: "Matte LINEN texture", Price: 400, Category: "Wallpapers"},
		{ID: 5, Name: "Bedback", Description: "Premium fabric", Price: 500, Category: "Bedback"},
	}
}

func ids(products []product.Product) []int {
	out := make([]int, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

// ============================================
// Filter Tests
// ============================================

func TestApply_PriceRangeInclusive(t *testing.T) {
	got := Apply(fiveProducts(), Selection{
		Category: AllCategories,
		MinPrice: 150,
		MaxPrice: 450,
	})

	assert.Equal(t, []int{2, 3, 4}, ids(got))
}

func TestApply_BoundsAreInclusive(t *testing.T) {
	got := Apply(fiveProducts(), Selection{MinPrice: 200, MaxPrice: 400})

	assert.Equal(t, []int{2, 3, 4}, ids(got))
}

func TestApply_Category(t *testing.T) {
	tests := []struct {
		name     string
		category string
		want     []int
	}{
		{"all sentinel", AllCategories, []int{1, 2, 3, 4, 5}},
		{"empty means all", "", []int{1, 2, 3, 4, 5}},
		{"curtains", "Curtains", []int{1, 2}},
		{"unknown", "Rugs", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(fiveProducts(), Selection{Category: tt.category, MinPrice: 0, MaxPrice: 1000})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApply_QueryMatchesNameOrDescriptionCaseInsensitive(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []int
	}{
		{"name match", "wallpaper", []int{3, 4}},
		{"description match", "linen", []int{1, 4}},
		{"upper case query", "CURTAIN", []int{1, 2}},
		{"surrounding spaces", "  vinyl ", []int{3}},
		{"blank query passes all", "   ", []int{1, 2, 3, 4, 5}},
		{"no match", "sofa", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(fiveProducts(), Selection{Query: tt.query, MaxPrice: 1000})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApply_MalformedPriceCountsAsZero(t *testing.T) {
	products := []product.Product{
		{ID: 1, Price: math.NaN()},
		{ID: 2, Price: -20},
		{ID: 3, Price: 50},
	}

	got := Apply(products, Selection{MinPrice: 0, MaxPrice: 10})

	assert.Equal(t, []int{1, 2}, ids(got))
}

// ============================================
// Sort Tests
// ============================================

func TestApply_SortPriceAscIsStable(t *testing.T) {
	products := []product.Product{
		{ID: 1, Price: 300},
		{ID: 2, Price: 100},
		{ID: 3, Price: 300},
		{ID: 4, Price: 100},
	}

	got := Apply(products, Selection{MaxPrice: 1000, Sort: SortPriceAsc})

	assert.Equal(t, []int{2, 4, 1, 3}, ids(got))
}

func TestApply_SortPriceDescIsStable(t *testing.T) {
	products := []product.Product{
		{ID: 1, Price: 100},
		{ID: 2, Price: 300},
		{ID: 3, Price: 100},
		{ID: 4, Price: 300},
	}

	got := Apply(products, Selection{MaxPrice: 1000, Sort: SortPriceDesc})

	assert.Equal(t, []int{2, 4, 1, 3}, ids(got))
}

func TestApply_RelevanceKeepsCatalogOrder(t *testing.T) {
	products := []product.Product{{ID: 3, Price: 300}, {ID: 1, Price: 100}, {ID: 2, Price: 200}}

	got := Apply(products, Selection{MaxPrice: 1000, Sort: SortRelevance})

	assert.Equal(t, []int{3, 1, 2}, ids(got))
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	products := fiveProducts()

	_ = Apply(products, Selection{MaxPrice: 1000, Sort: SortPriceDesc})

	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(products))
}

func TestParseSortOrder(t *testing.T) {
	assert.Equal(t, SortPriceAsc, ParseSortOrder("price-asc"))
	assert.Equal(t, SortPriceDesc, ParseSortOrder("price-desc"))
	assert.Equal(t, SortRelevance, ParseSortOrder("relevance"))
	assert.Equal(t, SortRelevance, ParseSortOrder("newest"))
	assert.Equal(t, SortRelevance, ParseSortOrder(""))
}
