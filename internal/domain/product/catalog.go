package product

// builtin is the storefront's catalog. It is defined at build time and never
// mutated at runtime.
var builtin = []Product{
	{
		ID:          1,
		Name:        "Elegant Curtains",
		Description: "Custom made | Free on-site measuring",
		Price:       299,
		Category:    "Curtains",
		Images: []string{
			"/images/hero-left.jpg",
			"/images/curtain-2.jpg",
			"/images/curtain-3.jpg",
		},
	},
	{
		ID:          2,
		Name:        "Wallpapers - Floral",
		Description: "Vinyl, easy-clean finish",
		Price:       799,
		Category:    "Wallpapers",
		Images: []string{
			"/images/hero-topright.jpg",
			"/images/wallpaper-2.jpg",
		},
	},
	{
		ID:          3,
		Name:        "Upholstered Bedback",
		Description: "Premium fabric, stitched",
		Price:       1499,
		Category:    "Bedback",
		Images: []string{
			"/images/hero-bottomright.jpg",
			"/images/bedback-2.jpg",
		},
	},
}

// Catalog is a read-only, ordered product list.
type Catalog struct {
	products []Product
	byID     map[int]int
}

// NewCatalog copies products into a Catalog, keeping their order.
func NewCatalog(products []Product) *Catalog {
	c := &Catalog{
		products: make([]Product, len(products)),
		byID:     make(map[int]int, len(products)),
	}
	for i, p := range products {
		p.Images = append([]string(nil), p.Images...)
		c.products[i] = p
		c.byID[p.ID] = i
	}
	return c
}

// Builtin returns the storefront's own catalog.
func Builtin() *Catalog {
	return NewCatalog(builtin)
}

// All returns a copy of every product in catalog order.
func (c *Catalog) All() []Product {
	out := make([]Product, len(c.products))
	for i, p := range c.products {
		p.Images = append([]string(nil), p.Images...)
		out[i] = p
	}
	return out
}

func (c *Catalog) Get(id int) (Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	p := c.products[i]
	p.Images = append([]string(nil), p.Images...)
	return p, nil
}

// Categories returns the distinct non-empty categories in first-seen order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out
}

// PriceBounds returns the lowest and highest effective price, or zeros for an
// empty catalog.
func (c *Catalog) PriceBounds() (min, max float64) {
	for i, p := range c.products {
		price := p.EffectivePrice()
		if i == 0 || price < min {
			min = price
		}
		if i == 0 || price > max {
			max = price
		}
	}
	return min, max
}
