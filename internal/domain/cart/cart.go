package cart

import (
	"math"

	"github.com/shopspring/decimal"
)

// GuestKey is the identity key used while nobody is signed in.
const GuestKey = "guest"

// StorageKey returns the local storage key for an identity key, e.g.
// "uf_cart_guest_v1" or "uf_cart_<uid>_v1".
func StorageKey(identityKey string) string {
	if identityKey == "" {
		identityKey = GuestKey
	}
	return "uf_cart_" + identityKey + "_v1"
}

// Line is one product's entry in a cart. Price is a snapshot taken when the
// product was added and is never re-synced with the catalog.
type Line struct {
	ProductID int     `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Quantity  int     `json:"qty"`
}

// Cart is an ordered list of lines with at most one line per product.
type Cart struct {
	Lines []Line `json:"lines"`
}

// New builds a cart from stored lines, applying the same coercions as AddItem
// and merging any duplicate product lines.
func New(lines []Line) *Cart {
	c := &Cart{Lines: make([]Line, 0, len(lines))}
	for _, l := range lines {
		c.AddItem(l)
	}
	return c
}

// AddItem normalizes item and merges it into the cart. Quantity below 1
// becomes 1 and malformed prices become 0; nothing is rejected.
func (c *Cart) AddItem(item Line) {
	item = normalizeLine(item)
	for i := range c.Lines {
		if c.Lines[i].ProductID == item.ProductID {
			c.Lines[i].Quantity += item.Quantity
			return
		}
	}
	c.Lines = append(c.Lines, item)
}

// UpdateQuantity sets the quantity of productID to max(1, qty). It reports
// whether a line was found.
func (c *Cart) UpdateQuantity(productID, qty int) bool {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity = clampQuantity(qty)
			return true
		}
	}
	return false
}

// RemoveItem deletes the line for productID if present and reports whether
// anything changed.
func (c *Cart) RemoveItem(productID int) bool {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Clear() {
	c.Lines = nil
}

// ItemCount is the sum of all quantities.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Subtotal is the sum of price*quantity over all lines.
func (c *Cart) Subtotal() float64 {
	return SubtotalDecimal(c.Lines).InexactFloat64()
}

// SubtotalDecimal sums price*quantity without float drift.
func SubtotalDecimal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(decimal.NewFromFloat(coercePrice(l.Price)).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// Snapshot returns a copy of the lines that callers may keep.
func (c *Cart) Snapshot() []Line {
	out := make([]Line, len(c.Lines))
	copy(out, c.Lines)
	return out
}

func normalizeLine(l Line) Line {
	l.Image = NormalizeImage(l.Image)
	l.Quantity = clampQuantity(l.Quantity)
	l.Price = coercePrice(l.Price)
	return l
}

func clampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

func coercePrice(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0
	}
	return p
}
