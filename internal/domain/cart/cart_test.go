package cart

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// StorageKey Tests
// ============================================

func TestStorageKey(t *testing.T) {
	tests := []struct {
		name        string
		identityKey string
		expected    string
	}{
		{"guest", GuestKey, "uf_cart_guest_v1"},
		{"empty falls back to guest", "", "uf_cart_guest_v1"},
		{"user id", "uid-123", "uf_cart_uid-123_v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StorageKey(tt.identityKey))
		})
	}
}

// ============================================
// AddItem Tests
// ============================================

func TestCart_AddItem_MergesByProductID(t *testing.T) {
	c := New(nil)

	c.AddItem(Line{ProductID: 1, Name: "Elegant Curtains", Price: 500, Quantity: 2})
	c.AddItem(Line{ProductID: 1, Name: "Elegant Curtains", Price: 500, Quantity: 1})

	require.Len(t, c.Lines, 1)
	assert.Equal(t, 3, c.Lines[0].Quantity)
	assert.Equal(t, 1500.0, c.Subtotal())
	assert.Equal(t, 3, c.ItemCount())
}

func TestCart_AddItem_ClampsEachQuantityBeforeSumming(t *testing.T) {
	c := New(nil)

	c.AddItem(Line{ProductID: 7, Quantity: 0})
	c.AddItem(Line{ProductID: 7, Quantity: -4})
	c.AddItem(Line{ProductID: 7, Quantity: 3})

	require.Len(t, c.Lines, 1)
	assert.Equal(t, 5, c.Lines[0].Quantity)
}

func TestCart_AddItem_AppendsInOrder(t *testing.T) {
	c := New(nil)

	c.AddItem(Line{ProductID: 2, Quantity: 1})
	c.AddItem(Line{ProductID: 1, Quantity: 1})
	c.AddItem(Line{ProductID: 3, Quantity: 1})

	var got []int
	for _, l := range c.Lines {
		got = append(got, l.ProductID)
	}
	assert.Equal(t, []int{2, 1, 3}, got)
}

func TestCart_AddItem_CoercesMalformedPrice(t *testing.T) {
	c := New(nil)

	c.AddItem(Line{ProductID: 1, Price: math.NaN(), Quantity: 1})
	c.AddItem(Line{ProductID: 2, Price: -10, Quantity: 1})

	assert.Equal(t, 0.0, c.Lines[0].Price)
	assert.Equal(t, 0.0, c.Lines[1].Price)
	assert.Equal(t, 0.0, c.Subtotal())
}

func TestCart_AddItem_NormalizesImage(t *testing.T) {
	c := New(nil)

	c.AddItem(Line{ProductID: 1, Image: "/images/hero-left.jpg"})

	assert.Equal(t, "images/hero-left.jpg", c.Lines[0].Image)
}

func TestCart_AddItem_KeepsFirstPriceSnapshot(t *testing.T) {
	c := New(nil)

	c.AddItem(Line{ProductID: 1, Price: 299, Quantity: 1})
	c.AddItem(Line{ProductID: 1, Price: 349, Quantity: 1})

	assert.Equal(t, 299.0, c.Lines[0].Price)
	assert.Equal(t, 598.0, c.Subtotal())
}

// ============================================
// UpdateQuantity / RemoveItem / Clear Tests
// ============================================

func TestCart_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name     string
		qty      int
		expected int
	}{
		{"positive", 4, 4},
		{"zero clamps to one", 0, 1},
		{"negative clamps to one", -3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New([]Line{{ProductID: 1, Quantity: 2}})

			found := c.UpdateQuantity(1, tt.qty)

			assert.True(t, found)
			assert.Equal(t, tt.expected, c.Lines[0].Quantity)
		})
	}
}

func TestCart_UpdateQuantity_MissingProductIsNoop(t *testing.T) {
	c := New([]Line{{ProductID: 1, Quantity: 2}})
	before := c.Snapshot()

	found := c.UpdateQuantity(99, 5)

	assert.False(t, found)
	assert.Equal(t, before, c.Snapshot())
}

func TestCart_RemoveItem_Idempotent(t *testing.T) {
	c := New([]Line{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}})

	assert.True(t, c.RemoveItem(1))
	after := c.Snapshot()
	assert.False(t, c.RemoveItem(1))
	assert.False(t, c.RemoveItem(42))

	assert.Equal(t, after, c.Snapshot())
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.Lines[0].ProductID)
}

func TestCart_Clear(t *testing.T) {
	c := New([]Line{{ProductID: 1, Price: 10, Quantity: 2}})

	c.Clear()

	assert.Equal(t, 0, c.ItemCount())
	assert.Equal(t, 0.0, c.Subtotal())
	assert.Empty(t, c.Snapshot())
}

// ============================================
// Load / Round-trip Tests
// ============================================

func TestNew_MergesDuplicatesAndNormalizes(t *testing.T) {
	c := New([]Line{
		{ProductID: 1, Quantity: 0, Image: "./images/a.jpg"},
		{ProductID: 1, Quantity: 2, Image: "ignored.jpg"},
	})

	require.Len(t, c.Lines, 1)
	assert.Equal(t, 3, c.Lines[0].Quantity)
	assert.Equal(t, "images/a.jpg", c.Lines[0].Image)
}

func TestCart_JSONRoundTrip(t *testing.T) {
	c := New([]Line{
		{ProductID: 1, Name: "Elegant Curtains", Price: 299, Image: "/images/hero-left.jpg", Quantity: 2},
		{ProductID: 3, Name: "Upholstered Bedback", Price: 1499, Image: "images/bedback-2.jpg", Quantity: 1},
	})

	raw, err := json.Marshal(c.Snapshot())
	require.NoError(t, err)

	var lines []Line
	require.NoError(t, json.Unmarshal(raw, &lines))
	reloaded := New(lines)

	assert.Equal(t, c.Snapshot(), reloaded.Snapshot())
}

func TestLine_JSONFieldNames(t *testing.T) {
	raw, err := json.Marshal(Line{ProductID: 2, Name: "Wallpapers - Floral", Price: 799, Image: "images/x.jpg", Quantity: 1})
	require.NoError(t, err)

	assert.JSONEq(t, `{"id":2,"name":"Wallpapers - Floral","price":799,"image":"images/x.jpg","qty":1}`, string(raw))
}

func TestSnapshot_IsACopy(t *testing.T) {
	c := New([]Line{{ProductID: 1, Quantity: 1}})

	snap := c.Snapshot()
	snap[0].Quantity = 50

	assert.Equal(t, 1, c.Lines[0].Quantity)
}

func TestSubtotalDecimal_NoFloatDrift(t *testing.T) {
	lines := []Line{{Price: 0.1, Quantity: 1}, {Price: 0.2, Quantity: 1}}

	assert.Equal(t, "0.3", SubtotalDecimal(lines).String())
}
