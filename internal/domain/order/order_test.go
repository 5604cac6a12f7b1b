package order

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domcart "github.com/urbanfrill/storefront/internal/domain/cart"
	"github.com/urbanfrill/storefront/pkg/validate"
)

var testNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func validAddress() ShippingAddress {
	return ShippingAddress{
		Name:    "Asha Rao",
		Email:   "asha@example.com",
		Phone:   "9876543210",
		Address: "12 MG Road",
		City:    "Bengaluru",
		State:   "Karnataka",
		Pincode: "560001",
	}
}

func testLines() []domcart.Line {
	return []domcart.Line{
		{ProductID: 1, Name: "Elegant Curtains", Price: 299, Image: "images/hero-left.jpg", Quantity: 2},
		{ProductID: 3, Name: "Upholstered Bedback", Price: 1499, Image: "images/hero-bottomright.jpg", Quantity: 1},
	}
}

// ============================================
// New Order Tests
// ============================================

func TestNew_COD(t *testing.T) {
	o, err := New("user-1", testLines(), validAddress(), PaymentCOD, testNow)

	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, 3, o.ItemCount)
	assert.Equal(t, 2097.0, o.TotalAmount) // 2*299 + 1499
	assert.Equal(t, "user-1", o.UserID)
	assert.Equal(t, testNow, o.CreatedAt)
	assert.Empty(t, o.ID)
}

func TestNew_OnlineAwaitsPayment(t *testing.T) {
	o, err := New("", testLines(), validAddress(), PaymentOnline, testNow)

	require.NoError(t, err)
	assert.Equal(t, StatusPaymentPending, o.Status)
}

func TestNew_EmptyCart(t *testing.T) {
	_, err := New("user-1", nil, validAddress(), PaymentCOD, testNow)

	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestNew_DoesNotAliasLines(t *testing.T) {
	lines := testLines()
	o, err := New("user-1", lines, validAddress(), PaymentCOD, testNow)
	require.NoError(t, err)

	lines[0].Quantity = 99

	assert.Equal(t, 2, o.Items[0].Quantity)
}

// ============================================
// Status Transition Tests
// ============================================

func TestCanTransition_Table(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusPaid, false},
		{StatusPaymentPending, StatusPaid, true},
		{StatusPaymentPending, StatusPaymentFailed, true},
		{StatusPaymentPending, StatusCancelled, true},
		{StatusPaymentFailed, StatusPaid, true},
		{StatusPaymentFailed, StatusCancelled, true},
		{StatusPaymentFailed, StatusPending, false},
		{StatusPaid, StatusCancelled, false},
		{StatusPaid, StatusPaid, false},
		{StatusCancelled, StatusPending, false},
		{Status("shipped"), StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTransitionError(t *testing.T) {
	assert.ErrorIs(t, TransitionError(StatusCancelled, StatusPaid), ErrOrderCancelled)
	assert.ErrorIs(t, TransitionError(StatusPaid, StatusPaid), ErrOrderAlreadyPaid)
	assert.ErrorIs(t, TransitionError(StatusPending, StatusPaid), ErrInvalidStatus)
	assert.ErrorIs(t, TransitionError(StatusPending, Status("shipped")), ErrUnknownStatus)
}

func TestOrder_MarkPaid(t *testing.T) {
	o, err := New("user-1", testLines(), validAddress(), PaymentOnline, testNow)
	require.NoError(t, err)
	later := testNow.Add(time.Minute)

	err = o.MarkPaid(Payment{PaymentID: "pay_1", OrderID: "order_1", Signature: "sig"}, later)

	require.NoError(t, err)
	assert.Equal(t, StatusPaid, o.Status)
	assert.Equal(t, "pay_1", o.Payment.PaymentID)
	assert.Equal(t, later, o.UpdatedAt)
	assert.ErrorIs(t, o.MarkPaid(Payment{}, later), ErrOrderAlreadyPaid)
}

func TestOrder_ShortID(t *testing.T) {
	assert.Equal(t, "abcdefgh", (&Order{ID: "xyz-abcdefgh"}).ShortID())
	assert.Equal(t, "short", (&Order{ID: "short"}).ShortID())
}

func TestOrder_JSONFieldNames(t *testing.T) {
	o, err := New("user-1", testLines(), validAddress(), PaymentCOD, testNow)
	require.NoError(t, err)
	o.ID = "ord-1"

	raw, err := json.Marshal(o)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, key := range []string{"id", "userId", "items", "itemCount", "totalAmount", "shippingAddress", "paymentMethod", "status", "createdAt", "updatedAt"} {
		assert.Contains(t, m, key)
	}
	assert.NotContains(t, m, "payment")
	assert.NotContains(t, m, "local")
}

// ============================================
// Checkout Validation Tests
// ============================================

func TestValidateCheckout_Valid(t *testing.T) {
	assert.NoError(t, ValidateCheckout(validAddress(), "cod"))
	assert.NoError(t, ValidateCheckout(validAddress(), "online"))
	assert.NoError(t, ValidateCheckout(validAddress(), ""))
}

func TestValidateCheckout_FieldMap(t *testing.T) {
	addr := validAddress()
	addr.Name = " "
	addr.Email = "asha@"
	addr.Phone = "98765"
	addr.City = ""
	addr.Pincode = "5600"

	err := ValidateCheckout(addr, "upi")

	var fields validate.FieldErrors
	require.True(t, errors.As(err, &fields))
	assert.Equal(t, validate.FieldErrors{
		"name":          "Full name is required",
		"email":         "Enter a valid email address",
		"phone":         "Enter a valid 10-digit phone number",
		"city":          "City is required",
		"pincode":       "Enter a valid 6-digit PIN code",
		"paymentMethod": "Choose cash on delivery or online payment",
	}, fields)
}

func TestValidateCheckout_AllMissing(t *testing.T) {
	err := ValidateCheckout(ShippingAddress{}, "cod")

	var fields validate.FieldErrors
	require.True(t, errors.As(err, &fields))
	assert.Len(t, fields, 7)
}

func TestShippingAddress_Normalize(t *testing.T) {
	addr := ShippingAddress{Name: " Asha ", Email: " Asha@Example.com", Pincode: " 560001 "}.Normalize()

	assert.Equal(t, "Asha", addr.Name)
	assert.Equal(t, "asha@example.com", addr.Email)
	assert.Equal(t, "560001", addr.Pincode)
}

func TestParsePaymentMethod(t *testing.T) {
	m, ok := ParsePaymentMethod("ONLINE")
	assert.True(t, ok)
	assert.Equal(t, PaymentOnline, m)

	m, ok = ParsePaymentMethod("")
	assert.True(t, ok)
	assert.Equal(t, PaymentCOD, m)

	_, ok = ParsePaymentMethod("cheque")
	assert.False(t, ok)
}

// ============================================
// Event Tests
// ============================================

func TestPlacedEnvelope(t *testing.T) {
	o, err := New("user-1", testLines(), validAddress(), PaymentCOD, testNow)
	require.NoError(t, err)
	o.ID = "ord-1"

	env, err := PlacedEnvelope(o, testNow)
	require.NoError(t, err)
	assert.Equal(t, EventOrderPlaced, env.EventType)
	assert.Equal(t, "ord-1", env.AggregateID)
	assert.NotEmpty(t, env.ID)

	var decoded Order
	require.NoError(t, json.Unmarshal(env.Data, &decoded))
	assert.Equal(t, o.TotalAmount, decoded.TotalAmount)

	require.NoError(t, o.TransitionTo(StatusCancelled, testNow))
	o.Status = StatusPaid
	env, err = PlacedEnvelope(o, testNow)
	require.NoError(t, err)
	assert.Equal(t, EventOrderPaid, env.EventType)
}
