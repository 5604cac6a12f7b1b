// Package payment prepares checkout-widget options and checks the outcomes
// the widget reports back.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MinAmountPaise is the smallest chargeable amount (one rupee).
const MinAmountPaise = 100

const (
	Currency   = "INR"
	StoreName  = "UrbanFrill"
	ThemeColor = "#0d9488"
	maxRetries = 4
)

var (
	ErrNotConfigured    = errors.New("payment gateway is not configured")
	ErrAmountTooSmall   = errors.New("amount must be at least ₹1")
	ErrInvalidSignature = errors.New("payment signature mismatch")
	ErrUnknownOutcome   = errors.New("unknown payment outcome")
	ErrMissingPaymentID = errors.New("payment id is required")
)

// ToPaise converts rupees to paise, rounding half away from zero.
func ToPaise(rupees float64) (int64, error) {
	paise := decimal.NewFromFloat(rupees).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if paise < MinAmountPaise {
		return 0, fmt.Errorf("%w: got %d paise", ErrAmountTooSmall, paise)
	}
	return paise, nil
}

// Prefill pre-populates the widget's contact form.
type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

type Theme struct {
	Color string `json:"color"`
}

type Retry struct {
	Enabled  bool `json:"enabled"`
	MaxCount int  `json:"max_count"`
}

// Options are handed to the checkout widget unchanged.
type Options struct {
	Key         string            `json:"key"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	OrderID     string            `json:"order_id,omitempty"`
	Prefill     Prefill           `json:"prefill"`
	Notes       map[string]string `json:"notes"`
	Theme       Theme             `json:"theme"`
	Retry       Retry             `json:"retry"`
}

// Request describes one charge.
type Request struct {
	Reference string
	Amount    float64
	Prefill   Prefill
	Notes     map[string]string
}

// Gateway holds the merchant credentials. An empty secret disables
// signature verification.
type Gateway struct {
	keyID     string
	keySecret string
}

func NewGateway(keyID, keySecret string) *Gateway {
	return &Gateway{keyID: keyID, keySecret: keySecret}
}

// Configured reports whether online payments can be offered.
func (g *Gateway) Configured() bool {
	return g != nil && g.keyID != ""
}

// Options builds the widget options for req.
func (g *Gateway) Options(req Request) (*Options, error) {
	if !g.Configured() {
		return nil, ErrNotConfigured
	}
	amount, err := ToPaise(req.Amount)
	if err != nil {
		return nil, err
	}

	notes := map[string]string{"order_ref": req.Reference}
	for k, v := range req.Notes {
		notes[k] = v
	}

	return &Options{
		Key:         g.keyID,
		Amount:      amount,
		Currency:    Currency,
		Name:        StoreName,
		Description: "Order #" + req.Reference,
		Prefill:     req.Prefill,
		Notes:       notes,
		Theme:       Theme{Color: ThemeColor},
		Retry:       Retry{Enabled: true, MaxCount: maxRetries},
	}, nil
}

// CanVerify reports whether Verify will check anything for r.
func (g *Gateway) CanVerify(r Result) bool {
	return g != nil && g.keySecret != "" && r.OrderID != ""
}

// Verify checks the HMAC-SHA256 signature over "<order id>|<payment id>".
func (g *Gateway) Verify(r Result) error {
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(r.OrderID + "|" + r.PaymentID))
	expected := mac.Sum(nil)

	got, err := hex.DecodeString(r.Signature)
	if err != nil || !hmac.Equal(expected, got) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign produces the signature the gateway would send. Used by tests and
// local tooling.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
