package order

import (
	"errors"
	"fmt"
	"time"

	domcart "github.com/urbanfrill/storefront/internal/domain/cart"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusPaymentPending Status = "payment_pending"
	StatusPaid           Status = "paid"
	StatusPaymentFailed  Status = "payment_failed"
	StatusCancelled      Status = "cancelled"
)

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrEmptyOrder       = errors.New("order must have at least one item")
	ErrInvalidStatus    = errors.New("invalid order status transition")
	ErrUnknownStatus    = errors.New("unknown order status")
	ErrOrderAlreadyPaid = errors.New("order is already paid")
	ErrOrderCancelled   = errors.New("order is already cancelled")
)

// validTransitions defines allowed state transitions
var validTransitions = map[Status][]Status{
	StatusPending:        {StatusCancelled},
	StatusPaymentPending: {StatusPaid, StatusPaymentFailed, StatusCancelled},
	StatusPaymentFailed:  {StatusPaid, StatusCancelled},
	StatusPaid:           {}, // terminal state
	StatusCancelled:      {}, // terminal state
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

// ShippingAddress is the checkout form.
type ShippingAddress struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// Payment is what the payment gateway reported for a successful charge.
type Payment struct {
	PaymentID string `json:"razorpayPaymentId"`
	OrderID   string `json:"razorpayOrderId,omitempty"`
	Signature string `json:"razorpaySignature,omitempty"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Items           []domcart.Line  `json:"items"`
	ItemCount       int             `json:"itemCount"`
	TotalAmount     float64         `json:"totalAmount"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	Status          Status          `json:"status"`
	Payment         *Payment        `json:"payment,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	// Local marks an order that could not be saved remotely and only has a
	// device-local id.
	Local bool `json:"local,omitempty"`
}

// New builds an unsaved order from cart lines. Cash-on-delivery orders start
// pending; online orders start awaiting payment.
func New(userID string, lines []domcart.Line, addr ShippingAddress, method PaymentMethod, now time.Time) (*Order, error) {
	c := domcart.New(lines)
	if len(c.Lines) == 0 {
		return nil, ErrEmptyOrder
	}

	status := StatusPending
	if method == PaymentOnline {
		status = StatusPaymentPending
	}

	return &Order{
		UserID:          userID,
		Items:           c.Snapshot(),
		ItemCount:       c.ItemCount(),
		TotalAmount:     domcart.SubtotalDecimal(c.Lines).InexactFloat64(),
		ShippingAddress: addr,
		PaymentMethod:   method,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// CanTransitionTo checks if the order can transition to the target status
func (o *Order) CanTransitionTo(target Status) bool {
	return CanTransition(o.Status, target)
}

// CanTransition checks the transition table.
func CanTransition(from, to Status) bool {
	allowed, exists := validTransitions[from]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionError returns an appropriate error for an invalid transition
func TransitionError(from, to Status) error {
	switch {
	case !to.Valid():
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	case from == StatusCancelled:
		return ErrOrderCancelled
	case from == StatusPaid && to == StatusPaid:
		return ErrOrderAlreadyPaid
	default:
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStatus, from, to)
	}
}

// TransitionTo moves the order to target or explains why it cannot.
func (o *Order) TransitionTo(target Status, now time.Time) error {
	if !o.CanTransitionTo(target) {
		return TransitionError(o.Status, target)
	}
	o.Status = target
	o.UpdatedAt = now
	return nil
}

// MarkPaid records a successful online payment.
func (o *Order) MarkPaid(p Payment, now time.Time) error {
	if err := o.TransitionTo(StatusPaid, now); err != nil {
		return err
	}
	o.Payment = &p
	return nil
}

// ShortID is the last 8 characters of the id, used in customer messages.
func (o *Order) ShortID() string {
	if len(o.ID) <= 8 {
		return o.ID
	}
	return o.ID[len(o.ID)-8:]
}
