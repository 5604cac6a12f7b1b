package order

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderPaid          = "OrderPaid"
	EventOrderStatusChanged = "OrderStatusChanged"
)

// Envelope is the message published for every order event.
type Envelope struct {
	ID          string          `json:"id"`
	AggregateID string          `json:"aggregate_id"`
	EventType   string          `json:"event_type"`
	Data        json.RawMessage `json:"data"`
	Timestamp   time.Time       `json:"timestamp"`
}

// OrderStatusChanged is emitted for every status update after creation.
type OrderStatusChanged struct {
	OrderID string   `json:"order_id"`
	From    Status   `json:"from,omitempty"`
	To      Status   `json:"to"`
	Payment *Payment `json:"payment,omitempty"`
}

// NewEnvelope wraps data for publishing.
func NewEnvelope(aggregateID, eventType string, data any, now time.Time) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:          uuid.New().String(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Data:        raw,
		Timestamp:   now,
	}, nil
}

// PlacedEnvelope wraps a freshly saved order. Paid online orders are
// announced as OrderPaid, everything else as OrderPlaced.
func PlacedEnvelope(o *Order, now time.Time) (*Envelope, error) {
	eventType := EventOrderPlaced
	if o.Status == StatusPaid {
		eventType = EventOrderPaid
	}
	return NewEnvelope(o.ID, eventType, o, now)
}
