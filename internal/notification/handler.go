// Package notification mails customers when their orders are placed or paid.
package notification

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/urbanfrill/storefront/internal/domain/order"
)

// Mailer sends the order confirmation.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, o *order.Order) error
}

// Handler processes events for sending notifications
type Handler struct {
	mailer Mailer
	logger *zap.Logger
}

// NewHandler creates a new notification handler
func NewHandler(mailer Mailer, logger *zap.Logger) *Handler {
	return &Handler{
		mailer: mailer,
		logger: logger,
	}
}

// HandleEvent processes an event from Kafka. Malformed events are logged and
// skipped; only a failed send is returned.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var env order.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		h.logger.Warn("Skipping undecodable event", zap.ByteString("key", key), zap.Error(err))
		return nil
	}

	switch env.EventType {
	case order.EventOrderPlaced, order.EventOrderPaid:
		return h.handleOrder(ctx, &env)
	default:
		return nil
	}
}

func (h *Handler) handleOrder(ctx context.Context, env *order.Envelope) error {
	var o order.Order
	if err := json.Unmarshal(env.Data, &o); err != nil {
		h.logger.Warn("Skipping undecodable order",
			zap.String("event_id", env.ID),
			zap.String("event_type", env.EventType),
			zap.Error(err),
		)
		return nil
	}
	if o.ID == "" {
		o.ID = env.AggregateID
	}

	h.logger.Info("Processing order event",
		zap.String("event_type", env.EventType),
		zap.String("order_id", o.ID),
	)

	if err := h.mailer.SendOrderConfirmation(ctx, &o); err != nil {
		h.logger.Error("Failed to send order confirmation",
			zap.String("order_id", o.ID),
			zap.String("email", o.ShippingAddress.Email),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("Order confirmation sent",
		zap.String("order_id", o.ID),
		zap.String("email", o.ShippingAddress.Email),
	)
	return nil
}
