// Package checkout turns a shopper's cart into an order, either directly for
// cash on delivery or through a payment draft for online payment.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/urbanfrill/storefront/internal/cart"
	domcart "github.com/urbanfrill/storefront/internal/domain/cart"
	"github.com/urbanfrill/storefront/internal/domain/order"
	"github.com/urbanfrill/storefront/internal/domain/user"
	"github.com/urbanfrill/storefront/internal/payment"
)

var (
	ErrDraftNotFound    = errors.New("checkout not found or expired")
	ErrPaymentFailed    = errors.New("payment failed")
	ErrPaymentDismissed = errors.New("payment cancelled by user")
)

const defaultDraftTTL = 30 * time.Minute

// Publisher delivers order events keyed by their order id.
type Publisher interface {
	Publish(ctx context.Context, env *order.Envelope) error
}

// Cart is the part of a shopper's cart checkout needs.
type Cart interface {
	Lines() []domcart.Line
	Clear(ctx context.Context) *cart.SyncTask
}

type PlaceOrderInput struct {
	Device        string
	Identity      *user.Identity
	Cart          Cart
	Address       order.ShippingAddress
	PaymentMethod string
}

// Placement is the result of PlaceOrder. Cash-on-delivery orders come back
// saved; online orders come back as a payment reference plus widget options.
type Placement struct {
	Order     *order.Order     `json:"order,omitempty"`
	Reference string           `json:"reference,omitempty"`
	Payment   *payment.Options `json:"payment,omitempty"`
}

type draft struct {
	device  string
	order   *order.Order
	cart    Cart
	expires time.Time
}

type Service struct {
	orders    *Repository
	gateway   *payment.Gateway
	publisher Publisher
	logger    *zap.Logger
	draftTTL  time.Duration
	now       func() time.Time

	mu     sync.Mutex
	drafts map[string]*draft
}

// NewService creates a Service. publisher may be nil.
func NewService(orders *Repository, gateway *payment.Gateway, publisher Publisher, draftTTL time.Duration, logger *zap.Logger) *Service {
	if draftTTL <= 0 {
		draftTTL = defaultDraftTTL
	}
	return &Service{
		orders:    orders,
		gateway:   gateway,
		publisher: publisher,
		logger:    logger,
		draftTTL:  draftTTL,
		now:       time.Now,
		drafts:    make(map[string]*draft),
	}
}

func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Placement, error) {
	addr := in.Address.Normalize()
	if err := order.ValidateCheckout(addr, in.PaymentMethod); err != nil {
		return nil, err
	}
	method, _ := order.ParsePaymentMethod(in.PaymentMethod)

	uid := ""
	if in.Identity != nil {
		uid = in.Identity.UID
	}

	now := s.now()
	o, err := order.New(uid, in.Cart.Lines(), addr, method, now)
	if err != nil {
		return nil, err
	}

	if method == order.PaymentCOD {
		saved, err := s.orders.Save(ctx, o)
		if err != nil {
			return nil, err
		}
		s.finish(ctx, saved, in.Cart)
		return &Placement{Order: saved}, nil
	}

	ref := s.reserveReference(now)
	opts, err := s.gateway.Options(payment.Request{
		Reference: ref,
		Amount:    o.TotalAmount,
		Prefill: payment.Prefill{
			Name:    addr.Name,
			Email:   addr.Email,
			Contact: addr.Phone,
		},
		Notes: map[string]string{
			"address": strings.Join([]string{addr.Address, addr.City, addr.State, addr.Pincode}, ", "),
		},
	})
	if err != nil {
		s.releaseReference(ref)
		return nil, err
	}

	s.mu.Lock()
	s.drafts[ref] = &draft{
		device:  in.Device,
		order:   o,
		cart:    in.Cart,
		expires: now.Add(s.draftTTL),
	}
	s.mu.Unlock()

	s.logger.Info("Payment started",
		zap.String("reference", ref),
		zap.Int64("amount_paise", opts.Amount),
	)
	return &Placement{Reference: ref, Payment: opts}, nil
}

// CompletePayment applies the widget's outcome to the draft held under ref.
func (s *Service) CompletePayment(ctx context.Context, device, ref string, result payment.Result) (*order.Order, error) {
	if err := result.Validate(); err != nil {
		return nil, err
	}

	d, err := s.draft(device, ref)
	if err != nil {
		return nil, err
	}

	switch result.Outcome {
	case payment.OutcomeFailure:
		s.mu.Lock()
		if d.order.CanTransitionTo(order.StatusPaymentFailed) {
			_ = d.order.TransitionTo(order.StatusPaymentFailed, s.now())
		}
		s.mu.Unlock()
		s.logger.Info("Payment failed",
			zap.String("reference", ref),
			zap.String("code", result.Code),
			zap.String("reason", result.Reason),
		)
		return nil, fmt.Errorf("%w: %s", ErrPaymentFailed, result.FailureMessage())
	case payment.OutcomeDismiss:
		return nil, ErrPaymentDismissed
	}

	if s.gateway.CanVerify(result) {
		if err := s.gateway.Verify(result); err != nil {
			s.logger.Warn("Payment signature rejected", zap.String("reference", ref))
			return nil, err
		}
	} else {
		s.logger.Warn("Payment signature not verified",
			zap.String("reference", ref),
			zap.String("payment_id", result.PaymentID),
		)
	}

	// Claim the draft so a repeated success report cannot save twice.
	s.mu.Lock()
	if s.drafts[ref] != d {
		s.mu.Unlock()
		return nil, ErrDraftNotFound
	}
	delete(s.drafts, ref)
	o := *d.order
	s.mu.Unlock()

	if err := o.MarkPaid(order.Payment{
		PaymentID: result.PaymentID,
		OrderID:   result.OrderID,
		Signature: result.Signature,
	}, s.now()); err != nil {
		s.restore(ref, d)
		return nil, err
	}

	saved, err := s.orders.Save(ctx, &o)
	if err != nil {
		s.restore(ref, d)
		return nil, err
	}

	s.finish(ctx, saved, d.cart)
	return saved, nil
}

// CancelPayment drops the draft held under ref.
func (s *Service) CancelPayment(device, ref string) error {
	if _, err := s.draft(device, ref); err != nil {
		return err
	}
	s.releaseReference(ref)
	return nil
}

// GetOrder returns an order the requester may see. Orders placed by a
// signed-in user are hidden from everyone else.
func (s *Service) GetOrder(ctx context.Context, id string, requester *user.Identity) (*order.Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != "" && (requester == nil || requester.UID != o.UserID) {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

// UpdateOrderStatus moves an order through the transition table and
// announces the change.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, status order.Status, p *order.Payment) (*order.Order, error) {
	before, after, err := s.orders.UpdateStatus(ctx, id, status, p)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, id, order.EventOrderStatusChanged, order.OrderStatusChanged{
		OrderID: id,
		From:    before.Status,
		To:      after.Status,
		Payment: p,
	})
	return after, nil
}

// CancelOrder cancels an order on behalf of its owner.
func (s *Service) CancelOrder(ctx context.Context, id string, requester *user.Identity) (*order.Order, error) {
	if _, err := s.GetOrder(ctx, id, requester); err != nil {
		return nil, err
	}
	return s.UpdateOrderStatus(ctx, id, order.StatusCancelled, nil)
}

// PendingDrafts returns how many payment drafts are held.
func (s *Service) PendingDrafts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}

func (s *Service) finish(ctx context.Context, o *order.Order, c Cart) {
	env, err := order.PlacedEnvelope(o, s.now())
	if err != nil {
		s.logger.Error("Failed to build order event", zap.String("order_id", o.ID), zap.Error(err))
	} else {
		s.send(ctx, env)
	}

	if c != nil {
		c.Clear(ctx)
	}

	s.logger.Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("status", string(o.Status)),
		zap.Bool("local", o.Local),
	)
}

func (s *Service) publish(ctx context.Context, id, eventType string, data any) {
	env, err := order.NewEnvelope(id, eventType, data, s.now())
	if err != nil {
		s.logger.Error("Failed to build order event", zap.String("order_id", id), zap.Error(err))
		return
	}
	s.send(ctx, env)
}

func (s *Service) send(ctx context.Context, env *order.Envelope) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, env); err != nil {
		s.logger.Warn("Failed to publish order event",
			zap.String("order_id", env.AggregateID),
			zap.String("event_type", env.EventType),
			zap.Error(err),
		)
	}
}

func (s *Service) draft(device, ref string) (*draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[ref]
	if !ok || d.order == nil || d.device != device {
		return nil, ErrDraftNotFound
	}
	if s.now().After(d.expires) {
		delete(s.drafts, ref)
		return nil, ErrDraftNotFound
	}
	return d, nil
}

// reserveReference returns an unused order_<millis> reference and prunes
// expired drafts.
func (s *Service) reserveReference(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ref, d := range s.drafts {
		if now.After(d.expires) {
			delete(s.drafts, ref)
		}
	}

	ms := now.UnixMilli()
	for {
		ref := fmt.Sprintf("order_%d", ms)
		if _, taken := s.drafts[ref]; !taken {
			s.drafts[ref] = &draft{expires: now.Add(s.draftTTL)}
			return ref
		}
		ms++
	}
}

func (s *Service) restore(ref string, d *draft) {
	s.mu.Lock()
	s.drafts[ref] = d
	s.mu.Unlock()
}

func (s *Service) releaseReference(ref string) {
	s.mu.Lock()
	delete(s.drafts, ref)
	s.mu.Unlock()
}
