// Package cart runs the per-device shopping cart: local persistence keyed by
// identity, identity switching, and the asynchronous remote mirror.
package cart

import (
	"context"
	"sync"

	"go.uber.org/zap"

	domcart "github.com/urbanfrill/storefront/internal/domain/cart"
	"github.com/urbanfrill/storefront/internal/domain/user"
)

// View is the cart as returned to clients.
type View struct {
	Key       string         `json:"key"`
	Lines     []domcart.Line `json:"lines"`
	ItemCount int            `json:"itemCount"`
	Subtotal  float64        `json:"subtotal"`
}

// Service owns one device's cart. The zero uid is the NoIdentity state, in
// which the guest cart is active. All methods are safe for concurrent use
// and mutations apply in call order.
type Service struct {
	mu     sync.Mutex
	device string
	local  LocalStore
	mirror *Mirror
	logger *zap.Logger

	uid  string
	cart *domcart.Cart
}

// NewService starts in NoIdentity with the device's stored guest cart. A nil
// mirror disables remote writes.
func NewService(ctx context.Context, device string, local LocalStore, mirror *Mirror, logger *zap.Logger) *Service {
	s := &Service{
		device: device,
		local:  local,
		mirror: mirror,
		logger: logger.With(zap.String("device", device)),
	}
	s.cart = s.load(ctx)
	return s
}

// UID returns the active uid, empty for guests.
func (s *Service) UID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uid
}

// Key returns the local storage key of the active cart.
func (s *Service) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storageKey()
}

func (s *Service) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Key:       s.storageKey(),
		Lines:     s.cart.Snapshot(),
		ItemCount: s.cart.ItemCount(),
		Subtotal:  s.cart.Subtotal(),
	}
}

// Lines returns a copy of the active cart's lines.
func (s *Service) Lines() []domcart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Snapshot()
}

func (s *Service) AddItem(ctx context.Context, item domcart.Line) *SyncTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.AddItem(item)
	return s.commit(ctx)
}

// UpdateQuantity sets max(1, qty) on an existing line. Absent ids leave the
// cart unchanged.
func (s *Service) UpdateQuantity(ctx context.Context, productID, qty int) *SyncTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.UpdateQuantity(productID, qty)
	return s.commit(ctx)
}

func (s *Service) RemoveItem(ctx context.Context, productID int) *SyncTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.RemoveItem(productID)
	return s.commit(ctx)
}

func (s *Service) Clear(ctx context.Context) *SyncTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
	return s.commit(ctx)
}

// SwitchIdentity moves the service to uid ("" for NoIdentity) and loads that
// identity's cart: remote first for users, then local, then empty. The cart
// being left stays in local storage under its own key.
func (s *Service) SwitchIdentity(ctx context.Context, uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if uid == s.uid {
		return
	}
	s.logger.Debug("Switching cart identity", zap.String("from", s.uid), zap.String("to", uid))
	s.uid = uid
	s.cart = s.load(ctx)
}

// OnIdentityChange adapts SwitchIdentity to session listeners.
func (s *Service) OnIdentityChange(ctx context.Context, next *user.Identity) {
	uid := ""
	if next != nil {
		uid = next.UID
	}
	s.SwitchIdentity(ctx, uid)
}

func (s *Service) storageKey() string {
	if s.uid == "" {
		return domcart.StorageKey(domcart.GuestKey)
	}
	return domcart.StorageKey(s.uid)
}

// load must be called with mu held.
func (s *Service) load(ctx context.Context) *domcart.Cart {
	if s.uid != "" && s.mirror != nil {
		lines, found, err := s.mirror.Load(ctx, s.uid)
		switch {
		case err != nil:
			s.logger.Warn("Falling back to local cart", zap.String("uid", s.uid), zap.Error(err))
		case found:
			c := domcart.New(lines)
			s.saveLocal(ctx, c)
			return c
		}
	}

	var lines []domcart.Line
	found, err := s.local.Get(ctx, s.device, s.storageKey(), &lines)
	if err != nil {
		s.logger.Warn("Local cart unreadable, starting empty", zap.String("key", s.storageKey()), zap.Error(err))
		return domcart.New(nil)
	}
	if !found {
		return domcart.New(nil)
	}
	return domcart.New(lines)
}

// commit persists locally and schedules the remote write. Must be called
// with mu held.
func (s *Service) commit(ctx context.Context) *SyncTask {
	s.saveLocal(ctx, s.cart)

	if s.uid == "" || s.mirror == nil {
		return skippedTask()
	}
	return s.mirror.Enqueue(ctx, s.uid, s.cart.Snapshot())
}

func (s *Service) saveLocal(ctx context.Context, c *domcart.Cart) {
	if err := s.local.Set(ctx, s.device, s.storageKey(), c.Snapshot()); err != nil {
		s.logger.Error("Local cart write failed", zap.String("key", s.storageKey()), zap.Error(err))
	}
}
