// Package shopper binds one identity session and one cart to each device.
package shopper

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/urbanfrill/storefront/internal/cart"
	"github.com/urbanfrill/storefront/internal/session"
)

// Shopper is everything the API needs for one device.
type Shopper struct {
	Device  string
	Session *session.Session
	Cart    *cart.Service

	lastSeen time.Time
	inUse    int
}

// Registry creates shoppers lazily and evicts idle ones. Evicting is safe:
// carts live in the device-local store and a re-created shopper is re-keyed
// by the next request's token. Shoppers held through Acquire are never
// evicted, so a device never has two live cart services.
type Registry struct {
	mu       sync.Mutex
	shoppers map[string]*Shopper

	sessionDeps *session.Deps
	local       cart.LocalStore
	mirror      *cart.Mirror
	logger      *zap.Logger
	idleTTL     time.Duration
	now         func() time.Time
}

func NewRegistry(sessionDeps *session.Deps, local cart.LocalStore, mirror *cart.Mirror, idleTTL time.Duration, logger *zap.Logger) *Registry {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &Registry{
		shoppers:    make(map[string]*Shopper),
		sessionDeps: sessionDeps,
		local:       local,
		mirror:      mirror,
		logger:      logger,
		idleTTL:     idleTTL,
		now:         time.Now,
	}
}

// Get returns the device's shopper, creating it in the signed-out state.
func (r *Registry) Get(ctx context.Context, device string) *Shopper {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(ctx, device)
}

// Acquire is Get for the length of a request. The shopper is pinned against
// eviction until release is called.
func (r *Registry) Acquire(ctx context.Context, device string) (sh *Shopper, release func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sh = r.get(ctx, device)
	sh.inUse++

	var once sync.Once
	return sh, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			sh.inUse--
			sh.lastSeen = r.now()
		})
	}
}

// get must be called with mu held.
func (r *Registry) get(ctx context.Context, device string) *Shopper {
	if sh, ok := r.shoppers[device]; ok {
		sh.lastSeen = r.now()
		return sh
	}

	sess := session.New(device, r.sessionDeps)
	// The cart must not inherit the request's cancellation.
	cartSvc := cart.NewService(context.WithoutCancel(ctx), device, r.local, r.mirror, r.logger)
	sess.Subscribe(cartSvc.OnIdentityChange)

	sh := &Shopper{
		Device:   device,
		Session:  sess,
		Cart:     cartSvc,
		lastSeen: r.now(),
	}
	r.shoppers[device] = sh
	r.logger.Debug("Shopper created", zap.String("device", device))
	return sh
}

// Len returns the number of live shoppers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shoppers)
}

// Evict drops shoppers idle for longer than the TTL and returns how many
// were removed. Acquired shoppers stay.
func (r *Registry) Evict() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	n := 0
	for device, sh := range r.shoppers {
		if sh.inUse == 0 && sh.lastSeen.Before(cutoff) {
			delete(r.shoppers, device)
			n++
		}
	}
	return n
}

// Run evicts idle shoppers periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.idleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(); n > 0 {
				r.logger.Info("Evicted idle shoppers", zap.Int("count", n))
			}
		}
	}
}
