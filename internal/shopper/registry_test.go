package shopper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/urbanfrill/storefront/internal/auth"
	"github.com/urbanfrill/storefront/internal/cart"
	domcart "github.com/urbanfrill/storefront/internal/domain/cart"
	"github.com/urbanfrill/storefront/internal/domain/user"
	"github.com/urbanfrill/storefront/internal/infrastructure/blob"
	"github.com/urbanfrill/storefront/internal/infrastructure/store/mocks"
	"github.com/urbanfrill/storefront/internal/profile"
	"github.com/urbanfrill/storefront/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRegistry(t *testing.T, ttl time.Duration) (*Registry, *cart.MemoryLocalStore) {
	t.Helper()
	docs := mocks.NewMockDocumentStore()
	local := cart.NewMemoryLocalStore()
	mirror := cart.NewMirror(docs, zap.NewNop(), cart.MirrorOptions{Workers: 1})
	t.Cleanup(func() {
		require.NoError(t, mirror.Close(context.Background()))
	})

	deps := &session.Deps{
		Accounts: auth.NewAccounts(docs, auth.NewHasher(bcrypt.MinCost)),
		Profiles: profile.NewService(docs),
		Files:    blob.NewMemoryStore(""),
		Logger:   zap.NewNop(),
	}
	return NewRegistry(deps, local, mirror, ttl, zap.NewNop()), local
}

func TestRegistry_GetIsPerDevice(t *testing.T) {
	r, _ := newTestRegistry(t, time.Minute)
	ctx := context.Background()

	a1 := r.Get(ctx, "a")
	a2 := r.Get(ctx, "a")
	b := r.Get(ctx, "b")

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_SessionDrivesCart(t *testing.T) {
	r, _ := newTestRegistry(t, time.Minute)
	ctx := context.Background()
	sh := r.Get(ctx, "a")
	sh.Cart.AddItem(ctx, domcart.Line{ProductID: 1, Price: 299, Quantity: 1})

	sh.Session.Restore(ctx, &user.Identity{UID: "u1"})
	assert.Equal(t, "uf_cart_u1_v1", sh.Cart.Key())
	assert.Empty(t, sh.Cart.Lines())

	sh.Session.Logout(ctx)
	assert.Equal(t, "uf_cart_guest_v1", sh.Cart.Key())
	assert.Len(t, sh.Cart.Lines(), 1)
}

func TestRegistry_EvictIdle(t *testing.T) {
	r, _ := newTestRegistry(t, time.Minute)
	ctx := context.Background()
	now := time.Now()
	r.now = func() time.Time { return now }

	r.Get(ctx, "old")
	now = now.Add(45 * time.Second)
	r.Get(ctx, "fresh")
	now = now.Add(30 * time.Second)

	assert.Equal(t, 1, r.Evict())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_EvictSkipsAcquired(t *testing.T) {
	r, _ := newTestRegistry(t, time.Minute)
	ctx := context.Background()
	now := time.Now()
	r.now = func() time.Time { return now }

	held, release := r.Acquire(ctx, "a")
	now = now.Add(2 * time.Minute)

	assert.Equal(t, 0, r.Evict())
	assert.Same(t, held, r.Get(ctx, "a"))

	release()
	release()
	now = now.Add(30 * time.Second)
	assert.Equal(t, 0, r.Evict(), "release refreshes lastSeen")

	now = now.Add(time.Minute)
	assert.Equal(t, 1, r.Evict())
	assert.NotSame(t, held, r.Get(ctx, "a"))
}

func TestRegistry_RecreatedShopperKeepsGuestCart(t *testing.T) {
	r, _ := newTestRegistry(t, time.Minute)
	ctx := context.Background()
	now := time.Now()
	r.now = func() time.Time { return now }

	r.Get(ctx, "a").Cart.AddItem(ctx, domcart.Line{ProductID: 2, Price: 799, Quantity: 2})
	now = now.Add(2 * time.Minute)
	require.Equal(t, 1, r.Evict())

	sh := r.Get(ctx, "a")

	assert.Equal(t, 2, sh.Cart.View().ItemCount)
}

func TestRegistry_RunStopsOnCancel(t *testing.T) {
	r, _ := newTestRegistry(t, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.Run(ctx)
	}()

	r.Get(ctx, "a")
	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	wg.Wait()
}
