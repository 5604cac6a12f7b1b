package checkout

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/urbanfrill/storefront/internal/domain/order"
	"github.com/urbanfrill/storefront/internal/infrastructure/store"
	"github.com/urbanfrill/storefront/pkg/jitter"
)

const (
	localPrefix  = "local_"
	base36       = "0123456789abcdefghijklmnopqrstuvwxyz"
	localRandLen = 9
)

var ErrLocalOrder = errors.New("order only exists on this device")

// Backup keeps a best-effort copy of an order before it is saved.
type Backup interface {
	Backup(ctx context.Context, key string, v any) error
}

// MemoryBackup is a Backup kept in process memory.
type MemoryBackup struct {
	mu      sync.Mutex
	entries map[string]any
}

func NewMemoryBackup() *MemoryBackup {
	return &MemoryBackup{entries: make(map[string]any)}
}

func (b *MemoryBackup) Backup(ctx context.Context, key string, v any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = v
	return nil
}

// Keys returns the stored backup keys.
func (b *MemoryBackup) Keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	return keys
}

type RepositoryOptions struct {
	Attempts int
	Timeout  time.Duration
	// Backoff is multiplied by the attempt number and jittered between
	// attempts. Zero disables waiting.
	Backoff time.Duration
}

// Repository stores orders in the "orders" collection.
type Repository struct {
	docs   store.DocumentStore
	backup Backup
	logger *zap.Logger
	opts   RepositoryOptions
	now    func() time.Time
}

// NewRepository creates a Repository. backup may be nil.
func NewRepository(docs store.DocumentStore, backup Backup, logger *zap.Logger, opts RepositoryOptions) *Repository {
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &Repository{
		docs:   docs,
		backup: backup,
		logger: logger,
		opts:   opts,
		now:    time.Now,
	}
}

// Save assigns an id and writes the order, retrying with backoff. When the
// last attempt times out or is denied, the order gets a local id and is
// returned with Local set instead of failing. Other errors are returned.
func (r *Repository) Save(ctx context.Context, o *order.Order) (*order.Order, error) {
	now := r.now()
	saved := *o
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = now
	}
	saved.UpdatedAt = now

	backupKey := fmt.Sprintf("order_backup_%d", now.UnixMilli())
	if r.backup != nil {
		if err := r.backup.Backup(ctx, backupKey, saved); err != nil {
			r.logger.Warn("Order backup failed", zap.String("key", backupKey), zap.Error(err))
		}
	}

	saved.ID = uuid.New().String()

	var lastErr error
	for attempt := 1; attempt <= r.opts.Attempts; attempt++ {
		lastErr = r.saveOnce(ctx, &saved)
		if lastErr == nil {
			return &saved, nil
		}

		r.logger.Warn("Order save attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.opts.Attempts),
			zap.Error(lastErr),
		)
		if ctx.Err() != nil || attempt == r.opts.Attempts {
			break
		}
		if err := sleep(ctx, jitter.Linear(r.opts.Backoff, attempt, jitter.DefaultJitter)); err != nil {
			break
		}
	}

	if ctx.Err() == nil && (errors.Is(lastErr, context.DeadlineExceeded) || errors.Is(lastErr, store.ErrPermissionDenied)) {
		saved.ID = localID(now)
		saved.Local = true
		r.logger.Error("Order saved locally only",
			zap.String("order_id", saved.ID),
			zap.String("backup_key", backupKey),
			zap.Error(lastErr),
		)
		return &saved, nil
	}
	return nil, fmt.Errorf("save order: %w", lastErr)
}

func (r *Repository) saveOnce(ctx context.Context, o *order.Order) error {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()
	return r.docs.Set(ctx, store.CollectionOrders, o.ID, o)
}

func (r *Repository) Get(ctx context.Context, id string) (*order.Order, error) {
	if IsLocalID(id) {
		return nil, order.ErrOrderNotFound
	}

	var o order.Order
	err := r.docs.Get(ctx, store.CollectionOrders, id, &o)
	if errors.Is(err, store.ErrNotFound) {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	if o.ID == "" {
		o.ID = id
	}
	return &o, nil
}

// UpdateStatus merges a status change, enforcing the transition table. It
// returns the order as it was before and after the update.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status order.Status, p *order.Payment) (before, after *order.Order, err error) {
	if IsLocalID(id) {
		return nil, nil, ErrLocalOrder
	}

	before, err = r.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	after = new(order.Order)
	*after = *before
	now := r.now()
	if err := after.TransitionTo(status, now); err != nil {
		return nil, nil, err
	}

	fields := map[string]any{
		"status":    status,
		"updatedAt": now,
	}
	if p != nil {
		fields["payment"] = p
		after.Payment = p
	}

	if err := r.docs.Update(ctx, store.CollectionOrders, id, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, order.ErrOrderNotFound
		}
		return nil, nil, fmt.Errorf("update order %s: %w", id, err)
	}
	return before, after, nil
}

// IsLocalID reports whether id was issued by the local fallback.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, localPrefix)
}

// localID returns local_<unix millis>_<9 base36 chars>.
func localID(now time.Time) string {
	var b strings.Builder
	b.WriteString(localPrefix)
	b.WriteString(fmt.Sprintf("%d_", now.UnixMilli()))
	for i := 0; i < localRandLen; i++ {
		b.WriteByte(base36[rand.IntN(len(base36))])
	}
	return b.String()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

