package cart

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	domcart "github.com/urbanfrill/storefront/internal/domain/cart"
	"github.com/urbanfrill/storefront/internal/domain/user"
	"github.com/urbanfrill/storefront/internal/infrastructure/store"
)

var (
	ErrMirrorClosed = errors.New("cart mirror is closed")
	ErrMirrorBusy   = errors.New("cart mirror backlog is full")
)

// MirrorOptions sizes the remote write pool. QueueSize bounds how many
// distinct users may wait for a write on one worker.
type MirrorOptions struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

func (o MirrorOptions) withDefaults() MirrorOptions {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	return o
}

// remoteCart is the carts/<uid> document.
type remoteCart struct {
	Items     []domcart.Line `json:"items"`
	UpdatedAt string         `json:"updatedAt"`
}

type mirrorJob struct {
	uid   string
	lines []domcart.Line
	task  *SyncTask
}

// mirrorShard holds at most one pending job per uid. A newer snapshot
// replaces the pending one, since the remote write is a full overwrite.
type mirrorShard struct {
	mu      sync.Mutex
	pending map[string]*mirrorJob
	order   []string
	wake    chan struct{}
}

func newMirrorShard() *mirrorShard {
	return &mirrorShard{
		pending: make(map[string]*mirrorJob),
		wake:    make(chan struct{}, 1),
	}
}

func (s *mirrorShard) put(uid string, lines []domcart.Line, limit int) (*SyncTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.pending[uid]; ok {
		job.lines = lines
		return job.task, nil
	}
	if len(s.order) >= limit {
		return nil, ErrMirrorBusy
	}
	job := &mirrorJob{uid: uid, lines: lines, task: newTask()}
	s.pending[uid] = job
	s.order = append(s.order, uid)

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return job.task, nil
}

func (s *mirrorShard) take() *mirrorJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) == 0 {
		return nil
	}
	uid := s.order[0]
	s.order = s.order[1:]
	job := s.pending[uid]
	delete(s.pending, uid)
	return job
}

// Mirror copies signed-in carts to the document store in the background.
// Every uid hashes to one worker, so writes for a user land in submission
// order and the last local mutation is the last remote write. Enqueue never
// waits on the remote store.
type Mirror struct {
	remote    store.DocumentStore
	logger    *zap.Logger
	timeout   time.Duration
	queueSize int

	mu     sync.RWMutex
	closed bool
	quit   chan struct{}
	shards []*mirrorShard
	wg     sync.WaitGroup
}

// NewMirror starts the worker pool. Close must be called to stop it.
func NewMirror(remote store.DocumentStore, logger *zap.Logger, opts MirrorOptions) *Mirror {
	opts = opts.withDefaults()

	m := &Mirror{
		remote:    remote,
		logger:    logger,
		timeout:   opts.Timeout,
		queueSize: opts.QueueSize,
		quit:      make(chan struct{}),
		shards:    make([]*mirrorShard, opts.Workers),
	}
	for i := range m.shards {
		m.shards[i] = newMirrorShard()
		m.wg.Add(1)
		go m.worker(m.shards[i])
	}
	return m
}

// Load reads the remote cart for uid. found is false when no document exists.
func (m *Mirror) Load(ctx context.Context, uid string) (lines []domcart.Line, found bool, err error) {
	var doc remoteCart
	err = m.remote.Get(ctx, store.CollectionCarts, uid, &doc)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load remote cart: %w", err)
	}
	return doc.Items, true, nil
}

// Enqueue schedules a full overwrite of uid's remote cart and returns at
// once. If a write for uid is still queued, lines replace it and the same
// task is returned. A worker with QueueSize other users waiting rejects the
// write with ErrMirrorBusy.
func (m *Mirror) Enqueue(ctx context.Context, uid string, lines []domcart.Line) *SyncTask {
	if err := ctx.Err(); err != nil {
		return failedTask(err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return failedTask(ErrMirrorClosed)
	}

	task, err := m.shards[shard(uid, len(m.shards))].put(uid, lines, m.queueSize)
	if err != nil {
		m.logger.Warn("Remote cart write dropped", zap.String("uid", uid), zap.Error(err))
		return failedTask(err)
	}
	return task
}

// Close stops accepting writes and waits until queued writes are flushed or
// ctx is done.
func (m *Mirror) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.quit)
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cart mirror drain: %w", ctx.Err())
	}
}

func (m *Mirror) worker(s *mirrorShard) {
	defer m.wg.Done()
	for {
		select {
		case <-s.wake:
			m.drain(s)
		case <-m.quit:
			m.drain(s)
			return
		}
	}
}

func (m *Mirror) drain(s *mirrorShard) {
	for job := s.take(); job != nil; job = s.take() {
		job.task.finish(m.write(job))
	}
}

func (m *Mirror) write(job *mirrorJob) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	doc := remoteCart{
		Items:     job.lines,
		UpdatedAt: user.Timestamp(time.Now()),
	}
	if err := m.remote.Set(ctx, store.CollectionCarts, job.uid, doc); err != nil {
		m.logger.Warn("Remote cart write failed",
			zap.String("uid", job.uid),
			zap.Int("lines", len(job.lines)),
			zap.Error(err),
		)
		return fmt.Errorf("mirror cart %s: %w", job.uid, err)
	}
	return nil
}

func shard(uid string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(uid))
	return int(h.Sum32() % uint32(n))
}
