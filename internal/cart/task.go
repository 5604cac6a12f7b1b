package cart

import (
	"context"
	"sync"
)

// SyncStatus summarizes a SyncTask for API responses.
type SyncStatus string

const (
	SyncOK      SyncStatus = "ok"
	SyncSkipped SyncStatus = "skipped"
	SyncPending SyncStatus = "pending"
	SyncFailed  SyncStatus = "failed"
)

// SyncTask is the observable result of one remote cart write. Callers may
// wait for it or ignore it; the local cart is already updated either way.
type SyncTask struct {
	done    chan struct{}
	once    sync.Once
	err     error
	skipped bool
}

func newTask() *SyncTask {
	return &SyncTask{done: make(chan struct{})}
}

// skippedTask is returned for guests, who have no remote cart.
func skippedTask() *SyncTask {
	t := newTask()
	t.skipped = true
	t.finish(nil)
	return t
}

func failedTask(err error) *SyncTask {
	t := newTask()
	t.finish(err)
	return t
}

func (t *SyncTask) finish(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

// Done is closed once the write has finished or was skipped.
func (t *SyncTask) Done() <-chan struct{} {
	return t.done
}

// Err returns the write error. It is nil while the task is pending.
func (t *SyncTask) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Skipped reports whether no remote write was needed.
func (t *SyncTask) Skipped() bool {
	return t.skipped
}

// Wait blocks until the task finishes or ctx is done.
func (t *SyncTask) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *SyncTask) Status() SyncStatus {
	select {
	case <-t.done:
	default:
		return SyncPending
	}
	switch {
	case t.skipped:
		return SyncSkipped
	case t.err != nil:
		return SyncFailed
	default:
		return SyncOK
	}
}
