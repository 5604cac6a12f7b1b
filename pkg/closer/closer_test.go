package closer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloser_ClosesInReverseOrder(t *testing.T) {
	c := New(time.Second)

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) Func {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}
	c.Add(record("db"))
	c.Add(record("mirror"))
	c.Add(record("http"))

	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, []string{"http", "mirror", "db"}, order)
}

func TestCloser_CollectsErrors(t *testing.T) {
	c := New(time.Second)
	c.AddErr("redis", func() error { return errors.New("connection reset") })
	c.Add(func(context.Context) error { return nil })

	err := c.Close(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis: connection reset")
}

func TestCloser_CloseRunsOnce(t *testing.T) {
	c := New(time.Second)
	calls := 0
	c.Add(func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestCloser_ForcesRemainingOnTimeout(t *testing.T) {
	c := New(500 * time.Millisecond)

	forced := make(chan struct{}, 1)
	c.Add(func(ctx context.Context) error {
		if ctx.Err() == nil {
			forced <- struct{}{}
		}
		return nil
	})
	c.Add(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Close(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown interrupted")
	select {
	case <-forced:
	case <-time.After(time.Second):
		t.Fatal("remaining func was not force-closed")
	}
}
