package watcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// blockingBuild counts builds and blocks each one until released.
type blockingBuild struct {
	started chan struct{}
	release chan struct{}
	active  atomic.Int32
	maxSeen atomic.Int32
	calls   atomic.Int32
}

func newBlockingBuild() *blockingBuild {
	return &blockingBuild{
		started: make(chan struct{}, 10),
		release: make(chan struct{}),
	}
}

func (b *blockingBuild) build(ctx context.Context) error {
	n := b.active.Add(1)
	defer b.active.Add(-1)
	for {
		old := b.maxSeen.Load()
		if n <= old || b.maxSeen.CompareAndSwap(old, n) {
			break
		}
	}
	b.calls.Add(1)
	b.started <- struct{}{}

	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return nil
}

func waitStarted(t *testing.T, b *blockingBuild) {
	t.Helper()
	select {
	case <-b.started:
	case <-time.After(2 * time.Second):
		t.Fatal("build did not start")
	}
}

func TestBuildQueueSingleTrigger(t *testing.T) {
	var calls atomic.Int32
	q := NewBuildQueue(func(context.Context) error {
		calls.Add(1)
		return nil
	}, 10*time.Millisecond, nil)

	q.Trigger(context.Background())
	q.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, q.Runs())
	assert.False(t, q.Building())
}

func TestBuildQueueCoalescesTriggersDuringBuild(t *testing.T) {
	b := newBlockingBuild()
	q := NewBuildQueue(b.build, 10*time.Millisecond, nil)
	ctx := context.Background()

	q.Trigger(ctx)
	waitStarted(t, b)
	assert.True(t, q.Building())

	for i := 0; i < 5; i++ {
		q.Trigger(ctx)
	}
	b.release <- struct{}{}

	waitStarted(t, b)
	b.release <- struct{}{}
	q.Wait()

	assert.Equal(t, int32(2), b.calls.Load(), "one build plus exactly one follow-up")
	assert.Equal(t, int32(1), b.maxSeen.Load(), "builds never overlap")
}

func TestBuildQueueNoFollowUpWithoutChanges(t *testing.T) {
	b := newBlockingBuild()
	q := NewBuildQueue(b.build, 10*time.Millisecond, nil)

	q.Trigger(context.Background())
	waitStarted(t, b)
	b.release <- struct{}{}
	q.Wait()

	assert.Equal(t, int32(1), b.calls.Load())
}

func TestBuildQueueTriggerAfterIdle(t *testing.T) {
	var calls atomic.Int32
	q := NewBuildQueue(func(context.Context) error {
		calls.Add(1)
		return fmt.Errorf("page failed")
	}, 0, nil)

	q.Trigger(context.Background())
	q.Wait()
	q.Trigger(context.Background())
	q.Wait()

	assert.Equal(t, int32(2), calls.Load(), "a failed build does not block later ones")
}

func TestBuildQueueCancelledDuringBuild(t *testing.T) {
	b := newBlockingBuild()
	q := NewBuildQueue(b.build, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())

	q.Trigger(ctx)
	waitStarted(t, b)
	q.Trigger(ctx)
	cancel()
	q.Wait()

	assert.Equal(t, int32(1), b.calls.Load(), "no follow-up after cancellation")
	assert.False(t, q.Building())
}

func TestBuildQueueConcurrentTriggers(t *testing.T) {
	b := newBlockingBuild()
	q := NewBuildQueue(b.build, time.Millisecond, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Trigger(ctx)
		}()
	}

	waitStarted(t, b)
	wg.Wait()
	b.release <- struct{}{}

	// at most one follow-up
	select {
	case <-b.started:
		b.release <- struct{}{}
	case <-time.After(200 * time.Millisecond):
	}
	q.Wait()

	assert.LessOrEqual(t, b.calls.Load(), int32(2))
	assert.Equal(t, int32(1), b.maxSeen.Load())
}
