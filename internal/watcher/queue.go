package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/mtb-build/mtb/internal/logging"
)

// DefaultFollowUpDelay separates a build from the follow-up build requested
// while it ran.
const DefaultFollowUpDelay = 100 * time.Millisecond

// BuildFunc performs one build.
type BuildFunc func(ctx context.Context) error

// BuildQueue runs at most one build at a time. A trigger that arrives while a
// build is running marks the queue pending; when the build finishes exactly
// one follow-up build runs after a short delay, however many triggers
// arrived in between.
type BuildQueue struct {
	build    BuildFunc
	delay    time.Duration
	logger   logging.Logger
	mutex    sync.Mutex
	building bool
	pending  bool
	runs     int
	wg       sync.WaitGroup
}

// NewBuildQueue creates a queue around build. A non-positive delay uses
// DefaultFollowUpDelay.
func NewBuildQueue(build BuildFunc, delay time.Duration, logger logging.Logger) *BuildQueue {
	if delay <= 0 {
		delay = DefaultFollowUpDelay
	}

	return &BuildQueue{
		build:  build,
		delay:  delay,
		logger: logging.OrNop(logger).WithComponent("build-queue"),
	}
}

// Trigger requests a build. It starts one immediately when the queue is idle
// and otherwise records a pending follow-up. It never blocks on the build.
func (q *BuildQueue) Trigger(ctx context.Context) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.building {
		q.pending = true
		return
	}

	q.building = true
	q.wg.Add(1)
	go q.run(ctx)
}

// Building reports whether a build is running or a follow-up is scheduled.
func (q *BuildQueue) Building() bool {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.building
}

// Runs returns the number of builds executed so far.
func (q *BuildQueue) Runs() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.runs
}

// Wait blocks until the queue is idle.
func (q *BuildQueue) Wait() {
	q.wg.Wait()
}

func (q *BuildQueue) run(ctx context.Context) {
	defer q.wg.Done()

	for {
		q.execute(ctx)

		q.mutex.Lock()
		if !q.pending || ctx.Err() != nil {
			q.building = false
			q.pending = false
			q.mutex.Unlock()
			return
		}
		q.mutex.Unlock()

		select {
		case <-time.After(q.delay):
		case <-ctx.Done():
			q.mutex.Lock()
			q.building = false
			q.pending = false
			q.mutex.Unlock()
			return
		}

		// The follow-up covers every change seen until now.
		q.mutex.Lock()
		q.pending = false
		q.mutex.Unlock()
	}
}

func (q *BuildQueue) execute(ctx context.Context) {
	q.mutex.Lock()
	q.runs++
	q.mutex.Unlock()

	if err := q.build(ctx); err != nil {
		q.logger.Error(ctx, err, "build failed")
		return
	}
	q.logger.Info(ctx, "build completed successfully")
}
