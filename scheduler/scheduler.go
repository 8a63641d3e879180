// Package scheduler runs independent tasks on a fixed set of workers fed from a
// concurrent FIFO.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type task struct {
	batch string
	index int
	run   func()
}

type Pool struct {
	queue   *taskQueue
	workers int
	cancel  context.CancelFunc
	running sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewPool returns a pool of workers goroutines. Values below one mean a single worker.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		queue:   newTaskQueue(),
		workers: workers,
	}
}

func (p *Pool) Workers() int {
	return p.workers
}

// Start launches the workers. Calling it on a started pool does nothing.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.started = true
	for w := 0; w < p.workers; w++ {
		p.running.Add(1)
		go func(w int) {
			defer p.running.Done()
			for {
				t, err := p.queue.Take(ctx)
				if err != nil {
					zap.L().Debug(fmt.Sprintf("worker %d stopped. Reason:%s", w, err))
					return
				}
				t.run()
			}
		}(w)
	}
	zap.L().Debug(fmt.Sprintf("started %d workers", p.workers))
}

// TearDown stops the workers after their current task. Tasks left in the queue are dropped.
func (p *Pool) TearDown() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.started = false
	p.mu.Unlock()
	p.running.Wait()
}

func (p *Pool) PendingTasks() int {
	return p.queue.Len()
}

// Map runs fn for every index in [0,n) on the pool and returns the results in index
// order. A failing or panicking task does not stop the others; the errors of all failed
// tasks are combined. The pool is started if needed.
func Map[T any](ctx context.Context, p *Pool, n int, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	p.Start()
	results := make([]T, n)
	errs := make([]error, n)
	batch := uuid.NewString()
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		t := &task{
			batch: batch,
			index: i,
			run: func() {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						zap.L().Error(fmt.Sprintf("task %s/%d panicked: %v\n%s", batch, i, r, debug.Stack()))
						errs[i] = errors.Errorf("task %d panicked: %v", i, r)
					}
				}()
				if err := ctx.Err(); err != nil {
					errs[i] = errors.Wrapf(err, "task %d", i)
					return
				}
				v, err := fn(ctx, i)
				if err != nil {
					errs[i] = errors.Wrapf(err, "task %d", i)
					return
				}
				results[i] = v
			},
		}
		if err := p.queue.Put(t); err != nil {
			wg.Done()
			errs[i] = errors.Wrapf(err, "failed to enqueue task %d", i)
		}
	}
	wg.Wait()
	if err := multierr.Combine(errs...); err != nil {
		return nil, err
	}
	return results, nil
}
