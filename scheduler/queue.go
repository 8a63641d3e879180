package scheduler

import (
	"context"
	"fmt"

	conq "github.com/enriquebris/goconcurrentqueue"
	"go.uber.org/zap"
)

type fifo interface {
	Enqueue(*task) error
	Dequeue() (*task, error)
	DequeueOrWaitForNextElementContext(ctx context.Context) (*task, error)
	GetLen() int
}

type conqFIFO struct {
	conq.FIFO
}

func newConqFIFO() *conqFIFO {
	return &conqFIFO{
		FIFO: *conq.NewFIFO(),
	}
}

func (c *conqFIFO) Enqueue(t *task) error {
	return c.FIFO.Enqueue(t)
}

func (c *conqFIFO) Dequeue() (*task, error) {
	tmp, err := c.FIFO.Dequeue()
	if err != nil {
		return nil, err
	}
	return tmp.(*task), nil
}

func (c *conqFIFO) DequeueOrWaitForNextElementContext(ctx context.Context) (*task, error) {
	tmp, err := c.FIFO.DequeueOrWaitForNextElementContext(ctx)
	if err != nil {
		return nil, err
	}
	return tmp.(*task), nil
}

func (c *conqFIFO) GetLen() int {
	return c.FIFO.GetLen()
}

// taskQueue is an unbounded FIFO of pending tasks shared by the workers of a Pool.
type taskQueue struct {
	fifo fifo
}

func newTaskQueue() *taskQueue {
	return &taskQueue{fifo: newConqFIFO()}
}

func (q *taskQueue) Put(t *task) error {
	zap.L().Debug(fmt.Sprintf("putting task %s/%d to the queue", t.batch, t.index))
	return q.fifo.Enqueue(t)
}

// Take waits until a task is enqueued or ctx is done.
func (q *taskQueue) Take(ctx context.Context) (*task, error) {
	t, err := q.fifo.DequeueOrWaitForNextElementContext(ctx)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (q *taskQueue) Len() int {
	return q.fifo.GetLen()
}
