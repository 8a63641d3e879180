//go:build unit
// +build unit

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueueOrder(t *testing.T) {
	q := newTaskQueue()
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Put(&task{batch: "b", index: i}))
	}
	assert.Equal(t, 3, q.Len())
	for i := 0; i < 3; i++ {
		got, err := q.Take(context.Background())
		require.NoError(t, err)
		assert.Equal(t, i, got.index)
	}
	_, err := q.fifo.Dequeue()
	assert.EqualError(t, err, "empty queue")
}

func TestTaskQueueTakeWaits(t *testing.T) {
	q := newTaskQueue()
	go func() {
		time.Sleep(5 * time.Millisecond)
		_ = q.Put(&task{batch: "late", index: 7})
	}()
	got, err := q.Take(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "late", got.batch)
}

func TestTaskQueueTakeCanceled(t *testing.T) {
	q := newTaskQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err := q.Take(ctx)
	assert.Error(t, err)
}
