package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordwire/internal/ir"
)

func TestEventQueue_FIFO(t *testing.T) {
	q := newEventQueue()

	for i := range 3 {
		require.True(t, q.Enqueue(Break(ir.P(i, 0, 0))))
	}

	for i := range 3 {
		ev, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, ir.P(i, 0, 0), ev.Pos)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestEventQueue_SignalsAvailability(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(Save())
	q.Enqueue(Save())

	select {
	case <-q.Wait():
	default:
		t.Fatal("expected a pending signal after enqueue")
	}
	assert.Equal(t, 2, q.Len())
}

func TestEventQueue_Close(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(Save())
	q.Close()
	q.Close()

	assert.False(t, q.Enqueue(Save()), "enqueue after close should fail")
	assert.False(t, q.Done(), "queued events remain after close")

	_, ok := q.TryDequeue()
	require.True(t, ok)
	assert.True(t, q.Done())

	_, open := <-q.Wait()
	assert.False(t, open, "signal channel closes with the queue")
}

func TestEventQueue_Drain(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(Save())
	q.Enqueue(Break(ir.P(1, 1, 1)))

	drained := q.Drain()
	assert.Len(t, drained, 2)
	assert.Equal(t, 0, q.Len())
}

func TestEventQueue_ConcurrentEnqueue(t *testing.T) {
	q := newEventQueue()
	const producers, perProducer = 10, 100

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perProducer {
				q.Enqueue(Break(ir.P(p, i, 0)))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, q.Len())
}
