package taskqueue

import (
	"sync"

	"github.com/vnykmshr/taskpool/pkg/metrics"
)

// Task is an opaque unit of work. Arguments are bound by closure at submission time.
type Task func()

// Queue is a thread-safe, unbounded FIFO with blocking Pop and an idempotent
// shutdown signal. Items are opaque to the queue; a worker pool instantiates it
// with its own job type. The zero value is not usable; call New.
type Queue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	items    []T
	head     int
	shutdown bool

	name     string
	registry *metrics.Registry
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// NewWithMetrics creates a queue that reports its depth to registry under name.
func NewWithMetrics[T any](name string, registry *metrics.Registry) *Queue[T] {
	q := New[T]()
	q.name = name
	q.registry = registry
	q.reportDepth()
	return q
}

// Push appends item to the tail and wakes one blocked consumer.
// Push never blocks on capacity.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.reportDepth()
	q.mu.Unlock()

	q.notEmpty.Signal()
}

// Pop removes and returns the head item, blocking while the queue is empty
// and not shut down. ok is false only when the queue has been shut down and
// holds no more items.
func (q *Queue[T]) Pop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Spurious wakeups re-check the predicate.
	for q.lenLocked() == 0 && !q.shutdown {
		q.notEmpty.Wait()
	}

	if q.lenLocked() == 0 {
		return item, false
	}

	return q.takeLocked(), true
}

// TryPop is the non-blocking variant of Pop. ok is false when nothing is queued,
// regardless of shutdown state.
func (q *Queue[T]) TryPop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.lenLocked() == 0 {
		return item, false
	}

	return q.takeLocked(), true
}

// Shutdown marks the queue as shut down and wakes every blocked Pop.
// Calling it more than once is a no-op.
func (q *Queue[T]) Shutdown() {
	q.mu.Lock()
	if q.shutdown {
		q.mu.Unlock()
		return
	}
	q.shutdown = true
	q.mu.Unlock()

	q.notEmpty.Broadcast()
}

// IsShutdown reports whether Shutdown has been called.
func (q *Queue[T]) IsShutdown() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.shutdown
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lenLocked()
}

func (q *Queue[T]) takeLocked() T {
	var zero T
	item := q.items[q.head]
	q.items[q.head] = zero
	q.head++
	q.compactLocked()
	q.reportDepth()
	return item
}

func (q *Queue[T]) lenLocked() int {
	return len(q.items) - q.head
}

// compactLocked releases the consumed prefix once it dominates the backing array.
func (q *Queue[T]) compactLocked() {
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
		return
	}
	if q.head > 64 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
}

func (q *Queue[T]) reportDepth() {
	if q.registry == nil {
		return
	}
	q.registry.QueueDepth.WithLabelValues(q.name).Set(float64(q.lenLocked()))
}
