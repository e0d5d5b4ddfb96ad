package workerpool

import (
	"context"
)

// Handle is the one-shot result of a submitted task. The worker that runs the
// task settles it exactly once; any number of goroutines may read it.
type Handle[R any] struct {
	done  chan struct{}
	value R
	err   error
}

func newHandle[R any]() *Handle[R] {
	return &Handle[R]{done: make(chan struct{})}
}

// complete is called once by the executing worker.
func (h *Handle[R]) complete(value R, err error) {
	h.value = value
	h.err = err
	close(h.done)
}

// Get blocks until the task has finished and returns its value and error.
// A task that panicked yields a *errors.PanicError. Get may be called any
// number of times and always returns the same outcome.
func (h *Handle[R]) Get() (R, error) {
	<-h.done
	return h.value, h.err
}

// Wait is Get bounded by ctx. If ctx ends first it returns ctx.Err(); the
// task itself keeps running and a later Get still observes its outcome.
func (h *Handle[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// Done returns a channel that is closed once the task has finished.
func (h *Handle[R]) Done() <-chan struct{} {
	return h.done
}

// Ready reports, without blocking, whether the task has finished.
func (h *Handle[R]) Ready() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}
