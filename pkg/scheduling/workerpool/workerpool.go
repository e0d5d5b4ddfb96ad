package workerpool

import (
	"errors"
	"runtime/debug"
	"time"

	tperrors "github.com/vnykmshr/taskpool/pkg/common/errors"
	"github.com/vnykmshr/taskpool/pkg/common/validation"
)

// Submit queues fn for execution and returns a Handle for its result.
// It never blocks on the task. It fails with a ValidationError if p or fn is
// nil and with an error matching ErrPoolClosed once Shutdown has begun.
func Submit[R any](p *Pool, fn func() (R, error)) (*Handle[R], error) {
	if err := validation.ValidateNotNil(moduleName, "pool", p); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotNil(moduleName, "fn", fn); err != nil {
		return nil, err
	}

	h := newHandle[R]()
	err := p.enqueue(func() error {
		return execute(fn, h)
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// SubmitArg queues fn(arg). arg is captured when SubmitArg is called, not
// when the task runs.
func SubmitArg[A, R any](p *Pool, fn func(A) (R, error), arg A) (*Handle[R], error) {
	if err := validation.ValidateNotNil(moduleName, "pool", p); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotNil(moduleName, "fn", fn); err != nil {
		return nil, err
	}
	return Submit(p, func() (R, error) {
		return fn(arg)
	})
}

// Go queues a task that produces no value.
func (p *Pool) Go(fn func() error) (*Handle[struct{}], error) {
	if err := validation.ValidateNotNil(moduleName, "pool", p); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotNil(moduleName, "fn", fn); err != nil {
		return nil, err
	}
	return Submit(p, func() (struct{}, error) {
		return struct{}{}, fn()
	})
}

// enqueue pushes run while holding the read lock so it cannot interleave
// with the state flip in Shutdown: a job is either queued before the queue
// is shut down, and therefore drained, or rejected.
func (p *Pool) enqueue(run func() error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.state != StateActive {
		p.inst.rejected()
		return tperrors.NewOperationError(moduleName, "Submit", ErrPoolClosed).
			WithContext("pool is " + p.state.String())
	}

	p.totalSubmitted.Add(1)
	p.inst.submitted()
	p.queue.Push(job{run: run, submitted: time.Now()})
	return nil
}

// Shutdown stops accepting tasks, lets the workers drain everything already
// queued, and blocks until every worker has exited. It is safe to call more
// than once and from several goroutines; later calls wait for the first.
// Calling Shutdown from inside a task deadlocks; use ShutdownAsync there.
func (p *Pool) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.setState(StateShuttingDown)
		p.queue.Shutdown()

		p.workerWg.Wait()

		p.setState(StateStopped)
		p.inst.stopped()
		close(p.done)
	})
	<-p.done
}

// ShutdownAsync starts Shutdown in the background and returns Done().
func (p *Pool) ShutdownAsync() <-chan struct{} {
	go p.Shutdown()
	return p.done
}

// run is the main loop for a worker.
func (w *worker) run() {
	defer w.pool.workerWg.Done()

	cfg := &w.pool.config
	if cfg.OnWorkerStart != nil {
		safeCall(func() { cfg.OnWorkerStart(w.id) })
	}
	if cfg.OnWorkerStop != nil {
		defer safeCall(func() { cfg.OnWorkerStop(w.id) })
	}

	for {
		j, ok := w.pool.queue.Pop()
		if !ok {
			return
		}
		w.executeJob(j)
	}
}

// executeJob runs one job with accounting and hooks around it.
func (w *worker) executeJob(j job) {
	p := w.pool
	cfg := &p.config

	p.activeWorkers.Add(1)
	p.inst.taskStarted()

	start := time.Now()
	wait := start.Sub(j.submitted)

	if cfg.OnTaskStart != nil {
		safeCall(func() { cfg.OnTaskStart(w.id) })
	}

	err := j.run()
	duration := time.Since(start)

	var perr *tperrors.PanicError
	panicked := errors.As(err, &perr)
	if panicked && cfg.PanicHandler != nil {
		safeCall(func() { cfg.PanicHandler(perr.Value) })
	}

	if err != nil {
		p.totalFailed.Add(1)
	}
	p.totalCompleted.Add(1)
	p.inst.finished(wait, duration, err, panicked)

	// The gauge drops before the counter so ActiveWorkers() == 0 implies
	// the gauge has settled too.
	p.inst.taskEnded()
	p.activeWorkers.Add(-1)

	if cfg.OnTaskComplete != nil {
		info := TaskInfo{
			WorkerID:  w.id,
			QueueWait: wait,
			Duration:  duration,
			Err:       err,
		}
		safeCall(func() { cfg.OnTaskComplete(info) })
	}
}

// execute runs fn and settles h exactly once. A panic in fn is recovered and
// stored as *errors.PanicError so the worker survives it.
func execute[R any](fn func() (R, error), h *Handle[R]) (err error) {
	var value R
	defer func() {
		if r := recover(); r != nil {
			var zero R
			value = zero
			err = &tperrors.PanicError{Value: r, Stack: debug.Stack()}
		}
		h.complete(value, err)
	}()

	value, err = fn()
	return err
}

// safeCall runs a user hook, discarding any panic so it cannot kill a worker.
func safeCall(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}
