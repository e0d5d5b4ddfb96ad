/*
Package workerpool provides a fixed-size worker pool that returns a Handle for
every submitted task.

A pool starts a fixed number of worker goroutines at construction. They share
one unbounded FIFO queue (see package taskqueue). Submitting never blocks the
caller; the returned Handle is settled by whichever worker runs the task.

Basic usage:

	pool := workerpool.New(4)
	defer pool.Shutdown()

	h, err := workerpool.Submit(pool, func() (int, error) {
		return 6 * 7, nil
	})
	if err != nil {
		log.Printf("Failed to submit: %v", err)
		return
	}

	answer, err := h.Get() // blocks until the task has run

Submission Methods:

Methods cannot be generic in Go, so value-returning submission is done with
package-level functions:

	// Closure returning a value
	h, err := workerpool.Submit(pool, func() (string, error) { return fetch(url) })

	// Function plus argument, argument captured now
	h, err := workerpool.SubmitArg(pool, square, 10)

	// No value, only an error
	h, err := pool.Go(func() error { return cleanup() })

Handles:

A Handle is settled exactly once. Get blocks and may be called repeatedly;
Wait bounds the wait with a context; Done and Ready support select loops and
polling:

	select {
	case <-h.Done():
		v, err := h.Get()
	case <-time.After(time.Second):
		// still running
	}

Error Handling:

A task's returned error is handed back unchanged by Get, so errors.Is and
errors.As work on it. A panicking task does not kill its worker: the panic is
recovered and Get returns a *errors.PanicError holding the value and stack.

Submitting after Shutdown has begun fails with an error matching ErrPoolClosed.
A nil function is rejected with a *errors.ValidationError.

Graceful Shutdown:

Shutdown rejects new work, lets the workers drain every task already queued,
and returns once all of them have exited. It is idempotent. A task that needs
to stop its own pool should call ShutdownAsync instead, since Shutdown waits
for the calling worker too.

	pool.Shutdown()
	<-pool.Done() // already closed

Lifecycle Callbacks and Metrics:

	registry := metrics.NewRegistry(prometheus.NewRegistry())
	pool, err := workerpool.NewWithConfig(workerpool.Config{
		WorkerCount: 8,
		Name:        "thumbnails",
		Metrics:     registry,
		OnTaskComplete: func(info workerpool.TaskInfo) {
			if info.Err != nil {
				log.Printf("worker %d: %v", info.WorkerID, info.Err)
			}
		},
	})

Hooks run on worker goroutines; a panicking hook is discarded.

Ordering:

Tasks start in submission order. With more than one worker their completion
order is unspecified.
*/
package workerpool
