/*
Package taskpool provides a fixed-size worker pool for Go applications,
with typed result handles and graceful shutdown.

Task Execution (pkg/scheduling):
  - taskqueue: Unbounded blocking FIFO queue with a shutdown signal
  - workerpool: Fixed set of workers draining the queue, typed Handles for results
  - scheduler: One-shot, interval and cron submission into a pool

Support (pkg/metrics, pkg/common):
  - metrics: Prometheus instrumentation for pools and queues
  - errors: Validation, operation and panic error types
  - validation: Parameter checks shared by constructors

Example usage:

	import "github.com/vnykmshr/taskpool/pkg/scheduling/workerpool"

	pool := workerpool.New(4) // 4 workers
	defer pool.Shutdown()

	h, err := workerpool.SubmitArg(pool, func(x int) (int, error) {
		return x * x, nil
	}, 10)
	if err != nil {
		return err // pool already shut down
	}
	square, err := h.Get() // 100, nil
*/
package taskpool
