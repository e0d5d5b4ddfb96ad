/*
Package scheduling provides task execution primitives for Go applications.

  - taskqueue: Blocking FIFO queue shared by producers and workers
  - workerpool: Fixed worker pool executing tasks and returning typed results
  - scheduler: Time-based submission of tasks into a worker pool

Worker Pool:

The worker pool runs submitted functions on a fixed set of goroutines:

	pool := workerpool.New(4)
	defer pool.Shutdown()

	h, err := workerpool.Submit(pool, func() (string, error) {
		return fetch()
	})
	if err != nil {
		// pool is shutting down
	}
	body, err := h.Get()

Shutdown stops accepting work, lets the workers drain everything already
queued and returns once they have exited.

Task Queue:

The queue is the pool's building block and can be used on its own:

	q := taskqueue.New[taskqueue.Task]()
	q.Push(func() { fmt.Println("hello") })

	task, ok := q.Pop() // blocks until an item arrives or Shutdown
	if ok {
		task()
	}

Scheduler:

The scheduler hands due entries to a pool:

	s, _ := scheduler.New(pool)
	_ = s.Every("poll", 30*time.Second, poll)
	_ = s.Cron("report", "0 9 * * MON-FRI", report)
	_ = s.Start()
	defer s.Stop()

All components are safe for concurrent use.
*/
package scheduling
