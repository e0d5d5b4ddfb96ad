/*
Package scheduler submits tasks into a workerpool.Pool on a timetable.

Entries are one-shot (At, After), fixed-interval (Every) or cron-driven
(Cron). When an entry comes due the scheduler hands its function to the
pool with Pool.Go; execution, panic recovery and metrics stay with the pool.

	pool := workerpool.New(4)
	defer pool.Shutdown()

	s, _ := scheduler.New(pool)
	_ = s.Cron("heartbeat", "@every 5s", func() error {
		return ping()
	})
	_ = s.Start()
	defer s.Stop()

Cron expressions accept an optional leading seconds field and the
descriptors understood by github.com/robfig/cron/v3 ("@hourly",
"@every 1m30s").

The scheduler never owns the pool. Once the pool shuts down, due entries
are rejected with an error matching workerpool.ErrPoolClosed and reported
through Config.OnSubmitError.
*/
package scheduler
