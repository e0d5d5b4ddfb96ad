package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/vnykmshr/taskpool/internal/config"
	"github.com/vnykmshr/taskpool/pkg/metrics"
	"github.com/vnykmshr/taskpool/pkg/scheduling/scheduler"
	"github.com/vnykmshr/taskpool/pkg/scheduling/workerpool"
)

// TaskRecord is the observed outcome of one load task.
type TaskRecord struct {
	ID   int
	Wait time.Duration
	Ran  time.Duration
	Err  error
}

// WorkerStat aggregates what one worker did during the run.
type WorkerStat struct {
	ID    int
	Tasks int
	Busy  time.Duration
}

// Report is everything printed after a run.
type Report struct {
	Config       config.Config
	Tasks        []TaskRecord
	Workers      []WorkerStat
	SquareResult int
	Elapsed      time.Duration
	Failed       int
	Heartbeats   int64
}

// SerialEstimate is how long the load tasks would take on one worker.
func (r *Report) SerialEstimate() time.Duration {
	return time.Duration(r.Config.Tasks) * r.Config.TaskDuration
}

// timing is what each load task reports back through its handle.
type timing struct {
	wait time.Duration
	ran  time.Duration
}

type workerStats struct {
	mu    sync.Mutex
	stats map[int]*WorkerStat
}

func newWorkerStats() *workerStats {
	return &workerStats{stats: make(map[int]*WorkerStat)}
}

func (s *workerStats) record(info workerpool.TaskInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stats[info.WorkerID]
	if !ok {
		st = &WorkerStat{ID: info.WorkerID}
		s.stats[info.WorkerID] = st
	}
	st.Tasks++
	st.Busy += info.Duration
}

func (s *workerStats) snapshot() []WorkerStat {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]WorkerStat, 0, len(s.stats))
	for _, st := range s.stats {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// loadTask returns the body of a sleep task submitted at submitted.
func loadTask(cfg config.Config, submitted time.Time) func(id int) (timing, error) {
	return func(id int) (timing, error) {
		start := time.Now()
		time.Sleep(cfg.TaskDuration)
		t := timing{wait: start.Sub(submitted), ran: time.Since(start)}

		if cfg.FailEvery > 0 && (id+1)%cfg.FailEvery == 0 {
			return t, fmt.Errorf("task %d: simulated failure", id)
		}
		return t, nil
	}
}

func square(x int) (int, error) {
	return x * x, nil
}

// runLoad drives one pool through the configured load and returns what happened.
// The pool is always shut down before runLoad returns. When a heartbeat
// schedule is configured it keeps submitting into the same pool until the
// load has drained.
func runLoad(ctx context.Context, cfg config.Config, registry *metrics.Registry, progress io.Writer) (*Report, error) {
	stats := newWorkerStats()

	pool, err := workerpool.NewWithConfig(workerpool.Config{
		WorkerCount:    cfg.Workers,
		Name:           cfg.PoolName,
		Metrics:        registry,
		OnTaskComplete: stats.record,
	})
	if err != nil {
		return nil, err
	}
	defer pool.Shutdown()

	var (
		heartbeats atomic.Int64
		sched      *scheduler.Scheduler
	)
	if cfg.Heartbeat != "" {
		if sched, err = scheduler.New(pool); err != nil {
			return nil, err
		}
		if err := sched.Cron("heartbeat", cfg.Heartbeat, func() error {
			heartbeats.Add(1)
			return nil
		}); err != nil {
			return nil, err
		}
		if err := sched.Start(); err != nil {
			return nil, err
		}
		defer sched.Stop()
	}

	var limiter *rate.Limiter
	if cfg.SubmitRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.SubmitRate), cfg.Burst)
	}

	handles := make([]*workerpool.Handle[timing], cfg.Tasks)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for p := 0; p < cfg.Producers; p++ {
		g.Go(func() error {
			for id := p; id < cfg.Tasks; id += cfg.Producers {
				if limiter != nil {
					if err := limiter.Wait(gctx); err != nil {
						return err
					}
				}
				h, err := workerpool.SubmitArg(pool, loadTask(cfg, time.Now()), id)
				if err != nil {
					return fmt.Errorf("submit task %d: %w", id, err)
				}
				handles[id] = h
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	squareHandle, err := workerpool.SubmitArg(pool, square, cfg.Square)
	if err != nil {
		return nil, fmt.Errorf("submit square: %w", err)
	}

	var bar *progressbar.ProgressBar
	if progress != nil {
		bar = progressbar.NewOptions(cfg.Tasks+1,
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetDescription("Draining tasks"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	report := &Report{Config: cfg, Tasks: make([]TaskRecord, cfg.Tasks)}
	for id, h := range handles {
		t, err := h.Wait(ctx)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		report.Tasks[id] = TaskRecord{ID: id, Wait: t.wait, Ran: t.ran, Err: err}
		if err != nil {
			report.Failed++
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	report.SquareResult, err = squareHandle.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if sched != nil {
		sched.Stop()
	}
	pool.Shutdown()
	report.Elapsed = time.Since(start)
	report.Heartbeats = heartbeats.Load()
	report.Workers = stats.snapshot()

	return report, nil
}
