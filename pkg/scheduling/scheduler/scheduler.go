package scheduler

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	tperrors "github.com/vnykmshr/taskpool/pkg/common/errors"
	"github.com/vnykmshr/taskpool/pkg/common/validation"
	"github.com/vnykmshr/taskpool/pkg/scheduling/workerpool"
)

const moduleName = "scheduler"

// Entry describes a scheduled task.
type Entry struct {
	ID       string
	NextRun  time.Time
	Interval time.Duration // zero for one-shot and cron entries
	Cron     string        // empty unless scheduled with Cron
	Runs     int           // submissions accepted by the pool so far
	Created  time.Time
}

// Config holds scheduler configuration.
type Config struct {
	// Location is used to evaluate cron expressions. Defaults to time.Local.
	Location *time.Location

	// TickInterval is how often due entries are checked. Defaults to 50ms.
	TickInterval time.Duration

	// MaxEntries caps the number of scheduled entries. Defaults to 10000.
	MaxEntries int

	// OnSubmitError is called when the pool rejects a due entry,
	// typically because it has been shut down.
	OnSubmitError func(id string, err error)

	// OnResult is called with the outcome of every submitted run.
	OnResult func(id string, err error)
}

type entry struct {
	id       string
	fn       func() error
	runAt    time.Time
	interval time.Duration
	expr     string
	schedule cron.Schedule
	runs     int
	created  time.Time

	// dueAt is the runAt that made the entry due in the current dispatch.
	dueAt time.Time
}

// Scheduler submits tasks into a worker pool at fixed times, at fixed
// intervals or on cron schedules. The pool is owned by the caller and is
// not shut down by Stop.
type Scheduler struct {
	pool         *workerpool.Pool
	location     *time.Location
	tickInterval time.Duration
	maxEntries   int
	parser       cron.Parser
	config       Config

	mu      sync.Mutex
	entries map[string]*entry
	running bool
	done    chan struct{}
	stopped chan struct{}
	results sync.WaitGroup
}

// New creates a scheduler feeding pool.
func New(pool *workerpool.Pool) (*Scheduler, error) {
	return NewWithConfig(pool, Config{})
}

// NewWithConfig creates a scheduler feeding pool with custom configuration.
func NewWithConfig(pool *workerpool.Pool, config Config) (*Scheduler, error) {
	if err := validation.ValidateNotNil(moduleName, "pool", pool); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative(moduleName, "tick_interval", float64(config.TickInterval)); err != nil {
		return nil, err
	}

	location := config.Location
	if location == nil {
		location = time.Local
	}
	tick := config.TickInterval
	if tick == 0 {
		tick = 50 * time.Millisecond
	}
	maxEntries := config.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 10000
	}

	return &Scheduler{
		pool:         pool,
		location:     location,
		tickInterval: tick,
		maxEntries:   maxEntries,
		parser:       cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		config:       config,
		entries:      make(map[string]*entry),
	}, nil
}

// At schedules fn to be submitted once at runAt.
func (s *Scheduler) At(id string, runAt time.Time, fn func() error) error {
	if runAt.IsZero() {
		return tperrors.NewValidationError(moduleName, "run_at", runAt, "cannot be zero")
	}
	return s.add(&entry{id: id, fn: fn, runAt: runAt})
}

// After schedules fn to be submitted once after delay.
func (s *Scheduler) After(id string, delay time.Duration, fn func() error) error {
	return s.At(id, time.Now().Add(delay), fn)
}

// Every schedules fn to be submitted every interval, starting with the next tick.
func (s *Scheduler) Every(id string, interval time.Duration, fn func() error) error {
	if err := validation.ValidatePositive(moduleName, "interval", int(interval)); err != nil {
		return err
	}
	return s.add(&entry{id: id, fn: fn, runAt: time.Now(), interval: interval})
}

// Cron schedules fn on a cron expression. Five fields (minute precision),
// six fields (leading seconds) and descriptors such as "@hourly" are accepted.
func (s *Scheduler) Cron(id, expr string, fn func() error) error {
	if err := validation.ValidateNotEmpty(moduleName, "cron", expr); err != nil {
		return err
	}
	schedule, err := s.parser.Parse(expr)
	if err != nil {
		return tperrors.NewValidationError(moduleName, "cron", expr, err.Error()).
			WithHint(`use "sec min hour dom month dow" or a descriptor like "@every 1s"`)
	}
	return s.add(&entry{
		id:       id,
		fn:       fn,
		runAt:    schedule.Next(time.Now().In(s.location)),
		expr:     expr,
		schedule: schedule,
	})
}

func (s *Scheduler) add(e *entry) error {
	if err := validation.ValidateNotEmpty(moduleName, "id", e.id); err != nil {
		return err
	}
	if err := validation.ValidateNotNil(moduleName, "task", e.fn); err != nil {
		return err
	}
	e.created = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[e.id]; exists {
		return tperrors.NewValidationError(moduleName, "id", e.id, "already scheduled").
			WithHint("cancel the existing entry first")
	}
	if len(s.entries) >= s.maxEntries {
		return tperrors.NewOperationError(moduleName, "Schedule",
			fmt.Errorf("maximum number of entries (%d) reached", s.maxEntries))
	}

	s.entries[e.id] = e
	return nil
}

// Cancel removes an entry. It reports whether the entry existed.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; exists {
		delete(s.entries, id)
		return true
	}
	return false
}

// CancelAll removes every entry.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*entry)
}

// List returns the scheduled entries ordered by next run time.
func (s *Scheduler) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		list = append(list, Entry{
			ID:       e.id,
			NextRun:  e.runAt,
			Interval: e.interval,
			Cron:     e.expr,
			Runs:     e.runs,
			Created:  e.created,
		})
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].NextRun.Before(list[j].NextRun)
	})
	return list
}

// Start begins checking for due entries.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return tperrors.NewOperationError(moduleName, "Start", fmt.Errorf("already running"))
	}

	s.running = true
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})
	go s.run(s.done, s.stopped)
	return nil
}

// Stop halts the scheduler and waits for its loop to exit and for pending
// OnResult callbacks to fire. Runs already submitted keep executing in the
// pool; if none are waited on, Stop returns as soon as the loop exits.
// Stop is safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.done)
	stopped := s.stopped
	s.mu.Unlock()

	<-stopped
	s.results.Wait()
}

func (s *Scheduler) run(done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			s.dispatch(now)
		}
	}
}

// dispatch submits every entry due at now and reschedules repeating ones.
func (s *Scheduler) dispatch(now time.Time) {
	s.mu.Lock()
	var due []*entry
	for id, e := range s.entries {
		if e.runAt.After(now) {
			continue
		}
		e.dueAt = e.runAt
		due = append(due, e)

		switch {
		case e.interval > 0:
			e.runAt = now.Add(e.interval)
		case e.schedule != nil:
			e.runAt = e.schedule.Next(now.In(s.location))
		default:
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()

	// Entries due in the same tick reach the pool in the order List reports.
	sort.Slice(due, func(i, j int) bool {
		if !due[i].dueAt.Equal(due[j].dueAt) {
			return due[i].dueAt.Before(due[j].dueAt)
		}
		return due[i].id < due[j].id
	})

	for _, e := range due {
		h, err := s.pool.Go(e.fn)
		if err != nil {
			if s.config.OnSubmitError != nil {
				s.config.OnSubmitError(e.id, err)
			}
			continue
		}

		s.mu.Lock()
		e.runs++
		s.mu.Unlock()

		if s.config.OnResult != nil {
			s.results.Add(1)
			go func(id string) {
				defer s.results.Done()
				_, err := h.Get()
				s.config.OnResult(id, err)
			}(e.id)
		}
	}
}
