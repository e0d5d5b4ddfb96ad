package workerpool

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	tperrors "github.com/vnykmshr/taskpool/pkg/common/errors"
	"github.com/vnykmshr/taskpool/pkg/common/validation"
	"github.com/vnykmshr/taskpool/pkg/metrics"
	"github.com/vnykmshr/taskpool/pkg/scheduling/taskqueue"
)

const moduleName = "workerpool"

// DefaultName labels metrics of pools created without a Config.Name.
const DefaultName = "default"

// ErrPoolClosed is matched (via errors.Is) by every submission rejected
// because the pool is shutting down or stopped.
var ErrPoolClosed = tperrors.ErrClosed

// State is the lifecycle phase of a Pool.
type State int32

const (
	// StateActive accepts submissions.
	StateActive State = iota
	// StateShuttingDown rejects submissions while workers drain the queue.
	StateShuttingDown
	// StateStopped is final: every worker has exited.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateShuttingDown:
		return "shutting down"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// TaskInfo describes one finished task execution.
type TaskInfo struct {
	// WorkerID identifies which worker executed the task
	WorkerID int

	// QueueWait is how long the task sat in the queue
	QueueWait time.Duration

	// Duration is how long the task took to execute
	Duration time.Duration

	// Err is the task's returned error, or a *errors.PanicError
	Err error
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// WorkerCount is the number of workers in the pool.
	// Must be greater than 0.
	WorkerCount int

	// Name labels the pool's metrics. Defaults to DefaultName.
	Name string

	// Metrics enables instrumentation when non-nil.
	Metrics *metrics.Registry

	// PanicHandler is called with the recovered value when a task panics.
	// The panic is stored in the task's Handle either way.
	PanicHandler func(recovered interface{})

	// OnWorkerStart is called when a worker starts.
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called when a worker stops.
	OnWorkerStop func(workerID int)

	// OnTaskStart is called before a task begins execution.
	OnTaskStart func(workerID int)

	// OnTaskComplete is called after a task completes (success or failure).
	OnTaskComplete func(info TaskInfo)
}

// job is what travels through the queue: a task bound to its Handle.
type job struct {
	// run executes the task, settles its Handle and returns the outcome.
	// It never panics.
	run       func() error
	submitted time.Time
}

// Pool is a fixed-size set of workers draining one shared FIFO queue.
// Create it with New, NewSafe, NewWithConfig or NewWithMetrics and always
// call Shutdown when done.
type Pool struct {
	config Config

	queue    *taskqueue.Queue[job]
	workers  []worker
	workerWg sync.WaitGroup

	// mu orders submissions against the Active -> ShuttingDown transition.
	mu    sync.RWMutex
	state State

	shutdownOnce sync.Once
	done         chan struct{}

	activeWorkers  atomic.Int32
	totalSubmitted atomic.Int64
	totalCompleted atomic.Int64
	totalFailed    atomic.Int64

	inst *instrumentation
}

// worker represents a single worker in the pool.
type worker struct {
	id   int
	pool *Pool
}

// New creates a pool with workerCount workers. It panics if workerCount < 1;
// use NewSafe to get an error instead.
func New(workerCount int) *Pool {
	p, err := NewSafe(workerCount)
	if err != nil {
		panic(err)
	}
	return p
}

// NewSafe creates a pool with workerCount workers, returning a
// *errors.ValidationError if workerCount < 1.
func NewSafe(workerCount int) (*Pool, error) {
	return NewWithConfig(Config{WorkerCount: workerCount})
}

// NewWithConfig creates a pool with the specified configuration.
// Either every worker is started or an error is returned and nothing is.
func NewWithConfig(config Config) (*Pool, error) {
	if err := validation.ValidatePositive(moduleName, "WorkerCount", config.WorkerCount); err != nil {
		return nil, err
	}
	if config.Name == "" {
		config.Name = DefaultName
	}

	p := &Pool{
		config: config,
		state:  StateActive,
		done:   make(chan struct{}),
		inst:   newInstrumentation(config.Name, config.Metrics),
	}

	if config.Metrics != nil {
		p.queue = taskqueue.NewWithMetrics[job](config.Name, config.Metrics)
	} else {
		p.queue = taskqueue.New[job]()
	}

	p.workers = make([]worker, config.WorkerCount)
	for i := range p.workers {
		p.workers[i] = worker{id: i, pool: p}
	}

	p.workerWg.Add(len(p.workers))
	for i := range p.workers {
		go p.workers[i].run()
	}
	p.inst.started(config.WorkerCount)

	return p, nil
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return p.config.WorkerCount
}

// Name returns the pool's metrics label.
func (p *Pool) Name() string {
	return p.config.Name
}

// QueueSize returns the number of tasks waiting for a worker.
func (p *Pool) QueueSize() int {
	return p.queue.Len()
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (p *Pool) ActiveWorkers() int {
	return int(p.activeWorkers.Load())
}

// TotalSubmitted returns the number of tasks accepted by the pool.
func (p *Pool) TotalSubmitted() int64 {
	return p.totalSubmitted.Load()
}

// TotalCompleted returns the number of tasks that finished executing,
// successfully or not.
func (p *Pool) TotalCompleted() int64 {
	return p.totalCompleted.Load()
}

// TotalFailed returns the number of tasks that returned an error or panicked.
func (p *Pool) TotalFailed() int64 {
	return p.totalFailed.Load()
}

// State returns the pool's lifecycle phase.
func (p *Pool) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Done returns a channel that is closed once the pool reaches StateStopped.
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

func (p *Pool) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}
