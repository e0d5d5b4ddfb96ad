package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	tperrors "github.com/vnykmshr/taskpool/pkg/common/errors"
)

const moduleName = "metrics"

// Registry holds all metric instances for taskpool components.
type Registry struct {
	// Task lifecycle
	TasksSubmitted        *prometheus.CounterVec
	TasksRejected         *prometheus.CounterVec
	TasksCompleted        *prometheus.CounterVec
	TasksFailed           *prometheus.CounterVec
	TasksPanicked         *prometheus.CounterVec
	TaskExecutionDuration *prometheus.HistogramVec
	TaskQueueWait         *prometheus.HistogramVec

	// Pool state
	WorkerPoolSize   *prometheus.GaugeVec
	WorkerPoolActive *prometheus.GaugeVec

	// Queue state
	QueueDepth *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by taskpool components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a metrics registry on reg and panics if the metrics
// conflict with collectors already registered there. Calling it again with
// the same reg returns a Registry sharing the existing collectors.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r, err := NewRegistryWithConfig(Config{Enabled: true, Registry: reg})
	if err != nil {
		panic(err)
	}
	return r
}

// NewRegistryWithConfig creates a registry honouring config. It returns a nil
// Registry when config.Enabled is false; components treat a nil Registry as
// "not instrumented". A nil config.Registry falls back to
// prometheus.DefaultRegisterer.
//
// Collectors identical to ones already registered on config.Registry are
// reused, so several pools may share one Registerer under distinct names.
// Any other registration conflict is returned as an error and leaves
// config.Registry as it was.
func NewRegistryWithConfig(config Config) (*Registry, error) {
	if !config.Enabled {
		return nil, nil
	}

	reg := config.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ns := config.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}

	r := newCollectors(ns)
	b := &binder{reg: reg}

	bindVec(b, &r.TasksSubmitted)
	bindVec(b, &r.TasksRejected)
	bindVec(b, &r.TasksCompleted)
	bindVec(b, &r.TasksFailed)
	bindVec(b, &r.TasksPanicked)
	bindVec(b, &r.TaskExecutionDuration)
	bindVec(b, &r.TaskQueueWait)
	bindVec(b, &r.WorkerPoolSize)
	bindVec(b, &r.WorkerPoolActive)
	bindVec(b, &r.QueueDepth)

	if b.err != nil {
		b.rollback()
		return nil, tperrors.NewOperationError(moduleName, "Register", b.err)
	}
	return r, nil
}

// binder registers collectors one by one and remembers the first failure.
type binder struct {
	reg   prometheus.Registerer
	added []prometheus.Collector
	err   error
}

// bindVec registers *c on b.reg. If an identical collector is already
// registered, *c is replaced by it.
func bindVec[C prometheus.Collector](b *binder, c *C) {
	if b.err != nil {
		return
	}

	err := b.reg.Register(*c)
	if err == nil {
		b.added = append(b.added, *c)
		return
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			*c = existing
			return
		}
		err = fmt.Errorf("collector of type %T already registered", are.ExistingCollector)
	}
	b.err = err
}

func (b *binder) rollback() {
	for _, c := range b.added {
		b.reg.Unregister(c)
	}
}

func newCollectors(ns string) *Registry {
	return &Registry{
		TasksSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "tasks_submitted_total",
				Help:      "Total number of tasks accepted for execution",
			},
			[]string{"pool_name"},
		),

		TasksRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "tasks_rejected_total",
				Help:      "Total number of submissions rejected because the pool was shutting down",
			},
			[]string{"pool_name"},
		),

		TasksCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "tasks_completed_total",
				Help:      "Total number of tasks that finished without error",
			},
			[]string{"pool_name"},
		),

		TasksFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "tasks_failed_total",
				Help:      "Total number of tasks that returned an error or panicked",
			},
			[]string{"pool_name"},
		),

		TasksPanicked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "tasks_panicked_total",
				Help:      "Total number of tasks whose body panicked",
			},
			[]string{"pool_name"},
		),

		TaskExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "task_duration_seconds",
				Help:      "Time spent executing tasks",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool_name"},
		),

		TaskQueueWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "task_queue_wait_seconds",
				Help:      "Time tasks spent queued before a worker picked them up",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool_name"},
		),

		WorkerPoolSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "size",
				Help:      "Number of live workers in the pool",
			},
			[]string{"pool_name"},
		),

		WorkerPoolActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "active_workers",
				Help:      "Number of workers currently executing a task",
			},
			[]string{"pool_name"},
		),

		QueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "taskqueue",
				Name:      "depth",
				Help:      "Number of tasks waiting in the queue",
			},
			[]string{"queue_name"},
		),
	}
}
