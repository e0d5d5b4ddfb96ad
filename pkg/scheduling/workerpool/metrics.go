package workerpool

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/taskpool/pkg/metrics"
)

// NewWithMetrics creates a pool whose metrics are registered with reg under
// the pool_name label name. A nil reg uses metrics.DefaultRegistry. Several
// pools may share one Registerer as long as their names differ; a
// registration conflict on reg is returned as an error and no worker is
// started.
func NewWithMetrics(workerCount int, name string, reg prometheus.Registerer) (*Pool, error) {
	registry := metrics.DefaultRegistry
	if reg != nil {
		var err error
		registry, err = metrics.NewRegistryWithConfig(metrics.Config{Enabled: true, Registry: reg})
		if err != nil {
			return nil, err
		}
	}

	return NewWithConfig(Config{
		WorkerCount: workerCount,
		Name:        name,
		Metrics:     registry,
	})
}

// instrumentation records pool metrics. A nil *instrumentation is a no-op.
type instrumentation struct {
	name     string
	registry *metrics.Registry
}

func newInstrumentation(name string, registry *metrics.Registry) *instrumentation {
	if registry == nil {
		return nil
	}
	return &instrumentation{name: name, registry: registry}
}

func (i *instrumentation) started(workers int) {
	if i == nil {
		return
	}
	i.registry.WorkerPoolSize.WithLabelValues(i.name).Set(float64(workers))
	i.registry.WorkerPoolActive.WithLabelValues(i.name).Set(0)
}

func (i *instrumentation) stopped() {
	if i == nil {
		return
	}
	i.registry.WorkerPoolSize.WithLabelValues(i.name).Set(0)
	i.registry.WorkerPoolActive.WithLabelValues(i.name).Set(0)
}

func (i *instrumentation) submitted() {
	if i == nil {
		return
	}
	i.registry.TasksSubmitted.WithLabelValues(i.name).Inc()
}

func (i *instrumentation) rejected() {
	if i == nil {
		return
	}
	i.registry.TasksRejected.WithLabelValues(i.name).Inc()
}

func (i *instrumentation) taskStarted() {
	if i == nil {
		return
	}
	i.registry.WorkerPoolActive.WithLabelValues(i.name).Inc()
}

func (i *instrumentation) taskEnded() {
	if i == nil {
		return
	}
	i.registry.WorkerPoolActive.WithLabelValues(i.name).Dec()
}

func (i *instrumentation) finished(wait, duration time.Duration, err error, panicked bool) {
	if i == nil {
		return
	}
	i.registry.TaskQueueWait.WithLabelValues(i.name).Observe(wait.Seconds())
	i.registry.TaskExecutionDuration.WithLabelValues(i.name).Observe(duration.Seconds())

	if err != nil {
		i.registry.TasksFailed.WithLabelValues(i.name).Inc()
	} else {
		i.registry.TasksCompleted.WithLabelValues(i.name).Inc()
	}
	if panicked {
		i.registry.TasksPanicked.WithLabelValues(i.name).Inc()
	}
}
