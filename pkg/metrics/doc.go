// Package metrics provides Prometheus instrumentation for taskpool components.
//
// # Overview
//
// The registry covers:
//   - Task lifecycle (submitted, rejected, completed, failed, panicked)
//   - Task timings (execution duration, time spent queued)
//   - Worker pool state (size, active workers)
//   - Task queue depth
//
// # Quick Start
//
// Create a pool with metrics enabled:
//
//	pool, err := workerpool.NewWithMetrics(4, "image_resize", prometheus.DefaultRegisterer)
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation, which is what tests do to
// avoid duplicate registration panics:
//
//	registry := metrics.NewRegistry(prometheus.NewRegistry())
//	pool, err := workerpool.NewWithConfig(workerpool.Config{
//		WorkerCount: 4,
//		Name:        "image_resize",
//		Metrics:     registry,
//	})
//
// # Metric Names
//
// All metrics live under the "taskpool" namespace by default:
//   - taskpool_workerpool_tasks_submitted_total{pool_name}
//   - taskpool_workerpool_tasks_rejected_total{pool_name}
//   - taskpool_workerpool_tasks_completed_total{pool_name}
//   - taskpool_workerpool_tasks_failed_total{pool_name}
//   - taskpool_workerpool_tasks_panicked_total{pool_name}
//   - taskpool_workerpool_task_duration_seconds{pool_name}
//   - taskpool_workerpool_task_queue_wait_seconds{pool_name}
//   - taskpool_workerpool_size{pool_name}
//   - taskpool_workerpool_active_workers{pool_name}
//   - taskpool_taskqueue_depth{queue_name}
package metrics
