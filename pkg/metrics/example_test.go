package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Example_customRegistry demonstrates using a custom Prometheus registry.
func Example_customRegistry() {
	registry := NewRegistry(prometheus.NewRegistry())

	registry.TasksSubmitted.WithLabelValues("jobs").Add(3)
	registry.TasksCompleted.WithLabelValues("jobs").Add(2)
	registry.TasksFailed.WithLabelValues("jobs").Inc()

	fmt.Printf("submitted=%.0f completed=%.0f failed=%.0f\n",
		testutil.ToFloat64(registry.TasksSubmitted.WithLabelValues("jobs")),
		testutil.ToFloat64(registry.TasksCompleted.WithLabelValues("jobs")),
		testutil.ToFloat64(registry.TasksFailed.WithLabelValues("jobs")),
	)

	// Output:
	// submitted=3 completed=2 failed=1
}

// Example_configuration demonstrates different metrics configurations.
func Example_configuration() {
	defaultConfig := DefaultConfig()
	fmt.Printf("Default enabled: %v\n", defaultConfig.Enabled)
	fmt.Printf("Default namespace: %s\n", defaultConfig.Namespace)

	custom, err := NewRegistryWithConfig(Config{
		Enabled:   true,
		Registry:  prometheus.NewRegistry(),
		Namespace: "myapp",
	})
	fmt.Printf("Custom registry: %v, err: %v\n", custom != nil, err)

	// A disabled config yields no registry; pools built with it are not instrumented.
	disabled, err := NewRegistryWithConfig(Config{Enabled: false})
	fmt.Printf("Disabled registry: %v, err: %v\n", disabled != nil, err)

	// Output:
	// Default enabled: true
	// Default namespace: taskpool
	// Custom registry: true, err: <nil>
	// Disabled registry: false, err: <nil>
}
