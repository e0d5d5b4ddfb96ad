// Command poolctl runs a configurable load through a workerpool.Pool and
// reports how the workers shared it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kashari/golog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/netutil"

	"github.com/vnykmshr/taskpool/internal/config"
	"github.com/vnykmshr/taskpool/pkg/metrics"
)

var version = "dev"

// maxScrapeConns caps concurrent connections to the metrics endpoint.
const maxScrapeConns = 8

func main() {
	var (
		configFile   = flag.String("config", "", "config file (YAML/JSON)")
		workers      = flag.Int("workers", 0, "number of workers")
		tasks        = flag.Int("tasks", -1, "number of sleep tasks")
		taskDuration = flag.Duration("task-duration", 0, "how long each task sleeps")
		producers    = flag.Int("producers", 0, "goroutines submitting tasks")
		submitRate   = flag.Float64("rate", 0, "submissions per second across producers (0 = unpaced)")
		burst        = flag.Int("burst", 0, "submission burst when -rate is set")
		squareOf     = flag.Int("square", 0, "input of the square calculation task")
		failEvery    = flag.Int("fail-every", 0, "make every n-th task fail")
		heartbeat    = flag.String("heartbeat", "", "cron expression for a heartbeat task (e.g. \"@every 1s\")")
		metricsAddr  = flag.String("metrics-addr", "", "serve Prometheus metrics on this address")
		logFile      = flag.String("log", "", "write a run log to this file")
		noProgress   = flag.Bool("no-progress", false, "disable the progress bar")
		showVersion  = flag.Bool("version", false, "print version and exit")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `poolctl - drive a fixed-size worker pool

Usage:
  poolctl [options]

Options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Four workers, eight 100ms tasks, square of 10
  poolctl

  # From a file, with metrics
  poolctl --config load.yaml --metrics-addr :9100

  # Paced submission from several producers
  poolctl --workers 8 --tasks 200 --producers 4 --rate 500 --burst 20
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("poolctl version %s\n", version)
		return
	}

	cfg, err := buildConfig(*configFile, overrides{
		workers:      *workers,
		tasks:        *tasks,
		taskDuration: *taskDuration,
		producers:    *producers,
		submitRate:   *submitRate,
		burst:        *burst,
		square:       *squareOf,
		failEvery:    *failEvery,
		heartbeat:    *heartbeat,
		metricsAddr:  *metricsAddr,
		logFile:      *logFile,
	})
	if err != nil {
		_, _ = red.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, !*noProgress); err != nil {
		_, _ = red.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}
}

// overrides carries flag values; zero (or -1 for tasks) means "not set".
type overrides struct {
	workers      int
	tasks        int
	taskDuration time.Duration
	producers    int
	submitRate   float64
	burst        int
	square       int
	failEvery    int
	heartbeat    string
	metricsAddr  string
	logFile      string
}

// buildConfig resolves defaults, then the config file, then flags.
func buildConfig(configFile string, o overrides) (config.Config, error) {
	cfg := config.Default()

	if configFile != "" {
		fc, err := config.LoadFile(configFile)
		if err != nil {
			return cfg, err
		}
		if cfg, err = fc.Apply(cfg); err != nil {
			return cfg, err
		}
	}

	if o.workers != 0 {
		cfg.Workers = o.workers
	}
	if o.tasks >= 0 {
		cfg.Tasks = o.tasks
	}
	if o.taskDuration != 0 {
		cfg.TaskDuration = o.taskDuration
	}
	if o.producers != 0 {
		cfg.Producers = o.producers
	}
	if o.submitRate != 0 {
		cfg.SubmitRate = o.submitRate
	}
	if o.burst != 0 {
		cfg.Burst = o.burst
	}
	if o.square != 0 {
		cfg.Square = o.square
	}
	if o.failEvery != 0 {
		cfg.FailEvery = o.failEvery
	}
	if o.heartbeat != "" {
		cfg.Heartbeat = o.heartbeat
	}
	if o.metricsAddr != "" {
		cfg.MetricsAddr = o.metricsAddr
	}
	if o.logFile != "" {
		cfg.LogFile = o.logFile
	}

	return cfg, cfg.Validate()
}

func run(cfg config.Config, showProgress bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging := cfg.LogFile != ""
	if logging {
		if err := golog.Init(cfg.LogFile); err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		golog.Info("starting pool {} with {} workers", cfg.PoolName, cfg.Workers)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())
	registry, err := metrics.NewRegistryWithConfig(metrics.Config{
		Enabled:  cfg.MetricsAddr != "",
		Registry: promRegistry,
	})
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		ln, err := net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("listen on metrics address: %w", err)
		}
		go func() {
			if err := srv.Serve(netutil.LimitListener(ln, maxScrapeConns)); err != nil && !errors.Is(err, http.ErrServerClosed) {
				_, _ = red.Fprintf(os.Stderr, "metrics server: %v\n", err)
				if logging {
					golog.Error("metrics server failed: {}", err)
				}
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		_, _ = bold.Printf("Metrics at http://%s/metrics\n", cfg.MetricsAddr)
	}

	var progress io.Writer
	if showProgress {
		progress = os.Stderr
	}

	report, err := runLoad(ctx, cfg, registry, progress)
	if err != nil {
		if logging {
			golog.Error("run failed: {}", err)
		}
		return err
	}

	if logging {
		golog.Info("drained {} tasks in {} ({} failed)", len(report.Tasks), report.Elapsed, report.Failed)
	}
	return renderReport(os.Stdout, report)
}
