// Package config loads poolctl run settings from YAML or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vnykmshr/taskpool/pkg/common/validation"
)

const moduleName = "config"

// FileConfig is the on-disk layout.
type FileConfig struct {
	Pool    PoolConfig    `yaml:"pool" json:"pool"`
	Load    LoadConfig    `yaml:"load" json:"load"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

// PoolConfig configures the worker pool.
type PoolConfig struct {
	Name    string `yaml:"name" json:"name"`
	Workers int    `yaml:"workers" json:"workers"`
}

// LoadConfig describes the work submitted to the pool.
type LoadConfig struct {
	Tasks        int     `yaml:"tasks" json:"tasks"`
	TaskDuration string  `yaml:"task_duration" json:"task_duration"`
	Producers    int     `yaml:"producers" json:"producers"`
	SubmitRate   float64 `yaml:"submit_rate" json:"submit_rate"`
	Burst        int     `yaml:"burst" json:"burst"`
	Square       int     `yaml:"square" json:"square"`
	FailEvery    int     `yaml:"fail_every" json:"fail_every"`
	Heartbeat    string  `yaml:"heartbeat" json:"heartbeat"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// LogConfig configures the run log.
type LogConfig struct {
	File string `yaml:"file" json:"file"`
}

// Config is the resolved set of run settings.
type Config struct {
	PoolName     string
	Workers      int
	Tasks        int
	TaskDuration time.Duration
	Producers    int
	SubmitRate   float64 // tasks per second, 0 means unpaced
	Burst        int
	Square       int
	FailEvery    int    // every n-th task returns an error, 0 disables
	Heartbeat    string // cron expression for a heartbeat task, empty disables
	MetricsAddr  string
	LogFile      string
}

// Default returns the settings of the classic demo: four workers, eight
// 100ms tasks and the square of 10.
func Default() Config {
	return Config{
		PoolName:     "poolctl",
		Workers:      4,
		Tasks:        8,
		TaskDuration: 100 * time.Millisecond,
		Producers:    1,
		Burst:        1,
		Square:       10,
	}
}

// LoadFile reads a YAML (.yaml, .yml) or JSON (.json) file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &fc, nil
}

// Apply overlays the non-zero values of f onto base.
func (f *FileConfig) Apply(base Config) (Config, error) {
	cfg := base

	if f.Pool.Name != "" {
		cfg.PoolName = f.Pool.Name
	}
	if f.Pool.Workers != 0 {
		cfg.Workers = f.Pool.Workers
	}

	if f.Load.Tasks != 0 {
		cfg.Tasks = f.Load.Tasks
	}
	if f.Load.TaskDuration != "" {
		d, err := time.ParseDuration(f.Load.TaskDuration)
		if err != nil {
			return base, fmt.Errorf("invalid task_duration: %w", err)
		}
		cfg.TaskDuration = d
	}
	if f.Load.Producers != 0 {
		cfg.Producers = f.Load.Producers
	}
	if f.Load.SubmitRate != 0 {
		cfg.SubmitRate = f.Load.SubmitRate
	}
	if f.Load.Burst != 0 {
		cfg.Burst = f.Load.Burst
	}
	if f.Load.Square != 0 {
		cfg.Square = f.Load.Square
	}
	if f.Load.FailEvery != 0 {
		cfg.FailEvery = f.Load.FailEvery
	}

	if f.Load.Heartbeat != "" {
		cfg.Heartbeat = f.Load.Heartbeat
	}

	if f.Metrics.Addr != "" {
		cfg.MetricsAddr = f.Metrics.Addr
	}
	if f.Log.File != "" {
		cfg.LogFile = f.Log.File
	}

	return cfg, nil
}

// Validate checks that the settings describe a runnable load.
func (c Config) Validate() error {
	if err := validation.ValidateNotEmpty(moduleName, "pool.name", c.PoolName); err != nil {
		return err
	}
	if err := validation.ValidatePositive(moduleName, "pool.workers", c.Workers); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative(moduleName, "load.tasks", float64(c.Tasks)); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative(moduleName, "load.task_duration", float64(c.TaskDuration)); err != nil {
		return err
	}
	if err := validation.ValidatePositive(moduleName, "load.producers", c.Producers); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative(moduleName, "load.submit_rate", c.SubmitRate); err != nil {
		return err
	}
	if c.SubmitRate > 0 {
		if err := validation.ValidatePositive(moduleName, "load.burst", c.Burst); err != nil {
			return err
		}
	}
	if err := validation.ValidateNonNegative(moduleName, "load.fail_every", float64(c.FailEvery)); err != nil {
		return err
	}
	return nil
}
